// Command garage keeps the maintenance records of a garage.
package main

import (
	"fmt"
	"os"

	"github.com/adamkeys/garage/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
