// Package cli implements the garage command line.
package cli

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamkeys/garage/internal/config"
	"github.com/adamkeys/garage/internal/logging"
	"github.com/adamkeys/garage/internal/store"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Database   string
	Verbose    bool
	Format     string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// dateLayout is the layout of dates given on the command line.
const dateLayout = "2006-01-02"

// NewRootCommand creates the root command of the garage CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "garage",
		Short: "Garage maintenance records",
		Long:  "Keep track of the cars of a garage, their interventions and the consumables they use.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flags",
					fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to YAML config file (default $"+config.ConfigPathEnvVar+")")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides database.path)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log executed statements")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewCarCommand(opts))
	cmd.AddCommand(NewInterventionCommand(opts))
	cmd.AddCommand(NewOperationCommand(opts))
	cmd.AddCommand(NewConsumableCommand(opts))
	cmd.AddCommand(NewPropertyCommand(opts))

	return cmd
}

// withStore loads the configuration, opens the store and runs fn with it.
func withStore(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, st *store.Store) error) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.Database != "" {
		cfg.Database.Path = opts.Database
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	}
	cfg.Log.Output = cmd.ErrOrStderr()

	log, err := logging.New(cfg.Log)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log configuration", err)
	}

	st, err := store.Open(cfg.Database.Path, log)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, st)
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, WrapExitError(ExitCommandError, "invalid arguments", fmt.Errorf("invalid id %q", s))
	}
	return id, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, WrapExitError(ExitCommandError, "invalid arguments", fmt.Errorf("invalid date %q: want YYYY-MM-DD", s))
	}
	return t, nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateLayout)
}
