// Package logging configures the zerolog logger used by the garage tools.
//
//	log, err := logging.New(logging.Config{Level: "debug", Format: "console"})
//	log.Info().Str("db", path).Msg("store opened")
//
// Statements run through the query package are logged at debug level by passing [QueryLogger] as the
// query.Options logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error or disabled.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Output is the writer for log output.
	// Default: os.Stderr
	Output io.Writer `koanf:"-"`
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: "json",
		Output: os.Stderr,
	}
}

// New returns a logger configured by cfg. Empty fields take their default value.
func New(cfg Config) (zerolog.Logger, error) {
	def := DefaultConfig()
	if cfg.Level == "" {
		cfg.Level = def.Level
	}
	if cfg.Format == "" {
		cfg.Format = def.Format
	}
	if cfg.Output == nil {
		cfg.Output = def.Output
	}

	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("log level: %w", err)
	}

	output := cfg.Output
	switch strings.ToLower(cfg.Format) {
	case "json":
	case "console":
		output = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: time.Kitchen}
	default:
		return zerolog.Nop(), fmt.Errorf("log format: unknown format %q", cfg.Format)
	}

	return zerolog.New(output).Level(level).With().Timestamp().Logger(), nil
}

// QueryLogger returns a function suitable for query.Options.Logger that writes each statement and its bound values
// to log at debug level.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func QueryLogger(log zerolog.Logger) func(query string, args []any) {
	return func(query string, args []any) {
		log.Debug().Str("sql", query).Interface("args", args).Msg("statement")
	}
}
