// Package config loads the configuration of the garage tools.
//
// Configuration is layered with koanf, later layers overriding earlier ones:
//  1. Defaults: built-in values from [Default]
//  2. Config file: an optional YAML file
//  3. Environment: GARAGE_ variables, e.g. GARAGE_DATABASE_PATH or GARAGE_LOG_LEVEL
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/adamkeys/garage/internal/logging"
)

// EnvPrefix is the prefix of the environment variables read by [Load].
const EnvPrefix = "GARAGE_"

// ConfigPathEnvVar is the environment variable that names the config file when no path is given to [Load].
const ConfigPathEnvVar = EnvPrefix + "CONFIG"

// Config is the configuration of the garage tools.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      logging.Config `koanf:"log"`
}

// DatabaseConfig locates the SQLite database.
type DatabaseConfig struct {
	// Path is the SQLite database file. ":memory:" keeps the database in memory.
	Path string `koanf:"path"`
}

// Default returns the configuration used when no file or environment override is present.
func Default() Config {
	return Config{
		Database: DatabaseConfig{Path: "garage.db"},
		Log:      logging.Config{Level: "info", Format: "console"},
	}
}

// Load returns the configuration built from the defaults, the YAML file at path and the environment. An empty path
// falls back to $GARAGE_CONFIG; when neither is set no file is read. A named file that does not exist is an error.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = os.Getenv(ConfigPathEnvVar)
	}
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("config file: %w", err)
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports configuration that cannot be used.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return errors.New("config: database.path must be set")
	}
	return nil
}

// envKey maps GARAGE_DATABASE_PATH to database.path. The first underscore after the prefix separates the section from
// the key.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if key == "config" {
		return ""
	}
	return strings.Replace(key, "_", ".", 1)
}
