// Package config loads server configuration from a YAML file with
// environment variable overrides (DRISHTI_*). Command-line flags, applied
// by the caller, take precedence over both.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Config is the top-level server configuration, corresponding to
// drishti.yml.
type Config struct {
	// Host and Port form the HTTP listen address.
	Host string `yaml:"host" koanf:"host"`
	Port int    `yaml:"port" koanf:"port"`

	// DBPath is the SQLite database file holding repository snapshots.
	DBPath string `yaml:"db_path" koanf:"db_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" koanf:"log_level"`

	// PhaseMillis is the duration of each transition animation phase.
	PhaseMillis int `yaml:"phase_millis" koanf:"phase_millis"`

	// ImportRPS throttles snapshot import requests per second.
	ImportRPS float64 `yaml:"import_rps" koanf:"import_rps"`

	// SeedDemo loads a small demo snapshot on startup when the database
	// holds no repositories.
	SeedDemo bool `yaml:"seed_demo" koanf:"seed_demo"`
}

// DefaultConfig returns the configuration used when no file or overrides
// are present.
func DefaultConfig() *Config {
	return &Config{
		Host:        "0.0.0.0",
		Port:        8080,
		DBPath:      "drishti.db",
		LogLevel:    "info",
		PhaseMillis: 250,
		ImportRPS:   2,
		SeedDemo:    true,
	}
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (DRISHTI_PORT -> port, etc.). A missing
// file is not an error; defaults apply.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider("DRISHTI_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "DRISHTI_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validLogLevels is the set of recognized log_level values.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("db_path is required")
	}
	if c.LogLevel != "" && !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	if c.PhaseMillis < 0 {
		return fmt.Errorf("phase_millis must be non-negative")
	}
	if c.ImportRPS <= 0 {
		return fmt.Errorf("import_rps must be positive")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
