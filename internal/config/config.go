// Package config loads the shell configuration file (~/.mysqlshrc.yml).
// Everything has a sensible default; a missing file is not an error.
package config

import (
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/SandeepSethia/mysql-shell/internal/errs"
)

// Config holds the user-tunable shell settings.
type Config struct {
	// Log settings, passed to the logger package.
	LogLevel  string `yaml:"logLevel"`
	LogFormat string `yaml:"logFormat"`

	// DefaultMode is the surface the shell starts in: sql, js, or py.
	DefaultMode string `yaml:"defaultMode"`

	// Prompt overrides the interactive prompt prefix.
	Prompt string `yaml:"prompt"`

	// Strict makes discarding a half-read result an error.
	Strict bool `yaml:"strict"`

	// Session timeouts, in seconds.
	ConnectTimeout int `yaml:"connectTimeout"`
	SocketTimeout  int `yaml:"socketTimeout"`
}

// Default returns the settings used when no file exists.
func Default() *Config {
	return &Config{
		LogLevel:       "info",
		LogFormat:      "console",
		DefaultMode:    "sql",
		Prompt:         "mysqlsh",
		ConnectTimeout: 10,
	}
}

// Path returns the config file location, honouring MYSQLSH_CONFIG.
func Path() string {
	if p := os.Getenv("MYSQLSH_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mysqlshrc.yml"
	}
	return filepath.Join(home, ".mysqlshrc.yml")
}

// Load reads the config file at path, falling back to defaults when the
// file is absent. A malformed file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errs.Wrap(errs.KindInternal, "cannot read configuration file", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errs.Wrap(errs.KindInternal, "malformed configuration file", err)
	}
	return cfg, nil
}

// ConnectTimeoutDuration returns the connect timeout as a duration.
func (c *Config) ConnectTimeoutDuration() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

// SocketTimeoutDuration returns the per-statement timeout as a duration.
func (c *Config) SocketTimeoutDuration() time.Duration {
	return time.Duration(c.SocketTimeout) * time.Second
}
