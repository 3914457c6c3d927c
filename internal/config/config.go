// Package config loads linkedit settings from TOML and watches the
// file for live reload.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ErrInvalid indicates a configuration that fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all linkedit settings.
type Config struct {
	Refresh RefreshConfig `toml:"refresh"`
	Log     LogConfig     `toml:"log"`
	Server  ServerConfig  `toml:"server"`
}

// RefreshConfig controls the refresh pipeline.
type RefreshConfig struct {
	// RequestTimeoutMS bounds a single provider request.
	RequestTimeoutMS int `toml:"request_timeout_ms"`
	// MaxSelections caps how many selections one cycle fans out for.
	MaxSelections int `toml:"max_selections"`
}

// RequestTimeout returns the request timeout as a duration.
func (r RefreshConfig) RequestTimeout() time.Duration {
	return time.Duration(r.RequestTimeoutMS) * time.Millisecond
}

// LogConfig controls logging output.
type LogConfig struct {
	// Verbosity maps to commonlog verbosity levels; 0 is errors only.
	Verbosity int `toml:"verbosity"`
	// Path directs log output to a file; empty means stderr.
	Path string `toml:"path"`
}

// ServerConfig describes the language server to spawn.
type ServerConfig struct {
	Command    string   `toml:"command"`
	Args       []string `toml:"args"`
	LanguageID string   `toml:"language_id"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Refresh: RefreshConfig{
			RequestTimeoutMS: 5000,
			MaxSelections:    64,
		},
		Log: LogConfig{
			Verbosity: 0,
		},
		Server: ServerConfig{
			LanguageID: "html",
		},
	}
}

// Load reads the config at path, applying values over the defaults.
// A missing file is not an error and yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Refresh.RequestTimeoutMS <= 0 {
		return fmt.Errorf("%w: refresh.request_timeout_ms must be positive", ErrInvalid)
	}
	if c.Refresh.MaxSelections <= 0 {
		return fmt.Errorf("%w: refresh.max_selections must be positive", ErrInvalid)
	}
	if c.Log.Verbosity < 0 {
		return fmt.Errorf("%w: log.verbosity must not be negative", ErrInvalid)
	}
	return nil
}
