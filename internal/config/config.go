// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Emberbot Contributors

// Package config loads and validates emberbot configuration.
//
// Configuration is layered: built-in defaults, then an optional YAML file,
// then command line flags. The YAML file is checked against a generated
// JSON Schema before it is decoded, so typos surface as validation errors
// instead of silently ignored keys.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/emberbot/emberbot/internal/xdg"
)

// Config is the root configuration for the emberbot process.
type Config struct {
	Console ConsoleConfig `koanf:"console" json:"console,omitempty"`
	Metrics MetricsConfig `koanf:"metrics" json:"metrics,omitempty"`
	Log     LogConfig     `koanf:"log" json:"log,omitempty"`
	Cache   CacheConfig   `koanf:"cache" json:"cache,omitempty"`
	Updater UpdaterConfig `koanf:"updater" json:"updater,omitempty"`
	Aliases AliasConfig   `koanf:"aliases" json:"aliases,omitempty"`
}

// ConsoleConfig configures the TCP console server.
type ConsoleConfig struct {
	// Addr is the listen address for the console server.
	Addr string `koanf:"addr" json:"addr,omitempty"`

	// Greeting overrides the banner sent to connecting clients.
	Greeting string `koanf:"greeting" json:"greeting,omitempty"`

	// AdminPasswordHash is the argon2id hash checked by the auth command.
	// Generate one with 'emberbot hash-password'. Empty disables admin
	// access entirely.
	AdminPasswordHash string `koanf:"admin_password_hash" json:"admin_password_hash,omitempty"`

	RateLimit RateLimitConfig `koanf:"rate_limit" json:"rate_limit,omitempty"`
}

// RateLimitConfig configures per-session command rate limiting.
type RateLimitConfig struct {
	// Burst is the number of commands a session may issue back to back.
	Burst int `koanf:"burst" json:"burst,omitempty"`

	// SustainedRate is the number of commands per second allowed after the
	// burst is spent.
	SustainedRate float64 `koanf:"sustained_rate" json:"sustained_rate,omitempty"`
}

// MetricsConfig configures the metrics and health HTTP server.
type MetricsConfig struct {
	// Addr is the listen address. Empty disables the server.
	Addr string `koanf:"addr" json:"addr,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format" json:"format,omitempty" jsonschema:"enum=json,enum=text"`
	Level  string `koanf:"level" json:"level,omitempty" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
}

// CacheConfig configures the persistent release cache.
type CacheConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled,omitempty"`

	// Path is the SQLite database location. Empty places it under the XDG
	// cache directory.
	Path string `koanf:"path" json:"path,omitempty"`
}

// UpdaterConfig configures the background release checker.
type UpdaterConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled,omitempty"`

	// Interval between release checks, as a Go duration string.
	Interval string `koanf:"interval" json:"interval,omitempty"`
}

// AliasConfig configures command aliases.
type AliasConfig struct {
	Enabled bool `koanf:"enabled" json:"enabled,omitempty"`
}

// Default values for the configuration layers and their flags.
const (
	DefaultConsoleAddr = "127.0.0.1:2323"
	DefaultMetricsAddr = "127.0.0.1:9100"
	DefaultLogFormat   = "json"
	DefaultLogLevel    = "info"
	DefaultInterval    = "6h"
)

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Console: ConsoleConfig{
			Addr: DefaultConsoleAddr,
		},
		Metrics: MetricsConfig{
			Addr: DefaultMetricsAddr,
		},
		Log: LogConfig{
			Format: DefaultLogFormat,
			Level:  DefaultLogLevel,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Updater: UpdaterConfig{
			Enabled:  true,
			Interval: DefaultInterval,
		},
		Aliases: AliasConfig{
			Enabled: true,
		},
	}
}

// DefaultPath returns the default config file location under the XDG config
// directory.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigDir(), "config.yaml")
}

// Load builds the configuration from defaults, the YAML file at path when
// one is given, and any changed flags. Flag names use dots matching the
// config keys, for example log.level.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()

	k := koanf.New(".")

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, oops.
				Code("CONFIG_READ_FAILED").
				With("path", path).
				Wrapf(err, "failed to read config file")
		}
		if err := ValidateSchema(data); err != nil {
			return Config{}, oops.
				Code("CONFIG_SCHEMA_FAILED").
				With("path", path).
				Wrapf(err, "config file failed schema validation")
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.
				Code("CONFIG_PARSE_FAILED").
				With("path", path).
				Wrapf(err, "failed to parse config file")
		}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, oops.
				Code("CONFIG_FLAGS_FAILED").
				Wrapf(err, "failed to apply command line flags")
		}
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.
			Code("CONFIG_PARSE_FAILED").
			With("path", path).
			Wrapf(err, "failed to decode configuration")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the process cannot run with.
func (c *Config) Validate() error {
	if c.Console.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("console.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.
			Code("CONFIG_INVALID").
			Errorf("log.format must be 'json' or 'text', got %q", c.Log.Format)
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return oops.
			Code("CONFIG_INVALID").
			Errorf("log.level must be one of debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Console.RateLimit.Burst < 0 {
		return oops.
			Code("CONFIG_INVALID").
			Errorf("console.rate_limit.burst must not be negative")
	}
	if c.Console.RateLimit.SustainedRate < 0 {
		return oops.
			Code("CONFIG_INVALID").
			Errorf("console.rate_limit.sustained_rate must not be negative")
	}
	if hash := c.Console.AdminPasswordHash; hash != "" && !strings.HasPrefix(hash, "$argon2id$") {
		return oops.
			Code("CONFIG_INVALID").
			Errorf("console.admin_password_hash must be an argon2id hash, generate one with 'emberbot hash-password'")
	}
	if c.Updater.Enabled {
		d, err := time.ParseDuration(c.Updater.Interval)
		if err != nil {
			return oops.
				Code("CONFIG_INVALID").
				Errorf("updater.interval is not a valid duration: %q", c.Updater.Interval)
		}
		if d <= 0 {
			return oops.
				Code("CONFIG_INVALID").
				Errorf("updater.interval must be positive, got %q", c.Updater.Interval)
		}
	}
	return nil
}

// ResolvePath returns the cache database location, defaulting to the XDG
// cache directory when no explicit path is configured.
func (c CacheConfig) ResolvePath() string {
	if c.Path != "" {
		return c.Path
	}
	return filepath.Join(xdg.CacheDir(), "cache.db")
}

// CheckInterval returns the parsed updater interval, or zero when the
// configured value does not parse. Zero tells the updater to use its own
// default.
func (c UpdaterConfig) CheckInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil {
		return 0
	}
	return d
}
