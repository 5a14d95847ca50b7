// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig; loader failures wrap ErrLoadConfig.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// ShardCount configures the number of lock shards in the counter store.
	ShardCount int `koanf:"shard_count"`

	// MetricsUpdateIntervalMS controls how often per-shard gauges are refreshed.
	MetricsUpdateIntervalMS int `koanf:"metrics_update_interval_ms"`

	// MaxNameLength caps the length of a counter name in bytes.
	MaxNameLength int `koanf:"max_name_length"`

	// HTTP server timeouts.
	ReadTimeoutMS     int `koanf:"read_timeout_ms"`
	WriteTimeoutMS    int `koanf:"write_timeout_ms"`
	ShutdownTimeoutMS int `koanf:"shutdown_timeout_ms"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		LogFormat:               "text",
		Addr:                    ":9080",
		ShardCount:              16,
		MetricsUpdateIntervalMS: 5_000,
		MaxNameLength:           256,
		ReadTimeoutMS:           10_000,
		WriteTimeoutMS:          10_000,
		ShutdownTimeoutMS:       30_000,
	}
}

// Validate reports the first invalid field, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.ShardCount < 1:
		return fmt.Errorf("%w: shard_count must be positive, got %d", ErrInvalidConfig, c.ShardCount)
	case c.MaxNameLength < 1:
		return fmt.Errorf("%w: max_name_length must be positive, got %d", ErrInvalidConfig, c.MaxNameLength)
	case c.MetricsUpdateIntervalMS < 1:
		return fmt.Errorf("%w: metrics_update_interval_ms must be positive", ErrInvalidConfig)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}

// MetricsUpdateInterval returns MetricsUpdateIntervalMS as a duration.
func (c *Config) MetricsUpdateInterval() time.Duration {
	return time.Duration(c.MetricsUpdateIntervalMS) * time.Millisecond
}

// ReadTimeout returns ReadTimeoutMS as a duration.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// WriteTimeout returns WriteTimeoutMS as a duration.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}

// ShutdownTimeout returns ShutdownTimeoutMS as a duration.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutMS) * time.Millisecond
}
