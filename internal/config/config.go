// Package config defines service configuration and its loading order.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// QueueSize bounds the pending sync job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of reconcile workers.
	WorkerCount int `koanf:"worker_count"`
	// SyncIntervalMS schedules background syncs; 0 disables the loop.
	SyncIntervalMS int `koanf:"sync_interval_ms"`
	// SyncTimeoutMS bounds one sync round-trip through the worker pool.
	SyncTimeoutMS int `koanf:"sync_timeout_ms"`
	// DatabaseURL points at the Postgres database holding the live assets table.
	// Empty disables the live feed and serves fixtures only.
	DatabaseURL string `koanf:"database_url"`
	// FixturePath is a GeoJSON or YAML fixture file; empty uses the embedded set.
	FixturePath string `koanf:"fixture_path"`
	// ExcludedIDs lists ids or names that never appear in reconciled output.
	ExcludedIDs []string `koanf:"excluded_ids"`
	// SampleWindow is the per-asset rolling telemetry window capacity.
	SampleWindow int `koanf:"sample_window"`
	// MaxSearchResults caps GET /assets responses when a query is given.
	MaxSearchResults int `koanf:"max_search_results"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		QueueSize:        64,
		WorkerCount:      runtime.NumCPU(),
		SyncIntervalMS:   30_000,
		SyncTimeoutMS:    10_000,
		ExcludedIDs:      []string{"pipe-p10-s5", "pipe-p9-s3", "Borewell P8", "PIPE-P10-S5", "PIPE-P9-S3", "BW-P8"},
		SampleWindow:     100,
		MaxSearchResults: 500,
	}
}

// SyncInterval returns SyncIntervalMS as a duration.
func (c *Config) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalMS) * time.Millisecond
}

// SyncTimeout returns SyncTimeoutMS as a duration.
func (c *Config) SyncTimeout() time.Duration {
	return time.Duration(c.SyncTimeoutMS) * time.Millisecond
}
