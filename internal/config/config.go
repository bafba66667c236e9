// Package config loads daemon configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds everything the consumer needs to run.
type Config struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`

	// LiveDataFile is the append-only JSONL file to tail.
	LiveDataFile string `envconfig:"LIVE_DATA_FILE"`

	// DBPath is the SQLite database file. It is removed and recreated on
	// every run, so the aggregate state always matches a cursor starting
	// at byte zero.
	DBPath string `envconfig:"SQLITE_DB_PATH"`

	IntervalSecs int `envconfig:"MESSAGE_INTERVAL_SECONDS" default:"5"`

	// ReportEvery is the number of stored messages between analytics
	// reports.
	ReportEvery int `envconfig:"REPORT_EVERY" default:"10"`

	// MetricsAddr enables the Prometheus endpoint when non-empty,
	// e.g. ":9090".
	MetricsAddr string `envconfig:"METRICS_ADDR"`
}

// Load reads and validates the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, fmt.Errorf("process env: %w", err)
	}
	if cfg.LiveDataFile == "" {
		return cfg, fmt.Errorf("LIVE_DATA_FILE is required")
	}
	if cfg.DBPath == "" {
		return cfg, fmt.Errorf("SQLITE_DB_PATH is required")
	}
	if cfg.IntervalSecs <= 0 {
		return cfg, fmt.Errorf("MESSAGE_INTERVAL_SECONDS must be positive, got %d", cfg.IntervalSecs)
	}
	if cfg.ReportEvery <= 0 {
		return cfg, fmt.Errorf("REPORT_EVERY must be positive, got %d", cfg.ReportEvery)
	}
	return cfg, nil
}

// Interval returns the poll interval as a duration.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalSecs) * time.Second
}
