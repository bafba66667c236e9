package config

import (
	"testing"
	"time"
)

func setValidEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LIVE_DATA_FILE", "/tmp/live.jsonl")
	t.Setenv("SQLITE_DB_PATH", "/tmp/feed.db")
	t.Setenv("MESSAGE_INTERVAL_SECONDS", "2")
}

func TestLoadValid(t *testing.T) {
	setValidEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.LiveDataFile != "/tmp/live.jsonl" {
		t.Errorf("unexpected live data file %q", cfg.LiveDataFile)
	}
	if cfg.Interval() != 2*time.Second {
		t.Errorf("expected 2s interval, got %v", cfg.Interval())
	}
	if cfg.ReportEvery != 10 {
		t.Errorf("expected default report cadence 10, got %d", cfg.ReportEvery)
	}
}

func TestLoadMissingPaths(t *testing.T) {
	setValidEnv(t)
	t.Setenv("LIVE_DATA_FILE", "")
	if _, err := Load(); err == nil {
		t.Error("expected error without LIVE_DATA_FILE")
	}

	setValidEnv(t)
	t.Setenv("SQLITE_DB_PATH", "")
	if _, err := Load(); err == nil {
		t.Error("expected error without SQLITE_DB_PATH")
	}
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	setValidEnv(t)
	t.Setenv("MESSAGE_INTERVAL_SECONDS", "0")
	if _, err := Load(); err == nil {
		t.Error("expected error for zero interval")
	}
}
