// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBPath        string
	ListenAddr    string
	PollInterval  time.Duration
	RefreshWindow time.Duration
}

// Load reads configuration from environment variables and returns a validated
// Config. All variables are optional: GHDESK_DB_PATH (ghdesk.db),
// GHDESK_LISTEN_ADDR (127.0.0.1:8737), GHDESK_POLL_INTERVAL (1m), and
// GHDESK_REFRESH_WINDOW (5m), the time a completed refresh stays fresh.
func Load() (*Config, error) {
	dbPath := "ghdesk.db"
	if v, ok := os.LookupEnv("GHDESK_DB_PATH"); ok {
		dbPath = v
	}

	listenAddr := "127.0.0.1:8737"
	if v, ok := os.LookupEnv("GHDESK_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	pollInterval := time.Minute
	if v, ok := os.LookupEnv("GHDESK_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("GHDESK_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		pollInterval = parsed
	}

	refreshWindow := 5 * time.Minute
	if v, ok := os.LookupEnv("GHDESK_REFRESH_WINDOW"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("GHDESK_REFRESH_WINDOW has invalid duration %q: %w", v, err)
		}
		refreshWindow = parsed
	}

	return &Config{
		DBPath:        dbPath,
		ListenAddr:    listenAddr,
		PollInterval:  pollInterval,
		RefreshWindow: refreshWindow,
	}, nil
}
