// Package config provides configuration helpers for evergreen commands.
package config

import (
	"os"
)

// Default command configuration.
const (
	DefaultPort       = "8080"
	DefaultLogLevel   = "info"
	DefaultServerAddr = "localhost:8080"
)

// Port returns the HTTP port from PORT env var or default.
func Port() string {
	return env("PORT", DefaultPort)
}

// ConfigPath returns the TOML config path from EVERGREEN_CONFIG env var.
// Empty means built-in defaults.
func ConfigPath() string {
	return os.Getenv("EVERGREEN_CONFIG")
}

// TrackerURL returns the upstream tracker URL from TRACKER_URL env var.
// Empty means no upstream tracker.
func TrackerURL() string {
	return os.Getenv("TRACKER_URL")
}

// LogLevel returns the log level from LOG_LEVEL env var or default.
func LogLevel() string {
	return env("LOG_LEVEL", DefaultLogLevel)
}

// ServerAddr returns the evergreen server address from EVERGREEN_ADDR env
// var or default.
func ServerAddr() string {
	return env("EVERGREEN_ADDR", DefaultServerAddr)
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
