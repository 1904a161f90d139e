// Package config loads the service configuration from environment
// variables. Configuration is read exactly once at startup; a missing
// credential or shared secret is a fatal condition surfaced as an error so
// the process never starts serving half-configured.
package config

import (
	"fmt"
	"os"
)

// Config bundles every externally supplied setting.
type Config struct {
	// SpotifyClientID and SpotifyClientSecret authenticate the
	// client-credentials flow against the Spotify accounts service.
	SpotifyClientID     string
	SpotifyClientSecret string

	// SharedSecret is the bearer credential inbound callers must present
	// on every tool invocation request.
	SharedSecret string

	// DatabasePath locates the SQLite file holding invocation history.
	DatabasePath string

	// Addr is the listen address, derived from PORT.
	Addr string

	// LogLevel is the logrus level name, defaulting to "info".
	LogLevel string
}

// FromEnv reads configuration from the process environment. It returns an
// error when any required value is absent so callers can abort startup.
func FromEnv() (Config, error) {
	cfg := Config{
		SpotifyClientID:     os.Getenv("SPOTIFY_CLIENT_ID"),
		SpotifyClientSecret: os.Getenv("SPOTIFY_CLIENT_SECRET"),
		SharedSecret:        os.Getenv("MCP_SHARED_SECRET"),
		DatabasePath:        os.Getenv("DATABASE_PATH"),
		LogLevel:            os.Getenv("LOG_LEVEL"),
	}
	if cfg.SpotifyClientID == "" || cfg.SpotifyClientSecret == "" {
		return Config{}, fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set")
	}
	if cfg.SharedSecret == "" {
		return Config{}, fmt.Errorf("MCP_SHARED_SECRET must be set")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = "insights.db"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	cfg.Addr = ":" + port
	return cfg, nil
}
