package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config captures environment driven configuration values for the matcher
// service. Values are read from MATCHER_* variables with defaults suitable
// for local development.
type Config struct {
	HTTPPort           int    `env:"MATCHER_HTTP_PORT" envDefault:"8080"`
	SQLiteDSN          string `env:"MATCHER_SQLITE_DSN" envDefault:"file:matcher.db"`
	LogLevel           string `env:"MATCHER_LOG_LEVEL" envDefault:"info"`
	PendingInviteLimit int    `env:"MATCHER_PENDING_INVITE_LIMIT" envDefault:"3"`
	DefaultMatchLimit  int    `env:"MATCHER_DEFAULT_MATCH_LIMIT" envDefault:"20"`
}

// Load parses configuration values from the current process environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return Config{}, fmt.Errorf("MATCHER_HTTP_PORT must be between 1 and 65535, got %d", cfg.HTTPPort)
	}
	if cfg.PendingInviteLimit <= 0 {
		return Config{}, fmt.Errorf("MATCHER_PENDING_INVITE_LIMIT must be positive, got %d", cfg.PendingInviteLimit)
	}
	if cfg.DefaultMatchLimit <= 0 {
		return Config{}, fmt.Errorf("MATCHER_DEFAULT_MATCH_LIMIT must be positive, got %d", cfg.DefaultMatchLimit)
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("MATCHER_LOG_LEVEL must be one of debug, info, warn, error, got %q", cfg.LogLevel)
	}

	return cfg, nil
}
