package config

import (
	"os"
	"testing"
)

func TestLoader_ParseEnvironment(t *testing.T) {

	t.Run("applies defaults when variables are missing", func(t *testing.T) {
		unset := []string{
			"MATCHER_HTTP_PORT",
			"MATCHER_SQLITE_DSN",
			"MATCHER_LOG_LEVEL",
			"MATCHER_PENDING_INVITE_LIMIT",
			"MATCHER_DEFAULT_MATCH_LIMIT",
		}
		for _, key := range unset {
			if err := os.Unsetenv(key); err != nil {
				t.Fatalf("failed to unset %s: %v", key, err)
			}
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 8080 {
			t.Fatalf("expected default HTTP port 8080, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:matcher.db" {
			t.Fatalf("unexpected default DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.LogLevel != "info" {
			t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
		}
		if cfg.PendingInviteLimit != 3 {
			t.Fatalf("expected default pending invite limit 3, got %d", cfg.PendingInviteLimit)
		}
		if cfg.DefaultMatchLimit != 20 {
			t.Fatalf("expected default match limit 20, got %d", cfg.DefaultMatchLimit)
		}
	})

	t.Run("parses numeric fields", func(t *testing.T) {
		t.Setenv("MATCHER_HTTP_PORT", "9090")
		t.Setenv("MATCHER_SQLITE_DSN", "file:/tmp/matcher.db")
		t.Setenv("MATCHER_PENDING_INVITE_LIMIT", "5")
		t.Setenv("MATCHER_DEFAULT_MATCH_LIMIT", "50")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load returned error: %v", err)
		}

		if cfg.HTTPPort != 9090 {
			t.Fatalf("expected HTTP port 9090, got %d", cfg.HTTPPort)
		}
		if cfg.SQLiteDSN != "file:/tmp/matcher.db" {
			t.Fatalf("unexpected DSN: %q", cfg.SQLiteDSN)
		}
		if cfg.PendingInviteLimit != 5 {
			t.Fatalf("expected pending invite limit 5, got %d", cfg.PendingInviteLimit)
		}
		if cfg.DefaultMatchLimit != 50 {
			t.Fatalf("expected match limit 50, got %d", cfg.DefaultMatchLimit)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		tests := map[string]string{
			"MATCHER_HTTP_PORT":            "0",
			"MATCHER_PENDING_INVITE_LIMIT": "-1",
			"MATCHER_LOG_LEVEL":            "loud",
		}
		for key, value := range tests {
			t.Run(key, func(t *testing.T) {
				t.Setenv(key, value)
				if _, err := Load(); err == nil {
					t.Fatalf("expected error for %s=%s", key, value)
				}
			})
		}
	})
}
