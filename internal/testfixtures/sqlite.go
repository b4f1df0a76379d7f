package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/practice-matcher/internal/persistence"
	"github.com/example/practice-matcher/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary SQLite
// database for integration-style persistence tests.
type SQLiteHarness struct {
	Profiles    persistence.ProfileRepository
	Preferences persistence.PreferenceRepository
	Blocks      persistence.BlockRepository
	Sessions    persistence.SessionRepository
	Invites     persistence.InviteRepository
	Store       persistence.NegotiationStore

	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness constructs a SQLiteHarness using a temporary file that is
// migrated automatically. Callers may optionally invoke Close, but the helper
// also registers a cleanup callback with the provided testing.TB.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	dir := tb.TempDir()
	path := filepath.Join(dir, "matcher.db")

	pool, err := sqlite.NewConnectionPool(path)
	if err != nil {
		tb.Fatalf("failed to open database: %v", err)
	}

	if err := pool.Migrate(context.Background()); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate database: %v", err)
	}

	harness := &SQLiteHarness{
		Profiles:    sqlite.NewProfileRepository(pool),
		Preferences: sqlite.NewPreferenceRepository(pool),
		Blocks:      sqlite.NewBlockRepository(pool),
		Sessions:    sqlite.NewSessionRepository(pool),
		Invites:     sqlite.NewInviteRepository(pool),
		Store:       sqlite.NewStore(pool),
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}
