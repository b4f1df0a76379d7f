package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

// migrations holds the ordered schema steps. The slice index plus one is the
// schema version recorded in schema_migrations.
var migrations = []string{
	`
	CREATE TABLE profiles (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		skill_level TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE schedule_preferences (
		profile_id TEXT PRIMARY KEY REFERENCES profiles(id) ON DELETE CASCADE,
		roles TEXT NOT NULL,
		skill_levels TEXT NOT NULL,
		focus_areas TEXT NOT NULL,
		location_ids TEXT NOT NULL,
		travel_radius_km INTEGER,
		note TEXT,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE availability_windows (
		profile_id TEXT NOT NULL REFERENCES schedule_preferences(profile_id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		weekday INTEGER NOT NULL,
		date TEXT,
		start_minute INTEGER NOT NULL,
		end_minute INTEGER NOT NULL,
		recurring INTEGER NOT NULL,
		PRIMARY KEY (profile_id, position),
		CHECK (start_minute >= 0 AND end_minute <= 1440 AND start_minute < end_minute)
	);

	CREATE TABLE blocks (
		blocker_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		blocked_id TEXT NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
		created_at TEXT NOT NULL,
		PRIMARY KEY (blocker_id, blocked_id)
	);

	CREATE TABLE sessions (
		id TEXT PRIMARY KEY,
		organizer_id TEXT NOT NULL REFERENCES profiles(id),
		location_id TEXT,
		title TEXT NOT NULL,
		session_type TEXT NOT NULL,
		status TEXT NOT NULL,
		visibility TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		capacity INTEGER NOT NULL CHECK (capacity > 0),
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		CHECK (end_time > start_time)
	);

	CREATE TABLE session_invites (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		proposer_id TEXT NOT NULL REFERENCES profiles(id),
		invitee_id TEXT NOT NULL REFERENCES profiles(id),
		status TEXT NOT NULL,
		note TEXT,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE session_participants (
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		profile_id TEXT NOT NULL REFERENCES profiles(id),
		joined_at TEXT NOT NULL,
		PRIMARY KEY (session_id, profile_id)
	);

	CREATE INDEX idx_invites_proposer_status ON session_invites(proposer_id, status);
	CREATE INDEX idx_invites_session ON session_invites(session_id);
	CREATE INDEX idx_sessions_status ON sessions(status);
	`,
}

// Migrate applies any schema steps the database has not seen yet.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	if err := cp.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		version := i + 1
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(migrations[i]); err != nil {
				return err
			}
			_, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version)
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
	}

	return nil
}
