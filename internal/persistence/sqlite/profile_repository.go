package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

// ProfileRepository implements persistence.ProfileRepository using SQLite.
type ProfileRepository struct {
	pool *ConnectionPool
}

// NewProfileRepository creates a new SQLite profile repository.
func NewProfileRepository(pool *ConnectionPool) *ProfileRepository {
	return &ProfileRepository{pool: pool}
}

// CreateProfile inserts a new profile.
func (r *ProfileRepository) CreateProfile(ctx context.Context, profile persistence.Profile) error {
	if profile.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO profiles (id, display_name, skill_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		profile.ID,
		profile.DisplayName,
		profile.SkillLevel,
		profile.CreatedAt.UTC().Format(time.RFC3339),
		profile.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// UpdateProfile updates an existing profile.
func (r *ProfileRepository) UpdateProfile(ctx context.Context, profile persistence.Profile) error {
	query := `
		UPDATE profiles
		SET display_name = ?, skill_level = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := r.pool.db.ExecContext(ctx, query,
		profile.DisplayName,
		profile.SkillLevel,
		profile.UpdatedAt.UTC().Format(time.RFC3339),
		profile.ID,
	)
	if err != nil {
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// GetProfile retrieves a profile by ID.
func (r *ProfileRepository) GetProfile(ctx context.Context, id string) (persistence.Profile, error) {
	query := `
		SELECT id, display_name, skill_level, created_at, updated_at
		FROM profiles
		WHERE id = ?
	`
	return scanProfile(r.pool.db.QueryRowContext(ctx, query, id))
}

// ListProfiles returns all profiles ordered by creation time.
func (r *ProfileRepository) ListProfiles(ctx context.Context) ([]persistence.Profile, error) {
	query := `
		SELECT id, display_name, skill_level, created_at, updated_at
		FROM profiles
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var profiles []persistence.Profile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return profiles, nil
}

// DeleteProfile removes a profile. Preferences and blocks cascade.
func (r *ProfileRepository) DeleteProfile(ctx context.Context, id string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM profiles WHERE id = ?", id)
	if err != nil {
		return mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return persistence.ErrNotFound
	}

	return nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (persistence.Profile, error) {
	var profile persistence.Profile
	var createdAtStr, updatedAtStr string

	err := row.Scan(
		&profile.ID,
		&profile.DisplayName,
		&profile.SkillLevel,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Profile{}, persistence.ErrNotFound
		}
		return persistence.Profile{}, mapError(err)
	}

	if profile.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Profile{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if profile.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Profile{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return profile, nil
}
