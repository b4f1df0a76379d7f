package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

const dateLayout = "2006-01-02"

// PreferenceRepository implements persistence.PreferenceRepository using SQLite.
type PreferenceRepository struct {
	pool *ConnectionPool
}

// NewPreferenceRepository creates a new SQLite preference repository.
func NewPreferenceRepository(pool *ConnectionPool) *PreferenceRepository {
	return &PreferenceRepository{pool: pool}
}

// ReplacePreference stores the person's availability record, replacing any
// previous one wholesale. The preference row and its windows are written in
// one transaction.
func (r *PreferenceRepository) ReplacePreference(ctx context.Context, preference persistence.SchedulePreference) error {
	if preference.ProfileID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO schedule_preferences
				(profile_id, roles, skill_levels, focus_areas, location_ids, travel_radius_km, note, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(profile_id) DO UPDATE SET
				roles = excluded.roles,
				skill_levels = excluded.skill_levels,
				focus_areas = excluded.focus_areas,
				location_ids = excluded.location_ids,
				travel_radius_km = excluded.travel_radius_km,
				note = excluded.note,
				updated_at = excluded.updated_at
		`

		var radius sql.NullInt64
		if preference.TravelRadiusKm != nil {
			radius.Int64 = int64(*preference.TravelRadiusKm)
			radius.Valid = true
		}

		var note sql.NullString
		if preference.Note != nil {
			note.String = *preference.Note
			note.Valid = true
		}

		_, err := tx.Exec(query,
			preference.ProfileID,
			joinList(preference.Roles),
			joinList(preference.SkillLevels),
			joinList(preference.FocusAreas),
			joinList(preference.LocationIDs),
			radius,
			note,
			preference.UpdatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return mapError(err)
		}

		if _, err := tx.Exec("DELETE FROM availability_windows WHERE profile_id = ?", preference.ProfileID); err != nil {
			return mapError(err)
		}

		for position, window := range preference.Windows {
			var date sql.NullString
			if window.Date != nil {
				date.String = window.Date.UTC().Format(dateLayout)
				date.Valid = true
			}

			_, err := tx.Exec(`
				INSERT INTO availability_windows
					(profile_id, position, weekday, date, start_minute, end_minute, recurring)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`,
				preference.ProfileID,
				position,
				int(window.Weekday),
				date,
				window.StartMinute,
				window.EndMinute,
				boolToInt(window.Recurring),
			)
			if err != nil {
				return mapError(err)
			}
		}

		return nil
	})
}

// GetPreference retrieves a person's schedule preference with its windows.
func (r *PreferenceRepository) GetPreference(ctx context.Context, profileID string) (persistence.SchedulePreference, error) {
	query := `
		SELECT profile_id, roles, skill_levels, focus_areas, location_ids, travel_radius_km, note, updated_at
		FROM schedule_preferences
		WHERE profile_id = ?
	`

	preference, err := scanPreference(r.pool.db.QueryRowContext(ctx, query, profileID))
	if err != nil {
		return persistence.SchedulePreference{}, err
	}

	windows, err := r.loadWindows(ctx, profileID)
	if err != nil {
		return persistence.SchedulePreference{}, err
	}
	preference.Windows = windows

	return preference, nil
}

// ListPreferences returns every stored preference ordered by profile ID.
func (r *PreferenceRepository) ListPreferences(ctx context.Context) ([]persistence.SchedulePreference, error) {
	query := `
		SELECT profile_id, roles, skill_levels, focus_areas, location_ids, travel_radius_km, note, updated_at
		FROM schedule_preferences
		ORDER BY profile_id ASC
	`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var preferences []persistence.SchedulePreference
	for rows.Next() {
		preference, err := scanPreference(rows)
		if err != nil {
			return nil, err
		}
		preferences = append(preferences, preference)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range preferences {
		windows, err := r.loadWindows(ctx, preferences[i].ProfileID)
		if err != nil {
			return nil, err
		}
		preferences[i].Windows = windows
	}

	return preferences, nil
}

// DeletePreference removes a person's schedule preference and its windows.
func (r *PreferenceRepository) DeletePreference(ctx context.Context, profileID string) error {
	result, err := r.pool.db.ExecContext(ctx, "DELETE FROM schedule_preferences WHERE profile_id = ?", profileID)
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

func (r *PreferenceRepository) loadWindows(ctx context.Context, profileID string) ([]persistence.AvailabilityWindow, error) {
	query := `
		SELECT weekday, date, start_minute, end_minute, recurring
		FROM availability_windows
		WHERE profile_id = ?
		ORDER BY position ASC
	`

	rows, err := r.pool.db.QueryContext(ctx, query, profileID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var windows []persistence.AvailabilityWindow
	for rows.Next() {
		var window persistence.AvailabilityWindow
		var weekday, recurring int
		var date sql.NullString

		if err := rows.Scan(&weekday, &date, &window.StartMinute, &window.EndMinute, &recurring); err != nil {
			return nil, mapError(err)
		}

		window.Weekday = time.Weekday(weekday)
		window.Recurring = recurring != 0
		if date.Valid {
			parsed, err := time.Parse(dateLayout, date.String)
			if err != nil {
				return nil, fmt.Errorf("failed to parse window date: %w", err)
			}
			window.Date = &parsed
		}

		windows = append(windows, window)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return windows, nil
}

func scanPreference(row rowScanner) (persistence.SchedulePreference, error) {
	var preference persistence.SchedulePreference
	var roles, skillLevels, focusAreas, locationIDs, updatedAtStr string
	var radius sql.NullInt64
	var note sql.NullString

	err := row.Scan(
		&preference.ProfileID,
		&roles,
		&skillLevels,
		&focusAreas,
		&locationIDs,
		&radius,
		&note,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.SchedulePreference{}, persistence.ErrNotFound
		}
		return persistence.SchedulePreference{}, mapError(err)
	}

	preference.Roles = splitList(roles)
	preference.SkillLevels = splitList(skillLevels)
	preference.FocusAreas = splitList(focusAreas)
	preference.LocationIDs = splitList(locationIDs)
	if radius.Valid {
		value := int(radius.Int64)
		preference.TravelRadiusKm = &value
	}
	if note.Valid {
		preference.Note = &note.String
	}
	if preference.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.SchedulePreference{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return preference, nil
}

func joinList(values []string) string {
	return strings.Join(values, ",")
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	return strings.Split(value, ",")
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
