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

// querier is satisfied by *sql.DB and *sql.Tx so session and invite reads can
// run both standalone and inside a negotiation transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const sessionColumns = "id, organizer_id, location_id, title, session_type, status, visibility, start_time, end_time, capacity, created_at, updated_at"

// SessionRepository implements persistence.SessionRepository using SQLite.
// It only covers reads; every session write goes through the Store transaction.
type SessionRepository struct {
	pool *ConnectionPool
}

// NewSessionRepository creates a new SQLite session repository.
func NewSessionRepository(pool *ConnectionPool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// GetSession retrieves a session by ID.
func (r *SessionRepository) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	return getSession(ctx, r.pool.db, id)
}

// ListSessions returns sessions matching the filter ordered by start time.
func (r *SessionRepository) ListSessions(ctx context.Context, filter persistence.SessionFilter) ([]persistence.Session, error) {
	query, args := buildSessionListQuery(filter)

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var sessions []persistence.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return sessions, nil
}

// ListParticipants returns the participants of a session ordered by join time.
func (r *SessionRepository) ListParticipants(ctx context.Context, sessionID string) ([]persistence.Participant, error) {
	return listParticipants(ctx, r.pool.db, sessionID)
}

func getSession(ctx context.Context, q querier, id string) (persistence.Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions WHERE id = ?"
	return scanSession(q.QueryRowContext(ctx, query, id))
}

func listParticipants(ctx context.Context, q querier, sessionID string) ([]persistence.Participant, error) {
	query := `
		SELECT session_id, profile_id, joined_at
		FROM session_participants
		WHERE session_id = ?
		ORDER BY joined_at ASC, profile_id ASC
	`

	rows, err := q.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var participants []persistence.Participant
	for rows.Next() {
		var participant persistence.Participant
		var joinedAtStr string

		if err := rows.Scan(&participant.SessionID, &participant.ProfileID, &joinedAtStr); err != nil {
			return nil, mapError(err)
		}
		if participant.JoinedAt, err = time.Parse(time.RFC3339, joinedAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse joined_at: %w", err)
		}

		participants = append(participants, participant)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return participants, nil
}

func buildSessionListQuery(filter persistence.SessionFilter) (string, []any) {
	query := "SELECT " + sessionColumns + " FROM sessions"

	var conditions []string
	var args []any

	if len(filter.Statuses) > 0 {
		conditions = append(conditions, "status IN ("+placeholders(len(filter.Statuses))+")")
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if len(filter.Types) > 0 {
		conditions = append(conditions, "session_type IN ("+placeholders(len(filter.Types))+")")
		for _, sessionType := range filter.Types {
			args = append(args, sessionType)
		}
	}
	if len(filter.Visibilities) > 0 {
		conditions = append(conditions, "visibility IN ("+placeholders(len(filter.Visibilities))+")")
		for _, visibility := range filter.Visibilities {
			args = append(args, visibility)
		}
	}
	if filter.OrganizerID != nil {
		conditions = append(conditions, "organizer_id = ?")
		args = append(args, *filter.OrganizerID)
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY start_time ASC, id ASC"

	return query, args
}

func placeholders(count int) string {
	return strings.TrimSuffix(strings.Repeat("?,", count), ",")
}

func scanSession(row rowScanner) (persistence.Session, error) {
	var session persistence.Session
	var locationID sql.NullString
	var startStr, endStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&session.ID,
		&session.OrganizerID,
		&locationID,
		&session.Title,
		&session.Type,
		&session.Status,
		&session.Visibility,
		&startStr,
		&endStr,
		&session.Capacity,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Session{}, persistence.ErrNotFound
		}
		return persistence.Session{}, mapError(err)
	}

	if locationID.Valid {
		session.LocationID = &locationID.String
	}
	if session.Start, err = time.Parse(time.RFC3339, startStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse start_time: %w", err)
	}
	if session.End, err = time.Parse(time.RFC3339, endStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse end_time: %w", err)
	}
	if session.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.Session{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return session, nil
}
