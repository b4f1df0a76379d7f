package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

// Store implements persistence.NegotiationStore on top of the connection
// pool. Because the pool holds a single connection, transactions are
// fully serialized and capacity or mirror-accept decisions never interleave.
type Store struct {
	pool *ConnectionPool
}

// NewStore creates a new SQLite negotiation store.
func NewStore(pool *ConnectionPool) *Store {
	return &Store{pool: pool}
}

// InTx runs fn inside one database transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx persistence.NegotiationTx) error) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(&sqliteTx{tx: tx})
	})
}

type sqliteTx struct {
	tx *sql.Tx
}

// CreateSession inserts a new session.
func (t *sqliteTx) CreateSession(ctx context.Context, session persistence.Session) error {
	query := `
		INSERT INTO sessions
			(id, organizer_id, location_id, title, session_type, status, visibility, start_time, end_time, capacity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var locationID sql.NullString
	if session.LocationID != nil {
		locationID.String = *session.LocationID
		locationID.Valid = true
	}

	_, err := t.tx.ExecContext(ctx, query,
		session.ID,
		session.OrganizerID,
		locationID,
		session.Title,
		session.Type,
		session.Status,
		session.Visibility,
		session.Start.UTC().Format(time.RFC3339),
		session.End.UTC().Format(time.RFC3339),
		session.Capacity,
		session.CreatedAt.UTC().Format(time.RFC3339),
		session.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// UpdateSession updates an existing session. Organizer and creation time are
// immutable and left untouched.
func (t *sqliteTx) UpdateSession(ctx context.Context, session persistence.Session) error {
	query := `
		UPDATE sessions
		SET location_id = ?, title = ?, session_type = ?, status = ?, visibility = ?,
			start_time = ?, end_time = ?, capacity = ?, updated_at = ?
		WHERE id = ?
	`

	var locationID sql.NullString
	if session.LocationID != nil {
		locationID.String = *session.LocationID
		locationID.Valid = true
	}

	result, err := t.tx.ExecContext(ctx, query,
		locationID,
		session.Title,
		session.Type,
		session.Status,
		session.Visibility,
		session.Start.UTC().Format(time.RFC3339),
		session.End.UTC().Format(time.RFC3339),
		session.Capacity,
		session.UpdatedAt.UTC().Format(time.RFC3339),
		session.ID,
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

// GetSession retrieves a session by ID.
func (t *sqliteTx) GetSession(ctx context.Context, id string) (persistence.Session, error) {
	return getSession(ctx, t.tx, id)
}

// CreateInvite inserts a new session invite.
func (t *sqliteTx) CreateInvite(ctx context.Context, invite persistence.SessionInvite) error {
	query := `
		INSERT INTO session_invites
			(id, session_id, proposer_id, invitee_id, status, note, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var note sql.NullString
	if invite.Note != nil {
		note.String = *invite.Note
		note.Valid = true
	}

	_, err := t.tx.ExecContext(ctx, query,
		invite.ID,
		invite.SessionID,
		invite.ProposerID,
		invite.InviteeID,
		invite.Status,
		note,
		invite.ExpiresAt.UTC().Format(time.RFC3339),
		invite.CreatedAt.UTC().Format(time.RFC3339),
		invite.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// UpdateInvite updates an existing invite. The thread identity columns are
// immutable and left untouched.
func (t *sqliteTx) UpdateInvite(ctx context.Context, invite persistence.SessionInvite) error {
	query := `
		UPDATE session_invites
		SET status = ?, note = ?, expires_at = ?, updated_at = ?
		WHERE id = ?
	`

	var note sql.NullString
	if invite.Note != nil {
		note.String = *invite.Note
		note.Valid = true
	}

	result, err := t.tx.ExecContext(ctx, query,
		invite.Status,
		note,
		invite.ExpiresAt.UTC().Format(time.RFC3339),
		invite.UpdatedAt.UTC().Format(time.RFC3339),
		invite.ID,
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

// GetInvite retrieves an invite by ID.
func (t *sqliteTx) GetInvite(ctx context.Context, id string) (persistence.SessionInvite, error) {
	return getInvite(ctx, t.tx, id)
}

// ListPendingInvitesBetween returns pending invites from proposer to invitee.
func (t *sqliteTx) ListPendingInvitesBetween(ctx context.Context, proposerID, inviteeID string) ([]persistence.SessionInvite, error) {
	query := "SELECT " + inviteColumns + ` FROM session_invites
		WHERE proposer_id = ? AND invitee_id = ? AND status = 'PENDING'
		ORDER BY created_at ASC, id ASC`
	return queryInvites(ctx, t.tx, query, proposerID, inviteeID)
}

// ExpirePendingInvites marks pending invites past their expiry as EXPIRED and
// returns how many rows changed.
func (t *sqliteTx) ExpirePendingInvites(ctx context.Context, reference time.Time) (int, error) {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE session_invites
		SET status = 'EXPIRED', updated_at = ?
		WHERE status = 'PENDING' AND expires_at <= ?
	`,
		reference.UTC().Format(time.RFC3339),
		reference.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, mapError(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}

// AddParticipant inserts a participant row.
func (t *sqliteTx) AddParticipant(ctx context.Context, participant persistence.Participant) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO session_participants (session_id, profile_id, joined_at)
		VALUES (?, ?, ?)
	`,
		participant.SessionID,
		participant.ProfileID,
		participant.JoinedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// RemoveParticipant deletes a participant row.
func (t *sqliteTx) RemoveParticipant(ctx context.Context, sessionID, profileID string) error {
	result, err := t.tx.ExecContext(ctx,
		"DELETE FROM session_participants WHERE session_id = ? AND profile_id = ?",
		sessionID, profileID,
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

// ListParticipants returns the participants of a session ordered by join time.
func (t *sqliteTx) ListParticipants(ctx context.Context, sessionID string) ([]persistence.Participant, error) {
	return listParticipants(ctx, t.tx, sessionID)
}
