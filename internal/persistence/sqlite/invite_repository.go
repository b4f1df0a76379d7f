package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

const inviteColumns = "id, session_id, proposer_id, invitee_id, status, note, expires_at, created_at, updated_at"

// InviteRepository implements persistence.InviteRepository using SQLite.
// It only covers reads; every invite write goes through the Store transaction.
type InviteRepository struct {
	pool *ConnectionPool
}

// NewInviteRepository creates a new SQLite invite repository.
func NewInviteRepository(pool *ConnectionPool) *InviteRepository {
	return &InviteRepository{pool: pool}
}

// GetInvite retrieves an invite by ID.
func (r *InviteRepository) GetInvite(ctx context.Context, id string) (persistence.SessionInvite, error) {
	return getInvite(ctx, r.pool.db, id)
}

// ListInvitesFor returns every invite where the profile is proposer or invitee.
func (r *InviteRepository) ListInvitesFor(ctx context.Context, profileID string) ([]persistence.SessionInvite, error) {
	query := "SELECT " + inviteColumns + ` FROM session_invites
		WHERE proposer_id = ? OR invitee_id = ?
		ORDER BY created_at ASC, id ASC`
	return queryInvites(ctx, r.pool.db, query, profileID, profileID)
}

// ListPendingInvitesFrom returns the proposer's currently pending outgoing invites.
func (r *InviteRepository) ListPendingInvitesFrom(ctx context.Context, proposerID string) ([]persistence.SessionInvite, error) {
	query := "SELECT " + inviteColumns + ` FROM session_invites
		WHERE proposer_id = ? AND status = 'PENDING'
		ORDER BY created_at ASC, id ASC`
	return queryInvites(ctx, r.pool.db, query, proposerID)
}

func getInvite(ctx context.Context, q querier, id string) (persistence.SessionInvite, error) {
	query := "SELECT " + inviteColumns + " FROM session_invites WHERE id = ?"
	return scanInvite(q.QueryRowContext(ctx, query, id))
}

func queryInvites(ctx context.Context, q querier, query string, args ...any) ([]persistence.SessionInvite, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var invites []persistence.SessionInvite
	for rows.Next() {
		invite, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return invites, nil
}

func scanInvite(row rowScanner) (persistence.SessionInvite, error) {
	var invite persistence.SessionInvite
	var note sql.NullString
	var expiresAtStr, createdAtStr, updatedAtStr string

	err := row.Scan(
		&invite.ID,
		&invite.SessionID,
		&invite.ProposerID,
		&invite.InviteeID,
		&invite.Status,
		&note,
		&expiresAtStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.SessionInvite{}, persistence.ErrNotFound
		}
		return persistence.SessionInvite{}, mapError(err)
	}

	if note.Valid {
		invite.Note = &note.String
	}
	if invite.ExpiresAt, err = time.Parse(time.RFC3339, expiresAtStr); err != nil {
		return persistence.SessionInvite{}, fmt.Errorf("failed to parse expires_at: %w", err)
	}
	if invite.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
		return persistence.SessionInvite{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if invite.UpdatedAt, err = time.Parse(time.RFC3339, updatedAtStr); err != nil {
		return persistence.SessionInvite{}, fmt.Errorf("failed to parse updated_at: %w", err)
	}

	return invite, nil
}
