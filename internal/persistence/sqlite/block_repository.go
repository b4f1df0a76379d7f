package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/example/practice-matcher/internal/persistence"
)

// BlockRepository implements persistence.BlockRepository using SQLite.
type BlockRepository struct {
	pool *ConnectionPool
}

// NewBlockRepository creates a new SQLite block repository.
func NewBlockRepository(pool *ConnectionPool) *BlockRepository {
	return &BlockRepository{pool: pool}
}

// CreateBlock inserts a directed block pair.
func (r *BlockRepository) CreateBlock(ctx context.Context, block persistence.Block) error {
	query := `
		INSERT INTO blocks (blocker_id, blocked_id, created_at)
		VALUES (?, ?, ?)
	`
	_, err := r.pool.db.ExecContext(ctx, query,
		block.BlockerID,
		block.BlockedID,
		block.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return mapError(err)
	}

	return nil
}

// DeleteBlock removes a directed block pair.
func (r *BlockRepository) DeleteBlock(ctx context.Context, blockerID, blockedID string) error {
	result, err := r.pool.db.ExecContext(ctx,
		"DELETE FROM blocks WHERE blocker_id = ? AND blocked_id = ?",
		blockerID, blockedID,
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

// ListBlocksInvolving returns every block where the profile is blocker or blocked.
func (r *BlockRepository) ListBlocksInvolving(ctx context.Context, profileID string) ([]persistence.Block, error) {
	query := `
		SELECT blocker_id, blocked_id, created_at
		FROM blocks
		WHERE blocker_id = ? OR blocked_id = ?
		ORDER BY blocker_id ASC, blocked_id ASC
	`

	rows, err := r.pool.db.QueryContext(ctx, query, profileID, profileID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var blocks []persistence.Block
	for rows.Next() {
		var block persistence.Block
		var createdAtStr string

		if err := rows.Scan(&block.BlockerID, &block.BlockedID, &createdAtStr); err != nil {
			return nil, mapError(err)
		}
		if block.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr); err != nil {
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}

		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	return blocks, nil
}
