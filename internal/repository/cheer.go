package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CheerRepository handles database operations for cheers
type CheerRepository struct {
	db *pgxpool.Pool
}

// NewCheerRepository creates a new cheer repository
func NewCheerRepository(db *pgxpool.Pool) *CheerRepository {
	return &CheerRepository{db: db}
}

// Toggle flips the viewer's cheer on a drink log and returns the resulting
// state with the fresh count. Both the flip and the count read happen in
// one transaction so two rapid taps settle on the original state.
func (r *CheerRepository) Toggle(ctx context.Context, drinkLogID, userID string, now time.Time) (bool, int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx,
		`DELETE FROM cheers WHERE drink_log_id = $1 AND user_id = $2`, drinkLogID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to remove cheer: %w", err)
	}

	cheered := false
	if result.RowsAffected() == 0 {
		_, err = tx.Exec(ctx,
			`INSERT INTO cheers (id, drink_log_id, user_id, seen, created_at)
			 VALUES ($1, $2, $3, FALSE, $4)`,
			uuid.New().String(), drinkLogID, userID, now)
		if err != nil {
			return false, 0, fmt.Errorf("failed to add cheer: %w", err)
		}
		cheered = true
	}

	var count int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM cheers WHERE drink_log_id = $1`, drinkLogID).Scan(&count)
	if err != nil {
		return false, 0, fmt.Errorf("failed to count cheers: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to commit cheer toggle: %w", err)
	}
	return cheered, count, nil
}

// StateForLogs returns, for each of the given drink logs, its cheer count
// and whether the viewer has cheered it. Logs without cheers are absent
// from the result.
func (r *CheerRepository) StateForLogs(ctx context.Context, logIDs []string, viewerID string) (map[string]models.CheerState, error) {
	state := make(map[string]models.CheerState, len(logIDs))
	if len(logIDs) == 0 {
		return state, nil
	}

	query := `
		SELECT drink_log_id, COUNT(*), BOOL_OR(user_id = $2)
		FROM cheers
		WHERE drink_log_id = ANY($1)
		GROUP BY drink_log_id
	`
	rows, err := r.db.Query(ctx, query, logIDs, viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cheer state: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var logID string
		var s models.CheerState
		if err := rows.Scan(&logID, &s.Count, &s.Cheered); err != nil {
			return nil, fmt.Errorf("failed to scan cheer state: %w", err)
		}
		state[logID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cheer state: %w", err)
	}
	return state, nil
}

// UnseenCountForOwner counts cheers on the owner's posts not yet marked
// seen. The owner's own cheers never show up in their badge.
func (r *CheerRepository) UnseenCountForOwner(ctx context.Context, ownerID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM cheers c
		JOIN drink_logs d ON d.id = c.drink_log_id
		WHERE d.user_id = $1 AND c.user_id <> $1 AND NOT c.seen
	`
	var count int
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unseen cheers: %w", err)
	}
	return count, nil
}

// MarkSeenForOwner marks every cheer on the owner's posts as seen.
func (r *CheerRepository) MarkSeenForOwner(ctx context.Context, ownerID string) error {
	query := `
		UPDATE cheers c
		SET seen = TRUE
		FROM drink_logs d
		WHERE c.drink_log_id = d.id AND d.user_id = $1 AND NOT c.seen
	`
	if _, err := r.db.Exec(ctx, query, ownerID); err != nil {
		return fmt.Errorf("failed to mark cheers seen: %w", err)
	}
	return nil
}

// CountReceivedByOwner counts all cheers ever received on the owner's
// posts, excluding their own.
func (r *CheerRepository) CountReceivedByOwner(ctx context.Context, ownerID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM cheers c
		JOIN drink_logs d ON d.id = c.drink_log_id
		WHERE d.user_id = $1 AND c.user_id <> $1
	`
	var count int
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count received cheers: %w", err)
	}
	return count, nil
}
