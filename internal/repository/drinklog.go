package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cursor is a keyset position in a reverse-chronological listing.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

const drinkLogColumns = `id, user_id, photo_key, drink_type, drink_name, caption, created_at`

// DrinkLogRepository handles database operations for drink logs
type DrinkLogRepository struct {
	db *pgxpool.Pool
}

// NewDrinkLogRepository creates a new drink log repository
func NewDrinkLogRepository(db *pgxpool.Pool) *DrinkLogRepository {
	return &DrinkLogRepository{db: db}
}

func scanDrinkLog(row pgx.Row) (*models.DrinkLog, error) {
	var dl models.DrinkLog
	err := row.Scan(
		&dl.ID, &dl.UserID, &dl.PhotoKey, &dl.DrinkType,
		&dl.DrinkName, &dl.Caption, &dl.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan drink log: %w", err)
	}
	return &dl, nil
}

// Create inserts a drink log and bumps the owner's drink counter in the
// same transaction.
func (r *DrinkLogRepository) Create(ctx context.Context, dl *models.DrinkLog) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO drink_logs (id, user_id, photo_key, drink_type, drink_name, caption, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = tx.Exec(ctx, query,
		dl.ID, dl.UserID, dl.PhotoKey, dl.DrinkType, dl.DrinkName, dl.Caption, dl.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create drink log: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE users SET drink_count = drink_count + 1 WHERE id = $1`, dl.UserID)
	if err != nil {
		return fmt.Errorf("failed to bump drink count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit drink log: %w", err)
	}
	return nil
}

// GetByID retrieves a drink log by ID
func (r *DrinkLogRepository) GetByID(ctx context.Context, id string) (*models.DrinkLog, error) {
	query := `SELECT ` + drinkLogColumns + ` FROM drink_logs WHERE id = $1`
	return scanDrinkLog(r.db.QueryRow(ctx, query, id))
}

// Update sets the drink type and caption of a log. Name and photo are fixed
// at creation.
func (r *DrinkLogRepository) Update(ctx context.Context, id string, drinkType models.DrinkType, caption *string) error {
	query := `UPDATE drink_logs SET drink_type = $1, caption = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, drinkType, caption, id)
	if err != nil {
		return fmt.Errorf("failed to update drink log: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes a drink log, decrements the owner's drink counter in the
// same transaction, and returns the stored photo key for cleanup.
func (r *DrinkLogRepository) Delete(ctx context.Context, id string) (string, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID, photoKey string
	query := `DELETE FROM drink_logs WHERE id = $1 RETURNING user_id, photo_key`
	err = tx.QueryRow(ctx, query, id).Scan(&userID, &photoKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to delete drink log: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET drink_count = GREATEST(drink_count - 1, 0) WHERE id = $1`, userID)
	if err != nil {
		return "", fmt.Errorf("failed to drop drink count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit drink log delete: %w", err)
	}
	return photoKey, nil
}

// ListByUsers returns a reverse-chronological page of logs owned by any of
// the given users, starting strictly after the cursor position when one is
// given. Pass limit+1 to probe for a next page.
func (r *DrinkLogRepository) ListByUsers(ctx context.Context, userIDs []string, before *Cursor, limit int) ([]*models.DrinkLog, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var rows pgx.Rows
	var err error
	if before == nil {
		query := `
			SELECT ` + drinkLogColumns + `
			FROM drink_logs
			WHERE user_id = ANY($1)
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		`
		rows, err = r.db.Query(ctx, query, userIDs, limit)
	} else {
		query := `
			SELECT ` + drinkLogColumns + `
			FROM drink_logs
			WHERE user_id = ANY($1) AND (created_at, id) < ($2, $3)
			ORDER BY created_at DESC, id DESC
			LIMIT $4
		`
		rows, err = r.db.Query(ctx, query, userIDs, before.CreatedAt, before.ID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list drink logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DrinkLog
	for rows.Next() {
		dl, err := scanDrinkLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, dl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drink logs: %w", err)
	}
	return logs, nil
}

// ListByIDs retrieves drink logs by ID. Missing IDs are absent from the
// result rather than an error.
func (r *DrinkLogRepository) ListByIDs(ctx context.Context, ids []string) ([]*models.DrinkLog, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT ` + drinkLogColumns + ` FROM drink_logs WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to list drink logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DrinkLog
	for rows.Next() {
		dl, err := scanDrinkLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, dl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drink logs: %w", err)
	}
	return logs, nil
}

// ListByUserSince returns all of a user's logs created at or after the given
// time, oldest first. A zero time returns everything.
func (r *DrinkLogRepository) ListByUserSince(ctx context.Context, userID string, since time.Time) ([]*models.DrinkLog, error) {
	query := `
		SELECT ` + drinkLogColumns + `
		FROM drink_logs
		WHERE user_id = $1 AND created_at >= $2
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list drink logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.DrinkLog
	for rows.Next() {
		dl, err := scanDrinkLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, dl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating drink logs: %w", err)
	}
	return logs, nil
}
