package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AchievementRepository handles database operations for the medal catalog
// and per-user unlocks
type AchievementRepository struct {
	db *pgxpool.Pool
}

// NewAchievementRepository creates a new achievement repository
func NewAchievementRepository(db *pgxpool.Pool) *AchievementRepository {
	return &AchievementRepository{db: db}
}

// ListCatalog returns every medal definition in display order
func (r *AchievementRepository) ListCatalog(ctx context.Context) ([]*models.Achievement, error) {
	query := `
		SELECT id, name, description, tier, icon, requirement_kind, requirement_value, sort_order
		FROM achievements
		ORDER BY sort_order
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	defer rows.Close()

	var catalog []*models.Achievement
	for rows.Next() {
		var a models.Achievement
		err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.Tier, &a.Icon,
			&a.RequirementKind, &a.RequirementValue, &a.SortOrder)
		if err != nil {
			return nil, fmt.Errorf("failed to scan achievement: %w", err)
		}
		catalog = append(catalog, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating achievements: %w", err)
	}
	return catalog, nil
}

// ListForUser returns the user's unlocked medals
func (r *AchievementRepository) ListForUser(ctx context.Context, userID string) ([]*models.UserAchievement, error) {
	query := `
		SELECT user_id, achievement_id, unlocked_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY unlocked_at
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user achievements: %w", err)
	}
	defer rows.Close()

	var unlocked []*models.UserAchievement
	for rows.Next() {
		var ua models.UserAchievement
		if err := rows.Scan(&ua.UserID, &ua.AchievementID, &ua.UnlockedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user achievement: %w", err)
		}
		unlocked = append(unlocked, &ua)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user achievements: %w", err)
	}
	return unlocked, nil
}

// Unlock records a medal for a user. Reports true only on a fresh unlock,
// false when it was already held.
func (r *AchievementRepository) Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error) {
	query := `
		INSERT INTO user_achievements (user_id, achievement_id, unlocked_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, achievement_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query, userID, achievementID, at)
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
