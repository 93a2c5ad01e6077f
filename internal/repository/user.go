package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, username, display_name, password_hash, avatar_key,
	friend_count, drink_count, showcase_ids, apns_token, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Username, &user.DisplayName, &user.PasswordHash,
		&user.AvatarKey, &user.FriendCount, &user.DrinkCount,
		&user.ShowcaseIDs, &user.APNSToken, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	if user.ShowcaseIDs == nil {
		user.ShowcaseIDs = []string{}
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, username, display_name, password_hash, avatar_key,
			friend_count, drink_count, showcase_ids, apns_token, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Username, user.DisplayName, user.PasswordHash, user.AvatarKey,
		user.FriendCount, user.DrinkCount, user.ShowcaseIDs, user.APNSToken, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return scanUser(r.db.QueryRow(ctx, query, username))
}

// GetManyByIDs retrieves users by ID, keyed by ID. Missing IDs are absent
// from the result rather than an error.
func (r *UserRepository) GetManyByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}

// UsernameExists checks if a username is already taken
func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username existence: %w", err)
	}
	return exists, nil
}

// UpdateProfile updates display name and/or avatar key. Nil fields are left
// unchanged; a nil is distinguished from clearing by the caller passing a
// pointer to the empty string.
func (r *UserRepository) UpdateProfile(ctx context.Context, userID string, displayName *string, avatarKey *string) error {
	query := `
		UPDATE users
		SET display_name = COALESCE($1, display_name),
		    avatar_key   = CASE WHEN $2::boolean THEN $3 ELSE avatar_key END
		WHERE id = $4
	`
	var key *string
	setAvatar := avatarKey != nil
	if setAvatar && *avatarKey != "" {
		key = avatarKey
	}
	result, err := r.db.Exec(ctx, query, displayName, setAvatar, key, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateShowcase replaces the ordered showcased achievement list
func (r *UserRepository) UpdateShowcase(ctx context.Context, userID string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	query := `UPDATE users SET showcase_ids = $1 WHERE id = $2`
	result, err := r.db.Exec(ctx, query, ids, userID)
	if err != nil {
		return fmt.Errorf("failed to update showcase: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// UpdateAPNSToken updates the push token for a user
func (r *UserRepository) UpdateAPNSToken(ctx context.Context, userID string, token *string) error {
	query := `UPDATE users SET apns_token = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, token, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// SearchByUsername returns users whose username starts with the given prefix
func (r *UserRepository) SearchByUsername(ctx context.Context, prefix string, limit int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username LIKE $1 || '%'
		ORDER BY username
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return users, nil
}
