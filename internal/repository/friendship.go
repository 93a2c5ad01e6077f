package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const friendshipColumns = `id, requester_id, addressee_id, status, created_at, responded_at`

const joinedUserColumns = `u.id, u.username, u.display_name, u.password_hash, u.avatar_key,
	u.friend_count, u.drink_count, u.showcase_ids, u.apns_token, u.created_at`

// FriendshipRepository handles database operations for friendship edges
type FriendshipRepository struct {
	db *pgxpool.Pool
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db *pgxpool.Pool) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

func scanFriendship(row pgx.Row) (*models.Friendship, error) {
	var f models.Friendship
	err := row.Scan(&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.RespondedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan friendship: %w", err)
	}
	return &f, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Create inserts a pending friendship edge. The unique pair index turns a
// concurrent duplicate request into ErrConflict.
func (r *FriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	query := `
		INSERT INTO friendships (id, requester_id, addressee_id, status, created_at, responded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query,
		f.ID, f.RequesterID, f.AddresseeID, f.Status, f.CreatedAt, f.RespondedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return models.ErrConflict
		}
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// GetByID retrieves a friendship edge by ID
func (r *FriendshipRepository) GetByID(ctx context.Context, id string) (*models.Friendship, error) {
	query := `SELECT ` + friendshipColumns + ` FROM friendships WHERE id = $1`
	return scanFriendship(r.db.QueryRow(ctx, query, id))
}

// GetBetween retrieves the edge between two users regardless of direction
func (r *FriendshipRepository) GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 AND addressee_id = $2)
		   OR (requester_id = $2 AND addressee_id = $1)
	`
	return scanFriendship(r.db.QueryRow(ctx, query, userA, userB))
}

// Accept marks a pending edge accepted and bumps both users' friend
// counters in the same transaction.
func (r *FriendshipRepository) Accept(ctx context.Context, id string, respondedAt time.Time) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var requesterID, addresseeID string
	query := `
		UPDATE friendships
		SET status = $1, responded_at = $2
		WHERE id = $3 AND status = $4
		RETURNING requester_id, addressee_id
	`
	err = tx.QueryRow(ctx, query,
		models.FriendshipAccepted, respondedAt, id, models.FriendshipPending,
	).Scan(&requesterID, &addresseeID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to accept friendship: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE users SET friend_count = friend_count + 1 WHERE id = ANY($1)`,
		[]string{requesterID, addresseeID})
	if err != nil {
		return fmt.Errorf("failed to bump friend counts: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit accept: %w", err)
	}
	return nil
}

// Reject marks a pending edge rejected
func (r *FriendshipRepository) Reject(ctx context.Context, id string, respondedAt time.Time) error {
	query := `UPDATE friendships SET status = $1, responded_at = $2 WHERE id = $3 AND status = $4`
	result, err := r.db.Exec(ctx, query,
		models.FriendshipRejected, respondedAt, id, models.FriendshipPending)
	if err != nil {
		return fmt.Errorf("failed to reject friendship: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Repend flips a previously rejected edge back to pending with a new
// direction. Used when the original addressee later initiates.
func (r *FriendshipRepository) Repend(ctx context.Context, id, requesterID, addresseeID string, at time.Time) error {
	query := `
		UPDATE friendships
		SET requester_id = $1, addressee_id = $2, status = $3, created_at = $4, responded_at = NULL
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query,
		requesterID, addresseeID, models.FriendshipPending, at, id)
	if err != nil {
		return fmt.Errorf("failed to renew friend request: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// Delete removes an edge. An accepted edge also drops both users' friend
// counters in the same transaction.
func (r *FriendshipRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var requesterID, addresseeID string
	var status models.FriendshipStatus
	query := `DELETE FROM friendships WHERE id = $1 RETURNING requester_id, addressee_id, status`
	err = tx.QueryRow(ctx, query, id).Scan(&requesterID, &addresseeID, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.ErrNotFound
		}
		return fmt.Errorf("failed to delete friendship: %w", err)
	}

	if status == models.FriendshipAccepted {
		_, err = tx.Exec(ctx,
			`UPDATE users SET friend_count = GREATEST(friend_count - 1, 0) WHERE id = ANY($1)`,
			[]string{requesterID, addresseeID})
		if err != nil {
			return fmt.Errorf("failed to drop friend counts: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit unfriend: %w", err)
	}
	return nil
}

// ListFriendIDs returns the IDs of all accepted friends of a user
func (r *FriendshipRepository) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT CASE WHEN requester_id = $1 THEN addressee_id ELSE requester_id END
		FROM friendships
		WHERE (requester_id = $1 OR addressee_id = $1) AND status = $2
	`
	rows, err := r.db.Query(ctx, query, userID, models.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friend ids: %w", err)
	}
	return ids, nil
}

// ListFriends returns the profiles of all accepted friends of a user,
// ordered by username.
func (r *FriendshipRepository) ListFriends(ctx context.Context, userID string) ([]*models.User, error) {
	query := `
		SELECT ` + joinedUserColumns + `
		FROM friendships f
		JOIN users u ON u.id = CASE WHEN f.requester_id = $1 THEN f.addressee_id ELSE f.requester_id END
		WHERE (f.requester_id = $1 OR f.addressee_id = $1) AND f.status = $2
		ORDER BY u.username
	`
	rows, err := r.db.Query(ctx, query, userID, models.FriendshipAccepted)
	if err != nil {
		return nil, fmt.Errorf("failed to list friends: %w", err)
	}
	defer rows.Close()

	var friends []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		friends = append(friends, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friends: %w", err)
	}
	return friends, nil
}

// ListPendingFor returns incoming pending requests with the requester's
// profile, newest first.
func (r *FriendshipRepository) ListPendingFor(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	return r.listRequests(ctx, `f.addressee_id = $1`, `f.requester_id`, userID)
}

// ListSentBy returns outgoing pending requests with the addressee's
// profile, newest first.
func (r *FriendshipRepository) ListSentBy(ctx context.Context, userID string) ([]*models.FriendRequest, error) {
	return r.listRequests(ctx, `f.requester_id = $1`, `f.addressee_id`, userID)
}

func (r *FriendshipRepository) listRequests(ctx context.Context, where, joinOn, userID string) ([]*models.FriendRequest, error) {
	query := `
		SELECT f.id, f.requester_id, f.addressee_id, f.status, f.created_at, f.responded_at,
			` + joinedUserColumns + `
		FROM friendships f
		JOIN users u ON u.id = ` + joinOn + `
		WHERE ` + where + ` AND f.status = $2
		ORDER BY f.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID, models.FriendshipPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend requests: %w", err)
	}
	defer rows.Close()

	var reqs []*models.FriendRequest
	for rows.Next() {
		var f models.Friendship
		var u models.User
		err := rows.Scan(
			&f.ID, &f.RequesterID, &f.AddresseeID, &f.Status, &f.CreatedAt, &f.RespondedAt,
			&u.ID, &u.Username, &u.DisplayName, &u.PasswordHash, &u.AvatarKey,
			&u.FriendCount, &u.DrinkCount, &u.ShowcaseIDs, &u.APNSToken, &u.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan friend request: %w", err)
		}
		reqs = append(reqs, &models.FriendRequest{Friendship: f, User: u})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating friend requests: %w", err)
	}
	return reqs, nil
}
