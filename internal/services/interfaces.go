package services

import (
	"context"
	"time"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/repository"
)

// UserStore is the persistence surface the services need for users. The
// pgx-backed repository satisfies it in production.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetManyByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UpdateProfile(ctx context.Context, userID string, displayName *string, avatarKey *string) error
	UpdateShowcase(ctx context.Context, userID string, ids []string) error
	UpdateAPNSToken(ctx context.Context, userID string, token *string) error
	SearchByUsername(ctx context.Context, prefix string, limit int) ([]*models.User, error)
}

// DrinkLogStore is the persistence surface for drink logs.
type DrinkLogStore interface {
	Create(ctx context.Context, dl *models.DrinkLog) error
	GetByID(ctx context.Context, id string) (*models.DrinkLog, error)
	ListByIDs(ctx context.Context, ids []string) ([]*models.DrinkLog, error)
	Update(ctx context.Context, id string, drinkType models.DrinkType, caption *string) error
	Delete(ctx context.Context, id string) (string, error)
	ListByUsers(ctx context.Context, userIDs []string, before *repository.Cursor, limit int) ([]*models.DrinkLog, error)
	ListByUserSince(ctx context.Context, userID string, since time.Time) ([]*models.DrinkLog, error)
}

// FriendshipStore is the persistence surface for friendship edges.
type FriendshipStore interface {
	Create(ctx context.Context, f *models.Friendship) error
	GetByID(ctx context.Context, id string) (*models.Friendship, error)
	GetBetween(ctx context.Context, userA, userB string) (*models.Friendship, error)
	Accept(ctx context.Context, id string, respondedAt time.Time) error
	Reject(ctx context.Context, id string, respondedAt time.Time) error
	Repend(ctx context.Context, id, requesterID, addresseeID string, at time.Time) error
	Delete(ctx context.Context, id string) error
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
	ListFriends(ctx context.Context, userID string) ([]*models.User, error)
	ListPendingFor(ctx context.Context, userID string) ([]*models.FriendRequest, error)
	ListSentBy(ctx context.Context, userID string) ([]*models.FriendRequest, error)
}

// CheerStore is the persistence surface for cheers.
type CheerStore interface {
	Toggle(ctx context.Context, drinkLogID, userID string, now time.Time) (bool, int, error)
	StateForLogs(ctx context.Context, logIDs []string, viewerID string) (map[string]models.CheerState, error)
	UnseenCountForOwner(ctx context.Context, ownerID string) (int, error)
	MarkSeenForOwner(ctx context.Context, ownerID string) error
	CountReceivedByOwner(ctx context.Context, ownerID string) (int, error)
}

// AchievementStore is the persistence surface for the medal catalog and
// per-user unlocks.
type AchievementStore interface {
	ListCatalog(ctx context.Context) ([]*models.Achievement, error)
	ListForUser(ctx context.Context, userID string) ([]*models.UserAchievement, error)
	Unlock(ctx context.Context, userID, achievementID string, at time.Time) (bool, error)
}

// PhotoStorage is the object storage surface for drink photos and avatars.
// The S3-backed store satisfies it in production.
type PhotoStorage interface {
	NewDrinkPhotoKey(userID, ext string) string
	NewAvatarKey(userID, ext string) string
	OwnsDrinkKey(userID, key string) bool
	OwnsAvatarKey(userID, key string) bool
	PresignUpload(ctx context.Context, key, contentType string) (string, int, error)
	SignedGetURL(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, key string) error
}
