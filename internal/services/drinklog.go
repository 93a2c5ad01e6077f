package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	maxDrinkNameLen = 80
	maxCaptionLen   = 500
)

// imageExtensions maps accepted upload content types to storage key
// extensions.
var imageExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/heic": ".heic",
}

// DrinkLogService handles drink log business logic
type DrinkLogService struct {
	logs         DrinkLogStore
	friendships  FriendshipStore
	photos       PhotoStorage
	achievements *AchievementService
}

// NewDrinkLogService creates a new drink log service
func NewDrinkLogService(
	logs DrinkLogStore,
	friendships FriendshipStore,
	photos PhotoStorage,
	achievements *AchievementService,
) *DrinkLogService {
	return &DrinkLogService{
		logs:         logs,
		friendships:  friendships,
		photos:       photos,
		achievements: achievements,
	}
}

// UploadGrant is a signed PUT URL plus the storage key the client must
// upload to before creating the record that references it.
type UploadGrant struct {
	UploadURL string `json:"upload_url"`
	PhotoKey  string `json:"photo_key"`
	ExpiresIn int    `json:"expires_in"`
}

// NewUploadGrant returns a signed PUT URL for a new drink photo.
func (s *DrinkLogService) NewUploadGrant(ctx context.Context, userID, contentType string) (*UploadGrant, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", models.ErrInvalid, contentType)
	}

	key := s.photos.NewDrinkPhotoKey(userID, ext)
	url, expiresIn, err := s.photos.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to presign upload: %w", err)
	}
	return &UploadGrant{UploadURL: url, PhotoKey: key, ExpiresIn: expiresIn}, nil
}

// CreateInput is the payload for logging a drink.
type CreateInput struct {
	PhotoKey  string           `json:"photo_key"`
	DrinkType models.DrinkType `json:"drink_type"`
	DrinkName *string          `json:"drink_name,omitempty"`
	Caption   *string          `json:"caption,omitempty"`
}

func normalizeOptional(s *string, maxLen int) (*string, error) {
	if s == nil {
		return nil, nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil, nil
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return nil, fmt.Errorf("%w: text exceeds %d characters", models.ErrInvalid, maxLen)
	}
	return &trimmed, nil
}

// Create records a new drink log against a photo the user has already
// uploaded, then re-checks logging medals.
func (s *DrinkLogService) Create(ctx context.Context, userID string, in CreateInput) (*models.DrinkLog, error) {
	if !s.photos.OwnsDrinkKey(userID, in.PhotoKey) {
		return nil, fmt.Errorf("%w: photo key does not belong to user", models.ErrInvalid)
	}
	if !models.ValidDrinkType(in.DrinkType) {
		return nil, fmt.Errorf("%w: unknown drink type %q", models.ErrInvalid, in.DrinkType)
	}

	name, err := normalizeOptional(in.DrinkName, maxDrinkNameLen)
	if err != nil {
		return nil, err
	}
	caption, err := normalizeOptional(in.Caption, maxCaptionLen)
	if err != nil {
		return nil, err
	}

	dl := &models.DrinkLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		PhotoKey:  in.PhotoKey,
		DrinkType: in.DrinkType,
		DrinkName: name,
		Caption:   caption,
		CreatedAt: time.Now(),
	}
	if err := s.logs.Create(ctx, dl); err != nil {
		return nil, fmt.Errorf("failed to create drink log: %w", err)
	}

	if err := s.achievements.EvaluateLogging(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("Achievement check after log failed")
	}

	return dl, nil
}

// canViewLog reports whether the viewer may see a drink log: the owner
// always, accepted friends otherwise.
func canViewLog(ctx context.Context, friendships FriendshipStore, viewerID string, dl *models.DrinkLog) (bool, error) {
	if dl.UserID == viewerID {
		return true, nil
	}
	f, err := friendships.GetBetween(ctx, viewerID, dl.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check friendship: %w", err)
	}
	return f.Status == models.FriendshipAccepted, nil
}

// Get returns a drink log if the viewer may see it. Posts outside the
// viewer's circle are reported as missing, not forbidden.
func (s *DrinkLogService) Get(ctx context.Context, viewerID, id string) (*models.DrinkLog, error) {
	dl, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := canViewLog(ctx, s.friendships, viewerID, dl)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.ErrNotFound
	}
	return dl, nil
}

// UpdateInput is the payload for editing a drink log. Only the tag and
// caption can change after creation.
type UpdateInput struct {
	DrinkType models.DrinkType `json:"drink_type"`
	Caption   *string          `json:"caption,omitempty"`
}

// Update edits a drink log. Only the owner can edit; everyone else sees
// the post as missing.
func (s *DrinkLogService) Update(ctx context.Context, userID, id string, in UpdateInput) (*models.DrinkLog, error) {
	dl, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dl.UserID != userID {
		return nil, models.ErrNotFound
	}

	if !models.ValidDrinkType(in.DrinkType) {
		return nil, fmt.Errorf("%w: unknown drink type %q", models.ErrInvalid, in.DrinkType)
	}
	caption, err := normalizeOptional(in.Caption, maxCaptionLen)
	if err != nil {
		return nil, err
	}

	if err := s.logs.Update(ctx, id, in.DrinkType, caption); err != nil {
		return nil, err
	}
	dl.DrinkType = in.DrinkType
	dl.Caption = caption
	return dl, nil
}

// Delete removes a drink log and its stored photo. Only the owner can
// delete; storage cleanup failures are logged, not surfaced.
func (s *DrinkLogService) Delete(ctx context.Context, userID, id string) error {
	dl, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if dl.UserID != userID {
		return models.ErrNotFound
	}

	photoKey, err := s.logs.Delete(ctx, id)
	if err != nil {
		return err
	}

	if photoKey != "" {
		if err := s.photos.Delete(ctx, photoKey); err != nil {
			log.Warn().Err(err).Str("photo_key", photoKey).Msg("Failed to delete photo from storage")
		}
	}
	return nil
}
