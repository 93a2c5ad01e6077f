package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minPasswordLength = 8
	maxDisplayNameLen = 40
	maxShowcaseSize   = 3
	searchResultLimit = 20
	bcryptCost        = 12
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]{3,24}$`)

// UserService handles accounts, sessions, and profile business logic
type UserService struct {
	users        UserStore
	achievements AchievementStore
	photos       PhotoStorage
	signer       *URLSigner
	jwtSecret    string
	jwtTTL       time.Duration
}

// NewUserService creates a new user service
func NewUserService(
	users UserStore,
	achievements AchievementStore,
	photos PhotoStorage,
	signer *URLSigner,
	jwtSecret string,
	jwtTTL time.Duration,
) *UserService {
	return &UserService{
		users:        users,
		achievements: achievements,
		photos:       photos,
		signer:       signer,
		jwtSecret:    jwtSecret,
		jwtTTL:       jwtTTL,
	}
}

// Register creates an account and returns the user with a session token.
func (s *UserService) Register(ctx context.Context, username, password, displayName string) (*models.User, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernamePattern.MatchString(username) {
		return nil, "", fmt.Errorf("%w: username must be 3-24 lowercase letters, digits, or underscores", models.ErrInvalid)
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return nil, "", fmt.Errorf("%w: password must be at least %d characters", models.ErrInvalid, minPasswordLength)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = username
	}
	if utf8.RuneCountInString(displayName) > maxDisplayNameLen {
		return nil, "", fmt.Errorf("%w: display name too long", models.ErrInvalid)
	}

	exists, err := s.users.UsernameExists(ctx, username)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}
	if exists {
		return nil, "", fmt.Errorf("%w: username already taken", models.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: string(hash),
		ShowcaseIDs:  []string{},
		CreatedAt:    time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login checks credentials and returns the user with a fresh session token.
// A wrong username and a wrong password are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, "", fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
		}
		return nil, "", fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GenerateJWT generates a session token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(s.jwtTTL).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a session token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// ProfileView is a user profile ready for the client.
type ProfileView struct {
	ID          string                `json:"id"`
	Username    string                `json:"username"`
	DisplayName string                `json:"display_name"`
	AvatarURL   string                `json:"avatar_url,omitempty"`
	FriendCount int                   `json:"friend_count"`
	DrinkCount  int                   `json:"drink_count"`
	Showcase    []*models.Achievement `json:"showcase"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Profile returns a user's profile with the showcase resolved to full medal
// definitions in the user's chosen order.
func (s *UserService) Profile(ctx context.Context, username string) (*ProfileView, error) {
	user, err := s.users.GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, user)
}

// ProfileByID returns a user's profile by ID.
func (s *UserService) ProfileByID(ctx context.Context, userID string) (*ProfileView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.buildProfile(ctx, user)
}

func (s *UserService) buildProfile(ctx context.Context, user *models.User) (*ProfileView, error) {
	view := &ProfileView{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   s.signer.SignedURLOpt(ctx, user.AvatarKey),
		FriendCount: user.FriendCount,
		DrinkCount:  user.DrinkCount,
		Showcase:    []*models.Achievement{},
		CreatedAt:   user.CreatedAt,
	}

	if len(user.ShowcaseIDs) == 0 {
		return view, nil
	}

	catalog, err := s.achievements.ListCatalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}
	byID := make(map[string]*models.Achievement, len(catalog))
	for _, a := range catalog {
		byID[a.ID] = a
	}
	for _, id := range user.ShowcaseIDs {
		if a, ok := byID[id]; ok {
			view.Showcase = append(view.Showcase, a)
		}
	}
	return view, nil
}

// UpdateProfile changes display name and/or avatar. A nil field is left
// untouched; an empty avatar key clears the avatar.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, displayName, avatarKey *string) error {
	if displayName != nil {
		trimmed := strings.TrimSpace(*displayName)
		if trimmed == "" || utf8.RuneCountInString(trimmed) > maxDisplayNameLen {
			return fmt.Errorf("%w: display name must be 1-%d characters", models.ErrInvalid, maxDisplayNameLen)
		}
		displayName = &trimmed
	}
	if avatarKey != nil && *avatarKey != "" && !s.photos.OwnsAvatarKey(userID, *avatarKey) {
		return fmt.Errorf("%w: avatar key does not belong to user", models.ErrInvalid)
	}
	return s.users.UpdateProfile(ctx, userID, displayName, avatarKey)
}

// UpdateShowcase replaces the showcased medal list. At most three, no
// duplicates, and every one must already be unlocked.
func (s *UserService) UpdateShowcase(ctx context.Context, userID string, ids []string) error {
	if len(ids) > maxShowcaseSize {
		return fmt.Errorf("%w: showcase holds at most %d medals", models.ErrInvalid, maxShowcaseSize)
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("%w: duplicate medal in showcase", models.ErrInvalid)
		}
		seen[id] = true
	}

	unlocked, err := s.achievements.ListForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load unlocked achievements: %w", err)
	}
	held := make(map[string]bool, len(unlocked))
	for _, ua := range unlocked {
		held[ua.AchievementID] = true
	}
	for _, id := range ids {
		if !held[id] {
			return fmt.Errorf("%w: medal %s is not unlocked", models.ErrInvalid, id)
		}
	}

	return s.users.UpdateShowcase(ctx, userID, ids)
}

// UpdatePushToken stores or clears the device push token for a user
func (s *UserService) UpdatePushToken(ctx context.Context, userID string, token *string) error {
	if token != nil && strings.TrimSpace(*token) == "" {
		token = nil
	}
	return s.users.UpdateAPNSToken(ctx, userID, token)
}

// AvatarUploadGrant returns a signed PUT URL for a new avatar image.
func (s *UserService) AvatarUploadGrant(ctx context.Context, userID, contentType string) (*UploadGrant, error) {
	ext, ok := imageExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", models.ErrInvalid, contentType)
	}

	key := s.photos.NewAvatarKey(userID, ext)
	url, expiresIn, err := s.photos.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("failed to presign avatar upload: %w", err)
	}
	return &UploadGrant{UploadURL: url, PhotoKey: key, ExpiresIn: expiresIn}, nil
}

// UserCard is a compact user summary for search results and post authors.
type UserCard struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

func newUserCard(ctx context.Context, signer *URLSigner, user *models.User) UserCard {
	return UserCard{
		ID:          user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		AvatarURL:   signer.SignedURLOpt(ctx, user.AvatarKey),
	}
}

// Search finds users by username prefix, excluding the searcher.
func (s *UserService) Search(ctx context.Context, viewerID, query string) ([]UserCard, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if utf8.RuneCountInString(query) < 2 {
		return nil, fmt.Errorf("%w: search query must be at least 2 characters", models.ErrInvalid)
	}

	users, err := s.users.SearchByUsername(ctx, query, searchResultLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}

	cards := make([]UserCard, 0, len(users))
	for _, u := range users {
		if u.ID == viewerID {
			continue
		}
		cards = append(cards, newUserCard(ctx, s.signer, u))
	}
	return cards, nil
}
