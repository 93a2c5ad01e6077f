package handlers

import (
	"errors"
	"net/http"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/middleware"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/models"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// UserHandler handles profile-related HTTP requests
type UserHandler struct {
	userService       *services.UserService
	friendshipService *services.FriendshipService
	feedService       *services.FeedService
	analyticsService  *services.AnalyticsService
}

// NewUserHandler creates a new user handler
func NewUserHandler(
	userService *services.UserService,
	friendshipService *services.FriendshipService,
	feedService *services.FeedService,
	analyticsService *services.AnalyticsService,
) *UserHandler {
	return &UserHandler{
		userService:       userService,
		friendshipService: friendshipService,
		feedService:       feedService,
		analyticsService:  analyticsService,
	}
}

// Me handles GET /api/v1/profile/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	profile, err := h.userService.ProfileByID(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// UpdateProfileRequest represents the request body for profile edits.
// Absent fields are left untouched.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name"`
	AvatarKey   *string `json:"avatar_key"`
}

// UpdateMe handles PATCH /api/v1/profile/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.userService.UpdateProfile(ctx, userID, req.DisplayName, req.AvatarKey); err != nil {
		respondServiceError(w, err)
		return
	}

	profile, err := h.userService.ProfileByID(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Msg("Profile updated")

	respondJSON(w, http.StatusOK, profile)
}

// UpdateShowcaseRequest represents the request body for showcase updates
type UpdateShowcaseRequest struct {
	AchievementIDs []string `json:"achievement_ids"`
}

// UpdateShowcase handles PUT /api/v1/profile/me/showcase
func (h *UserHandler) UpdateShowcase(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateShowcaseRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.userService.UpdateShowcase(ctx, userID, req.AchievementIDs); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdatePushTokenRequest represents the request body for device token updates
type UpdatePushTokenRequest struct {
	Token *string `json:"token"`
}

// UpdatePushToken handles PUT /api/v1/profile/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdatePushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.Token); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Analytics handles GET /api/v1/profile/me/analytics
func (h *UserHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	view, err := h.analyticsService.ForUser(ctx, userID, r.URL.Query().Get("range"), r.URL.Query().Get("tz"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// AvatarUploadURL handles GET /api/v1/avatar/upload-url
func (h *UserHandler) AvatarUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	contentType := r.URL.Query().Get("content_type")
	if contentType == "" {
		contentType = "image/jpeg" // Default
	}

	grant, err := h.userService.AvatarUploadGrant(ctx, userID, contentType)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, grant)
}

// ProfileResponse is a profile joined with the viewer's relationship to it
// and, when the viewer may see them, the user's recent posts.
type ProfileResponse struct {
	*services.ProfileView
	Friendship      services.FriendState `json:"friendship"`
	PostsVisible    bool                 `json:"posts_visible"`
	Posts           []services.PostView  `json:"posts,omitempty"`
	PostsNextCursor string               `json:"posts_next_cursor,omitempty"`
}

// Profile handles GET /api/v1/profile/{username}
func (h *UserHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetUserID(ctx)
	username := chi.URLParam(r, "username")

	profile, err := h.userService.Profile(ctx, username)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	state, err := h.friendshipService.StateBetween(ctx, viewerID, profile.ID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	resp := ProfileResponse{ProfileView: profile, Friendship: state}

	page, err := h.feedService.UserPosts(ctx, viewerID, profile.ID, r.URL.Query().Get("cursor"), queryInt(r, "limit", 0))
	switch {
	case err == nil:
		resp.PostsVisible = true
		resp.Posts = page.Posts
		resp.PostsNextCursor = page.NextCursor
	case errors.Is(err, models.ErrForbidden):
		// Not friends; the card is public but the posts stay hidden.
	default:
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// Versus handles GET /api/v1/profile/{username}/versus
func (h *UserHandler) Versus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetUserID(ctx)
	username := chi.URLParam(r, "username")

	view, err := h.analyticsService.Versus(ctx, viewerID, username)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, view)
}

// Search handles GET /api/v1/users/search
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	viewerID := middleware.GetUserID(ctx)

	results, err := h.userService.Search(ctx, viewerID, r.URL.Query().Get("q"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"users": results})
}
