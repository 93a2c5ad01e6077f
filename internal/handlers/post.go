package handlers

import (
	"net/http"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/middleware"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PostHandler handles drink log HTTP requests
type PostHandler struct {
	drinkLogService *services.DrinkLogService
	cheerService    *services.CheerService
}

// NewPostHandler creates a new post handler
func NewPostHandler(drinkLogService *services.DrinkLogService, cheerService *services.CheerService) *PostHandler {
	return &PostHandler{
		drinkLogService: drinkLogService,
		cheerService:    cheerService,
	}
}

// UploadURLRequest represents the request body for a photo upload grant
type UploadURLRequest struct {
	ContentType string `json:"content_type"`
}

// UploadURL handles POST /api/v1/posts/upload-url
func (h *PostHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UploadURLRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg" // Default
	}

	grant, err := h.drinkLogService.NewUploadGrant(ctx, userID, req.ContentType)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("photo_key", grant.PhotoKey).
		Msg("Pre-signed upload URL generated")

	respondJSON(w, http.StatusOK, grant)
}

// Create handles POST /api/v1/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.CreateInput
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	dl, err := h.drinkLogService.Create(ctx, userID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("drink_log_id", dl.ID).
		Str("drink_type", string(dl.DrinkType)).
		Msg("Drink logged")

	respondJSON(w, http.StatusCreated, dl)
}

// Get handles GET /api/v1/posts/{post_id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "post_id")

	dl, err := h.drinkLogService.Get(ctx, userID, postID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dl)
}

// Update handles PATCH /api/v1/posts/{post_id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "post_id")

	var req services.UpdateInput
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	dl, err := h.drinkLogService.Update(ctx, userID, postID, req)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("drink_log_id", postID).
		Msg("Drink log updated")

	respondJSON(w, http.StatusOK, dl)
}

// Delete handles DELETE /api/v1/posts/{post_id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "post_id")

	if err := h.drinkLogService.Delete(ctx, userID, postID); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("drink_log_id", postID).
		Msg("Drink log deleted")

	w.WriteHeader(http.StatusNoContent)
}

// Cheer handles POST /api/v1/posts/{post_id}/cheer
func (h *PostHandler) Cheer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	postID := chi.URLParam(r, "post_id")

	state, err := h.cheerService.Toggle(ctx, userID, postID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, state)
}
