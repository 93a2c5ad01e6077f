package handlers

import (
	"net/http"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/middleware"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"
)

// CheerHandler handles cheer HTTP requests
type CheerHandler struct {
	cheerService *services.CheerService
}

// NewCheerHandler creates a new cheer handler
func NewCheerHandler(cheerService *services.CheerService) *CheerHandler {
	return &CheerHandler{
		cheerService: cheerService,
	}
}

// CheerStateRequest represents the request body for a bulk state query
type CheerStateRequest struct {
	PostIDs []string `json:"post_ids"`
}

// State handles POST /api/v1/cheers/state
func (h *CheerHandler) State(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CheerStateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	states, err := h.cheerService.StateFor(ctx, userID, req.PostIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"states": states})
}

// Unseen handles GET /api/v1/cheers/unseen
func (h *CheerHandler) Unseen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	count, err := h.cheerService.UnseenCount(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"unseen": count})
}

// MarkSeen handles POST /api/v1/cheers/seen
func (h *CheerHandler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.cheerService.MarkSeen(ctx, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
