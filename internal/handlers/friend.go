package handlers

import (
	"net/http"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/middleware"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FriendHandler handles friendship-related HTTP requests
type FriendHandler struct {
	friendshipService *services.FriendshipService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendshipService *services.FriendshipService) *FriendHandler {
	return &FriendHandler{
		friendshipService: friendshipService,
	}
}

// AddFriendRequest represents the request body for sending a friend request
type AddFriendRequest struct {
	Username string `json:"username"`
}

// Add handles POST /api/v1/friends/add
func (h *FriendHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req AddFriendRequest
	if err := decodeJSON(r, &req); err != nil {
		respondServiceError(w, err)
		return
	}

	friendship, err := h.friendshipService.Request(ctx, userID, req.Username)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friendship_id", friendship.ID).
		Str("username", req.Username).
		Msg("Friend request sent")

	respondJSON(w, http.StatusCreated, friendship)
}

// Accept handles POST /api/v1/friends/{friendship_id}/accept
func (h *FriendHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	friendshipID := chi.URLParam(r, "friendship_id")

	friendship, err := h.friendshipService.Accept(ctx, userID, friendshipID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friendship_id", friendshipID).
		Msg("Friend request accepted")

	respondJSON(w, http.StatusOK, friendship)
}

// Reject handles POST /api/v1/friends/{friendship_id}/reject
func (h *FriendHandler) Reject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	friendshipID := chi.URLParam(r, "friendship_id")

	if err := h.friendshipService.Reject(ctx, userID, friendshipID); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("friendship_id", friendshipID).
		Msg("Friend request rejected")

	w.WriteHeader(http.StatusNoContent)
}

// Unfriend handles DELETE /api/v1/friends/{username}
func (h *FriendHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	username := chi.URLParam(r, "username")

	if err := h.friendshipService.Unfriend(ctx, userID, username); err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("user_id", userID).
		Str("username", username).
		Msg("Friend removed")

	w.WriteHeader(http.StatusNoContent)
}

// List handles GET /api/v1/friends
func (h *FriendHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	friends, err := h.friendshipService.Friends(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"friends": friends})
}

// Requests handles GET /api/v1/friends/requests
func (h *FriendHandler) Requests(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	requests, err := h.friendshipService.IncomingRequests(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// Sent handles GET /api/v1/friends/sent
func (h *FriendHandler) Sent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	requests, err := h.friendshipService.SentRequests(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}
