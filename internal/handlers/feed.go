package handlers

import (
	"net/http"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/middleware"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"
)

// FeedHandler handles feed HTTP requests
type FeedHandler struct {
	feedService *services.FeedService
}

// NewFeedHandler creates a new feed handler
func NewFeedHandler(feedService *services.FeedService) *FeedHandler {
	return &FeedHandler{
		feedService: feedService,
	}
}

// Get handles GET /api/v1/feed
func (h *FeedHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	page, err := h.feedService.Feed(ctx, userID, r.URL.Query().Get("cursor"), queryInt(r, "limit", 0))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, page)
}
