package handlers

import (
	"net/http"

	"github.com/danielsihyun/drink-the-beer-sub001/internal/middleware"
	"github.com/danielsihyun/drink-the-beer-sub001/internal/services"
)

// AchievementHandler handles achievement HTTP requests
type AchievementHandler struct {
	achievementService *services.AchievementService
}

// NewAchievementHandler creates a new achievement handler
func NewAchievementHandler(achievementService *services.AchievementService) *AchievementHandler {
	return &AchievementHandler{
		achievementService: achievementService,
	}
}

// Catalog handles GET /api/v1/achievements
func (h *AchievementHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	achievements, err := h.achievementService.CatalogFor(ctx, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"achievements": achievements})
}
