package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/grama-voice/grama-voice-api/internal/dto"
	"github.com/grama-voice/grama-voice-api/internal/middleware"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
	"github.com/grama-voice/grama-voice-api/pkg/response"
)

type leaderboardService interface {
	Leaderboard(ctx context.Context) (*dto.LeaderboardResponse, bool, error)
}

// LeaderboardHandler exposes the ranked admin performance view.
type LeaderboardHandler struct {
	service leaderboardService
}

// NewLeaderboardHandler constructs the handler.
func NewLeaderboardHandler(service leaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

// Leaderboard godoc
// @Summary Ranked village-admin performance
// @Tags Leaderboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /leaderboard [get]
func (h *LeaderboardHandler) Leaderboard(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	board, cacheHit, err := h.service.Leaderboard(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, board, nil, middleware.ExtractMeta(c))
}
