package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grama-voice/grama-voice-api/internal/dto"
	"github.com/grama-voice/grama-voice-api/internal/middleware"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
	"github.com/grama-voice/grama-voice-api/pkg/response"
)

type dashboardService interface {
	Overview(ctx context.Context) (*dto.OverviewResponse, bool, error)
	Admin(ctx context.Context, adminID int64) (*dto.AdminDashboardResponse, error)
}

// DashboardHandler wires dashboard composition to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Overview godoc
// @Summary Super-admin overview dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Overview(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	start := time.Now()
	overview, cacheHit, err := h.service.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, overview, nil, meta)
}

// Admin godoc
// @Summary Village-admin workbench dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/admin [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	actor := actorFromContext(c)
	if !actor.Valid() {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	dashboard, err := h.service.Admin(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}
