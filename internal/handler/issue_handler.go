package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grama-voice/grama-voice-api/internal/models"
	"github.com/grama-voice/grama-voice-api/internal/service"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
	"github.com/grama-voice/grama-voice-api/pkg/response"
)

type issueService interface {
	Create(ctx context.Context, reporter models.Actor, req service.CreateIssueRequest) (*models.Issue, error)
	Get(ctx context.Context, id int64) (*models.Issue, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, *models.Pagination, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id int64, status models.IssueStatus) (*models.Issue, error)
	Assign(ctx context.Context, id, adminID int64) (*models.Issue, error)
}

// IssueHandler wires the issue lifecycle to HTTP endpoints.
type IssueHandler struct {
	service issueService
}

// NewIssueHandler constructs the handler.
func NewIssueHandler(service issueService) *IssueHandler {
	return &IssueHandler{service: service}
}

// Create godoc
// @Summary File a new issue
// @Tags Issues
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /issues [post]
func (h *IssueHandler) Create(c *gin.Context) {
	actor := actorFromContext(c)
	if !actor.Valid() {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	issue, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issue)
}

// Get godoc
// @Summary Fetch one issue
// @Tags Issues
// @Produce json
// @Param id path int true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid issue id"))
		return
	}
	issue, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// List godoc
// @Summary List issues
// @Tags Issues
// @Produce json
// @Param status query string false "Lifecycle state"
// @Param village query string false "Village"
// @Param mine query bool false "Restrict to the caller's own issues"
// @Success 200 {object} response.Envelope
// @Router /issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	actor := actorFromContext(c)
	if !actor.Valid() {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter := models.IssueFilter{
		Village:  strings.TrimSpace(c.Query("village")),
		Page:     parseIntDefault(c.Query("page"), 1),
		PageSize: parseIntDefault(c.Query("limit"), 20),
	}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		status := models.IssueStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown issue status"))
			return
		}
		filter.Status = &status
	}
	// Citizens only see their own filings; village admins see their queue.
	switch actor.Role {
	case models.RoleCitizen:
		filter.ReportedBy = &actor.ID
	case models.RoleVillageAdmin:
		filter.AssignedTo = &actor.ID
	default:
		if strings.EqualFold(c.Query("mine"), "true") {
			filter.ReportedBy = &actor.ID
		}
	}

	issues, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issues, pagination)
}

// UpdateStatus godoc
// @Summary Move an issue to a new lifecycle state
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path int true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/status [patch]
func (h *IssueHandler) UpdateStatus(c *gin.Context) {
	actor := actorFromContext(c)
	if !actor.Valid() {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid issue id"))
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	issue, err := h.service.UpdateStatus(c.Request.Context(), actor, id, models.IssueStatus(req.Status))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Assign godoc
// @Summary Assign an issue to a village admin
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path int true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/assign [patch]
func (h *IssueHandler) Assign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid issue id"))
		return
	}
	var req struct {
		AdminID int64 `json:"admin_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.AdminID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "admin_id is required"))
		return
	}
	issue, err := h.service.Assign(c.Request.Context(), id, req.AdminID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

func parseIntDefault(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}
