package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/grama-voice/grama-voice-api/internal/dto"
	"github.com/grama-voice/grama-voice-api/internal/models"
	"github.com/grama-voice/grama-voice-api/internal/service"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
	"github.com/grama-voice/grama-voice-api/pkg/response"
)

type notificationService interface {
	Create(ctx context.Context, req service.CreateNotificationRequest) (*models.Notification, error)
	List(ctx context.Context, recipient models.Actor, limit int, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipient models.Actor) (int, error)
	MarkRead(ctx context.Context, id int64, recipient models.Actor) (bool, error)
	MarkAllRead(ctx context.Context, recipient models.Actor) (int, error)
}

// NotificationHandler wires the notification store to HTTP endpoints. The
// unread-count and mark-read endpoints answer in the legacy AJAX shape the
// badge poller expects; the rest use the standard envelope.
type NotificationHandler struct {
	service notificationService
}

// NewNotificationHandler constructs the handler.
func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary List the caller's notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Max rows (default 100)"
// @Param unread_only query bool false "Only unread"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	actor := actorFromContext(c)
	if !actor.Valid() {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	limit := 0
	if raw := strings.TrimSpace(c.Query("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}
	unreadOnly := strings.EqualFold(c.Query("unread_only"), "true")

	notifications, err := h.service.List(c.Request.Context(), actor, limit, unreadOnly)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notifications, nil)
}

// Create godoc
// @Summary Send a notification (super admin)
// @Tags Notifications
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /notifications [post]
func (h *NotificationHandler) Create(c *gin.Context) {
	var req service.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	notification, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, notification)
}

// UnreadCount godoc
// @Summary Unread badge count for the caller
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.UnreadCountResponse
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	actor := actorFromContext(c)
	if !actor.Valid() {
		c.JSON(http.StatusUnauthorized, dto.UnreadCountResponse{Success: false, Message: "not authenticated"})
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), actor)
	if err != nil {
		appErr := appErrors.FromError(err)
		c.JSON(appErr.Status, dto.UnreadCountResponse{Success: false, Message: appErr.Message})
		return
	}
	c.JSON(http.StatusOK, dto.UnreadCountResponse{Success: true, UnreadCount: &count})
}

// MarkAllRead godoc
// @Summary Mark all of the caller's notifications read
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.MarkAllReadResponse
// @Router /notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	actor := actorFromContext(c)
	if !actor.Valid() {
		c.JSON(http.StatusUnauthorized, dto.MarkAllReadResponse{Success: false, Message: "not authenticated"})
		return
	}

	count, err := h.service.MarkAllRead(c.Request.Context(), actor)
	if err != nil {
		appErr := appErrors.FromError(err)
		c.JSON(appErr.Status, dto.MarkAllReadResponse{Success: false, Message: appErr.Message})
		return
	}
	c.JSON(http.StatusOK, dto.MarkAllReadResponse{Success: true, MarkedCount: &count})
}

// MarkRead godoc
// @Summary Mark one notification read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.MarkReadResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	actor := actorFromContext(c)
	if !actor.Valid() {
		c.JSON(http.StatusUnauthorized, dto.MarkReadResponse{Success: false, Message: "not authenticated"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, dto.MarkReadResponse{Success: false, Message: "invalid notification id"})
		return
	}

	ok, err := h.service.MarkRead(c.Request.Context(), id, actor)
	if err != nil {
		appErr := appErrors.FromError(err)
		c.JSON(appErr.Status, dto.MarkReadResponse{Success: false, Message: appErr.Message})
		return
	}
	if !ok {
		// Not found or not owned: benign no-op, reported without an error status.
		c.JSON(http.StatusOK, dto.MarkReadResponse{Success: false, Message: "notification not found"})
		return
	}
	c.JSON(http.StatusOK, dto.MarkReadResponse{Success: true})
}
