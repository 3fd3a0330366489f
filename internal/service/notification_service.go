package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/grama-voice/grama-voice-api/internal/models"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error)
	UnreadCount(ctx context.Context, recipient models.Actor) (int, error)
	MarkRead(ctx context.Context, id int64, recipient models.Actor) (bool, error)
	MarkAllRead(ctx context.Context, recipient models.Actor) (int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}

// NotificationServiceConfig tunes list limits and retention.
type NotificationServiceConfig struct {
	DefaultListLimit int
	RetentionDays    int
}

// NotificationService is the durable record of per-principal notices and
// their read state. Every operation validates the recipient before any
// storage call and performs no retries; mark-read and prune are idempotent,
// create is not.
type NotificationService struct {
	repo      notificationRepository
	validator *validator.Validate
	logger    *zap.Logger
	cfg       NotificationServiceConfig
	now       func() time.Time
}

// NewNotificationService constructs the service.
func NewNotificationService(repo notificationRepository, validate *validator.Validate, logger *zap.Logger, cfg NotificationServiceConfig) *NotificationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultListLimit <= 0 {
		cfg.DefaultListLimit = 100
	}
	if cfg.RetentionDays <= 0 {
		cfg.RetentionDays = 30
	}
	svc := &NotificationService{repo: repo, validator: validate, logger: logger, cfg: cfg, now: time.Now}
	svc.validator.RegisterValidation("notificationtype", func(fl validator.FieldLevel) bool {
		return models.NotificationType(fl.Field().String()).Valid()
	})
	return svc
}

// CreateNotificationRequest describes the create payload.
type CreateNotificationRequest struct {
	RecipientID   int64  `json:"recipient_id" validate:"required,gt=0"`
	RecipientRole string `json:"recipient_role" validate:"required"`
	Type          string `json:"type" validate:"required,notificationtype"`
	Title         string `json:"title" validate:"required"`
	Message       string `json:"message" validate:"required"`
}

// Create inserts one addressed, unread notification and returns it.
func (s *NotificationService) Create(ctx context.Context, req CreateNotificationRequest) (*models.Notification, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notification payload")
	}
	role := models.Role(strings.ToUpper(req.RecipientRole))
	if !role.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown recipient role")
	}
	notification := &models.Notification{
		RecipientID:   req.RecipientID,
		RecipientRole: role,
		Type:          models.NotificationType(req.Type),
		Title:         strings.TrimSpace(req.Title),
		Message:       strings.TrimSpace(req.Message),
	}
	if notification.Title == "" || notification.Message == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title and message must not be empty")
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create notification")
	}
	return notification, nil
}

// List returns the recipient's notifications newest first.
func (s *NotificationService) List(ctx context.Context, recipient models.Actor, limit int, unreadOnly bool) ([]models.Notification, error) {
	if !recipient.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid recipient")
	}
	if limit <= 0 {
		limit = s.cfg.DefaultListLimit
	}
	notifications, err := s.repo.List(ctx, models.NotificationFilter{
		Recipient:  recipient,
		UnreadOnly: unreadOnly,
		Limit:      limit,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list notifications")
	}
	return notifications, nil
}

// UnreadCount counts the recipient's unread notifications.
func (s *NotificationService) UnreadCount(ctx context.Context, recipient models.Actor) (int, error) {
	if !recipient.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid recipient")
	}
	count, err := s.repo.UnreadCount(ctx, recipient)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flips one owned notification to read. A false return means the
// notification does not exist or belongs to someone else; that is a benign
// no-op, not an error.
func (s *NotificationService) MarkRead(ctx context.Context, id int64, recipient models.Actor) (bool, error) {
	if !recipient.Valid() || id <= 0 {
		return false, appErrors.Clone(appErrors.ErrValidation, "invalid mark-read request")
	}
	ok, err := s.repo.MarkRead(ctx, id, recipient)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to mark notification read")
	}
	return ok, nil
}

// MarkAllRead flips every unread notification for the recipient and
// returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipient models.Actor) (int, error) {
	if !recipient.Valid() {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid recipient")
	}
	count, err := s.repo.MarkAllRead(ctx, recipient)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to mark notifications read")
	}
	return count, nil
}

// PruneExpired deletes notifications older than the retention window and
// returns the number removed.
func (s *NotificationService) PruneExpired(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -s.cfg.RetentionDays)
	deleted, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to prune notifications")
	}
	if deleted > 0 {
		s.logger.Info("pruned notifications", zap.Int("deleted", deleted), zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}

// The helpers below fan out issue-lifecycle notices. Each recipient gets
// its own row, created inline on the request path.

// NotifyNewIssue tells the super admin a citizen filed an issue.
func (s *NotificationService) NotifyNewIssue(ctx context.Context, superAdminID int64, issue *models.Issue) error {
	return s.fanOut(ctx, models.Actor{ID: superAdminID, Role: models.RoleSuperAdmin},
		models.NotificationNewIssue,
		"New issue reported",
		fmt.Sprintf("%q was reported in %s.", issue.Title, issue.Village))
}

// NotifyIssueAssigned tells a village admin an issue landed on their desk.
func (s *NotificationService) NotifyIssueAssigned(ctx context.Context, adminID int64, issue *models.Issue) error {
	return s.fanOut(ctx, models.Actor{ID: adminID, Role: models.RoleVillageAdmin},
		models.NotificationIssueAssigned,
		"Issue assigned to you",
		fmt.Sprintf("%q in %s has been assigned to you.", issue.Title, issue.Village))
}

// NotifyStatusChanged tells the reporting citizen their issue moved.
func (s *NotificationService) NotifyStatusChanged(ctx context.Context, issue *models.Issue) error {
	typ := models.NotificationIssueStatus
	title := "Issue status updated"
	if issue.Status == models.IssueResolved {
		typ = models.NotificationIssueResolved
		title = "Issue resolved"
	}
	return s.fanOut(ctx, models.Actor{ID: issue.ReportedBy, Role: models.RoleCitizen},
		typ, title,
		fmt.Sprintf("%q is now %s.", issue.Title, issue.Status))
}

func (s *NotificationService) fanOut(ctx context.Context, recipient models.Actor, typ models.NotificationType, title, message string) error {
	_, err := s.Create(ctx, CreateNotificationRequest{
		RecipientID:   recipient.ID,
		RecipientRole: string(recipient.Role),
		Type:          string(typ),
		Title:         title,
		Message:       message,
	})
	return err
}
