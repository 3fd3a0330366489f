package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/grama-voice/grama-voice-api/internal/models"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
)

type issueRepository interface {
	Create(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id int64) (*models.Issue, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error)
	UpdateStatus(ctx context.Context, id int64, status models.IssueStatus, updatedAt time.Time) (bool, error)
	Assign(ctx context.Context, id, adminID int64, updatedAt time.Time) (bool, error)
}

type issueUserRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type issueNotifier interface {
	NotifyNewIssue(ctx context.Context, superAdminID int64, issue *models.Issue) error
	NotifyIssueAssigned(ctx context.Context, adminID int64, issue *models.Issue) error
	NotifyStatusChanged(ctx context.Context, issue *models.Issue) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context)
}

// IssueService handles the issue lifecycle. Every state change fans out
// notifications inline so the caller observes completion before the
// response goes out, and drops every derived-view cache so the
// leaderboard and the overview stay consistent with each other.
type IssueService struct {
	repo      issueRepository
	users     issueUserRepository
	notifier  issueNotifier
	caches    []cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewIssueService constructs the service. Each cache invalidator is
// called after every successful mutation.
func NewIssueService(repo issueRepository, users issueUserRepository, notifier issueNotifier, validate *validator.Validate, logger *zap.Logger, caches ...cacheInvalidator) *IssueService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IssueService{
		repo:      repo,
		users:     users,
		notifier:  notifier,
		caches:    caches,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateIssueRequest describes the filing payload.
type CreateIssueRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category" validate:"required"`
	Village     string `json:"village" validate:"required"`
}

// Create files a new pending issue on behalf of the reporting citizen and
// notifies every super admin.
func (s *IssueService) Create(ctx context.Context, reporter models.Actor, req CreateIssueRequest) (*models.Issue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid issue payload")
	}
	if !reporter.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid reporter")
	}
	issue := &models.Issue{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		Village:     strings.TrimSpace(req.Village),
		Status:      models.IssuePending,
		ReportedBy:  reporter.ID,
	}
	if err := s.repo.Create(ctx, issue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to create issue")
	}

	role := models.RoleSuperAdmin
	superAdmins, _, err := s.users.List(ctx, models.UserFilter{Role: &role, PageSize: 100})
	if err != nil {
		s.logger.Warn("failed to load super admins for fan-out", zap.Error(err))
	}
	for _, admin := range superAdmins {
		if err := s.notifier.NotifyNewIssue(ctx, admin.ID, issue); err != nil {
			s.logger.Warn("new issue notification failed", zap.Int64("recipient", admin.ID), zap.Error(err))
		}
	}
	return issue, nil
}

// Get returns one issue.
func (s *IssueService) Get(ctx context.Context, id int64) (*models.Issue, error) {
	issue, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to get issue")
	}
	return issue, nil
}

// List returns issues with pagination.
func (s *IssueService) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	issues, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list issues")
	}
	return issues, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// UpdateStatus moves an issue through its lifecycle. Village admins may
// only touch issues assigned to them.
func (s *IssueService) UpdateStatus(ctx context.Context, actor models.Actor, id int64, status models.IssueStatus) (*models.Issue, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown issue status")
	}
	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role == models.RoleVillageAdmin {
		if issue.AssignedTo == nil || *issue.AssignedTo != actor.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "issue is not assigned to you")
		}
	}

	updatedAt := s.now().UTC()
	ok, err := s.repo.UpdateStatus(ctx, id, status, updatedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update issue")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
	}
	issue.Status = status
	issue.UpdatedAt = updatedAt

	if err := s.notifier.NotifyStatusChanged(ctx, issue); err != nil {
		s.logger.Warn("status notification failed", zap.Int64("issue", issue.ID), zap.Error(err))
	}
	s.invalidateCaches(ctx)
	return issue, nil
}

// Assign hands an issue to a village admin and notifies them.
func (s *IssueService) Assign(ctx context.Context, id, adminID int64) (*models.Issue, error) {
	admin, err := s.users.FindByID(ctx, adminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to load assignee")
	}
	if admin.Role != models.RoleVillageAdmin {
		return nil, appErrors.Clone(appErrors.ErrValidation, "assignee is not a village admin")
	}

	issue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updatedAt := s.now().UTC()
	ok, err := s.repo.Assign(ctx, id, adminID, updatedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to assign issue")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
	}
	issue.AssignedTo = &adminID
	issue.Status = models.IssueInProgress
	issue.UpdatedAt = updatedAt

	if err := s.notifier.NotifyIssueAssigned(ctx, adminID, issue); err != nil {
		s.logger.Warn("assignment notification failed", zap.Int64("issue", issue.ID), zap.Error(err))
	}
	s.invalidateCaches(ctx)
	return issue, nil
}

func (s *IssueService) invalidateCaches(ctx context.Context) {
	for _, cache := range s.caches {
		if cache != nil {
			cache.Invalidate(ctx)
		}
	}
}
