package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/grama-voice/grama-voice-api/internal/models"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
)

type userRepository interface {
	FindByID(ctx context.Context, id int64) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	SetBlocked(ctx context.Context, id int64, blocked bool, updatedAt time.Time) (bool, error)
}

// UserService covers the account administration the super admin performs.
type UserService struct {
	repo   userRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService constructs the service.
func NewUserService(repo userRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, logger: logger, now: time.Now}
}

// List returns accounts with pagination.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to list users")
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Get returns one account.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to get user")
	}
	return user, nil
}

// SetBlocked blocks or unblocks an account. Super admins cannot block
// themselves.
func (s *UserService) SetBlocked(ctx context.Context, actor models.Actor, id int64, blocked bool) (*models.User, error) {
	if actor.ID == id {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot change your own block state")
	}
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updatedAt := s.now().UTC()
	ok, err := s.repo.SetBlocked(ctx, id, blocked, updatedAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorage.Code, appErrors.ErrStorage.Status, "failed to update user")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	user.Blocked = blocked
	user.UpdatedAt = updatedAt
	return user, nil
}
