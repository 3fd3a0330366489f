package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grama-voice/grama-voice-api/internal/models"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
)

type fakeUserRepo struct {
	users      map[int64]*models.User
	lastFilter models.UserFilter
	err        error
}

func (f *fakeUserRepo) FindByID(_ context.Context, id int64) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (f *fakeUserRepo) List(_ context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	f.lastFilter = filter
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (f *fakeUserRepo) SetBlocked(_ context.Context, id int64, blocked bool, updatedAt time.Time) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	user, ok := f.users[id]
	if !ok {
		return false, nil
	}
	user.Blocked = blocked
	user.UpdatedAt = updatedAt
	return true, nil
}

func TestListUsersDefaultsPagination(t *testing.T) {
	repo := &fakeUserRepo{users: map[int64]*models.User{
		1: {ID: 1, Email: "a@example.com", Role: models.RoleCitizen},
	}}
	svc := NewUserService(repo, nil)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{Page: 0, PageSize: -3})

	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, repo.lastFilter.Page)
	assert.Equal(t, 20, repo.lastFilter.PageSize)
}

func TestSetBlockedUpdatesAccount(t *testing.T) {
	repo := &fakeUserRepo{users: map[int64]*models.User{
		9: {ID: 9, Email: "admin@example.com", Role: models.RoleVillageAdmin},
	}}
	svc := NewUserService(repo, nil)
	frozen := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return frozen }

	actor := models.Actor{ID: 1, Role: models.RoleSuperAdmin}
	user, err := svc.SetBlocked(context.Background(), actor, 9, true)

	require.NoError(t, err)
	assert.True(t, user.Blocked)
	assert.Equal(t, frozen, user.UpdatedAt)
	assert.True(t, repo.users[9].Blocked)
}

func TestSetBlockedRejectsSelf(t *testing.T) {
	repo := &fakeUserRepo{users: map[int64]*models.User{
		1: {ID: 1, Role: models.RoleSuperAdmin},
	}}
	svc := NewUserService(repo, nil)

	actor := models.Actor{ID: 1, Role: models.RoleSuperAdmin}
	_, err := svc.SetBlocked(context.Background(), actor, 1, true)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.False(t, repo.users[1].Blocked)
}

func TestSetBlockedUnknownUser(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{users: map[int64]*models.User{}}, nil)

	actor := models.Actor{ID: 1, Role: models.RoleSuperAdmin}
	_, err := svc.SetBlocked(context.Background(), actor, 42, true)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGetUserWrapsStorageError(t *testing.T) {
	svc := NewUserService(&fakeUserRepo{err: assert.AnError}, nil)

	_, err := svc.Get(context.Background(), 1)

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
}
