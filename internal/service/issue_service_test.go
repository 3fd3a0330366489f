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

type fakeIssueRepo struct {
	issue      *models.Issue
	getErr     error
	created    *models.Issue
	statusOK   bool
	assignOK   bool
	lastStatus models.IssueStatus
}

func (f *fakeIssueRepo) Create(_ context.Context, issue *models.Issue) error {
	issue.ID = 1
	f.created = issue
	return nil
}

func (f *fakeIssueRepo) GetByID(context.Context, int64) (*models.Issue, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	clone := *f.issue
	return &clone, nil
}

func (f *fakeIssueRepo) List(context.Context, models.IssueFilter) ([]models.Issue, int, error) {
	return nil, 0, nil
}

func (f *fakeIssueRepo) UpdateStatus(_ context.Context, _ int64, status models.IssueStatus, _ time.Time) (bool, error) {
	f.lastStatus = status
	return f.statusOK, nil
}

func (f *fakeIssueRepo) Assign(context.Context, int64, int64, time.Time) (bool, error) {
	return f.assignOK, nil
}

type fakeIssueUsers struct {
	byID   *models.User
	idErr  error
	listed []models.User
}

func (f *fakeIssueUsers) FindByID(context.Context, int64) (*models.User, error) {
	return f.byID, f.idErr
}

func (f *fakeIssueUsers) List(context.Context, models.UserFilter) ([]models.User, int, error) {
	return f.listed, len(f.listed), nil
}

type fakeNotifier struct {
	newIssue []int64
	assigned []int64
	status   []int64
}

func (f *fakeNotifier) NotifyNewIssue(_ context.Context, superAdminID int64, _ *models.Issue) error {
	f.newIssue = append(f.newIssue, superAdminID)
	return nil
}

func (f *fakeNotifier) NotifyIssueAssigned(_ context.Context, adminID int64, _ *models.Issue) error {
	f.assigned = append(f.assigned, adminID)
	return nil
}

func (f *fakeNotifier) NotifyStatusChanged(_ context.Context, issue *models.Issue) error {
	f.status = append(f.status, issue.ID)
	return nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(context.Context) {
	f.calls++
}

func TestCreateIssueStartsPendingAndNotifiesSuperAdmins(t *testing.T) {
	repo := &fakeIssueRepo{}
	users := &fakeIssueUsers{listed: []models.User{{ID: 10}, {ID: 11}}}
	notifier := &fakeNotifier{}
	svc := NewIssueService(repo, users, notifier, nil, nil)

	issue, err := svc.Create(context.Background(), models.Actor{ID: 4, Role: models.RoleCitizen}, CreateIssueRequest{
		Title:       "Broken culvert",
		Description: "Flooding after rain",
		Category:    "infrastructure",
		Village:     "Galle",
	})
	require.NoError(t, err)
	assert.Equal(t, models.IssuePending, issue.Status)
	assert.Equal(t, int64(4), issue.ReportedBy)
	assert.Equal(t, []int64{10, 11}, notifier.newIssue)
}

func TestCreateIssueValidatesPayload(t *testing.T) {
	svc := NewIssueService(&fakeIssueRepo{}, &fakeIssueUsers{}, &fakeNotifier{}, nil, nil)

	_, err := svc.Create(context.Background(), models.Actor{ID: 4, Role: models.RoleCitizen}, CreateIssueRequest{Title: "no description"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusRejectsUnassignedVillageAdmin(t *testing.T) {
	other := int64(99)
	repo := &fakeIssueRepo{issue: &models.Issue{ID: 1, Status: models.IssuePending, AssignedTo: &other}}
	svc := NewIssueService(repo, &fakeIssueUsers{}, &fakeNotifier{}, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), models.Actor{ID: 3, Role: models.RoleVillageAdmin}, 1, models.IssueResolved)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUpdateStatusNotifiesAndInvalidates(t *testing.T) {
	adminID := int64(3)
	repo := &fakeIssueRepo{issue: &models.Issue{ID: 1, ReportedBy: 4, Status: models.IssueInProgress, AssignedTo: &adminID}, statusOK: true}
	notifier := &fakeNotifier{}
	leaderboard := &fakeInvalidator{}
	overview := &fakeInvalidator{}
	svc := NewIssueService(repo, &fakeIssueUsers{}, notifier, nil, nil, leaderboard, overview)

	issue, err := svc.UpdateStatus(context.Background(), models.Actor{ID: adminID, Role: models.RoleVillageAdmin}, 1, models.IssueResolved)
	require.NoError(t, err)
	assert.Equal(t, models.IssueResolved, issue.Status)
	assert.Equal(t, []int64{1}, notifier.status)
	assert.Equal(t, 1, leaderboard.calls)
	assert.Equal(t, 1, overview.calls)
}

func TestUpdateStatusSuperAdminSkipsOwnershipCheck(t *testing.T) {
	repo := &fakeIssueRepo{issue: &models.Issue{ID: 1, Status: models.IssuePending}, statusOK: true}
	svc := NewIssueService(repo, &fakeIssueUsers{}, &fakeNotifier{}, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), models.Actor{ID: 1, Role: models.RoleSuperAdmin}, 1, models.IssueInProgress)
	require.NoError(t, err)
	assert.Equal(t, models.IssueInProgress, repo.lastStatus)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	svc := NewIssueService(&fakeIssueRepo{}, &fakeIssueUsers{}, &fakeNotifier{}, nil, nil)

	_, err := svc.UpdateStatus(context.Background(), models.Actor{ID: 1, Role: models.RoleSuperAdmin}, 1, "Closed")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignRequiresVillageAdminAssignee(t *testing.T) {
	users := &fakeIssueUsers{byID: &models.User{ID: 5, Role: models.RoleCitizen}}
	svc := NewIssueService(&fakeIssueRepo{}, users, &fakeNotifier{}, nil, nil)

	_, err := svc.Assign(context.Background(), 1, 5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignMovesIssueInProgress(t *testing.T) {
	repo := &fakeIssueRepo{issue: &models.Issue{ID: 1, Status: models.IssuePending}, assignOK: true}
	users := &fakeIssueUsers{byID: &models.User{ID: 5, Role: models.RoleVillageAdmin}}
	notifier := &fakeNotifier{}
	leaderboard := &fakeInvalidator{}
	overview := &fakeInvalidator{}
	svc := NewIssueService(repo, users, notifier, nil, nil, leaderboard, overview)

	issue, err := svc.Assign(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, models.IssueInProgress, issue.Status)
	require.NotNil(t, issue.AssignedTo)
	assert.Equal(t, int64(5), *issue.AssignedTo)
	assert.Equal(t, []int64{5}, notifier.assigned)
	assert.Equal(t, 1, leaderboard.calls)
	assert.Equal(t, 1, overview.calls)
}

func TestGetMapsMissingRow(t *testing.T) {
	repo := &fakeIssueRepo{getErr: sql.ErrNoRows}
	svc := NewIssueService(repo, &fakeIssueUsers{}, &fakeNotifier{}, nil, nil)

	_, err := svc.Get(context.Background(), 42)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
