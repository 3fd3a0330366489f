package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grama-voice/grama-voice-api/internal/models"
	appErrors "github.com/grama-voice/grama-voice-api/pkg/errors"
)

// stubCacheRepo round-trips payloads through JSON like the redis repository.
type stubCacheRepo struct {
	entries map[string][]byte
	deleted []string
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{entries: map[string][]byte{}}
}

func (s *stubCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.entries[key] = raw
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.deleted = append(s.deleted, pattern)
	s.entries = map[string][]byte{}
	return nil
}

type stubIssueRows struct {
	rows  []models.AssignmentRow
	err   error
	calls int
}

func (s *stubIssueRows) AssignmentRows(context.Context) ([]models.AssignmentRow, error) {
	s.calls++
	return s.rows, s.err
}

type stubAdminLister struct {
	admins []models.User
	err    error
}

func (s *stubAdminLister) ListVillageAdmins(context.Context) ([]models.User, error) {
	return s.admins, s.err
}

func village(name string) *string {
	return &name
}

func TestLeaderboardRanksAdmins(t *testing.T) {
	busy := int64(1)
	idle := int64(2)
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)

	rows := make([]models.AssignmentRow, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, models.AssignmentRow{
			AssignedTo: &busy,
			Status:     models.IssueResolved,
			Village:    "Galle",
			CreatedAt:  base,
			UpdatedAt:  base.AddDate(0, 0, 1),
		})
	}
	issues := &stubIssueRows{rows: rows}
	admins := &stubAdminLister{admins: []models.User{
		{ID: idle, FullName: "Idle Admin", Village: village("Kandy")},
		{ID: busy, FullName: "Busy Admin", Village: village("Galle")},
	}}

	svc := NewLeaderboardService(issues, admins, nil, nil, 0)
	board, hit, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	require.Len(t, board.Entries, 2)

	assert.Equal(t, int64(1), board.Entries[0].AdminID)
	assert.Equal(t, "Busy Admin", board.Entries[0].AdminName)
	assert.Equal(t, "Galle", board.Entries[0].Village)
	assert.Equal(t, models.TierActive, board.Entries[0].Tier)

	assert.Equal(t, int64(2), board.Entries[1].AdminID)
	assert.Equal(t, models.TierNew, board.Entries[1].Tier)
	assert.Equal(t, 0, board.Entries[1].Score)
}

func TestLeaderboardServesSecondCallFromCache(t *testing.T) {
	adminID := int64(1)
	issues := &stubIssueRows{rows: []models.AssignmentRow{
		{AssignedTo: &adminID, Status: models.IssuePending, Village: "Galle", CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}}
	admins := &stubAdminLister{admins: []models.User{{ID: adminID, FullName: "A"}}}
	cache := NewCacheService(newStubCacheRepo(), nil, time.Minute, nil, true)

	svc := NewLeaderboardService(issues, admins, cache, nil, time.Minute)

	_, hit, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	board, hit, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
	require.Len(t, board.Entries, 1)
	assert.Equal(t, 1, issues.calls)
}

func TestLeaderboardInvalidateForcesRecompute(t *testing.T) {
	adminID := int64(1)
	issues := &stubIssueRows{rows: []models.AssignmentRow{
		{AssignedTo: &adminID, Status: models.IssuePending, Village: "Galle", CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}}
	admins := &stubAdminLister{admins: []models.User{{ID: adminID, FullName: "A"}}}
	cache := NewCacheService(newStubCacheRepo(), nil, time.Minute, nil, true)

	svc := NewLeaderboardService(issues, admins, cache, nil, time.Minute)

	_, _, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	svc.Invalidate(context.Background())

	_, hit, err := svc.Leaderboard(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, issues.calls)
}

func TestLeaderboardWrapsStorageError(t *testing.T) {
	svc := NewLeaderboardService(&stubIssueRows{err: assert.AnError}, &stubAdminLister{}, nil, nil, 0)

	_, _, err := svc.Leaderboard(context.Background())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStorage.Code, appErrors.FromError(err).Code)
}

func TestSnapshotForBypassesCache(t *testing.T) {
	adminID := int64(5)
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	issues := &stubIssueRows{rows: []models.AssignmentRow{
		{AssignedTo: &adminID, Status: models.IssueResolved, Village: "Galle", CreatedAt: base, UpdatedAt: base.AddDate(0, 0, 2)},
	}}
	svc := NewLeaderboardService(issues, &stubAdminLister{}, nil, nil, 0)

	snapshot, err := svc.SnapshotFor(context.Background(), adminID)
	require.NoError(t, err)
	assert.Equal(t, 1, snapshot.TotalIssues)
	assert.Equal(t, 1, snapshot.Resolved)
	assert.Equal(t, 100, snapshot.ResolutionRate)
}
