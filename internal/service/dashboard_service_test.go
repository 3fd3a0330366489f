package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grama-voice/grama-voice-api/internal/dto"
	"github.com/grama-voice/grama-voice-api/internal/models"
)

type stubIssueLister struct {
	rows       []models.AssignmentRow
	rowsErr    error
	issues     []models.Issue
	issuesErr  error
	lastFilter models.IssueFilter
}

func (s *stubIssueLister) List(_ context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	s.lastFilter = filter
	return s.issues, len(s.issues), s.issuesErr
}

func (s *stubIssueLister) AssignmentRows(context.Context) ([]models.AssignmentRow, error) {
	return s.rows, s.rowsErr
}

type stubSnapshotter struct {
	snapshot models.PerformanceSnapshot
	board    *dto.LeaderboardResponse
	err      error
}

func (s *stubSnapshotter) SnapshotFor(context.Context, int64) (models.PerformanceSnapshot, error) {
	return s.snapshot, s.err
}

func (s *stubSnapshotter) Leaderboard(context.Context) (*dto.LeaderboardResponse, bool, error) {
	return s.board, false, s.err
}

func fixedDashboard(issues *stubIssueLister, board *stubSnapshotter, now time.Time) *DashboardService {
	svc := NewDashboardService(issues, board, nil, nil, nil, DashboardServiceConfig{})
	svc.now = func() time.Time { return now }
	return svc
}

func TestOverviewAggregatesTotals(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	issues := &stubIssueLister{
		rows: []models.AssignmentRow{
			{Village: "Galle", Status: models.IssuePending, CreatedAt: now, UpdatedAt: now},
			{Village: "Galle", Status: models.IssueResolved, CreatedAt: now, UpdatedAt: now},
			{Village: "Kandy", Status: models.IssueInProgress, CreatedAt: now, UpdatedAt: now},
		},
	}
	board := &stubSnapshotter{board: &dto.LeaderboardResponse{Entries: []models.PerformanceSnapshot{
		{AdminID: 1, Score: 70},
	}}}

	svc := fixedDashboard(issues, board, now)
	overview, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, 3, overview.TotalIssues)
	assert.Equal(t, 1, overview.Pending)
	assert.Equal(t, 1, overview.InProgress)
	assert.Equal(t, 1, overview.Resolved)
	require.Len(t, overview.Villages, 2)
	assert.Equal(t, "Galle", overview.Villages[0].Village)
	require.Len(t, overview.TopAdmins, 1)
}

func TestOverviewTruncatesTopAdmins(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	entries := make([]models.PerformanceSnapshot, 8)
	for i := range entries {
		entries[i] = models.PerformanceSnapshot{AdminID: int64(i + 1)}
	}
	board := &stubSnapshotter{board: &dto.LeaderboardResponse{Entries: entries}}

	svc := fixedDashboard(&stubIssueLister{}, board, now)
	overview, _, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Len(t, overview.TopAdmins, 5)
}

func TestOverviewCachedOnSecondCall(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	board := &stubSnapshotter{board: &dto.LeaderboardResponse{}}
	cache := NewCacheService(newStubCacheRepo(), nil, time.Minute, nil, true)

	svc := NewDashboardService(&stubIssueLister{}, board, nil, cache, nil, DashboardServiceConfig{})
	svc.now = func() time.Time { return now }

	_, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)

	_, hit, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestInvalidateDropsCachedOverview(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	issues := &stubIssueLister{rows: []models.AssignmentRow{
		{Village: "Galle", Status: models.IssuePending, CreatedAt: now, UpdatedAt: now},
	}}
	board := &stubSnapshotter{board: &dto.LeaderboardResponse{}}
	cache := NewCacheService(newStubCacheRepo(), nil, time.Minute, nil, true)

	svc := NewDashboardService(issues, board, nil, cache, nil, DashboardServiceConfig{})
	svc.now = func() time.Time { return now }

	_, _, err := svc.Overview(context.Background())
	require.NoError(t, err)

	issues.rows = append(issues.rows, models.AssignmentRow{
		Village: "Galle", Status: models.IssueResolved, CreatedAt: now, UpdatedAt: now,
	})
	svc.Invalidate(context.Background())

	overview, hit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 2, overview.TotalIssues)
	assert.Equal(t, 1, overview.Resolved)
}

func TestOverviewRecordsQueryTimings(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	board := &stubSnapshotter{board: &dto.LeaderboardResponse{}}
	metrics := NewMetricsService()

	svc := NewDashboardService(&stubIssueLister{}, board, metrics, nil, nil, DashboardServiceConfig{})
	svc.now = func() time.Time { return now }

	overview, _, err := svc.Overview(context.Background())
	require.NoError(t, err)

	assert.Equal(t, uint64(2), metrics.Snapshot().DBQueryCount)
	assert.Equal(t, uint64(2), overview.System.DBQueryCount)
}

func TestAdminDashboardOrdersQueueByUrgency(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	issues := &stubIssueLister{issues: []models.Issue{
		{ID: 1, Status: models.IssuePending, CreatedAt: now.AddDate(0, 0, -2)},  // low
		{ID: 2, Status: models.IssuePending, CreatedAt: now.AddDate(0, 0, -10)}, // critical
		{ID: 3, Status: models.IssueInProgress, CreatedAt: now.AddDate(0, 0, -1)},
		{ID: 4, Status: models.IssuePending, CreatedAt: now.AddDate(0, 0, -5)}, // high
	}}
	board := &stubSnapshotter{snapshot: models.PerformanceSnapshot{AdminID: 3, Tier: models.TierActive}}

	svc := fixedDashboard(issues, board, now)
	resp, err := svc.Admin(context.Background(), 3)
	require.NoError(t, err)

	require.Len(t, resp.Queue, 4)
	assert.Equal(t, int64(2), resp.Queue[0].Issue.ID)
	assert.Equal(t, models.PriorityCritical, resp.Queue[0].Priority)
	assert.Equal(t, 10, resp.Queue[0].AgeDays)
	assert.Equal(t, int64(4), resp.Queue[1].Issue.ID)
	assert.Equal(t, int64(3), resp.Queue[2].Issue.ID)
	assert.Equal(t, int64(1), resp.Queue[3].Issue.ID)

	require.NotNil(t, issues.lastFilter.AssignedTo)
	assert.Equal(t, int64(3), *issues.lastFilter.AssignedTo)
	assert.Equal(t, models.TierActive, resp.Snapshot.Tier)
}

func TestAdminDashboardRejectsBadID(t *testing.T) {
	svc := fixedDashboard(&stubIssueLister{}, &stubSnapshotter{}, time.Now())
	_, err := svc.Admin(context.Background(), 0)
	assert.Error(t, err)
}
