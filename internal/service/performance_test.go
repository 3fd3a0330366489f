package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grama-voice/grama-voice-api/internal/models"
)

func TestResolutionRateRoundsHalfUp(t *testing.T) {
	cases := []struct {
		name     string
		resolved int
		total    int
		want     int
	}{
		{"empty workload", 0, 0, 0},
		{"exact half rounds up", 1, 8, 13},
		{"two thirds", 2, 3, 67},
		{"one third", 1, 3, 33},
		{"ninety percent", 45, 50, 90},
		{"all resolved", 10, 10, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ResolutionRate(tc.resolved, tc.total))
		})
	}
}

func TestClassifyTierBuckets(t *testing.T) {
	cases := []struct {
		name  string
		total int
		rate  int
		tier  models.PerformanceTier
		score int
	}{
		{"no workload", 0, 0, models.TierNew, 0},
		{"champion threshold", 50, 90, models.TierChampion, 100},
		{"one short of champion volume", 49, 90, models.TierExpert, 85},
		{"one short of champion rate", 50, 89, models.TierExpert, 85},
		{"expert threshold", 30, 80, models.TierExpert, 85},
		{"professional threshold", 20, 70, models.TierProfessional, 70},
		{"active needs only volume", 10, 0, models.TierActive, 55},
		{"below active volume", 9, 100, models.TierBeginner, 30},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier, score := ClassifyTier(tc.total, tc.rate)
			assert.Equal(t, tc.tier, tier)
			assert.Equal(t, tc.score, score)
		})
	}
}

func TestComputeSnapshotCountsOnlyOwnRows(t *testing.T) {
	adminID := int64(3)
	other := int64(4)
	base := time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	rows := []models.AssignmentRow{
		{AssignedTo: &adminID, Status: models.IssueResolved, CreatedAt: base, UpdatedAt: base.AddDate(0, 0, 2)},
		{AssignedTo: &adminID, Status: models.IssueResolved, CreatedAt: base, UpdatedAt: base.AddDate(0, 0, 4)},
		{AssignedTo: &adminID, Status: models.IssuePending, CreatedAt: base, UpdatedAt: base},
		{AssignedTo: &adminID, Status: models.IssueInProgress, CreatedAt: base, UpdatedAt: base},
		{AssignedTo: &other, Status: models.IssueResolved, CreatedAt: base, UpdatedAt: base},
		{AssignedTo: nil, Status: models.IssuePending, CreatedAt: base, UpdatedAt: base},
	}

	got := ComputeSnapshot(adminID, rows)
	assert.Equal(t, 4, got.TotalIssues)
	assert.Equal(t, 2, got.Resolved)
	assert.Equal(t, 1, got.Pending)
	assert.Equal(t, 1, got.InProgress)
	assert.Equal(t, 50, got.ResolutionRate)
	require.NotNil(t, got.AvgResolutionDays)
	assert.InDelta(t, 3.0, *got.AvgResolutionDays, 0.001)
	assert.Equal(t, models.TierBeginner, got.Tier)
}

func TestComputeSnapshotNoResolvedMeansNoAverage(t *testing.T) {
	adminID := int64(1)
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.AssignmentRow{
		{AssignedTo: &adminID, Status: models.IssuePending, CreatedAt: base, UpdatedAt: base},
	}

	got := ComputeSnapshot(adminID, rows)
	assert.Nil(t, got.AvgResolutionDays)
	assert.Equal(t, 0, got.ResolutionRate)
}

func TestComputeSnapshotClampsBackwardsTimestamps(t *testing.T) {
	adminID := int64(1)
	created := time.Date(2025, 8, 10, 12, 0, 0, 0, time.UTC)
	rows := []models.AssignmentRow{
		{AssignedTo: &adminID, Status: models.IssueResolved, CreatedAt: created, UpdatedAt: created.AddDate(0, 0, -3)},
	}

	got := ComputeSnapshot(adminID, rows)
	require.NotNil(t, got.AvgResolutionDays)
	assert.Equal(t, 0.0, *got.AvgResolutionDays)
}

func TestRankSnapshotsOrderAndStability(t *testing.T) {
	snapshots := []models.PerformanceSnapshot{
		{AdminID: 1, Score: 55, ResolutionRate: 40, TotalIssues: 12},
		{AdminID: 2, Score: 85, ResolutionRate: 82, TotalIssues: 33},
		{AdminID: 3, Score: 55, ResolutionRate: 40, TotalIssues: 12},
		{AdminID: 4, Score: 55, ResolutionRate: 60, TotalIssues: 11},
	}

	RankSnapshots(snapshots)

	assert.Equal(t, int64(2), snapshots[0].AdminID)
	assert.Equal(t, int64(4), snapshots[1].AdminID)
	// exact ties keep input order
	assert.Equal(t, int64(1), snapshots[2].AdminID)
	assert.Equal(t, int64(3), snapshots[3].AdminID)
}

func TestClassifyPriorityAgesPendingIssues(t *testing.T) {
	now := time.Date(2025, 8, 20, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name    string
		status  models.IssueStatus
		ageDays int
		want    models.IssuePriority
	}{
		{"pending over a week", models.IssuePending, 8, models.PriorityCritical},
		{"pending exactly a week", models.IssuePending, 7, models.PriorityHigh},
		{"pending four days", models.IssuePending, 4, models.PriorityHigh},
		{"pending three days", models.IssuePending, 3, models.PriorityLow},
		{"fresh pending", models.IssuePending, 1, models.PriorityLow},
		{"in progress regardless of age", models.IssueInProgress, 30, models.PriorityMedium},
		{"resolved", models.IssueResolved, 30, models.PriorityLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			created := now.AddDate(0, 0, -tc.ageDays)
			assert.Equal(t, tc.want, ClassifyPriority(tc.status, created, now))
		})
	}
}

func TestVillageIntensityBuckets(t *testing.T) {
	assert.Equal(t, models.IntensityLow, VillageIntensity(10))
	assert.Equal(t, models.IntensityMedium, VillageIntensity(11))
	assert.Equal(t, models.IntensityHigh, VillageIntensity(16))
	assert.Equal(t, models.IntensityCritical, VillageIntensity(21))
}

func TestSummarizeVillagesSortsByVolume(t *testing.T) {
	base := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := []models.AssignmentRow{
		{Village: "Kotte", Status: models.IssuePending, CreatedAt: base, UpdatedAt: base},
		{Village: "Galle", Status: models.IssueResolved, CreatedAt: base, UpdatedAt: base},
		{Village: "Galle", Status: models.IssuePending, CreatedAt: base, UpdatedAt: base},
		{Village: "Kandy", Status: models.IssueInProgress, CreatedAt: base, UpdatedAt: base},
	}

	got := SummarizeVillages(rows)
	require.Len(t, got, 3)
	assert.Equal(t, "Galle", got[0].Village)
	assert.Equal(t, 2, got[0].Total)
	assert.Equal(t, 1, got[0].Pending)
	assert.Equal(t, 1, got[0].Resolved)
	// equal totals order alphabetically
	assert.Equal(t, "Kandy", got[1].Village)
	assert.Equal(t, "Kotte", got[2].Village)
	for _, summary := range got {
		assert.Equal(t, models.IntensityLow, summary.Intensity)
	}
}

func TestAgeDaysNeverNegative(t *testing.T) {
	now := time.Date(2025, 8, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, 0, AgeDays(now.AddDate(0, 0, 1), now))
	assert.Equal(t, 5, AgeDays(now.AddDate(0, 0, -5), now))
}
