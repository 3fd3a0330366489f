package service

import (
	"math"
	"sort"
	"time"

	"github.com/grama-voice/grama-voice-api/internal/models"
)

// The functions in this file form the derived-metrics engine: pure,
// deterministic transformations from issue rows to per-admin and
// per-village summaries. Nothing here touches storage or clocks directly;
// callers supply the rows and the reference time.

// tierRule is one row of the ordered bucket table. Rules are evaluated
// top to bottom and the first satisfied rule wins.
type tierRule struct {
	minTotal int
	minRate  int
	tier     models.PerformanceTier
	score    int
}

var tierRules = []tierRule{
	{minTotal: 50, minRate: 90, tier: models.TierChampion, score: 100},
	{minTotal: 30, minRate: 80, tier: models.TierExpert, score: 85},
	{minTotal: 20, minRate: 70, tier: models.TierProfessional, score: 70},
	{minTotal: 10, minRate: 0, tier: models.TierActive, score: 55},
}

// ResolutionRate computes round-half-up percentage of resolved over total,
// returning 0 for an empty workload.
func ResolutionRate(resolved, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Floor(float64(resolved)/float64(total)*100 + 0.5))
}

// ClassifyTier maps a workload onto the tier table.
func ClassifyTier(total, rate int) (models.PerformanceTier, int) {
	if total == 0 {
		return models.TierNew, 0
	}
	for _, rule := range tierRules {
		if total >= rule.minTotal && rate >= rule.minRate {
			return rule.tier, rule.score
		}
	}
	return models.TierBeginner, 30
}

// ComputeSnapshot derives one admin's performance summary from the issue
// rows assigned to them. Resolved rows with updated_at before created_at
// count as zero-day resolutions instead of going negative.
func ComputeSnapshot(adminID int64, rows []models.AssignmentRow) models.PerformanceSnapshot {
	snapshot := models.PerformanceSnapshot{AdminID: adminID}
	var resolutionDaysSum float64
	for _, row := range rows {
		if row.AssignedTo == nil || *row.AssignedTo != adminID {
			continue
		}
		snapshot.TotalIssues++
		switch row.Status {
		case models.IssueResolved:
			snapshot.Resolved++
			resolutionDaysSum += resolutionDays(row.CreatedAt, row.UpdatedAt)
		case models.IssuePending:
			snapshot.Pending++
		case models.IssueInProgress:
			snapshot.InProgress++
		}
	}

	snapshot.ResolutionRate = ResolutionRate(snapshot.Resolved, snapshot.TotalIssues)
	if snapshot.Resolved > 0 {
		avg := resolutionDaysSum / float64(snapshot.Resolved)
		snapshot.AvgResolutionDays = &avg
	}
	snapshot.Tier, snapshot.Score = ClassifyTier(snapshot.TotalIssues, snapshot.ResolutionRate)
	return snapshot
}

// RankSnapshots orders snapshots for the leaderboard: descending by score,
// then resolution rate, then total issues. The sort is stable so exact ties
// keep their input order.
func RankSnapshots(snapshots []models.PerformanceSnapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		a, b := snapshots[i], snapshots[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.ResolutionRate != b.ResolutionRate {
			return a.ResolutionRate > b.ResolutionRate
		}
		return a.TotalIssues > b.TotalIssues
	})
}

// ClassifyPriority buckets an issue for triage. Pending issues escalate
// with age; anything in progress sits in the middle of the queue.
func ClassifyPriority(status models.IssueStatus, createdAt, now time.Time) models.IssuePriority {
	age := AgeDays(createdAt, now)
	switch {
	case status == models.IssuePending && age > 7:
		return models.PriorityCritical
	case status == models.IssuePending && age > 3:
		return models.PriorityHigh
	case status == models.IssueInProgress:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

// VillageIntensity buckets a village's raw issue count for the heatmap.
func VillageIntensity(total int) models.IntensityLevel {
	switch {
	case total > 20:
		return models.IntensityCritical
	case total > 15:
		return models.IntensityHigh
	case total > 10:
		return models.IntensityMedium
	default:
		return models.IntensityLow
	}
}

// SummarizeVillages folds issue rows into per-village volume summaries,
// sorted by total descending then village name for determinism.
func SummarizeVillages(rows []models.AssignmentRow) []models.VillageSummary {
	byVillage := map[string]*models.VillageSummary{}
	order := []string{}
	for _, row := range rows {
		summary, ok := byVillage[row.Village]
		if !ok {
			summary = &models.VillageSummary{Village: row.Village}
			byVillage[row.Village] = summary
			order = append(order, row.Village)
		}
		summary.Total++
		switch row.Status {
		case models.IssuePending:
			summary.Pending++
		case models.IssueInProgress:
			summary.InProgress++
		case models.IssueResolved:
			summary.Resolved++
		}
	}

	summaries := make([]models.VillageSummary, 0, len(order))
	for _, village := range order {
		summary := byVillage[village]
		summary.Intensity = VillageIntensity(summary.Total)
		summaries = append(summaries, *summary)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		if summaries[i].Total != summaries[j].Total {
			return summaries[i].Total > summaries[j].Total
		}
		return summaries[i].Village < summaries[j].Village
	})
	return summaries
}

// AgeDays returns whole days elapsed between the two instants, never
// negative.
func AgeDays(createdAt, now time.Time) int {
	days := int(now.Sub(createdAt).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// resolutionDays measures calendar days between filing and resolution,
// clamped at zero when the timestamps are out of order.
func resolutionDays(createdAt, updatedAt time.Time) float64 {
	days := dateOf(updatedAt).Sub(dateOf(createdAt)).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

func dateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
