package dto

import "github.com/grama-voice/grama-voice-api/internal/models"

// OverviewResponse is the super-admin dashboard payload: totals, the
// village heatmap, a priority-ordered triage queue and process health.
type OverviewResponse struct {
	TotalIssues   int                         `json:"total_issues"`
	Pending       int                         `json:"pending"`
	InProgress    int                         `json:"in_progress"`
	Resolved      int                         `json:"resolved"`
	Villages      []models.VillageSummary     `json:"villages"`
	PriorityQueue []models.PrioritizedIssue   `json:"priority_queue"`
	TopAdmins     []models.PerformanceSnapshot `json:"top_admins"`
	System        models.SystemMetrics        `json:"system"`
}

// AdminDashboardResponse is the village-admin view: their own snapshot plus
// their assigned queue bucketed by triage priority.
type AdminDashboardResponse struct {
	Snapshot models.PerformanceSnapshot `json:"snapshot"`
	Queue    []models.PrioritizedIssue  `json:"queue"`
}

// LeaderboardResponse carries ranked admin snapshots.
type LeaderboardResponse struct {
	Entries []models.PerformanceSnapshot `json:"entries"`
}
