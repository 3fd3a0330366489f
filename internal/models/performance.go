package models

import "time"

// PerformanceTier is the categorical label summarising an admin's
// resolution track record.
type PerformanceTier string

const (
	TierNew          PerformanceTier = "New"
	TierBeginner     PerformanceTier = "Beginner"
	TierActive       PerformanceTier = "Active"
	TierProfessional PerformanceTier = "Professional"
	TierExpert       PerformanceTier = "Expert"
	TierChampion     PerformanceTier = "Champion"
)

// IssuePriority buckets an issue for triage based on status and age.
type IssuePriority string

const (
	PriorityCritical IssuePriority = "Critical"
	PriorityHigh     IssuePriority = "High"
	PriorityMedium   IssuePriority = "Medium"
	PriorityLow      IssuePriority = "Low"
)

// IntensityLevel summarises a village's raw issue volume for the heatmap.
type IntensityLevel string

const (
	IntensityCritical IntensityLevel = "critical"
	IntensityHigh     IntensityLevel = "high"
	IntensityMedium   IntensityLevel = "medium"
	IntensityLow      IntensityLevel = "low"
)

// PerformanceSnapshot is the derived per-admin summary. It is recomputed
// from issue rows on every request and never persisted.
type PerformanceSnapshot struct {
	AdminID           int64           `json:"admin_id"`
	AdminName         string          `json:"admin_name,omitempty"`
	Village           string          `json:"village,omitempty"`
	TotalIssues       int             `json:"total_issues"`
	Resolved          int             `json:"resolved"`
	Pending           int             `json:"pending"`
	InProgress        int             `json:"in_progress"`
	ResolutionRate    int             `json:"resolution_rate"`
	AvgResolutionDays *float64        `json:"avg_resolution_days,omitempty"`
	Tier              PerformanceTier `json:"tier"`
	Score             int             `json:"score"`
}

// VillageSummary aggregates issue volume for one village.
type VillageSummary struct {
	Village    string         `json:"village"`
	Total      int            `json:"total"`
	Pending    int            `json:"pending"`
	InProgress int            `json:"in_progress"`
	Resolved   int            `json:"resolved"`
	Intensity  IntensityLevel `json:"intensity"`
}

// PrioritizedIssue pairs an issue with its computed triage priority.
type PrioritizedIssue struct {
	Issue    Issue         `json:"issue"`
	Priority IssuePriority `json:"priority"`
	AgeDays  int           `json:"age_days"`
}

// AssignmentRow is the minimal projection of an issue the metrics engine
// consumes: who holds it, where it stands, and when it moved.
type AssignmentRow struct {
	AssignedTo *int64      `db:"assigned_to"`
	Village    string      `db:"village"`
	Status     IssueStatus `db:"status"`
	CreatedAt  time.Time   `db:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at"`
}
