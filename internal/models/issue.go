package models

import "time"

// IssueStatus tracks an issue through its lifecycle. Values keep the legacy
// display casing because the database and front end share them.
type IssueStatus string

const (
	IssuePending    IssueStatus = "Pending"
	IssueInProgress IssueStatus = "In Progress"
	IssueResolved   IssueStatus = "Resolved"
)

// Valid reports whether the status is a known lifecycle state.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssuePending, IssueInProgress, IssueResolved:
		return true
	}
	return false
}

// Issue is a citizen-filed municipal complaint.
type Issue struct {
	ID          int64       `db:"id" json:"id"`
	Title       string      `db:"title" json:"title"`
	Description string      `db:"description" json:"description"`
	Category    string      `db:"category" json:"category"`
	Village     string      `db:"village" json:"village"`
	Status      IssueStatus `db:"status" json:"status"`
	ReportedBy  int64       `db:"reported_by" json:"reported_by"`
	AssignedTo  *int64      `db:"assigned_to" json:"assigned_to,omitempty"`
	CreatedAt   time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at" json:"updated_at"`
}

// IssueFilter captures listing criteria for issues.
type IssueFilter struct {
	Status     *IssueStatus
	Village    string
	ReportedBy *int64
	AssignedTo *int64
	Page       int
	PageSize   int
}
