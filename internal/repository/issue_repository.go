package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/grama-voice/grama-voice-api/internal/models"
)

// IssueRepository provides persistence for citizen-filed issues.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository creates the repository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Create inserts a new pending issue.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	const query = `INSERT INTO issues (title, description, category, village, status, reported_by, assigned_to, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
RETURNING id, created_at, updated_at`
	row := r.db.QueryRowxContext(ctx, query, issue.Title, issue.Description, issue.Category,
		issue.Village, issue.Status, issue.ReportedBy, issue.AssignedTo)
	if err := row.Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt); err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

// GetByID returns one issue.
func (r *IssueRepository) GetByID(ctx context.Context, id int64) (*models.Issue, error) {
	const query = `SELECT id, title, description, category, village, status, reported_by, assigned_to, created_at, updated_at
FROM issues WHERE id = $1`
	var issue models.Issue
	if err := r.db.GetContext(ctx, &issue, query, id); err != nil {
		return nil, err
	}
	return &issue, nil
}

// List returns issues matching the filter, newest first.
func (r *IssueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Status != nil {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Village != "" {
		where = append(where, fmt.Sprintf("village = $%d", len(args)+1))
		args = append(args, filter.Village)
	}
	if filter.ReportedBy != nil {
		where = append(where, fmt.Sprintf("reported_by = $%d", len(args)+1))
		args = append(args, *filter.ReportedBy)
	}
	if filter.AssignedTo != nil {
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)+1))
		args = append(args, *filter.AssignedTo)
	}
	whereClause := strings.Join(where, " AND ")

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, title, description, category, village, status, reported_by, assigned_to, created_at, updated_at
FROM issues WHERE %s
ORDER BY created_at DESC, id DESC
LIMIT %d OFFSET %d`, whereClause, size, offset)
	var issues []models.Issue
	if err := r.db.SelectContext(ctx, &issues, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list issues: %w", err)
	}
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM issues WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count issues: %w", err)
	}
	return issues, total, nil
}

// UpdateStatus moves an issue to a new lifecycle state.
func (r *IssueRepository) UpdateStatus(ctx context.Context, id int64, status models.IssueStatus, updatedAt time.Time) (bool, error) {
	const query = `UPDATE issues SET status = $2, updated_at = $3 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, status, updatedAt)
	if err != nil {
		return false, fmt.Errorf("update issue status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update issue status: %w", err)
	}
	return affected > 0, nil
}

// Assign hands an issue to a village admin.
func (r *IssueRepository) Assign(ctx context.Context, id, adminID int64, updatedAt time.Time) (bool, error) {
	const query = `UPDATE issues SET assigned_to = $2, status = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, adminID, models.IssueInProgress, updatedAt)
	if err != nil {
		return false, fmt.Errorf("assign issue: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("assign issue: %w", err)
	}
	return affected > 0, nil
}

// AssignmentRows streams the projection the metrics engine consumes:
// every issue with its assignee (nullable), village, status, and
// timestamps. Unassigned rows are kept for the village summaries.
func (r *IssueRepository) AssignmentRows(ctx context.Context) ([]models.AssignmentRow, error) {
	const query = `SELECT assigned_to, village, status, created_at, updated_at FROM issues`
	var rows []models.AssignmentRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("load assignment rows: %w", err)
	}
	return rows, nil
}
