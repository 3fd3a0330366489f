package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/grama-voice/grama-voice-api/internal/models"
)

// NotificationRepository provides persistence for per-principal notices.
// Rows are logically partitioned by (recipient_id, recipient_role); every
// query below carries both columns so one principal's operations never scan
// or mutate another's rows.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository creates the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a new unread notification and fills in the generated id
// and creation timestamp.
func (r *NotificationRepository) Create(ctx context.Context, n *models.Notification) error {
	const query = `INSERT INTO notifications (recipient_id, recipient_role, type, title, message, is_read, created_at)
VALUES ($1, $2, $3, $4, $5, FALSE, NOW())
RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, n.RecipientID, n.RecipientRole, n.Type, n.Title, n.Message)
	if err := row.Scan(&n.ID, &n.CreatedAt); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	n.IsRead = false
	return nil
}

// List returns the recipient's notifications newest first. Ties on
// created_at break by id descending so the ordering is deterministic.
func (r *NotificationRepository) List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	query := `SELECT id, recipient_id, recipient_role, type, title, message, is_read, created_at
FROM notifications
WHERE recipient_id = $1 AND recipient_role = $2`
	args := []interface{}{filter.Recipient.ID, filter.Recipient.Role}
	if filter.UnreadOnly {
		query += " AND is_read = FALSE"
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args)+1)
	args = append(args, limit)

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// UnreadCount counts the recipient's unread rows.
func (r *NotificationRepository) UnreadCount(ctx context.Context, recipient models.Actor) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications
WHERE recipient_id = $1 AND recipient_role = $2 AND is_read = FALSE`
	var count int
	if err := r.db.GetContext(ctx, &count, query, recipient.ID, recipient.Role); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead flips one owned notification to read. It returns true when the
// row exists and belongs to the recipient, including when it was already
// read; false means nothing to do, not a fault.
func (r *NotificationRepository) MarkRead(ctx context.Context, id int64, recipient models.Actor) (bool, error) {
	const query = `UPDATE notifications SET is_read = TRUE
WHERE id = $1 AND recipient_id = $2 AND recipient_role = $3`
	result, err := r.db.ExecContext(ctx, query, id, recipient.ID, recipient.Role)
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("mark notification read: %w", err)
	}
	return affected > 0, nil
}

// MarkAllRead flips every unread row for the recipient in one statement and
// returns the number flipped. Single-statement execution keeps the
// transition atomic with respect to concurrent UnreadCount reads for the
// same principal.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, recipient models.Actor) (int, error) {
	const query = `UPDATE notifications SET is_read = TRUE
WHERE recipient_id = $1 AND recipient_role = $2 AND is_read = FALSE`
	result, err := r.db.ExecContext(ctx, query, recipient.ID, recipient.Role)
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("mark all notifications read: %w", err)
	}
	return int(affected), nil
}

// DeleteOlderThan removes rows created before the cutoff, regardless of
// read state, and returns the number deleted. Housekeeping only; it never
// runs on the read path.
func (r *NotificationRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	const query = `DELETE FROM notifications WHERE created_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune notifications: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune notifications: %w", err)
	}
	return int(affected), nil
}
