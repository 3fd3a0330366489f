package models

import "time"

// NotificationType is the closed set of notice categories the system emits.
type NotificationType string

const (
	NotificationIssueStatus       NotificationType = "issue_status"
	NotificationIssueAssigned     NotificationType = "issue_assigned"
	NotificationIssueResolved     NotificationType = "issue_resolved"
	NotificationNewIssue          NotificationType = "new_issue"
	NotificationAdminMessage      NotificationType = "admin_message"
	NotificationSystemAlert       NotificationType = "system_alert"
	NotificationAchievementEarned NotificationType = "achievement_earned"
)

// Valid reports whether the type is a member of the enumeration.
func (t NotificationType) Valid() bool {
	switch t {
	case NotificationIssueStatus, NotificationIssueAssigned, NotificationIssueResolved,
		NotificationNewIssue, NotificationAdminMessage, NotificationSystemAlert,
		NotificationAchievementEarned:
		return true
	}
	return false
}

// Notification is one addressed notice. Each recipient gets its own row;
// there is no shared broadcast row. IsRead only ever moves false to true.
type Notification struct {
	ID            int64            `db:"id" json:"id"`
	RecipientID   int64            `db:"recipient_id" json:"recipient_id"`
	RecipientRole Role             `db:"recipient_role" json:"recipient_role"`
	Type          NotificationType `db:"type" json:"type"`
	Title         string           `db:"title" json:"title"`
	Message       string           `db:"message" json:"message"`
	IsRead        bool             `db:"is_read" json:"is_read"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter scopes a listing to one recipient.
type NotificationFilter struct {
	Recipient  Actor
	UnreadOnly bool
	Limit      int
}
