package dto

// The legacy front end polls small AJAX endpoints for its notification
// badge. These shapes keep the exact field names it expects, outside the
// standard response envelope.

// UnreadCountResponse answers the badge poll.
type UnreadCountResponse struct {
	Success     bool   `json:"success"`
	UnreadCount *int   `json:"unread_count,omitempty"`
	Message     string `json:"message,omitempty"`
}

// MarkAllReadResponse reports a bulk read transition.
type MarkAllReadResponse struct {
	Success     bool   `json:"success"`
	MarkedCount *int   `json:"marked_count,omitempty"`
	Message     string `json:"message,omitempty"`
}

// MarkReadResponse reports a single read transition.
type MarkReadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
