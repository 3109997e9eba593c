// Package notify implements the local notification feed for TaskPulse.
package notify

import (
	"time"
)

// Kind represents the kind of notification
type Kind string

const (
	KindMessage         Kind = "message"
	KindMorningReport   Kind = "morning_report"
	KindEveningReport   Kind = "evening_report"
	KindDeadlineWarning Kind = "deadline_warning"
	KindOverdueWarning  Kind = "overdue_warning"
	KindSystem          Kind = "system"
)

// Notification represents a surfaced event. Summary is the collapsed
// one-line text; Body carries the expanded content for reports.
type Notification struct {
	ID          string     `json:"id"`
	Kind        Kind       `json:"kind"`
	Title       string     `json:"title"`
	Summary     string     `json:"summary,omitempty"`
	Body        string     `json:"body,omitempty"`
	Sender      string     `json:"sender,omitempty"`
	MessageID   int64      `json:"message_id,omitempty"`
	Read        bool       `json:"read"`
	Dismissed   bool       `json:"dismissed"`
	CreatedAt   time.Time  `json:"created_at"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`
}

// Filter for querying notifications
type Filter struct {
	Kind      Kind
	Read      *bool
	Dismissed *bool
	Limit     int
	Offset    int
}

// CreateRequest for creating new notifications
type CreateRequest struct {
	Kind      Kind   `json:"kind"`
	Title     string `json:"title"`
	Summary   string `json:"summary,omitempty"`
	Body      string `json:"body,omitempty"`
	Sender    string `json:"sender,omitempty"`
	MessageID int64  `json:"message_id,omitempty"`
}
