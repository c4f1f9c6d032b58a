package models

import "time"

// NotificationType classifies generator notifications.
type NotificationType string

const (
	NotificationShortfall NotificationType = "SHORTFALL"
	NotificationClash     NotificationType = "CLASH"
)

// NotificationStatus is the one-way unread -> resolved state.
type NotificationStatus string

const (
	NotificationUnread   NotificationStatus = "unread"
	NotificationResolved NotificationStatus = "resolved"
)

// Notification is an advisory message about a subject's schedule.
type Notification struct {
	ID                 string             `db:"id" json:"id"`
	Type               NotificationType   `db:"type" json:"type"`
	SubjectID          string             `db:"subject_id" json:"subject_id"`
	BatchYear          int                `db:"batch_year" json:"batch_year"`
	Semester           int                `db:"semester" json:"semester"`
	Message            string             `db:"message" json:"message"`
	RecipientFacultyID *string            `db:"recipient_faculty_id" json:"recipient_faculty_id,omitempty"`
	Status             NotificationStatus `db:"status" json:"status"`
	CreatedAt          time.Time          `db:"created_at" json:"created_at"`
	ResolvedAt         *time.Time         `db:"resolved_at" json:"resolved_at,omitempty"`
	ResolvedBy         *string            `db:"resolved_by" json:"resolved_by,omitempty"`
}

// NotificationFilter narrows notification listings.
type NotificationFilter struct {
	Status      NotificationStatus
	Type        NotificationType
	SubjectID   string
	RecipientID string
	Page        int
	PageSize    int
}
