package entity

import "time"

// NotificationKind selects the email template for a notification
type NotificationKind string

const (
	NotificationProjectSubmitted NotificationKind = "PROJECT_SUBMITTED"
	NotificationProjectApproved  NotificationKind = "PROJECT_APPROVED"
	NotificationProjectRejected  NotificationKind = "PROJECT_REJECTED"
	NotificationReminderSubmit   NotificationKind = "REMINDER_PROJECT_SUBMISSION"
	NotificationReminderSelect   NotificationKind = "REMINDER_SELECTION_PENDING"
)

// Notification delivery status values
const (
	NotificationStatusSent   = "SENT"
	NotificationStatusFailed = "FAILED"
)

// NotificationLog records one email delivery attempt
type NotificationLog struct {
	ID           int64            `json:"id"`
	Kind         NotificationKind `json:"kind"`
	ProjectID    *int64           `json:"projectId,omitempty"`
	Recipient    string           `json:"recipient"`
	Subject      string           `json:"subject"`
	Status       string           `json:"status"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
	SentAt       *time.Time       `json:"sentAt,omitempty"`
	CreatedAt    time.Time        `json:"createdAt"`
}
