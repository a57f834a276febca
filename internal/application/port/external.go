package port

import (
	"context"

	"github.com/garyjia/monitoria/internal/domain/entity"
)

// EmailMessage is a rendered email ready for delivery
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
}

// Mailer delivers rendered emails
type Mailer interface {
	Send(ctx context.Context, msg *EmailMessage) error
}

// Recipient is a user addressed by a notification
type Recipient struct {
	UserID int64
	Name   string
	Email  string
}

// DeliveryReport counts the outcome of a notification fan-out
type DeliveryReport struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
	Total  int `json:"total"`
}

// Notifier renders a notification kind and sends it to every recipient.
// A non-nil error means at least one delivery failed.
type Notifier interface {
	Notify(ctx context.Context, kind entity.NotificationKind, recipients []Recipient, data map[string]interface{}) (*DeliveryReport, error)
}
