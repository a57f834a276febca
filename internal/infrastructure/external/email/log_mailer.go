package email

import (
	"context"

	"github.com/garyjia/monitoria/internal/application/port"
	"go.uber.org/zap"
)

// LogMailer implements port.Mailer by writing emails to the log. Used when
// no SendGrid key is configured.
type LogMailer struct {
	logger *zap.Logger
}

// NewLogMailer creates a new LogMailer
func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

// Send logs msg and always succeeds
func (m *LogMailer) Send(ctx context.Context, msg *port.EmailMessage) error {
	m.logger.Info("Email (not delivered)",
		zap.String("to", msg.To),
		zap.String("to_name", msg.ToName),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body))
	return nil
}

// Verify interface compliance
var _ port.Mailer = (*LogMailer)(nil)
