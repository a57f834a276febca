// Package email delivers notification emails
package email

import (
	"context"
	"fmt"
	"net/http"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const (
	// DefaultSendgridHost is the public SendGrid API
	DefaultSendgridHost = "https://api.sendgrid.com"

	sendEndpoint = "/v3/mail/send"
)

// SendgridConfig configures SendgridMailer. SubjectPrefix is prepended to
// every subject.
type SendgridConfig struct {
	APIKey        string
	Host          string
	FromName      string
	FromEmail     string
	SubjectPrefix string
}

// SendgridMailer implements port.Mailer over the SendGrid v3 API
type SendgridMailer struct {
	apiKey     string
	host       string
	from       *sgmail.Email
	subjPrefix string
	logger     *zap.Logger
}

// NewSendgridMailer creates a new SendgridMailer
func NewSendgridMailer(cfg SendgridConfig, logger *zap.Logger) *SendgridMailer {
	host := cfg.Host
	if host == "" {
		host = DefaultSendgridHost
	}
	return &SendgridMailer{
		apiKey:     cfg.APIKey,
		host:       host,
		from:       sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		subjPrefix: cfg.SubjectPrefix,
		logger:     logger,
	}
}

// Send delivers msg as a plain-text email
func (m *SendgridMailer) Send(ctx context.Context, msg *port.EmailMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.To == "" {
		return fmt.Errorf("email has no recipient")
	}

	req := sendgrid.GetRequest(m.apiKey, sendEndpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		m.logger.Error("SendGrid request failed", zap.String("to", msg.To), zap.Error(err))
		return fmt.Errorf("sendgrid request: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		m.logger.Error("SendGrid rejected email",
			zap.String("to", msg.To),
			zap.Int("status", res.StatusCode),
			zap.String("body", res.Body))
		return fmt.Errorf("sendgrid returned status %d: %s", res.StatusCode, res.Body)
	}

	m.logger.Debug("Email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("status", res.StatusCode))
	return nil
}

func (m *SendgridMailer) prepare(msg *port.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = m.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.To))

	mail := sgmail.NewV3Mail()
	mail.SetFrom(m.from)
	mail.AddPersonalizations(p)
	mail.AddContent(sgmail.NewContent("text/plain", msg.Body))
	return mail
}

// Verify interface compliance
var _ port.Mailer = (*SendgridMailer)(nil)
