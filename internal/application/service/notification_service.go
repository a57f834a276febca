package service

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/garyjia/monitoria/internal/application/dispatcher"
	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/domain/event"
)

// Template data keys understood by every notification template
const (
	DataProjectID     = "ProjectID"
	DataTitle         = "Title"
	DataFeedback      = "Feedback"
	DataAllocated     = "Allocated"
	DataYear          = "Year"
	DataSemester      = "Semester"
	DataCustomMessage = "CustomMessage"
	DataPortalURL     = "PortalURL"
	DataRecipientName = "RecipientName"
)

type notificationTemplate struct {
	subject *template.Template
	body    *template.Template
}

func mustTemplate(kind entity.NotificationKind, subject, body string) notificationTemplate {
	return notificationTemplate{
		subject: template.Must(template.New(string(kind) + "-subject").Parse(subject)),
		body:    template.Must(template.New(string(kind) + "-body").Parse(body)),
	}
}

var templates = map[entity.NotificationKind]notificationTemplate{
	entity.NotificationProjectSubmitted: mustTemplate(entity.NotificationProjectSubmitted,
		`[Monitoria] Projeto submetido: {{.Title}}`,
		`Olá {{.RecipientName}},

O projeto "{{.Title}}" (#{{.ProjectID}}) foi assinado pelo professor responsável e aguarda análise da administração.
{{if .PortalURL}}
Acesse: {{.PortalURL}}/projects/{{.ProjectID}}
{{end}}`),

	entity.NotificationProjectApproved: mustTemplate(entity.NotificationProjectApproved,
		`[Monitoria] Projeto aprovado: {{.Title}}`,
		`Olá {{.RecipientName}},

Seu projeto "{{.Title}}" (#{{.ProjectID}}) foi aprovado.
Bolsas disponibilizadas: {{.Allocated}}
{{if .Feedback}}
Observações da administração:
{{.Feedback}}
{{end}}`),

	entity.NotificationProjectRejected: mustTemplate(entity.NotificationProjectRejected,
		`[Monitoria] Projeto rejeitado: {{.Title}}`,
		`Olá {{.RecipientName}},

Seu projeto "{{.Title}}" (#{{.ProjectID}}) foi rejeitado.
{{if .Feedback}}
Motivo:
{{.Feedback}}
{{end}}`),

	entity.NotificationReminderSubmit: mustTemplate(entity.NotificationReminderSubmit,
		`[Monitoria] Lembrete: submissão de projetos {{.Year}}/{{.Semester}}`,
		`Olá {{.RecipientName}},

Ainda não recebemos a submissão assinada do seu projeto de monitoria para {{.Year}}/{{.Semester}}.
{{if .CustomMessage}}
{{.CustomMessage}}
{{end}}`),

	entity.NotificationReminderSelect: mustTemplate(entity.NotificationReminderSelect,
		`[Monitoria] Lembrete: seleção de monitores {{.Year}}/{{.Semester}}`,
		`Olá {{.RecipientName}},

Seu projeto aprovado para {{.Year}}/{{.Semester}} ainda não tem monitores selecionados.
{{if .CustomMessage}}
{{.CustomMessage}}
{{end}}`),
}

// NotificationService renders and mails lifecycle notifications
type NotificationService interface {
	port.Notifier

	// Subscribe registers the lifecycle event handlers on d
	Subscribe(d dispatcher.Dispatcher)

	HandleProjectSubmitted(ctx context.Context, evt *event.Event) error
	HandleProjectApproved(ctx context.Context, evt *event.Event) error
	HandleProjectRejected(ctx context.Context, evt *event.Event) error
}

type notificationServiceImpl struct {
	userRepo  port.UserRepository
	logRepo   port.NotificationLogRepository
	mailer    port.Mailer
	portalURL string
	logger    Logger
	now       func() time.Time
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(
	userRepo port.UserRepository,
	logRepo port.NotificationLogRepository,
	mailer port.Mailer,
	portalURL string,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		userRepo:  userRepo,
		logRepo:   logRepo,
		mailer:    mailer,
		portalURL: portalURL,
		logger:    logger,
		now:       time.Now,
	}
}

// Subscribe registers the lifecycle event handlers on d
func (s *notificationServiceImpl) Subscribe(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeProjectSubmitted, "notify-admins-submitted", "mails every admin", s.HandleProjectSubmitted)
	d.SubscribeNamed(event.TypeProjectApproved, "notify-professor-approved", "mails the responsible professor", s.HandleProjectApproved)
	d.SubscribeNamed(event.TypeProjectRejected, "notify-professor-rejected", "mails the responsible professor with feedback", s.HandleProjectRejected)
}

// HandleProjectSubmitted notifies all admin users
func (s *notificationServiceImpl) HandleProjectSubmitted(ctx context.Context, evt *event.Event) error {
	admins, err := s.userRepo.ListByRole(ctx, entity.RoleAdmin)
	if err != nil {
		s.logger.Error("Failed to list admins", "error", err, "project_id", evt.ProjectID)
		return fmt.Errorf("list admins: %w", err)
	}

	_, err = s.Notify(ctx, entity.NotificationProjectSubmitted, recipientsOf(admins), s.eventData(evt))
	return err
}

// HandleProjectApproved notifies the responsible professor
func (s *notificationServiceImpl) HandleProjectApproved(ctx context.Context, evt *event.Event) error {
	return s.notifyProfessor(ctx, entity.NotificationProjectApproved, evt)
}

// HandleProjectRejected notifies the responsible professor, feedback included verbatim
func (s *notificationServiceImpl) HandleProjectRejected(ctx context.Context, evt *event.Event) error {
	return s.notifyProfessor(ctx, entity.NotificationProjectRejected, evt)
}

func (s *notificationServiceImpl) notifyProfessor(ctx context.Context, kind entity.NotificationKind, evt *event.Event) error {
	professorID := evt.GetPayloadInt(event.KeyProfessorID)
	professor, err := s.userRepo.GetByID(ctx, professorID)
	if err != nil {
		s.logger.Error("Failed to get professor", "error", err, "project_id", evt.ProjectID, "professor_id", professorID)
		return fmt.Errorf("get professor: %w", err)
	}
	if professor == nil {
		return fmt.Errorf("professor %d of project %d not found", professorID, evt.ProjectID)
	}

	_, err = s.Notify(ctx, kind, recipientsOf([]*entity.User{professor}), s.eventData(evt))
	return err
}

func (s *notificationServiceImpl) eventData(evt *event.Event) map[string]interface{} {
	return map[string]interface{}{
		DataProjectID: evt.ProjectID,
		DataTitle:     evt.GetPayloadString(event.KeyTitle),
		DataFeedback:  evt.GetPayloadString(event.KeyFeedback),
		DataAllocated: evt.GetPayloadInt(event.KeyAllocated),
	}
}

// Notify renders kind for every recipient, sends it and records the attempt
func (s *notificationServiceImpl) Notify(ctx context.Context, kind entity.NotificationKind, recipients []port.Recipient, data map[string]interface{}) (*port.DeliveryReport, error) {
	tmpl, ok := templates[kind]
	if !ok {
		return nil, fmt.Errorf("no template for notification kind %s", kind)
	}

	report := &port.DeliveryReport{Total: len(recipients)}
	s.logger.Info("Sending notifications", "kind", kind, "recipients", len(recipients))

	for _, r := range recipients {
		msg, err := s.render(tmpl, r, data)
		if err != nil {
			return report, fmt.Errorf("render %s: %w", kind, err)
		}

		sendErr := s.mailer.Send(ctx, msg)

		entry := &entity.NotificationLog{
			Kind:      kind,
			ProjectID: projectIDOf(data),
			Recipient: r.Email,
			Subject:   msg.Subject,
			CreatedAt: s.now(),
		}
		if sendErr != nil {
			report.Failed++
			entry.Status = entity.NotificationStatusFailed
			entry.ErrorMessage = sendErr.Error()
			s.logger.Error("Failed to send notification", "error", sendErr, "kind", kind, "recipient", r.Email)
		} else {
			report.Sent++
			sentAt := s.now()
			entry.Status = entity.NotificationStatusSent
			entry.SentAt = &sentAt
		}

		if err := s.logRepo.Create(ctx, entry); err != nil {
			s.logger.Error("Failed to record notification", "error", err, "kind", kind, "recipient", r.Email)
		}
	}

	s.logger.Info("Notifications sent", "kind", kind, "sent", report.Sent, "failed", report.Failed)

	if report.Failed > 0 {
		return report, fmt.Errorf("%d of %d %s notifications failed", report.Failed, report.Total, kind)
	}
	return report, nil
}

func (s *notificationServiceImpl) render(tmpl notificationTemplate, r port.Recipient, data map[string]interface{}) (*port.EmailMessage, error) {
	values := make(map[string]interface{}, len(data)+2)
	for k, v := range data {
		values[k] = v
	}
	values[DataRecipientName] = r.Name
	if _, ok := values[DataPortalURL]; !ok {
		values[DataPortalURL] = s.portalURL
	}

	var subject, body bytes.Buffer
	if err := tmpl.subject.Execute(&subject, values); err != nil {
		return nil, err
	}
	if err := tmpl.body.Execute(&body, values); err != nil {
		return nil, err
	}

	return &port.EmailMessage{
		To:      r.Email,
		ToName:  r.Name,
		Subject: subject.String(),
		Body:    body.String(),
	}, nil
}

func recipientsOf(users []*entity.User) []port.Recipient {
	recipients := make([]port.Recipient, 0, len(users))
	for _, u := range users {
		recipients = append(recipients, port.Recipient{UserID: u.ID, Name: u.Name, Email: u.Email})
	}
	return recipients
}

func projectIDOf(data map[string]interface{}) *int64 {
	if id, ok := data[DataProjectID].(int64); ok && id != 0 {
		return &id
	}
	return nil
}
