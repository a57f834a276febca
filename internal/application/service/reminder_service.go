package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
)

// ReminderType selects which professors a bulk reminder targets
type ReminderType string

const (
	ReminderProjectSubmission ReminderType = "PROJECT_SUBMISSION"
	ReminderSelectionPending  ReminderType = "SELECTION_PENDING"
)

// ReminderRequest is an admin request for a bulk reminder
type ReminderRequest struct {
	Type           ReminderType
	CustomMessage  string
	TargetYear     int
	TargetSemester entity.Semester
}

// ReminderResult counts the reminder emails
type ReminderResult struct {
	port.DeliveryReport
	Year     int             `json:"year"`
	Semester entity.Semester `json:"semester"`
}

// ReminderService sends admin-triggered bulk reminders to professors
type ReminderService interface {
	Send(ctx context.Context, actor entity.Actor, req ReminderRequest) (*ReminderResult, error)
}

type reminderServiceImpl struct {
	userRepo port.UserRepository
	notifier port.Notifier
	clock    func() time.Time
	logger   Logger
}

// NewReminderService creates a new ReminderService. clock supplies the date
// used when the request leaves the period out.
func NewReminderService(userRepo port.UserRepository, notifier port.Notifier, clock func() time.Time, logger Logger) ReminderService {
	if clock == nil {
		clock = time.Now
	}
	return &reminderServiceImpl{
		userRepo: userRepo,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// Send resolves the target professors and mails each one. Delivery failures
// are counted, not returned.
func (s *reminderServiceImpl) Send(ctx context.Context, actor entity.Actor, req ReminderRequest) (*ReminderResult, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("bulk reminders require the admin role")
	}

	period := entity.CurrentPeriod(s.clock())
	if req.TargetYear != 0 {
		period.Year = req.TargetYear
	}
	if req.TargetSemester != "" {
		if !req.TargetSemester.IsValid() {
			return nil, apperror.Validation("invalid reminder", map[string]string{"targetSemester": "must be SEMESTRE_1 or SEMESTRE_2"})
		}
		period.Semester = req.TargetSemester
	}

	var (
		kind       entity.NotificationKind
		professors []*entity.User
		err        error
	)
	switch req.Type {
	case ReminderProjectSubmission:
		kind = entity.NotificationReminderSubmit
		professors, err = s.userRepo.ListProfessorsWithoutSubmission(ctx, period)
	case ReminderSelectionPending:
		kind = entity.NotificationReminderSelect
		professors, err = s.userRepo.ListProfessorsPendingSelection(ctx, period)
	default:
		return nil, apperror.Validation("invalid reminder", map[string]string{"type": "must be PROJECT_SUBMISSION or SELECTION_PENDING"})
	}
	if err != nil {
		s.logger.Error("Failed to resolve reminder recipients", "error", err, "type", req.Type)
		return nil, fmt.Errorf("resolve recipients: %w", err)
	}

	result := &ReminderResult{Year: period.Year, Semester: period.Semester}
	if len(professors) == 0 {
		s.logger.Info("No professors to remind", "type", req.Type, "year", period.Year, "semester", period.Semester)
		return result, nil
	}

	report, err := s.notifier.Notify(ctx, kind, recipientsOf(professors), map[string]interface{}{
		DataYear:          period.Year,
		DataSemester:      string(period.Semester),
		DataCustomMessage: req.CustomMessage,
	})
	if report == nil {
		return nil, fmt.Errorf("send reminders: %w", err)
	}
	if err != nil {
		s.logger.Error("Some reminders failed", "error", err, "type", req.Type)
	}

	result.DeliveryReport = *report
	s.logger.Info("Reminders sent",
		"type", req.Type,
		"year", period.Year,
		"semester", period.Semester,
		"sent", report.Sent,
		"failed", report.Failed,
	)
	return result, nil
}
