package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	adminActor     = entity.Actor{UserID: 1, Role: entity.RoleAdmin}
	professorActor = entity.Actor{UserID: 10, Role: entity.RoleProfessor}
	october2025    = func() time.Time { return time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC) }
)

func TestReminderService_Send(t *testing.T) {
	ctx := context.Background()

	t.Run("submission reminders default to the current period", func(t *testing.T) {
		var gotPeriod entity.Period
		users := &mockUserRepo{
			withoutSubmissionFunc: func(ctx context.Context, period entity.Period) ([]*entity.User, error) {
				gotPeriod = period
				return []*entity.User{profMarcos}, nil
			},
		}
		var gotKind entity.NotificationKind
		var gotData map[string]interface{}
		notifier := &mockNotifier{
			notifyFunc: func(ctx context.Context, kind entity.NotificationKind, recipients []port.Recipient, data map[string]interface{}) (*port.DeliveryReport, error) {
				gotKind, gotData = kind, data
				return &port.DeliveryReport{Sent: len(recipients), Total: len(recipients)}, nil
			},
		}
		svc := NewReminderService(users, notifier, october2025, &mockLogger{})

		result, err := svc.Send(ctx, adminActor, ReminderRequest{Type: ReminderProjectSubmission, CustomMessage: "prazo: sexta"})
		require.NoError(t, err)

		assert.Equal(t, entity.Period{Year: 2025, Semester: entity.Semester2}, gotPeriod)
		assert.Equal(t, entity.NotificationReminderSubmit, gotKind)
		assert.Equal(t, "prazo: sexta", gotData[DataCustomMessage])
		assert.Equal(t, 1, result.Sent)
		assert.Equal(t, 1, result.Total)
		assert.Equal(t, 2025, result.Year)
	})

	t.Run("selection reminders use the requested period", func(t *testing.T) {
		var gotPeriod entity.Period
		users := &mockUserRepo{
			pendingSelectionFunc: func(ctx context.Context, period entity.Period) ([]*entity.User, error) {
				gotPeriod = period
				return []*entity.User{profMarcos}, nil
			},
		}
		svc := NewReminderService(users, &mockNotifier{}, october2025, &mockLogger{})

		_, err := svc.Send(ctx, adminActor, ReminderRequest{
			Type: ReminderSelectionPending, TargetYear: 2024, TargetSemester: entity.Semester1,
		})
		require.NoError(t, err)
		assert.Equal(t, entity.Period{Year: 2024, Semester: entity.Semester1}, gotPeriod)
	})

	t.Run("delivery failures are counted", func(t *testing.T) {
		users := &mockUserRepo{
			withoutSubmissionFunc: func(ctx context.Context, period entity.Period) ([]*entity.User, error) {
				return []*entity.User{profMarcos, adminAna}, nil
			},
		}
		notifier := &mockNotifier{
			notifyFunc: func(ctx context.Context, kind entity.NotificationKind, recipients []port.Recipient, data map[string]interface{}) (*port.DeliveryReport, error) {
				return &port.DeliveryReport{Sent: 1, Failed: 1, Total: 2}, errors.New("1 of 2 failed")
			},
		}
		svc := NewReminderService(users, notifier, october2025, &mockLogger{})

		result, err := svc.Send(ctx, adminActor, ReminderRequest{Type: ReminderProjectSubmission})
		require.NoError(t, err)
		assert.Equal(t, port.DeliveryReport{Sent: 1, Failed: 1, Total: 2}, result.DeliveryReport)
	})

	t.Run("no recipients", func(t *testing.T) {
		called := false
		notifier := &mockNotifier{
			notifyFunc: func(ctx context.Context, kind entity.NotificationKind, recipients []port.Recipient, data map[string]interface{}) (*port.DeliveryReport, error) {
				called = true
				return &port.DeliveryReport{}, nil
			},
		}
		svc := NewReminderService(&mockUserRepo{}, notifier, october2025, &mockLogger{})

		result, err := svc.Send(ctx, adminActor, ReminderRequest{Type: ReminderProjectSubmission})
		require.NoError(t, err)
		assert.False(t, called)
		assert.Zero(t, result.Total)
	})

	t.Run("admin only", func(t *testing.T) {
		svc := NewReminderService(&mockUserRepo{}, &mockNotifier{}, october2025, &mockLogger{})

		_, err := svc.Send(ctx, professorActor, ReminderRequest{Type: ReminderProjectSubmission})
		assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
	})

	t.Run("invalid request", func(t *testing.T) {
		svc := NewReminderService(&mockUserRepo{}, &mockNotifier{}, october2025, &mockLogger{})

		_, err := svc.Send(ctx, adminActor, ReminderRequest{Type: "WEEKLY"})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

		_, err = svc.Send(ctx, adminActor, ReminderRequest{Type: ReminderProjectSubmission, TargetSemester: "SEMESTRE_9"})
		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("repository failure", func(t *testing.T) {
		users := &mockUserRepo{
			withoutSubmissionFunc: func(ctx context.Context, period entity.Period) ([]*entity.User, error) {
				return nil, errors.New("database is locked")
			},
		}
		svc := NewReminderService(users, &mockNotifier{}, october2025, &mockLogger{})

		_, err := svc.Send(ctx, adminActor, ReminderRequest{Type: ReminderProjectSubmission})
		assert.Equal(t, apperror.KindInternal, apperror.KindOf(err))
	})
}
