package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// NotificationLogRepository implements port.NotificationLogRepository
type NotificationLogRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewNotificationLogRepository creates a new notification log repository
func NewNotificationLogRepository(db *sql.DB, logger *zap.Logger) port.NotificationLogRepository {
	return &NotificationLogRepository{
		db:     db,
		logger: logger,
	}
}

// Create records one delivery attempt
func (r *NotificationLogRepository) Create(ctx context.Context, log *entity.NotificationLog) error {
	query := `
		INSERT INTO notification_logs (
			kind, project_id, recipient, subject, status,
			error_message, sent_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	var sentAt interface{}
	if log.SentAt != nil {
		sentAt = *log.SentAt
	}
	var projectID interface{}
	if log.ProjectID != nil {
		projectID = *log.ProjectID
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		string(log.Kind),
		projectID,
		log.Recipient,
		log.Subject,
		log.Status,
		log.ErrorMessage,
		sentAt,
		log.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create notification log",
			zap.String("kind", string(log.Kind)),
			zap.String("recipient", log.Recipient),
			zap.Error(err))
		return fmt.Errorf("failed to create notification log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	log.ID = id
	return nil
}

// ListByProject retrieves the delivery attempts for a project
func (r *NotificationLogRepository) ListByProject(ctx context.Context, projectID int64) ([]*entity.NotificationLog, error) {
	query := `
		SELECT id, kind, project_id, recipient, subject, status,
			error_message, sent_at, created_at
		FROM notification_logs
		WHERE project_id = ?
		ORDER BY id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list notification logs", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to list notification logs: %w", err)
	}
	defer rows.Close()

	var logs []*entity.NotificationLog
	for rows.Next() {
		var (
			log       entity.NotificationLog
			kind      string
			projectID sql.NullInt64
			sentAt    sql.NullTime
		)
		err := rows.Scan(
			&log.ID,
			&kind,
			&projectID,
			&log.Recipient,
			&log.Subject,
			&log.Status,
			&log.ErrorMessage,
			&sentAt,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notification log: %w", err)
		}

		log.Kind = entity.NotificationKind(kind)
		if projectID.Valid {
			log.ProjectID = &projectID.Int64
		}
		if sentAt.Valid {
			log.SentAt = &sentAt.Time
		}
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}

// getExecutor returns appropriate executor based on context
func (r *NotificationLogRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.NotificationLogRepository = (*NotificationLogRepository)(nil)
