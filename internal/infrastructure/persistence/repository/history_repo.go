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

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new history record
func (r *HistoryRepository) Create(ctx context.Context, history *entity.ProjectHistory) error {
	query := `
		INSERT INTO project_history (
			project_id, actor_user_id, previous_status, new_status,
			action, detail, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	if history.CreatedAt.IsZero() {
		history.CreatedAt = time.Now()
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		history.ProjectID,
		history.ActorUserID,
		history.PreviousStatus,
		history.NewStatus,
		history.Action,
		history.Detail,
		history.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.Int64("project_id", history.ProjectID),
			zap.String("action", history.Action),
			zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	history.ID = id
	return nil
}

// ListByProject retrieves all history records for a project, oldest first
func (r *HistoryRepository) ListByProject(ctx context.Context, projectID int64) ([]*entity.ProjectHistory, error) {
	query := `
		SELECT id, project_id, actor_user_id, previous_status, new_status,
			action, detail, created_at
		FROM project_history
		WHERE project_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to get history by project ID", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to get history: %w", err)
	}
	defer rows.Close()

	var records []*entity.ProjectHistory
	for rows.Next() {
		var record entity.ProjectHistory
		err := rows.Scan(
			&record.ID,
			&record.ProjectID,
			&record.ActorUserID,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.Action,
			&record.Detail,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, &record)
	}

	return records, rows.Err()
}

// getExecutor returns appropriate executor based on context
func (r *HistoryRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.HistoryRepository = (*HistoryRepository)(nil)
