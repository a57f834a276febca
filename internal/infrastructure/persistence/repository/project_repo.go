package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

const projectColumns = `
	p.id, p.title, p.description, p.year, p.semester, p.department_id,
	p.professor_responsavel_id, p.bolsas_solicitadas, p.voluntarios_solicitados,
	p.bolsas_disponibilizadas, p.status, p.feedback_admin, p.created_at, p.updated_at
`

// ProjectRepository implements port.ProjectRepository
type ProjectRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProjectRepository creates a new project repository
func NewProjectRepository(db *sql.DB, logger *zap.Logger) port.ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts the project and its relations. Callers wrap it in a
// transaction so a failed relation insert leaves nothing behind.
func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	query := `
		INSERT INTO projects (
			title, description, year, semester, department_id,
			professor_responsavel_id, bolsas_solicitadas, voluntarios_solicitados,
			bolsas_disponibilizadas, status, feedback_admin, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	now := time.Now()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	if project.UpdatedAt.IsZero() {
		project.UpdatedAt = project.CreatedAt
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		project.Title,
		project.Description,
		project.Year,
		string(project.Semester),
		project.DepartmentID,
		project.ProfessorResponsavelID,
		project.BolsasSolicitadas,
		project.VoluntariosSolicitados,
		nullableInt(project.BolsasDisponibilizadas),
		project.Status,
		project.FeedbackAdmin,
		project.CreatedAt,
		project.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create project", zap.String("title", project.Title), zap.Error(err))
		return fmt.Errorf("failed to create project: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	project.ID = id

	return r.insertRelations(ctx, project)
}

// GetByID retrieves a project with its relations; returns nil, nil when missing
func (r *ProjectRepository) GetByID(ctx context.Context, id int64) (*entity.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id = ?`

	project, err := scanProject(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get project", zap.Int64("project_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get project: %w", err)
	}

	if err := r.loadRelations(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// List retrieves projects matching filter, ordered by id
func (r *ProjectRepository) List(ctx context.Context, filter port.ProjectFilter) ([]*entity.Project, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Year != 0 {
		conditions = append(conditions, "p.year = ?")
		args = append(args, filter.Year)
	}
	if filter.Semester != "" {
		conditions = append(conditions, "p.semester = ?")
		args = append(args, string(filter.Semester))
	}
	if filter.Status != "" {
		conditions = append(conditions, "p.status = ?")
		args = append(args, filter.Status)
	}
	if filter.ProfessorID != 0 {
		conditions = append(conditions, `(p.professor_responsavel_id = ? OR EXISTS (
			SELECT 1 FROM project_professors pp WHERE pp.project_id = p.id AND pp.professor_id = ?))`)
		args = append(args, filter.ProfessorID, filter.ProfessorID)
	}

	query := `SELECT ` + projectColumns + ` FROM projects p`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY p.id ASC"
	if filter.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, filter.Limit, filter.Offset)
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list projects", zap.Error(err))
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	var projects []*entity.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, project)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// relations are loaded once the cursor is released
	for _, project := range projects {
		if err := r.loadRelations(ctx, project); err != nil {
			return nil, err
		}
	}
	return projects, nil
}

// UpdateContent rewrites the editable fields and replaces the relations
func (r *ProjectRepository) UpdateContent(ctx context.Context, project *entity.Project) error {
	query := `
		UPDATE projects
		SET title = ?, description = ?, department_id = ?,
			bolsas_solicitadas = ?, voluntarios_solicitados = ?, updated_at = ?
		WHERE id = ?
	`

	if project.UpdatedAt.IsZero() {
		project.UpdatedAt = time.Now()
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		project.Title,
		project.Description,
		project.DepartmentID,
		project.BolsasSolicitadas,
		project.VoluntariosSolicitados,
		project.UpdatedAt,
		project.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update project content", zap.Int64("project_id", project.ID), zap.Error(err))
		return fmt.Errorf("failed to update project content: %w", err)
	}
	if err := requireAffected(result, "project", project.ID); err != nil {
		return err
	}

	if err := r.deleteRelations(ctx, project.ID); err != nil {
		return err
	}
	return r.insertRelations(ctx, project)
}

// UpdateStatus moves the project from one status to another. It fails with
// port.ErrStatusConflict when the stored status is no longer from.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id int64, from, to string) error {
	query := `UPDATE projects SET status = ?, updated_at = ? WHERE id = ? AND status = ?`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		r.logger.Error("Failed to update project status",
			zap.Int64("project_id", id),
			zap.String("from", from),
			zap.String("to", to),
			zap.Error(err))
		return fmt.Errorf("failed to update project status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		r.logger.Warn("Project status changed concurrently",
			zap.Int64("project_id", id),
			zap.String("expected", from))
		return port.ErrStatusConflict
	}
	return nil
}

// UpdateAllocation sets the granted scholarship count
func (r *ProjectRepository) UpdateAllocation(ctx context.Context, id int64, allocated int) error {
	query := `UPDATE projects SET bolsas_disponibilizadas = ?, updated_at = ? WHERE id = ?`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, allocated, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to update allocation", zap.Int64("project_id", id), zap.Error(err))
		return fmt.Errorf("failed to update allocation: %w", err)
	}
	return requireAffected(result, "project", id)
}

// SetFeedback stores the admin's feedback text
func (r *ProjectRepository) SetFeedback(ctx context.Context, id int64, feedback string) error {
	query := `UPDATE projects SET feedback_admin = ?, updated_at = ? WHERE id = ?`

	result, err := r.getExecutor(ctx).ExecContext(ctx, query, feedback, time.Now(), id)
	if err != nil {
		r.logger.Error("Failed to set feedback", zap.Int64("project_id", id), zap.Error(err))
		return fmt.Errorf("failed to set feedback: %w", err)
	}
	return requireAffected(result, "project", id)
}

// Delete removes the project and every row referencing it. Notification logs
// are kept for audit with their project reference cleared.
func (r *ProjectRepository) Delete(ctx context.Context, id int64) error {
	exec := r.getExecutor(ctx)

	statements := []string{
		`DELETE FROM vagas WHERE project_id = ?`,
		`DELETE FROM signatures WHERE project_id = ?`,
		`DELETE FROM project_history WHERE project_id = ?`,
		`UPDATE notification_logs SET project_id = NULL WHERE project_id = ?`,
	}
	for _, stmt := range statements {
		if _, err := exec.ExecContext(ctx, stmt, id); err != nil {
			r.logger.Error("Failed to delete project dependents", zap.Int64("project_id", id), zap.Error(err))
			return fmt.Errorf("failed to delete project dependents: %w", err)
		}
	}

	if err := r.deleteRelations(ctx, id); err != nil {
		return err
	}

	result, err := exec.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete project", zap.Int64("project_id", id), zap.Error(err))
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return requireAffected(result, "project", id)
}

func (r *ProjectRepository) insertRelations(ctx context.Context, project *entity.Project) error {
	exec := r.getExecutor(ctx)

	for _, disciplineID := range project.DisciplineIDs {
		if _, err := exec.ExecContext(ctx,
			`INSERT OR IGNORE INTO project_disciplines (project_id, discipline_id) VALUES (?, ?)`,
			project.ID, disciplineID,
		); err != nil {
			return fmt.Errorf("failed to insert project discipline: %w", err)
		}
	}

	for _, professorID := range project.ProfessorIDs {
		if _, err := exec.ExecContext(ctx,
			`INSERT OR IGNORE INTO project_professors (project_id, professor_id) VALUES (?, ?)`,
			project.ID, professorID,
		); err != nil {
			return fmt.Errorf("failed to insert participating professor: %w", err)
		}
	}

	for i := range project.Activities {
		activity := &project.Activities[i]
		result, err := exec.ExecContext(ctx,
			`INSERT INTO project_activities (project_id, position, description) VALUES (?, ?, ?)`,
			project.ID, i, activity.Description,
		)
		if err != nil {
			return fmt.Errorf("failed to insert project activity: %w", err)
		}
		if activity.ID, err = result.LastInsertId(); err != nil {
			return fmt.Errorf("failed to get last insert id: %w", err)
		}
		activity.ProjectID = project.ID
	}

	return nil
}

func (r *ProjectRepository) deleteRelations(ctx context.Context, projectID int64) error {
	exec := r.getExecutor(ctx)
	for _, stmt := range []string{
		`DELETE FROM project_disciplines WHERE project_id = ?`,
		`DELETE FROM project_professors WHERE project_id = ?`,
		`DELETE FROM project_activities WHERE project_id = ?`,
	} {
		if _, err := exec.ExecContext(ctx, stmt, projectID); err != nil {
			r.logger.Error("Failed to delete project relations", zap.Int64("project_id", projectID), zap.Error(err))
			return fmt.Errorf("failed to delete project relations: %w", err)
		}
	}
	return nil
}

func (r *ProjectRepository) loadRelations(ctx context.Context, project *entity.Project) error {
	var err error

	project.DisciplineIDs, err = r.queryIDs(ctx,
		`SELECT discipline_id FROM project_disciplines WHERE project_id = ? ORDER BY discipline_id`, project.ID)
	if err != nil {
		return fmt.Errorf("failed to load project disciplines: %w", err)
	}

	project.ProfessorIDs, err = r.queryIDs(ctx,
		`SELECT professor_id FROM project_professors WHERE project_id = ? ORDER BY professor_id`, project.ID)
	if err != nil {
		return fmt.Errorf("failed to load participating professors: %w", err)
	}

	rows, err := r.getExecutor(ctx).QueryContext(ctx,
		`SELECT id, project_id, description FROM project_activities WHERE project_id = ? ORDER BY position`, project.ID)
	if err != nil {
		return fmt.Errorf("failed to load project activities: %w", err)
	}
	defer rows.Close()

	project.Activities = []entity.Activity{}
	for rows.Next() {
		var activity entity.Activity
		if err := rows.Scan(&activity.ID, &activity.ProjectID, &activity.Description); err != nil {
			return fmt.Errorf("failed to scan project activity: %w", err)
		}
		project.Activities = append(project.Activities, activity)
	}
	return rows.Err()
}

func (r *ProjectRepository) queryIDs(ctx context.Context, query string, projectID int64) ([]int64, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// getExecutor returns appropriate executor based on context
func (r *ProjectRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*entity.Project, error) {
	var (
		project   entity.Project
		semester  string
		allocated sql.NullInt64
	)
	err := row.Scan(
		&project.ID,
		&project.Title,
		&project.Description,
		&project.Year,
		&semester,
		&project.DepartmentID,
		&project.ProfessorResponsavelID,
		&project.BolsasSolicitadas,
		&project.VoluntariosSolicitados,
		&allocated,
		&project.Status,
		&project.FeedbackAdmin,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	project.Semester = entity.Semester(semester)
	if allocated.Valid {
		v := int(allocated.Int64)
		project.BolsasDisponibilizadas = &v
	}
	return &project, nil
}

func nullableInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func requireAffected(result sql.Result, what string, id int64) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %d not found", what, id)
	}
	return nil
}

// Verify interface compliance
var _ port.ProjectRepository = (*ProjectRepository)(nil)
