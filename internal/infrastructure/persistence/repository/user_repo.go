package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// UserRepository implements port.UserRepository
type UserRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB, logger *zap.Logger) port.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	query := `INSERT INTO users (name, email, role, created_at) VALUES (?, ?, ?, ?)`

	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		user.Name,
		user.Email,
		string(user.Role),
		user.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create user", zap.String("email", user.Email), zap.Error(err))
		return fmt.Errorf("failed to create user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	user.ID = id
	return nil
}

// GetByID retrieves a user; returns nil, nil when missing
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	query := `SELECT u.id, u.name, u.email, u.role, u.created_at FROM users u WHERE u.id = ?`

	user, err := scanUser(r.getExecutor(ctx).QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get user", zap.Int64("user_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListByRole retrieves every user holding role
func (r *UserRepository) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	query := `SELECT u.id, u.name, u.email, u.role, u.created_at FROM users u WHERE u.role = ? ORDER BY u.id`
	return r.queryUsers(ctx, "list users by role", query, string(role))
}

// ListProfessorsWithoutSubmission returns professors with no signed project for the period
func (r *UserRepository) ListProfessorsWithoutSubmission(ctx context.Context, period entity.Period) ([]*entity.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.created_at
		FROM users u
		WHERE u.role = ?
			AND NOT EXISTS (
				SELECT 1 FROM projects p
				WHERE p.professor_responsavel_id = u.id
					AND p.year = ?
					AND p.semester = ?
					AND p.status IN (?, ?, ?)
			)
		ORDER BY u.id
	`
	return r.queryUsers(ctx, "list professors without submission", query,
		string(entity.RoleProfessor),
		period.Year,
		string(period.Semester),
		entity.StatusSubmitted,
		entity.StatusPendingAdminSignature,
		entity.StatusApproved,
	)
}

// ListProfessorsPendingSelection returns responsible professors of approved
// projects for the period that have no filled slot
func (r *UserRepository) ListProfessorsPendingSelection(ctx context.Context, period entity.Period) ([]*entity.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.role, u.created_at
		FROM users u
		WHERE EXISTS (
			SELECT 1 FROM projects p
			WHERE p.professor_responsavel_id = u.id
				AND p.year = ?
				AND p.semester = ?
				AND p.status = ?
				AND NOT EXISTS (SELECT 1 FROM vagas v WHERE v.project_id = p.id)
		)
		ORDER BY u.id
	`
	return r.queryUsers(ctx, "list professors pending selection", query,
		period.Year,
		string(period.Semester),
		entity.StatusApproved,
	)
}

func (r *UserRepository) queryUsers(ctx context.Context, op, query string, args ...interface{}) ([]*entity.User, error) {
	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	var users []*entity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// getExecutor returns appropriate executor based on context
func (r *UserRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		user entity.User
		role string
	)
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &role, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.Role = entity.Role(role)
	return &user, nil
}

// Verify interface compliance
var _ port.UserRepository = (*UserRepository)(nil)
