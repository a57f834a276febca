package port

import (
	"context"
	"errors"

	"github.com/garyjia/monitoria/internal/domain/entity"
)

// ErrStatusConflict is returned by ProjectRepository.UpdateStatus when the stored
// status no longer matches the expected one (a concurrent transition won)
var ErrStatusConflict = errors.New("project status changed concurrently")

// ProjectFilter narrows ListProjects. Zero values mean "any".
type ProjectFilter struct {
	Year        int
	Semester    entity.Semester
	Status      string
	ProfessorID int64 // responsible or participating professor
	Limit       int
	Offset      int
}

// ProjectRepository defines persistence operations for Project and its relations
type ProjectRepository interface {
	// Create inserts the project row together with its disciplines, participants and activities
	Create(ctx context.Context, project *entity.Project) error

	// GetByID loads a project with relations; returns nil, nil when missing
	GetByID(ctx context.Context, id int64) (*entity.Project, error)

	List(ctx context.Context, filter ProjectFilter) ([]*entity.Project, error)

	// UpdateContent rewrites the editable fields and fully replaces the relations
	UpdateContent(ctx context.Context, project *entity.Project) error

	// UpdateStatus moves the project from one status to another, failing with
	// ErrStatusConflict when the stored status is not from
	UpdateStatus(ctx context.Context, id int64, from, to string) error

	UpdateAllocation(ctx context.Context, id int64, allocated int) error
	SetFeedback(ctx context.Context, id int64, feedback string) error

	// Delete removes the project and every row that references it
	Delete(ctx context.Context, id int64) error
}

// SignatureRepository defines persistence operations for Signature
type SignatureRepository interface {
	Create(ctx context.Context, signature *entity.Signature) error
	ListByProject(ctx context.Context, projectID int64) ([]*entity.Signature, error)
}

// UserRepository defines persistence operations for User
type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id int64) (*entity.User, error)
	ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error)

	// ListProfessorsWithoutSubmission returns professors with no project for the
	// period in SUBMITTED, PENDING_ADMIN_SIGNATURE or APPROVED
	ListProfessorsWithoutSubmission(ctx context.Context, period entity.Period) ([]*entity.User, error)

	// ListProfessorsPendingSelection returns responsible professors of APPROVED
	// projects for the period that have no filled slot yet
	ListProfessorsPendingSelection(ctx context.Context, period entity.Period) ([]*entity.User, error)
}

// HistoryRepository defines persistence operations for ProjectHistory
type HistoryRepository interface {
	Create(ctx context.Context, history *entity.ProjectHistory) error
	ListByProject(ctx context.Context, projectID int64) ([]*entity.ProjectHistory, error)
}

// NotificationLogRepository defines persistence operations for NotificationLog
type NotificationLogRepository interface {
	Create(ctx context.Context, log *entity.NotificationLog) error
	ListByProject(ctx context.Context, projectID int64) ([]*entity.NotificationLog, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
