package workflow

import (
	"context"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/entity"
)

// ProjectWorkflow drives a project through its lifecycle. Every operation
// loads the project, asks the actor's permission guard, fires the state
// machine and persists the outcome in one transaction; events are emitted
// only after the commit.
type ProjectWorkflow interface {
	CreateProject(ctx context.Context, actor entity.Actor, in CreateProjectInput) (*entity.Project, error)
	GetProject(ctx context.Context, actor entity.Actor, id int64) (*ProjectDetail, error)
	ListProjects(ctx context.Context, actor entity.Actor, filter port.ProjectFilter) ([]*entity.Project, error)
	History(ctx context.Context, actor entity.Actor, id int64) ([]*entity.ProjectHistory, error)

	// UpdateContent rewrites fields and relations while DRAFT or PENDING_PROFESSOR_SIGNATURE
	UpdateContent(ctx context.Context, actor entity.Actor, id int64, content entity.ProjectContent) (*entity.Project, error)

	// RequestProfessorSignature moves DRAFT to PENDING_PROFESSOR_SIGNATURE,
	// optionally rewriting content in the same transaction
	RequestProfessorSignature(ctx context.Context, actor entity.Actor, id int64, content *entity.ProjectContent) (*entity.Project, error)

	// SignAsProfessor records the responsible professor's signature and submits the project
	SignAsProfessor(ctx context.Context, actor entity.Actor, id int64, payload string) (*SignResult, error)

	RequestAdminSignature(ctx context.Context, actor entity.Actor, id int64) (*entity.Project, error)
	UpdateAllocation(ctx context.Context, actor entity.Actor, id int64, allocated int) (*entity.Project, error)

	// Approve records the admin signature and approves; a SUBMITTED project is
	// first moved to PENDING_ADMIN_SIGNATURE in the same transaction
	Approve(ctx context.Context, actor entity.Actor, id int64, in ApproveInput) (*SignResult, error)

	Reject(ctx context.Context, actor entity.Actor, id int64, feedback string) (*entity.Project, error)
	DeleteProject(ctx context.Context, actor entity.Actor, id int64) error
}

// CreateProjectInput holds the fields of a new project
type CreateProjectInput struct {
	Title                  string
	Description            string
	Year                   int
	Semester               entity.Semester
	DepartmentID           int64
	ProfessorResponsavelID int64 // admin only; professors always own what they create
	BolsasSolicitadas      int
	VoluntariosSolicitados int
	DisciplineIDs          []int64
	ProfessorIDs           []int64
	Activities             []string
}

// ApproveInput holds the optional admin decisions sent with an approval
type ApproveInput struct {
	Feedback               string
	BolsasDisponibilizadas *int
	SignaturePayload       string
}

// ProjectDetail is a project with its signatures and the actions the caller may take
type ProjectDetail struct {
	*entity.Project
	Signatures       []*entity.Signature `json:"signatures"`
	AvailableActions []string            `json:"availableActions"`
}

// SignResult is the project after a signing transition and the new signature id
type SignResult struct {
	Project     *entity.Project `json:"project"`
	SignatureID int64           `json:"signatureId"`
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
