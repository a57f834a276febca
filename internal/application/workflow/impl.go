package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/monitoria/internal/application/dispatcher"
	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/domain/event"
	"github.com/garyjia/monitoria/internal/domain/permission"
	domainwf "github.com/garyjia/monitoria/internal/domain/workflow"
)

// engineImpl is the concrete implementation of ProjectWorkflow
type engineImpl struct {
	projectRepo   port.ProjectRepository
	signatureRepo port.SignatureRepository
	historyRepo   port.HistoryRepository
	txManager     port.TransactionManager
	permissions   *permission.Registry

	dispatcher    dispatcher.Dispatcher
	asyncDispatch bool
	clock         func() time.Time
	logger        Logger
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.dispatcher = d
	}
}

// WithAsyncDispatch makes post-commit events run in the background
func WithAsyncDispatch(async bool) EngineOption {
	return func(e *engineImpl) {
		e.asyncDispatch = async
	}
}

// WithClock sets the time source used for timestamps and the default period
func WithClock(clock func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.clock = clock
	}
}

// WithLogger sets the logger used for swallowed dispatch failures
func WithLogger(logger Logger) EngineOption {
	return func(e *engineImpl) {
		e.logger = logger
	}
}

// WithPermissions replaces the default role guards
func WithPermissions(r *permission.Registry) EngineOption {
	return func(e *engineImpl) {
		e.permissions = r
	}
}

// NewEngine creates a new project workflow engine
func NewEngine(
	projectRepo port.ProjectRepository,
	signatureRepo port.SignatureRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	opts ...EngineOption,
) ProjectWorkflow {
	e := &engineImpl{
		projectRepo:   projectRepo,
		signatureRepo: signatureRepo,
		historyRepo:   historyRepo,
		txManager:     txManager,
		permissions:   permission.NewRegistry(),
		clock:         time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// operation describes one lifecycle call: the triggers fired in order, the
// proposed allocation the guards check, and the extra writes it performs
type operation struct {
	triggers  []domainwf.Trigger
	allocated *int
	// apply runs inside the transaction after every trigger fired
	apply  func(ctx context.Context, p *entity.Project) error
	detail string
}

// step is a single fired trigger and the states around it
type step struct {
	trigger domainwf.Trigger
	from    domainwf.State
	to      domainwf.State
}

// execute runs op against the project in one transaction and returns the
// updated project with the fired steps
func (e *engineImpl) execute(ctx context.Context, actor entity.Actor, projectID int64, op operation) (*entity.Project, []step, error) {
	var (
		project *entity.Project
		steps   []step
	)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := e.load(txCtx, projectID)
		if err != nil {
			return err
		}

		guard := e.permissions.For(actor.Role)
		for _, trigger := range op.triggers {
			if err := guard.CanTransition(actor, p, trigger); err != nil {
				return err
			}
		}

		from := domainwf.State(p.Status)
		if !from.IsValid() {
			return apperror.Internal(fmt.Sprintf("project %d has unknown status %q", p.ID, p.Status), domainwf.ErrInvalidState)
		}

		machine := BuildProjectStateMachine(from)
		guardCtx := withTransitionInput(txCtx, transitionInput{
			requested: p.BolsasSolicitadas,
			allocated: op.allocated,
		})
		for _, trigger := range op.triggers {
			before := machine.State()
			if err := machine.Fire(guardCtx, trigger); err != nil {
				return fireError(p, before, trigger, err)
			}
			steps = append(steps, step{trigger: trigger, from: before, to: machine.State()})
		}

		if op.apply != nil {
			if err := op.apply(txCtx, p); err != nil {
				return err
			}
		}

		to := machine.State()
		if to != from {
			if err := e.projectRepo.UpdateStatus(txCtx, p.ID, from.String(), to.String()); err != nil {
				if errors.Is(err, port.ErrStatusConflict) {
					return apperror.StateGuard("project %d is no longer in status %s", p.ID, from)
				}
				return fmt.Errorf("failed to update project status: %w", err)
			}
			p.Status = to.String()
		}

		now := e.clock()
		for _, s := range steps {
			history := &entity.ProjectHistory{
				ProjectID:      p.ID,
				ActorUserID:    actor.UserID,
				PreviousStatus: s.from.String(),
				NewStatus:      s.to.String(),
				Action:         s.trigger.String(),
				Detail:         op.detail,
				CreatedAt:      now,
			}
			if err := e.historyRepo.Create(txCtx, history); err != nil {
				return fmt.Errorf("failed to create history record: %w", err)
			}
		}

		p.UpdatedAt = now
		project = p
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	return project, steps, nil
}

// fireError maps a state machine failure to the error taxonomy
func fireError(p *entity.Project, state domainwf.State, trigger domainwf.Trigger, err error) error {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, domainwf.ErrInvalidTransition) {
		return apperror.StateGuard("invalid status: cannot %s project %d in status %s", trigger, p.ID, state)
	}
	return apperror.Internal("state machine failure", err)
}

// load fetches a project or returns a not-found error
func (e *engineImpl) load(ctx context.Context, id int64) (*entity.Project, error) {
	p, err := e.projectRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load project %d: %w", id, err)
	}
	if p == nil {
		return nil, apperror.NotFound("project %d not found", id)
	}
	return p, nil
}

// emit publishes events after commit. Failures are logged and never returned.
func (e *engineImpl) emit(ctx context.Context, events ...*event.Event) {
	if e.dispatcher == nil {
		return
	}

	for _, evt := range events {
		if e.asyncDispatch {
			e.dispatcher.DispatchAsync(ctx, evt)
			continue
		}
		if err := e.dispatcher.Dispatch(ctx, evt); err != nil && e.logger != nil {
			e.logger.Error("Event dispatch failed",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"project_id", evt.ProjectID,
				"error", err,
			)
		}
	}
}

// statusEvents builds the status_changed event for a completed transition plus the specific event, if any
func (e *engineImpl) statusEvents(actor entity.Actor, p *entity.Project, steps []step, specific event.Type, extra map[string]interface{}) []*event.Event {
	if len(steps) == 0 {
		return nil
	}
	first, last := steps[0], steps[len(steps)-1]
	if first.from == last.to {
		return nil
	}

	now := e.clock()
	changed := event.NewEvent(event.TypeStatusChanged, p.ID, actor.UserID, map[string]interface{}{
		event.KeyPreviousStatus: first.from.String(),
		event.KeyNewStatus:      last.to.String(),
		"trigger":               last.trigger.String(),
	}, now)

	events := []*event.Event{changed}
	if specific == "" {
		return events
	}

	payload := map[string]interface{}{
		event.KeyTitle:          p.Title,
		event.KeyProfessorID:    p.ProfessorResponsavelID,
		event.KeyPreviousStatus: first.from.String(),
		event.KeyNewStatus:      last.to.String(),
	}
	for k, v := range extra {
		payload[k] = v
	}
	return append(events, event.NewEventWithCorrelation(specific, p.ID, actor.UserID, payload, now, changed.CorrelationID))
}

// CreateProject creates a DRAFT project
func (e *engineImpl) CreateProject(ctx context.Context, actor entity.Actor, in CreateProjectInput) (*entity.Project, error) {
	if err := e.permissions.For(actor.Role).CanCreate(actor); err != nil {
		return nil, err
	}

	responsible := actor.UserID
	if actor.IsAdmin() {
		if in.ProfessorResponsavelID == 0 {
			return nil, apperror.Validation("invalid project", map[string]string{
				"professorResponsavelId": "required when an admin creates a project",
			})
		}
		responsible = in.ProfessorResponsavelID
	} else if in.ProfessorResponsavelID != 0 && in.ProfessorResponsavelID != actor.UserID {
		return nil, apperror.Forbidden("only admins may create projects for another professor")
	}

	now := e.clock()
	if in.Year == 0 && in.Semester == "" {
		period := entity.CurrentPeriod(now)
		in.Year, in.Semester = period.Year, period.Semester
	}

	content := entity.ProjectContent{
		Title:                  in.Title,
		Description:            in.Description,
		DepartmentID:           in.DepartmentID,
		BolsasSolicitadas:      in.BolsasSolicitadas,
		VoluntariosSolicitados: in.VoluntariosSolicitados,
		DisciplineIDs:          in.DisciplineIDs,
		ProfessorIDs:           in.ProfessorIDs,
		Activities:             in.Activities,
	}
	details := validateContent(content)
	if in.Year <= 0 {
		details["year"] = "must be positive"
	}
	if !in.Semester.IsValid() {
		details["semester"] = "must be SEMESTRE_1 or SEMESTRE_2"
	}
	if len(details) > 0 {
		return nil, apperror.Validation("invalid project", details)
	}

	project := &entity.Project{
		Year:                   in.Year,
		Semester:               in.Semester,
		ProfessorResponsavelID: responsible,
		Status:                 domainwf.StateDraft.String(),
		CreatedAt:              now,
		UpdatedAt:              now,
	}
	project.ApplyContent(content)

	err := e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.projectRepo.Create(txCtx, project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}
		return e.historyRepo.Create(txCtx, &entity.ProjectHistory{
			ProjectID:   project.ID,
			ActorUserID: actor.UserID,
			NewStatus:   project.Status,
			Action:      entity.ActionCreate,
			CreatedAt:   now,
		})
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, event.NewEvent(event.TypeProjectCreated, project.ID, actor.UserID, map[string]interface{}{
		event.KeyTitle:       project.Title,
		event.KeyProfessorID: project.ProfessorResponsavelID,
	}, now))

	return project, nil
}

// GetProject returns a project with its signatures and the caller's available actions
func (e *engineImpl) GetProject(ctx context.Context, actor entity.Actor, id int64) (*ProjectDetail, error) {
	p, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}

	guard := e.permissions.For(actor.Role)
	if err := guard.CanView(actor, p); err != nil {
		return nil, err
	}

	signatures, err := e.signatureRepo.ListByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}

	return &ProjectDetail{
		Project:          p,
		Signatures:       signatures,
		AvailableActions: availableActions(guard, actor, p),
	}, nil
}

// availableActions lists triggers with an edge from the project's status that the actor's role may fire
func availableActions(guard permission.Guard, actor entity.Actor, p *entity.Project) []string {
	actions := []string{}
	state := domainwf.State(p.Status)
	if !state.IsValid() {
		return actions
	}

	for _, trigger := range BuildProjectStateMachine(state).PermittedTriggers() {
		if guard.CanTransition(actor, p, trigger) == nil {
			actions = append(actions, trigger.String())
		}
	}
	// approving a SUBMITTED project chains through PENDING_ADMIN_SIGNATURE
	if state == domainwf.StateSubmitted && guard.CanTransition(actor, p, domainwf.TriggerApprove) == nil {
		actions = append(actions, domainwf.TriggerApprove.String())
	}
	return actions
}

// ListProjects lists projects visible to the actor
func (e *engineImpl) ListProjects(ctx context.Context, actor entity.Actor, filter port.ProjectFilter) ([]*entity.Project, error) {
	switch actor.Role {
	case entity.RoleAdmin:
	case entity.RoleProfessor:
		filter.ProfessorID = actor.UserID
	case entity.RoleStudent:
		if filter.Status != "" && filter.Status != entity.StatusApproved {
			return []*entity.Project{}, nil
		}
		filter.Status = entity.StatusApproved
	default:
		return nil, apperror.Forbidden("role %q is not allowed to list projects", actor.Role)
	}

	if filter.Semester != "" && !filter.Semester.IsValid() {
		return nil, apperror.Validation("invalid filter", map[string]string{"semester": "must be SEMESTRE_1 or SEMESTRE_2"})
	}
	if filter.Status != "" && !domainwf.State(filter.Status).IsValid() {
		return nil, apperror.Validation("invalid filter", map[string]string{"status": "unknown status"})
	}

	projects, err := e.projectRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// History returns the audit trail of a project
func (e *engineImpl) History(ctx context.Context, actor entity.Actor, id int64) ([]*entity.ProjectHistory, error) {
	p, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := e.permissions.For(actor.Role).CanView(actor, p); err != nil {
		return nil, err
	}

	records, err := e.historyRepo.ListByProject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return records, nil
}

// UpdateContent rewrites the project's editable fields and relations
func (e *engineImpl) UpdateContent(ctx context.Context, actor entity.Actor, id int64, content entity.ProjectContent) (*entity.Project, error) {
	if details := validateContent(content); len(details) > 0 {
		return nil, apperror.Validation("invalid project content", details)
	}

	p, _, err := e.execute(ctx, actor, id, operation{
		triggers: []domainwf.Trigger{domainwf.TriggerEditContent},
		apply:    e.replaceContent(content),
	})
	return p, err
}

// RequestProfessorSignature moves a DRAFT project to PENDING_PROFESSOR_SIGNATURE
func (e *engineImpl) RequestProfessorSignature(ctx context.Context, actor entity.Actor, id int64, content *entity.ProjectContent) (*entity.Project, error) {
	op := operation{triggers: []domainwf.Trigger{domainwf.TriggerRequestProfessorSignature}}
	if content != nil {
		if details := validateContent(*content); len(details) > 0 {
			return nil, apperror.Validation("invalid project content", details)
		}
		op.apply = e.replaceContent(*content)
	}

	p, steps, err := e.execute(ctx, actor, id, op)
	if err != nil {
		return nil, err
	}

	e.emit(ctx, e.statusEvents(actor, p, steps, "", nil)...)
	return p, nil
}

// SignAsProfessor inserts the professor-responsible signature and submits the project
func (e *engineImpl) SignAsProfessor(ctx context.Context, actor entity.Actor, id int64, payload string) (*SignResult, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, apperror.Validation("signature payload is required", map[string]string{"signatureImage": "required"})
	}

	var signature *entity.Signature
	p, steps, err := e.execute(ctx, actor, id, operation{
		triggers: []domainwf.Trigger{domainwf.TriggerSignProfessor},
		apply: func(ctx context.Context, p *entity.Project) error {
			signature = &entity.Signature{
				ProjectID:    p.ID,
				SignerUserID: actor.UserID,
				Kind:         entity.SignatureProfessorResponsible,
				Payload:      payload,
				SignedAt:     e.clock(),
			}
			if err := e.signatureRepo.Create(ctx, signature); err != nil {
				return fmt.Errorf("failed to create signature: %w", err)
			}
			return nil
		},
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, e.statusEvents(actor, p, steps, event.TypeProjectSubmitted, map[string]interface{}{
		event.KeySignatureID: signature.ID,
	})...)

	return &SignResult{Project: p, SignatureID: signature.ID}, nil
}

// RequestAdminSignature moves a SUBMITTED project to PENDING_ADMIN_SIGNATURE
func (e *engineImpl) RequestAdminSignature(ctx context.Context, actor entity.Actor, id int64) (*entity.Project, error) {
	p, steps, err := e.execute(ctx, actor, id, operation{
		triggers: []domainwf.Trigger{domainwf.TriggerRequestAdminSignature},
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, e.statusEvents(actor, p, steps, "", nil)...)
	return p, nil
}

// UpdateAllocation sets the scholarships granted to a project
func (e *engineImpl) UpdateAllocation(ctx context.Context, actor entity.Actor, id int64, allocated int) (*entity.Project, error) {
	p, _, err := e.execute(ctx, actor, id, operation{
		triggers:  []domainwf.Trigger{domainwf.TriggerUpdateAllocation},
		allocated: &allocated,
		apply:     e.writeAllocation(allocated),
		detail:    fmt.Sprintf("bolsasDisponibilizadas=%d", allocated),
	})
	return p, err
}

// Approve approves a SUBMITTED or PENDING_ADMIN_SIGNATURE project
func (e *engineImpl) Approve(ctx context.Context, actor entity.Actor, id int64, in ApproveInput) (*SignResult, error) {
	var signature *entity.Signature

	op := operation{
		allocated: in.BolsasDisponibilizadas,
		apply: func(ctx context.Context, p *entity.Project) error {
			if in.BolsasDisponibilizadas != nil {
				if err := e.writeAllocation(*in.BolsasDisponibilizadas)(ctx, p); err != nil {
					return err
				}
			}
			if in.Feedback != "" {
				if err := e.projectRepo.SetFeedback(ctx, p.ID, in.Feedback); err != nil {
					return fmt.Errorf("failed to set feedback: %w", err)
				}
				p.FeedbackAdmin = in.Feedback
			}
			signature = &entity.Signature{
				ProjectID:    p.ID,
				SignerUserID: actor.UserID,
				Kind:         entity.SignatureAdminApproval,
				Payload:      in.SignaturePayload,
				SignedAt:     e.clock(),
			}
			if err := e.signatureRepo.Create(ctx, signature); err != nil {
				return fmt.Errorf("failed to create signature: %w", err)
			}
			return nil
		},
	}
	if in.BolsasDisponibilizadas != nil {
		op.detail = fmt.Sprintf("bolsasDisponibilizadas=%d", *in.BolsasDisponibilizadas)
	}

	// peek at the status to decide whether to chain the admin signature request;
	// execute re-reads it inside the transaction and rejects if it moved
	current, err := e.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status == entity.StatusSubmitted {
		op.triggers = append(op.triggers, domainwf.TriggerRequestAdminSignature)
	}
	op.triggers = append(op.triggers, domainwf.TriggerApprove)

	p, steps, err := e.execute(ctx, actor, id, op)
	if err != nil {
		return nil, err
	}

	e.emit(ctx, e.statusEvents(actor, p, steps, event.TypeProjectApproved, map[string]interface{}{
		event.KeySignatureID: signature.ID,
		event.KeyFeedback:    in.Feedback,
		event.KeyAllocated:   p.AllocatedScholarships(),
	})...)

	return &SignResult{Project: p, SignatureID: signature.ID}, nil
}

// Reject rejects a non-terminal project, storing the feedback verbatim
func (e *engineImpl) Reject(ctx context.Context, actor entity.Actor, id int64, feedback string) (*entity.Project, error) {
	p, steps, err := e.execute(ctx, actor, id, operation{
		triggers: []domainwf.Trigger{domainwf.TriggerReject},
		apply: func(ctx context.Context, p *entity.Project) error {
			if err := e.projectRepo.SetFeedback(ctx, p.ID, feedback); err != nil {
				return fmt.Errorf("failed to set feedback: %w", err)
			}
			p.FeedbackAdmin = feedback
			return nil
		},
		detail: feedback,
	})
	if err != nil {
		return nil, err
	}

	e.emit(ctx, e.statusEvents(actor, p, steps, event.TypeProjectRejected, map[string]interface{}{
		event.KeyFeedback: feedback,
	})...)

	return p, nil
}

// DeleteProject removes a project and everything attached to it
func (e *engineImpl) DeleteProject(ctx context.Context, actor entity.Actor, id int64) error {
	return e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		p, err := e.load(txCtx, id)
		if err != nil {
			return err
		}
		if err := e.permissions.For(actor.Role).CanDelete(actor, p); err != nil {
			return err
		}
		if err := e.projectRepo.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		return nil
	})
}

func (e *engineImpl) replaceContent(content entity.ProjectContent) func(ctx context.Context, p *entity.Project) error {
	return func(ctx context.Context, p *entity.Project) error {
		p.ApplyContent(content)
		if err := e.projectRepo.UpdateContent(ctx, p); err != nil {
			return fmt.Errorf("failed to update project content: %w", err)
		}
		return nil
	}
}

func (e *engineImpl) writeAllocation(allocated int) func(ctx context.Context, p *entity.Project) error {
	return func(ctx context.Context, p *entity.Project) error {
		if err := e.projectRepo.UpdateAllocation(ctx, p.ID, allocated); err != nil {
			return fmt.Errorf("failed to update allocation: %w", err)
		}
		p.BolsasDisponibilizadas = &allocated
		return nil
	}
}

// validateContent returns field level problems with content, empty when valid
func validateContent(content entity.ProjectContent) map[string]string {
	details := make(map[string]string)
	if strings.TrimSpace(content.Title) == "" {
		details["title"] = "required"
	}
	if content.BolsasSolicitadas < 0 {
		details["bolsasSolicitadas"] = "must not be negative"
	}
	if content.VoluntariosSolicitados < 0 {
		details["voluntariosSolicitados"] = "must not be negative"
	}
	return details
}

// Verify interface compliance
var _ ProjectWorkflow = (*engineImpl)(nil)
