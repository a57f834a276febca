// Package permission holds the per-role authorization rules of the project
// lifecycle. Each role has its own Guard; the engine asks the guard of the
// acting role before touching the state machine.
package permission

import (
	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/domain/workflow"
)

// Guard decides what an actor of one role may do to a project.
// A nil error means allow; otherwise the error carries the reason.
type Guard interface {
	CanCreate(actor entity.Actor) error
	CanView(actor entity.Actor, project *entity.Project) error
	CanTransition(actor entity.Actor, project *entity.Project, trigger workflow.Trigger) error
	CanDelete(actor entity.Actor, project *entity.Project) error
}

// Registry maps roles to their guards
type Registry struct {
	guards map[entity.Role]Guard
}

// NewRegistry returns a registry with the professor, admin and student guards
func NewRegistry() *Registry {
	return &Registry{
		guards: map[entity.Role]Guard{
			entity.RoleProfessor: ProfessorGuard{},
			entity.RoleAdmin:     AdminGuard{},
			entity.RoleStudent:   StudentGuard{},
		},
	}
}

// For returns the guard of role. Unknown roles get a guard that denies everything.
func (r *Registry) For(role entity.Role) Guard {
	if g, ok := r.guards[role]; ok {
		return g
	}
	return denyAll{role: role}
}

type denyAll struct {
	role entity.Role
}

func (d denyAll) CanCreate(entity.Actor) error {
	return apperror.Forbidden("role %q is not allowed to create projects", d.role)
}

func (d denyAll) CanView(entity.Actor, *entity.Project) error {
	return apperror.Forbidden("role %q is not allowed to view projects", d.role)
}

func (d denyAll) CanTransition(_ entity.Actor, _ *entity.Project, trigger workflow.Trigger) error {
	return apperror.Forbidden("role %q is not allowed to %s", d.role, trigger)
}

func (d denyAll) CanDelete(entity.Actor, *entity.Project) error {
	return apperror.Forbidden("role %q is not allowed to delete projects", d.role)
}
