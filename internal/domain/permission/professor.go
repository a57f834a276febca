package permission

import (
	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/domain/workflow"
)

// ProfessorGuard lets the responsible professor drive a project up to submission
type ProfessorGuard struct{}

var professorTriggers = map[workflow.Trigger]bool{
	workflow.TriggerRequestProfessorSignature: true,
	workflow.TriggerSignProfessor:             true,
	workflow.TriggerEditContent:               true,
}

func (ProfessorGuard) CanCreate(entity.Actor) error {
	return nil
}

// CanView allows the responsible and participating professors
func (ProfessorGuard) CanView(actor entity.Actor, project *entity.Project) error {
	if project.IsParticipant(actor.UserID) {
		return nil
	}
	return apperror.Forbidden("project %d does not belong to professor %d", project.ID, actor.UserID)
}

func (ProfessorGuard) CanTransition(actor entity.Actor, project *entity.Project, trigger workflow.Trigger) error {
	if !professorTriggers[trigger] {
		return apperror.Forbidden("%s requires the admin role", trigger)
	}
	if !project.IsResponsible(actor.UserID) {
		return apperror.Forbidden("not responsible professor of project %d", project.ID)
	}
	return nil
}

// CanDelete allows the responsible professor to delete a DRAFT project
func (ProfessorGuard) CanDelete(actor entity.Actor, project *entity.Project) error {
	if !project.IsResponsible(actor.UserID) {
		return apperror.Forbidden("not responsible professor of project %d", project.ID)
	}
	if project.Status != entity.StatusDraft {
		return apperror.StateGuard("project in status %s cannot be deleted by a professor", project.Status)
	}
	return nil
}
