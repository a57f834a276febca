package permission

import (
	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/domain/workflow"
)

// AdminGuard lets an admin review, allocate and decide on any project.
// Signing and editing content stay with the responsible professor.
type AdminGuard struct{}

var adminTriggers = map[workflow.Trigger]bool{
	workflow.TriggerRequestProfessorSignature: true,
	workflow.TriggerRequestAdminSignature:     true,
	workflow.TriggerApprove:                   true,
	workflow.TriggerReject:                    true,
	workflow.TriggerUpdateAllocation:          true,
}

func (AdminGuard) CanCreate(entity.Actor) error {
	return nil
}

func (AdminGuard) CanView(entity.Actor, *entity.Project) error {
	return nil
}

func (AdminGuard) CanTransition(_ entity.Actor, _ *entity.Project, trigger workflow.Trigger) error {
	if !adminTriggers[trigger] {
		return apperror.Forbidden("%s requires the responsible professor", trigger)
	}
	return nil
}

func (AdminGuard) CanDelete(entity.Actor, *entity.Project) error {
	return nil
}
