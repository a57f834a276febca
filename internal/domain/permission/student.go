package permission

import (
	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/domain/workflow"
)

// StudentGuard only allows reading approved projects
type StudentGuard struct{}

func (StudentGuard) CanCreate(entity.Actor) error {
	return apperror.Forbidden("students cannot create projects")
}

func (StudentGuard) CanView(_ entity.Actor, project *entity.Project) error {
	if project.Status == entity.StatusApproved {
		return nil
	}
	return apperror.Forbidden("students can only view approved projects")
}

func (StudentGuard) CanTransition(_ entity.Actor, _ *entity.Project, trigger workflow.Trigger) error {
	return apperror.Forbidden("students cannot %s", trigger)
}

func (StudentGuard) CanDelete(entity.Actor, *entity.Project) error {
	return apperror.Forbidden("students cannot delete projects")
}
