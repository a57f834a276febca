package service

import (
	"context"
	"fmt"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/report"
)

// ProjectSheetWriter renders project rows into a spreadsheet
type ProjectSheetWriter interface {
	WriteProjects(rows []report.ProjectRow) ([]byte, error)
}

// Export is a rendered report and the name it was archived under
type Export struct {
	Filename string
	Content  []byte
}

// ReportService exports project listings for admins
type ReportService interface {
	ExportProjects(ctx context.Context, actor entity.Actor, year int, semester entity.Semester) (*Export, error)
}

type reportServiceImpl struct {
	projectRepo port.ProjectRepository
	userRepo    port.UserRepository
	writer      ProjectSheetWriter
	storage     port.FileStorage
	logger      Logger
}

// NewReportService creates a new ReportService. storage may be nil, in which
// case exports are not archived.
func NewReportService(
	projectRepo port.ProjectRepository,
	userRepo port.UserRepository,
	writer ProjectSheetWriter,
	storage port.FileStorage,
	logger Logger,
) ReportService {
	return &reportServiceImpl{
		projectRepo: projectRepo,
		userRepo:    userRepo,
		writer:      writer,
		storage:     storage,
		logger:      logger,
	}
}

// ExportProjects renders every project of the period into an xlsx workbook
func (s *reportServiceImpl) ExportProjects(ctx context.Context, actor entity.Actor, year int, semester entity.Semester) (*Export, error) {
	if !actor.IsAdmin() {
		return nil, apperror.Forbidden("project reports require the admin role")
	}
	if semester != "" && !semester.IsValid() {
		return nil, apperror.Validation("invalid report filter", map[string]string{"semester": "must be SEMESTRE_1 or SEMESTRE_2"})
	}

	projects, err := s.projectRepo.List(ctx, port.ProjectFilter{Year: year, Semester: semester})
	if err != nil {
		s.logger.Error("Failed to list projects for report", "error", err)
		return nil, fmt.Errorf("list projects: %w", err)
	}

	names := make(map[int64]string)
	rows := make([]report.ProjectRow, 0, len(projects))
	for _, p := range projects {
		name, ok := names[p.ProfessorResponsavelID]
		if !ok {
			u, err := s.userRepo.GetByID(ctx, p.ProfessorResponsavelID)
			if err != nil {
				return nil, fmt.Errorf("get professor %d: %w", p.ProfessorResponsavelID, err)
			}
			if u != nil {
				name = u.Name
			}
			names[p.ProfessorResponsavelID] = name
		}

		rows = append(rows, report.ProjectRow{
			ID:                     p.ID,
			Title:                  p.Title,
			Professor:              name,
			DepartmentID:           p.DepartmentID,
			Year:                   p.Year,
			Semester:               p.Semester.String(),
			Status:                 p.Status,
			BolsasSolicitadas:      p.BolsasSolicitadas,
			BolsasDisponibilizadas: p.AllocatedScholarships(),
			VoluntariosSolicitados: p.VoluntariosSolicitados,
		})
	}

	content, err := s.writer.WriteProjects(rows)
	if err != nil {
		s.logger.Error("Failed to render project report", "error", err)
		return nil, fmt.Errorf("render report: %w", err)
	}

	export := &Export{Filename: reportFilename(year, semester), Content: content}

	if s.storage != nil {
		path := "reports/" + export.Filename
		replaced := s.storage.Exists(ctx, path)
		if err := s.storage.Save(ctx, path, content); err != nil {
			s.logger.Error("Failed to archive project report", "error", err, "path", path)
		} else {
			s.logger.Info("Project report archived",
				"path", s.storage.GetFullPath(path),
				"projects", len(rows),
				"replaced", replaced)
		}
	}

	return export, nil
}

func reportFilename(year int, semester entity.Semester) string {
	name := "projetos"
	if year != 0 {
		name = fmt.Sprintf("%s_%d", name, year)
	}
	if semester != "" {
		name = fmt.Sprintf("%s_%s", name, semester)
	}
	return name + ".xlsx"
}
