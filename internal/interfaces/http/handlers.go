package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/application/service"
	"github.com/garyjia/monitoria/internal/application/workflow"
	"github.com/garyjia/monitoria/internal/domain/apperror"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HealthChecker reports whether a dependency is reachable
type HealthChecker func(c *gin.Context) error

// Handlers contains all HTTP request handlers
type Handlers struct {
	projects  workflow.ProjectWorkflow
	reminders service.ReminderService
	reports   service.ReportService
	health    HealthChecker
	logger    Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	projects workflow.ProjectWorkflow,
	reminders service.ReminderService,
	reports service.ReportService,
	health HealthChecker,
	logger Logger,
) *Handlers {
	return &Handlers{
		projects:  projects,
		reminders: reminders,
		reports:   reports,
		health:    health,
		logger:    logger,
	}
}

// Response represents a standard JSON success response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// ProjectContentRequest is the professor-editable part of a project
type ProjectContentRequest struct {
	Title                  string   `json:"title" binding:"required,max=255"`
	Description            string   `json:"description"`
	DepartmentID           int64    `json:"departmentId" binding:"gte=0"`
	BolsasSolicitadas      int      `json:"bolsasSolicitadas" binding:"gte=0"`
	VoluntariosSolicitados int      `json:"voluntariosSolicitados" binding:"gte=0"`
	DisciplineIDs          []int64  `json:"disciplineIds"`
	ProfessorIDs           []int64  `json:"professoresParticipantes"`
	Activities             []string `json:"atividades"`
}

func (r ProjectContentRequest) toContent() entity.ProjectContent {
	return entity.ProjectContent{
		Title:                  utils.SanitizeText(r.Title),
		Description:            utils.SanitizeText(r.Description),
		DepartmentID:           r.DepartmentID,
		BolsasSolicitadas:      r.BolsasSolicitadas,
		VoluntariosSolicitados: r.VoluntariosSolicitados,
		DisciplineIDs:          r.DisciplineIDs,
		ProfessorIDs:           r.ProfessorIDs,
		Activities:             r.Activities,
	}
}

// CreateProjectRequest is the body of POST /api/project
type CreateProjectRequest struct {
	ProjectContentRequest
	Year                   int             `json:"year" binding:"gte=0"`
	Semester               entity.Semester `json:"semester" binding:"omitempty,oneof=SEMESTRE_1 SEMESTRE_2"`
	ProfessorResponsavelID int64           `json:"professorResponsavelId" binding:"gte=0"`
}

// UpdateProjectRequest is the body of PUT /api/project/:id. Professors send
// content; admins send bolsasDisponibilizadas.
type UpdateProjectRequest struct {
	Title                  string   `json:"title" binding:"max=255"`
	Description            string   `json:"description"`
	DepartmentID           int64    `json:"departmentId" binding:"gte=0"`
	BolsasSolicitadas      int      `json:"bolsasSolicitadas" binding:"gte=0"`
	VoluntariosSolicitados int      `json:"voluntariosSolicitados" binding:"gte=0"`
	DisciplineIDs          []int64  `json:"disciplineIds"`
	ProfessorIDs           []int64  `json:"professoresParticipantes"`
	Activities             []string `json:"atividades"`
	BolsasDisponibilizadas *int     `json:"bolsasDisponibilizadas"`
}

// SignatureRequest carries the opaque signature payload
type SignatureRequest struct {
	SignatureImage string `json:"signatureImage" binding:"required"`
}

// ApproveRequest is the body of POST /api/project/:id/approve
type ApproveRequest struct {
	Feedback               string `json:"feedbackAdmin"`
	BolsasDisponibilizadas *int   `json:"bolsasDisponibilizadas" binding:"omitempty,gte=0"`
	SignatureImage         string `json:"signatureImage"`
}

// RejectRequest is the body of POST /api/project/:id/reject
type RejectRequest struct {
	Feedback string `json:"feedbackAdmin"`
}

// ListProjectsRequest represents query parameters for listing projects
type ListProjectsRequest struct {
	Year     int             `form:"year" binding:"gte=0"`
	Semester entity.Semester `form:"semester" binding:"omitempty,oneof=SEMESTRE_1 SEMESTRE_2"`
	Status   string          `form:"status"`
	Limit    int             `form:"limit"`
	Offset   int             `form:"offset"`
}

// ReminderRequest is the body of POST /api/notifications/reminders
type ReminderRequest struct {
	Type           service.ReminderType `json:"type" binding:"required,oneof=PROJECT_SUBMISSION SELECTION_PENDING"`
	CustomMessage  string               `json:"customMessage"`
	TargetYear     int                  `json:"targetYear" binding:"gte=0"`
	TargetSemester entity.Semester      `json:"targetSemester" binding:"omitempty,oneof=SEMESTRE_1 SEMESTRE_2"`
}

// ReportRequest represents query parameters of the project report
type ReportRequest struct {
	Year     int             `form:"year" binding:"gte=0"`
	Semester entity.Semester `form:"semester" binding:"omitempty,oneof=SEMESTRE_1 SEMESTRE_2"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	if h.health != nil {
		if err := h.health(c); err != nil {
			h.logger.Error("Health check failed", "error", err)
			response.Status = "unhealthy"
			c.JSON(http.StatusServiceUnavailable, Response{Success: false, Data: response})
			return
		}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: response})
}

// CreateProject handles POST /api/project
func (h *Handlers) CreateProject(c *gin.Context) {
	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), actorFrom(c), workflow.CreateProjectInput{
		Title:                  utils.SanitizeText(req.Title),
		Description:            utils.SanitizeText(req.Description),
		Year:                   req.Year,
		Semester:               req.Semester,
		DepartmentID:           req.DepartmentID,
		ProfessorResponsavelID: req.ProfessorResponsavelID,
		BolsasSolicitadas:      req.BolsasSolicitadas,
		VoluntariosSolicitados: req.VoluntariosSolicitados,
		DisciplineIDs:          req.DisciplineIDs,
		ProfessorIDs:           req.ProfessorIDs,
		Activities:             req.Activities,
	})
	if err != nil {
		h.fail(c, "create project", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: project})
}

// ListProjects handles GET /api/project
func (h *Handlers) ListProjects(c *gin.Context) {
	var req ListProjectsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	projects, err := h.projects.ListProjects(c.Request.Context(), actorFrom(c), port.ProjectFilter{
		Year:     req.Year,
		Semester: req.Semester,
		Status:   req.Status,
		Limit:    req.Limit,
		Offset:   req.Offset,
	})
	if err != nil {
		h.fail(c, "list projects", err)
		return
	}
	if projects == nil {
		projects = []*entity.Project{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: projects})
}

// GetProject handles GET /api/project/:id
func (h *Handlers) GetProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	detail, err := h.projects.GetProject(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "get project", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: detail})
}

// GetHistory handles GET /api/project/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	records, err := h.projects.History(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "get project history", err)
		return
	}
	if records == nil {
		records = []*entity.ProjectHistory{}
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// UpdateProject handles PUT /api/project/:id. Professors rewrite content,
// admins rewrite the allocation.
func (h *Handlers) UpdateProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	actor := actorFrom(c)
	var (
		project *entity.Project
		err     error
	)
	switch actor.Role {
	case entity.RoleAdmin:
		if req.BolsasDisponibilizadas == nil {
			writeError(c, apperror.Validation("invalid request body", map[string]string{
				"bolsasDisponibilizadas": "required",
			}))
			return
		}
		project, err = h.projects.UpdateAllocation(c.Request.Context(), actor, id, *req.BolsasDisponibilizadas)
	case entity.RoleProfessor:
		if req.BolsasDisponibilizadas != nil {
			writeError(c, apperror.Forbidden("bolsasDisponibilizadas requires the admin role"))
			return
		}
		project, err = h.projects.UpdateContent(c.Request.Context(), actor, id, entity.ProjectContent{
			Title:                  utils.SanitizeText(req.Title),
			Description:            utils.SanitizeText(req.Description),
			DepartmentID:           req.DepartmentID,
			BolsasSolicitadas:      req.BolsasSolicitadas,
			VoluntariosSolicitados: req.VoluntariosSolicitados,
			DisciplineIDs:          req.DisciplineIDs,
			ProfessorIDs:           req.ProfessorIDs,
			Activities:             req.Activities,
		})
	default:
		err = apperror.Forbidden("requires role professor or admin")
	}
	if err != nil {
		h.fail(c, "update project", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: project})
}

// DeleteProject handles DELETE /api/project/:id
func (h *Handlers) DeleteProject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	if err := h.projects.DeleteProject(c.Request.Context(), actorFrom(c), id); err != nil {
		h.fail(c, "delete project", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: gin.H{"id": id}})
}

// RequestProfessorSignature handles POST /api/project/:id/request-signature.
// A body, when present, rewrites the content in the same transaction.
func (h *Handlers) RequestProfessorSignature(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var content *entity.ProjectContent
	var req ProjectContentRequest
	bound, err := bindOptionalJSON(c, &req)
	if err != nil {
		writeError(c, bindError(err))
		return
	}
	if bound {
		cc := req.toContent()
		content = &cc
	}

	project, err := h.projects.RequestProfessorSignature(c.Request.Context(), actorFrom(c), id, content)
	if err != nil {
		h.fail(c, "request professor signature", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: project})
}

// SignAsProfessor handles POST /api/project/:id/professor-signature
func (h *Handlers) SignAsProfessor(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req SignatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	result, err := h.projects.SignAsProfessor(c.Request.Context(), actorFrom(c), id, req.SignatureImage)
	if err != nil {
		h.fail(c, "sign project", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// RequestAdminSignature handles POST /api/project/:id/admin-signature-request
func (h *Handlers) RequestAdminSignature(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	project, err := h.projects.RequestAdminSignature(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		h.fail(c, "request admin signature", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: project})
}

// Approve handles POST /api/project/:id/approve
func (h *Handlers) Approve(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req ApproveRequest
	if _, err := bindOptionalJSON(c, &req); err != nil {
		writeError(c, bindError(err))
		return
	}

	// feedback reaches the professor verbatim
	result, err := h.projects.Approve(c.Request.Context(), actorFrom(c), id, workflow.ApproveInput{
		Feedback:               req.Feedback,
		BolsasDisponibilizadas: req.BolsasDisponibilizadas,
		SignaturePayload:       req.SignatureImage,
	})
	if err != nil {
		h.fail(c, "approve project", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// Reject handles POST /api/project/:id/reject
func (h *Handlers) Reject(c *gin.Context) {
	id, ok := projectID(c)
	if !ok {
		return
	}

	var req RejectRequest
	if _, err := bindOptionalJSON(c, &req); err != nil {
		writeError(c, bindError(err))
		return
	}

	project, err := h.projects.Reject(c.Request.Context(), actorFrom(c), id, req.Feedback)
	if err != nil {
		h.fail(c, "reject project", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: project})
}

// SendReminders handles POST /api/notifications/reminders
func (h *Handlers) SendReminders(c *gin.Context) {
	var req ReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	result, err := h.reminders.Send(c.Request.Context(), actorFrom(c), service.ReminderRequest{
		Type:           req.Type,
		CustomMessage:  req.CustomMessage,
		TargetYear:     req.TargetYear,
		TargetSemester: req.TargetSemester,
	})
	if err != nil {
		h.fail(c, "send reminders", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// ExportProjects handles GET /api/reports/projects
func (h *Handlers) ExportProjects(c *gin.Context) {
	var req ReportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		writeError(c, bindError(err))
		return
	}

	export, err := h.reports.ExportProjects(c.Request.Context(), actorFrom(c), req.Year, req.Semester)
	if err != nil {
		h.fail(c, "export projects", err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	c.Data(http.StatusOK, xlsxContentType, export.Content)
}

// fail logs unexpected errors and writes the mapped response
func (h *Handlers) fail(c *gin.Context, op string, err error) {
	if apperror.KindOf(err) == apperror.KindInternal {
		h.logger.Error("Request failed", "op", op, "path", c.Request.URL.Path, "error", err)
	}
	writeError(c, err)
}

func projectID(c *gin.Context) (int64, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeError(c, apperror.Validation("invalid project id", map[string]string{"id": "must be a positive integer"}))
		return 0, false
	}
	return id, true
}

// bindOptionalJSON binds a body that may be absent. Chunked requests carry
// ContentLength -1, so emptiness is detected from the decoder instead.
func bindOptionalJSON(c *gin.Context, obj interface{}) (bool, error) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return false, nil
	}
	if err := c.ShouldBindJSON(obj); err != nil {
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
