package entity

import "time"

// Project is a professor's proposal to host teaching assistants for a period
type Project struct {
	ID                     int64    `json:"id"`
	Title                  string   `json:"title"`
	Description            string   `json:"description,omitempty"`
	Year                   int      `json:"year"`
	Semester               Semester `json:"semester"`
	DepartmentID           int64    `json:"departmentId"`
	ProfessorResponsavelID int64    `json:"professorResponsavelId"`
	BolsasSolicitadas      int      `json:"bolsasSolicitadas"`
	VoluntariosSolicitados int      `json:"voluntariosSolicitados"`
	// BolsasDisponibilizadas is nil until an admin allocates scholarships
	BolsasDisponibilizadas *int   `json:"bolsasDisponibilizadas,omitempty"`
	Status                 string `json:"status"`
	FeedbackAdmin          string `json:"feedbackAdmin,omitempty"`

	DisciplineIDs []int64    `json:"disciplineIds"`
	ProfessorIDs  []int64    `json:"professoresParticipantes"`
	Activities    []Activity `json:"atividades"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Activity is a planned task of the assistants in a project
type Activity struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"projectId"`
	Description string `json:"description"`
}

// ProjectContent holds the professor-editable fields and relations of a project
type ProjectContent struct {
	Title                  string
	Description            string
	DepartmentID           int64
	BolsasSolicitadas      int
	VoluntariosSolicitados int
	DisciplineIDs          []int64
	ProfessorIDs           []int64
	Activities             []string
}

// ApplyContent overwrites the editable fields and relations with content
func (p *Project) ApplyContent(content ProjectContent) {
	p.Title = content.Title
	p.Description = content.Description
	p.DepartmentID = content.DepartmentID
	p.BolsasSolicitadas = content.BolsasSolicitadas
	p.VoluntariosSolicitados = content.VoluntariosSolicitados
	p.DisciplineIDs = append([]int64{}, content.DisciplineIDs...)
	p.ProfessorIDs = append([]int64{}, content.ProfessorIDs...)

	p.Activities = make([]Activity, 0, len(content.Activities))
	for _, description := range content.Activities {
		p.Activities = append(p.Activities, Activity{ProjectID: p.ID, Description: description})
	}
}

// IsResponsible reports whether userID is the project's responsible professor
func (p *Project) IsResponsible(userID int64) bool {
	return p.ProfessorResponsavelID == userID
}

// IsParticipant reports whether userID is the responsible or a participating professor
func (p *Project) IsParticipant(userID int64) bool {
	if p.IsResponsible(userID) {
		return true
	}
	for _, id := range p.ProfessorIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// AllocatedScholarships returns the allocated count, or 0 when unset
func (p *Project) AllocatedScholarships() int {
	if p.BolsasDisponibilizadas == nil {
		return 0
	}
	return *p.BolsasDisponibilizadas
}
