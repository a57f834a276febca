package repository

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/monitoria/migrations"
	"github.com/garyjia/monitoria/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	db         *sql.DB
	tx         *sqlite.DB
	projects   port.ProjectRepository
	signatures port.SignatureRepository
	users      port.UserRepository
	history    port.HistoryRepository
	logs       port.NotificationLogRepository

	professor *entity.User
	colleague *entity.User
	admin     *entity.User
	student   *entity.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()

	db, err := database.New(database.Config{
		Path:         filepath.Join(t.TempDir(), "monitoria.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.NewMigrator(db, logger).RunMigrations(migrations.FS))

	f := &fixture{
		db:         db.DB,
		tx:         sqlite.NewDB(db.DB, logger),
		projects:   NewProjectRepository(db.DB, logger),
		signatures: NewSignatureRepository(db.DB, logger),
		users:      NewUserRepository(db.DB, logger),
		history:    NewHistoryRepository(db.DB, logger),
		logs:       NewNotificationLogRepository(db.DB, logger),
	}

	ctx := context.Background()
	f.professor = f.createUser(t, ctx, "Marcos", "marcos@ufba.br", entity.RoleProfessor)
	f.colleague = f.createUser(t, ctx, "Lia", "lia@ufba.br", entity.RoleProfessor)
	f.admin = f.createUser(t, ctx, "Ana", "ana@ufba.br", entity.RoleAdmin)
	f.student = f.createUser(t, ctx, "Rui", "rui@ufba.br", entity.RoleStudent)
	return f
}

func (f *fixture) createUser(t *testing.T, ctx context.Context, name, email string, role entity.Role) *entity.User {
	t.Helper()
	u := &entity.User{Name: name, Email: email, Role: role}
	require.NoError(t, f.users.Create(ctx, u))
	return u
}

func (f *fixture) newProject(professorID int64, status string) *entity.Project {
	return &entity.Project{
		Title:                  "Monitoria de Calculo",
		Description:            "Apoio em listas",
		Year:                   2025,
		Semester:               entity.Semester1,
		DepartmentID:           7,
		ProfessorResponsavelID: professorID,
		BolsasSolicitadas:      3,
		VoluntariosSolicitados: 2,
		Status:                 status,
		DisciplineIDs:          []int64{11, 12},
		ProfessorIDs:           []int64{f.colleague.ID},
		Activities:             []entity.Activity{{Description: "Plantao"}, {Description: "Correcao"}},
	}
}

func (f *fixture) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(query, args...).Scan(&n))
	return n
}

func TestProjectRepository_CreateAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.newProject(f.professor.ID, entity.StatusDraft)
	require.NoError(t, f.projects.Create(ctx, p))
	assert.NotZero(t, p.ID)
	assert.NotZero(t, p.Activities[0].ID)

	got, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "Monitoria de Calculo", got.Title)
	assert.Equal(t, entity.Semester1, got.Semester)
	assert.Equal(t, entity.StatusDraft, got.Status)
	assert.Nil(t, got.BolsasDisponibilizadas)
	assert.Equal(t, []int64{11, 12}, got.DisciplineIDs)
	assert.Equal(t, []int64{f.colleague.ID}, got.ProfessorIDs)
	require.Len(t, got.Activities, 2)
	assert.Equal(t, "Plantao", got.Activities[0].Description)
	assert.Equal(t, "Correcao", got.Activities[1].Description)

	missing, err := f.projects.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProjectRepository_List(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	own := f.newProject(f.professor.ID, entity.StatusDraft)
	own.ProfessorIDs = nil
	require.NoError(t, f.projects.Create(ctx, own))

	participating := f.newProject(f.admin.ID, entity.StatusApproved)
	participating.ProfessorIDs = []int64{f.professor.ID}
	require.NoError(t, f.projects.Create(ctx, participating))

	other := f.newProject(f.colleague.ID, entity.StatusApproved)
	other.ProfessorIDs = nil
	other.Semester = entity.Semester2
	require.NoError(t, f.projects.Create(ctx, other))

	all, err := f.projects.List(ctx, port.ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := f.projects.List(ctx, port.ProjectFilter{ProfessorID: f.professor.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, own.ID, mine[0].ID)
	assert.Equal(t, participating.ID, mine[1].ID)

	approved, err := f.projects.List(ctx, port.ProjectFilter{Status: entity.StatusApproved, Semester: entity.Semester2})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, other.ID, approved[0].ID)

	page, err := f.projects.List(ctx, port.ProjectFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, participating.ID, page[0].ID)

	none, err := f.projects.List(ctx, port.ProjectFilter{Year: 1999})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProjectRepository_UpdateContentReplacesRelations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.newProject(f.professor.ID, entity.StatusDraft)
	require.NoError(t, f.projects.Create(ctx, p))

	p.ApplyContent(entity.ProjectContent{
		Title:                  "Monitoria de Algebra",
		DepartmentID:           8,
		BolsasSolicitadas:      1,
		VoluntariosSolicitados: 4,
		DisciplineIDs:          []int64{30},
		Activities:             []string{"Revisao"},
	})
	p.UpdatedAt = time.Time{}
	require.NoError(t, f.projects.UpdateContent(ctx, p))

	got, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Monitoria de Algebra", got.Title)
	assert.Equal(t, int64(8), got.DepartmentID)
	assert.Equal(t, 4, got.VoluntariosSolicitados)
	assert.Equal(t, []int64{30}, got.DisciplineIDs)
	assert.Empty(t, got.ProfessorIDs)
	require.Len(t, got.Activities, 1)
	assert.Equal(t, "Revisao", got.Activities[0].Description)

	p.ID = 9999
	assert.Error(t, f.projects.UpdateContent(ctx, p))
}

func TestProjectRepository_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.newProject(f.professor.ID, entity.StatusDraft)
	require.NoError(t, f.projects.Create(ctx, p))

	require.NoError(t, f.projects.UpdateStatus(ctx, p.ID, entity.StatusDraft, entity.StatusSubmitted))

	err := f.projects.UpdateStatus(ctx, p.ID, entity.StatusDraft, entity.StatusRejected)
	assert.True(t, errors.Is(err, port.ErrStatusConflict))

	got, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusSubmitted, got.Status)
}

func TestProjectRepository_AllocationAndFeedback(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.newProject(f.professor.ID, entity.StatusSubmitted)
	require.NoError(t, f.projects.Create(ctx, p))

	require.NoError(t, f.projects.UpdateAllocation(ctx, p.ID, 2))
	require.NoError(t, f.projects.SetFeedback(ctx, p.ID, "ok, com ressalvas"))

	got, err := f.projects.GetByID(ctx, p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.BolsasDisponibilizadas)
	assert.Equal(t, 2, *got.BolsasDisponibilizadas)
	assert.Equal(t, "ok, com ressalvas", got.FeedbackAdmin)

	assert.Error(t, f.projects.UpdateAllocation(ctx, 9999, 1))
	assert.Error(t, f.projects.SetFeedback(ctx, 9999, "x"))
}

func TestProjectRepository_DeleteLeavesNoOrphans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.newProject(f.professor.ID, entity.StatusApproved)
	require.NoError(t, f.projects.Create(ctx, p))
	keep := f.newProject(f.colleague.ID, entity.StatusDraft)
	require.NoError(t, f.projects.Create(ctx, keep))

	require.NoError(t, f.signatures.Create(ctx, &entity.Signature{
		ProjectID: p.ID, SignerUserID: f.professor.ID, Kind: entity.SignatureProfessorResponsible, Payload: "sig",
	}))
	require.NoError(t, f.history.Create(ctx, &entity.ProjectHistory{
		ProjectID: p.ID, ActorUserID: f.professor.ID, NewStatus: entity.StatusDraft, Action: entity.ActionCreate,
	}))
	projectID := p.ID
	require.NoError(t, f.logs.Create(ctx, &entity.NotificationLog{
		Kind: entity.NotificationProjectApproved, ProjectID: &projectID, Recipient: "marcos@ufba.br",
		Subject: "aprovado", Status: entity.NotificationStatusSent,
	}))
	_, err := f.db.Exec(`INSERT INTO vagas (project_id, student_user_id, slot_type) VALUES (?, ?, ?)`,
		p.ID, f.student.ID, entity.SlotBolsista)
	require.NoError(t, err)

	err = f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		return f.projects.Delete(txCtx, p.ID)
	})
	require.NoError(t, err)

	for _, table := range []string{"project_disciplines", "project_professors", "project_activities",
		"signatures", "project_history", "vagas", "notification_logs"} {
		assert.Zero(t, f.count(t, "SELECT COUNT(*) FROM "+table+" WHERE project_id = ?", p.ID), table)
	}
	assert.Zero(t, f.count(t, "SELECT COUNT(*) FROM projects WHERE id = ?", p.ID))
	assert.Equal(t, 1, f.count(t, "SELECT COUNT(*) FROM notification_logs WHERE project_id IS NULL"))

	// the other project is untouched
	got, err := f.projects.GetByID(ctx, keep.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Activities, 2)

	assert.Error(t, f.projects.Delete(ctx, p.ID))
}

func TestTransactionManager_RollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	boom := errors.New("signature failed")

	var created int64
	err := f.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		p := f.newProject(f.professor.ID, entity.StatusDraft)
		if err := f.projects.Create(txCtx, p); err != nil {
			return err
		}
		created = p.ID
		// nested calls join the outer transaction
		return f.tx.WithTransaction(txCtx, func(inner context.Context) error {
			if err := f.projects.UpdateStatus(inner, p.ID, entity.StatusDraft, entity.StatusSubmitted); err != nil {
				return err
			}
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	require.NotZero(t, created)

	got, err := f.projects.GetByID(ctx, created)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.Zero(t, f.count(t, "SELECT COUNT(*) FROM project_activities"))
}

func TestSignatureRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.newProject(f.professor.ID, entity.StatusDraft)
	require.NoError(t, f.projects.Create(ctx, p))

	t0 := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, f.signatures.Create(ctx, &entity.Signature{
		ProjectID: p.ID, SignerUserID: f.admin.ID, Kind: entity.SignatureAdminApproval, Payload: "admin", SignedAt: t0.Add(time.Hour),
	}))
	require.NoError(t, f.signatures.Create(ctx, &entity.Signature{
		ProjectID: p.ID, SignerUserID: f.professor.ID, Kind: entity.SignatureProfessorResponsible, Payload: "prof", SignedAt: t0,
	}))

	sigs, err := f.signatures.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, sigs, 2)
	assert.Equal(t, entity.SignatureProfessorResponsible, sigs[0].Kind)
	assert.Equal(t, "prof", sigs[0].Payload)
	assert.True(t, sigs[0].SignedAt.Equal(t0))
	assert.Equal(t, entity.SignatureAdminApproval, sigs[1].Kind)

	none, err := f.signatures.ListByProject(ctx, 9999)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestHistoryRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.newProject(f.professor.ID, entity.StatusDraft)
	require.NoError(t, f.projects.Create(ctx, p))

	t0 := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	entries := []*entity.ProjectHistory{
		{ProjectID: p.ID, ActorUserID: f.professor.ID, NewStatus: entity.StatusDraft, Action: entity.ActionCreate, CreatedAt: t0},
		{ProjectID: p.ID, ActorUserID: f.professor.ID, PreviousStatus: entity.StatusDraft, NewStatus: entity.StatusSubmitted, Action: "SIGN_PROFESSOR", CreatedAt: t0},
		{ProjectID: p.ID, ActorUserID: f.admin.ID, PreviousStatus: entity.StatusSubmitted, NewStatus: entity.StatusRejected, Action: "REJECT", Detail: "sem verba", CreatedAt: t0.Add(time.Minute)},
	}
	for _, h := range entries {
		require.NoError(t, f.history.Create(ctx, h))
	}

	got, err := f.history.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, entity.ActionCreate, got[0].Action)
	assert.Equal(t, "SIGN_PROFESSOR", got[1].Action)
	assert.Equal(t, "sem verba", got[2].Detail)
	assert.Equal(t, f.admin.ID, got[2].ActorUserID)
}

func TestNotificationLogRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p := f.newProject(f.professor.ID, entity.StatusSubmitted)
	require.NoError(t, f.projects.Create(ctx, p))

	projectID := p.ID
	sentAt := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, f.logs.Create(ctx, &entity.NotificationLog{
		Kind: entity.NotificationProjectSubmitted, ProjectID: &projectID, Recipient: "ana@ufba.br",
		Subject: "submetido", Status: entity.NotificationStatusSent, SentAt: &sentAt,
	}))
	require.NoError(t, f.logs.Create(ctx, &entity.NotificationLog{
		Kind: entity.NotificationProjectSubmitted, ProjectID: &projectID, Recipient: "caio@ufba.br",
		Subject: "submetido", Status: entity.NotificationStatusFailed, ErrorMessage: "bounced",
	}))
	// reminders carry no project
	require.NoError(t, f.logs.Create(ctx, &entity.NotificationLog{
		Kind: entity.NotificationReminderSubmit, Recipient: "marcos@ufba.br",
		Subject: "lembrete", Status: entity.NotificationStatusSent, SentAt: &sentAt,
	}))

	logs, err := f.logs.ListByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.NotNil(t, logs[0].SentAt)
	assert.True(t, logs[0].SentAt.Equal(sentAt))
	assert.Equal(t, entity.NotificationStatusFailed, logs[1].Status)
	assert.Equal(t, "bounced", logs[1].ErrorMessage)
	assert.Nil(t, logs[1].SentAt)
}

func TestUserRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.users.GetByID(ctx, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana@ufba.br", got.Email)
	assert.Equal(t, entity.RoleAdmin, got.Role)

	missing, err := f.users.GetByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	professors, err := f.users.ListByRole(ctx, entity.RoleProfessor)
	require.NoError(t, err)
	require.Len(t, professors, 2)
	assert.Equal(t, f.professor.ID, professors[0].ID)

	assert.Error(t, f.users.Create(ctx, &entity.User{Name: "Dup", Email: "ana@ufba.br", Role: entity.RoleAdmin}))
}

func TestUserRepository_ReminderTargets(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	period := entity.Period{Year: 2025, Semester: entity.Semester1}

	// professor has a submitted project for the period; colleague only a draft
	submitted := f.newProject(f.professor.ID, entity.StatusSubmitted)
	require.NoError(t, f.projects.Create(ctx, submitted))
	draft := f.newProject(f.colleague.ID, entity.StatusDraft)
	require.NoError(t, f.projects.Create(ctx, draft))

	without, err := f.users.ListProfessorsWithoutSubmission(ctx, period)
	require.NoError(t, err)
	require.Len(t, without, 1)
	assert.Equal(t, f.colleague.ID, without[0].ID)

	// a different period has no submissions at all
	other, err := f.users.ListProfessorsWithoutSubmission(ctx, entity.Period{Year: 2025, Semester: entity.Semester2})
	require.NoError(t, err)
	assert.Len(t, other, 2)

	// approved projects without filled slots
	approved := f.newProject(f.professor.ID, entity.StatusApproved)
	require.NoError(t, f.projects.Create(ctx, approved))
	staffed := f.newProject(f.colleague.ID, entity.StatusApproved)
	require.NoError(t, f.projects.Create(ctx, staffed))
	_, err = f.db.Exec(`INSERT INTO vagas (project_id, student_user_id, slot_type) VALUES (?, ?, ?)`,
		staffed.ID, f.student.ID, entity.SlotVoluntario)
	require.NoError(t, err)

	pending, err := f.users.ListProfessorsPendingSelection(ctx, period)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, f.professor.ID, pending[0].ID)
}
