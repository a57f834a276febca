package service

import (
	"context"
	"sync"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/report"
)

type mockLogger struct {
	mu     sync.Mutex
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

type mockUserRepo struct {
	getByIDFunc           func(ctx context.Context, id int64) (*entity.User, error)
	listByRoleFunc        func(ctx context.Context, role entity.Role) ([]*entity.User, error)
	withoutSubmissionFunc func(ctx context.Context, period entity.Period) ([]*entity.User, error)
	pendingSelectionFunc  func(ctx context.Context, period entity.Period) ([]*entity.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) ListByRole(ctx context.Context, role entity.Role) ([]*entity.User, error) {
	if m.listByRoleFunc != nil {
		return m.listByRoleFunc(ctx, role)
	}
	return nil, nil
}

func (m *mockUserRepo) ListProfessorsWithoutSubmission(ctx context.Context, period entity.Period) ([]*entity.User, error) {
	if m.withoutSubmissionFunc != nil {
		return m.withoutSubmissionFunc(ctx, period)
	}
	return nil, nil
}

func (m *mockUserRepo) ListProfessorsPendingSelection(ctx context.Context, period entity.Period) ([]*entity.User, error) {
	if m.pendingSelectionFunc != nil {
		return m.pendingSelectionFunc(ctx, period)
	}
	return nil, nil
}

type mockLogRepo struct {
	mu   sync.Mutex
	logs []*entity.NotificationLog
}

func (m *mockLogRepo) Create(ctx context.Context, log *entity.NotificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	log.ID = int64(len(m.logs) + 1)
	m.logs = append(m.logs, log)
	return nil
}

func (m *mockLogRepo) ListByProject(ctx context.Context, projectID int64) ([]*entity.NotificationLog, error) {
	return m.logs, nil
}

type mockMailer struct {
	mu       sync.Mutex
	sent     []*port.EmailMessage
	sendFunc func(ctx context.Context, msg *port.EmailMessage) error
}

func (m *mockMailer) Send(ctx context.Context, msg *port.EmailMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	if m.sendFunc != nil {
		return m.sendFunc(ctx, msg)
	}
	return nil
}

type mockNotifier struct {
	notifyFunc func(ctx context.Context, kind entity.NotificationKind, recipients []port.Recipient, data map[string]interface{}) (*port.DeliveryReport, error)
}

func (m *mockNotifier) Notify(ctx context.Context, kind entity.NotificationKind, recipients []port.Recipient, data map[string]interface{}) (*port.DeliveryReport, error) {
	if m.notifyFunc != nil {
		return m.notifyFunc(ctx, kind, recipients, data)
	}
	return &port.DeliveryReport{Sent: len(recipients), Total: len(recipients)}, nil
}

type mockProjectRepo struct {
	port.ProjectRepository
	listFunc func(ctx context.Context, filter port.ProjectFilter) ([]*entity.Project, error)
}

func (m *mockProjectRepo) List(ctx context.Context, filter port.ProjectFilter) ([]*entity.Project, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

type mockSheetWriter struct {
	rows []report.ProjectRow
	err  error
}

func (m *mockSheetWriter) WriteProjects(rows []report.ProjectRow) ([]byte, error) {
	m.rows = rows
	if m.err != nil {
		return nil, m.err
	}
	return []byte("xlsx"), nil
}

type mockStorage struct {
	saved   map[string][]byte
	saveErr error
}

func (m *mockStorage) Save(ctx context.Context, path string, content []byte) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[path] = content
	return nil
}

func (m *mockStorage) Exists(ctx context.Context, path string) bool {
	_, ok := m.saved[path]
	return ok
}

func (m *mockStorage) GetFullPath(relativePath string) string {
	return "/data/" + relativePath
}
