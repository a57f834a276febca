package container

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/garyjia/monitoria/internal/application/dispatcher"
	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/application/service"
	"github.com/garyjia/monitoria/internal/application/workflow"
	"github.com/garyjia/monitoria/internal/domain/event"
	"github.com/garyjia/monitoria/internal/infrastructure/external/email"
	"github.com/garyjia/monitoria/internal/infrastructure/persistence/repository"
	"github.com/garyjia/monitoria/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/monitoria/internal/infrastructure/storage"
	"github.com/garyjia/monitoria/internal/report"
	"github.com/garyjia/monitoria/migrations"
	"github.com/garyjia/monitoria/pkg/database"
	"github.com/garyjia/monitoria/pkg/utils"
	"go.uber.org/zap"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database and runs the embedded migrations.
// Returns DatabaseBundle containing the connection and TransactionManager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
// Returns RepositoryBundle containing all repository implementations.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Project:         repository.NewProjectRepository(db.DB, logger),
		Signature:       repository.NewSignatureRepository(db.DB, logger),
		History:         repository.NewHistoryRepository(db.DB, logger),
		User:            repository.NewUserRepository(db.DB, logger),
		NotificationLog: repository.NewNotificationLogRepository(db.DB, logger),
	}, nil
}

// ProvideMailer creates the SendGrid mailer, or a logging mailer when no
// API key is configured.
func ProvideMailer(cfg *EmailConfig, logger *zap.Logger) (port.Mailer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("email config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if cfg.SendgridAPIKey == "" {
		logger.Info("SendGrid API key not set, notifications will only be logged")
		return email.NewLogMailer(logger), nil
	}

	return email.NewSendgridMailer(email.SendgridConfig{
		APIKey:        cfg.SendgridAPIKey,
		Host:          cfg.SendgridHost,
		FromName:      cfg.FromName,
		FromEmail:     cfg.FromEmail,
		SubjectPrefix: cfg.SubjectPrefix,
	}, logger), nil
}

// ProvideStorage creates the local file storage rooted at cfg.BaseDir.
func ProvideStorage(cfg *StorageConfig, logger *zap.Logger) (port.FileStorage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("storage config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	baseDir, err := filepath.Abs(cfg.BaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage dir: %w", err)
	}

	return storage.NewLocalFileStorage(baseDir, logger), nil
}

// ProvideDispatcher creates the event dispatcher.
// Returns dispatcher.Dispatcher implementation.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return dispatcher.NewDispatcher(
		dispatcher.WithLogger(utils.NewSugaredAdapter(logger)),
	), nil
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Repos        *RepositoryBundle
	Mailer       port.Mailer
	Storage      port.FileStorage
	Dispatcher   dispatcher.Dispatcher
	Notification *NotificationConfig
	Archive      bool
	Logger       *zap.Logger
}

// ProvideServices creates all application services and subscribes the
// notification handlers on the dispatcher.
// Returns ServiceBundle containing all service implementations.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.Mailer == nil {
		return nil, fmt.Errorf("mailer is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Notification == nil {
		return nil, fmt.Errorf("notification config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	// Create logger adapter for services
	serviceLogger := utils.NewSugaredAdapter(deps.Logger)

	notification := service.NewNotificationService(
		deps.Repos.User,
		deps.Repos.NotificationLog,
		deps.Mailer,
		deps.Notification.PortalURL,
		serviceLogger,
	)
	notification.Subscribe(deps.Dispatcher)

	// Reports are archived only when asked to
	var archive port.FileStorage
	if deps.Archive {
		archive = deps.Storage
	}

	return &ServiceBundle{
		Notification: notification,
		Reminder: service.NewReminderService(
			deps.Repos.User,
			notification,
			nil,
			serviceLogger,
		),
		Report: service.NewReportService(
			deps.Repos.Project,
			deps.Repos.User,
			report.NewSheetWriter(deps.Logger),
			archive,
			serviceLogger,
		),
	}, nil
}

// WorkflowDeps holds dependencies required for creating the workflow engine.
type WorkflowDeps struct {
	Repos         *RepositoryBundle
	TxManager     port.TransactionManager
	Dispatcher    dispatcher.Dispatcher
	AsyncDispatch bool
	Logger        *zap.Logger
}

// ProvideWorkflowEngine creates the project workflow engine and registers
// the audit log handler for status changes.
// Returns workflow.ProjectWorkflow implementation.
func ProvideWorkflowEngine(deps *WorkflowDeps) (workflow.ProjectWorkflow, error) {
	if deps == nil {
		return nil, fmt.Errorf("workflow dependencies are required")
	}
	if deps.Repos == nil {
		return nil, fmt.Errorf("repositories are required")
	}
	if deps.TxManager == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	engine := workflow.NewEngine(
		deps.Repos.Project,
		deps.Repos.Signature,
		deps.Repos.History,
		deps.TxManager,
		workflow.WithDispatcher(deps.Dispatcher),
		workflow.WithAsyncDispatch(deps.AsyncDispatch),
		workflow.WithLogger(utils.NewSugaredAdapter(deps.Logger)),
	)

	deps.Dispatcher.SubscribeNamed(event.TypeStatusChanged, "audit-log", "logs every committed status change",
		createStatusAuditHandler(deps.Logger))

	return engine, nil
}

// createStatusAuditHandler logs committed status transitions
func createStatusAuditHandler(logger *zap.Logger) dispatcher.Handler {
	return func(ctx context.Context, evt *event.Event) error {
		if evt == nil {
			return fmt.Errorf("event cannot be nil")
		}

		logger.Info("Project status changed",
			zap.String("event_id", evt.ID),
			zap.Int64("project_id", evt.ProjectID),
			zap.Int64("actor_id", evt.ActorID),
			zap.String("previous_status", evt.GetPayloadString(event.KeyPreviousStatus)),
			zap.String("new_status", evt.GetPayloadString(event.KeyNewStatus)),
			zap.String("correlation_id", evt.CorrelationID),
		)
		return nil
	}
}
