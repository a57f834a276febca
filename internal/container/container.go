package container

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/monitoria/internal/application/dispatcher"
	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/application/service"
	"github.com/garyjia/monitoria/internal/application/workflow"
	"github.com/garyjia/monitoria/internal/domain/event"
	"github.com/garyjia/monitoria/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/monitoria/pkg/database"
	"go.uber.org/zap"
)

// Container manages all application dependencies and lifecycle.
// It follows Clean Architecture principles with ordered initialization
// and reverse-order teardown.
type Container struct {
	config *Config
	logger *zap.Logger

	// Infrastructure - Data
	database     *database.DB
	db           *sqlite.DB
	repositories *RepositoryBundle

	// Infrastructure - External
	mailer port.Mailer

	// Infrastructure - Storage
	fileStorage port.FileStorage

	// Application
	dispatcher dispatcher.Dispatcher
	workflow   workflow.ProjectWorkflow
	services   *ServiceBundle

	// Lifecycle
	mu     sync.RWMutex
	ready  atomic.Bool
	closed atomic.Bool
}

// RepositoryBundle groups all repositories for convenient access.
type RepositoryBundle struct {
	Project         port.ProjectRepository
	Signature       port.SignatureRepository
	History         port.HistoryRepository
	User            port.UserRepository
	NotificationLog port.NotificationLogRepository
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Notification service.NotificationService
	Reminder     service.ReminderService
	Report       service.ReportService
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// notificationEvents must each have a subscriber once the services are wired
var notificationEvents = []event.Type{
	event.TypeProjectSubmitted,
	event.TypeProjectApproved,
	event.TypeProjectRejected,
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components.
// Components are initialized in dependency order:
// 1. Database, migrations and repositories
// 2. Mailer
// 3. Storage
// 4. Event dispatcher
// 5. Application services (subscribing their event handlers)
// 6. Workflow engine
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	c.logger.Info("Starting container initialization")

	// Step 1: Initialize database and repositories
	if err := c.initDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.logger.Info("Database initialized")

	// Step 2: Initialize mailer
	if err := c.initMailer(); err != nil {
		return c.abort(fmt.Errorf("failed to initialize mailer: %w", err))
	}
	c.logger.Info("Mailer initialized")

	// Step 3: Initialize storage
	if err := c.initStorage(); err != nil {
		return c.abort(fmt.Errorf("failed to initialize storage: %w", err))
	}
	c.logger.Info("Storage initialized")

	// Step 4-6: Dispatcher, services and workflow engine
	if err := c.initApplication(); err != nil {
		return c.abort(fmt.Errorf("failed to initialize application: %w", err))
	}
	c.logger.Info("Dispatcher, services and workflow engine initialized")

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// abort releases what a failed Start opened
func (c *Container) abort(err error) error {
	if c.database != nil {
		_ = c.database.Close()
		c.database = nil
	}
	return err
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	// Step 1: Close dispatcher, waiting for async handlers
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Step 2: Close database
	if c.database != nil {
		if err := c.database.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return fmt.Errorf("container closed with %d errors", len(errs))
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}

	// Check database
	if c.database != nil {
		if err := c.database.Health(ctx); err != nil {
			status.Components["database"] = ComponentHealth{
				Healthy: false,
				Message: fmt.Sprintf("ping failed: %v", err),
			}
			status.Overall = false
		} else {
			status.Components["database"] = ComponentHealth{Healthy: true}
		}
	} else {
		status.Components["database"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check dispatcher and the notification subscriptions
	if c.dispatcher != nil {
		status.Components["dispatcher"] = ComponentHealth{Healthy: true}
		for _, t := range notificationEvents {
			if len(c.dispatcher.ListHandlers(t)) == 0 {
				status.Components["dispatcher"] = ComponentHealth{
					Healthy: false,
					Message: fmt.Sprintf("no handler subscribed to %s", t),
				}
				status.Overall = false
				break
			}
		}
	} else {
		status.Components["dispatcher"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	// Check workflow engine
	if c.workflow != nil {
		status.Components["workflow"] = ComponentHealth{Healthy: true}
	} else {
		status.Components["workflow"] = ComponentHealth{
			Healthy: false,
			Message: "not initialized",
		}
		status.Overall = false
	}

	return status
}

// initDatabase initializes the database and all repositories using providers.
func (c *Container) initDatabase() error {
	dbBundle, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return err
	}

	c.database = dbBundle.DB
	c.db = dbBundle.TransactionMgr

	repos, err := ProvideRepositories(c.database, c.logger)
	if err != nil {
		return c.abort(err)
	}

	c.repositories = repos
	return nil
}

// initMailer initializes the outbound mailer using providers.
func (c *Container) initMailer() error {
	mailer, err := ProvideMailer(&c.config.Email, c.logger)
	if err != nil {
		return err
	}
	c.mailer = mailer
	return nil
}

// initStorage initializes file storage using providers.
func (c *Container) initStorage() error {
	fileStorage, err := ProvideStorage(&c.config.Storage, c.logger)
	if err != nil {
		return err
	}
	c.fileStorage = fileStorage
	return nil
}

// initApplication wires the dispatcher, the services and the workflow engine.
func (c *Container) initApplication() error {
	disp, err := ProvideDispatcher(c.logger)
	if err != nil {
		return err
	}
	c.dispatcher = disp

	services, err := ProvideServices(&ServiceDeps{
		Repos:        c.repositories,
		Mailer:       c.mailer,
		Storage:      c.fileStorage,
		Dispatcher:   c.dispatcher,
		Notification: &c.config.Notification,
		Archive:      c.config.Storage.ArchiveReports,
		Logger:       c.logger,
	})
	if err != nil {
		return err
	}
	c.services = services

	engine, err := ProvideWorkflowEngine(&WorkflowDeps{
		Repos:         c.repositories,
		TxManager:     c.db,
		Dispatcher:    c.dispatcher,
		AsyncDispatch: c.config.Notification.AsyncDispatch,
		Logger:        c.logger,
	})
	if err != nil {
		return err
	}
	c.workflow = engine

	return nil
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.db
}

// Repositories returns all repositories.
func (c *Container) Repositories() *RepositoryBundle {
	return c.repositories
}

// Mailer returns the outbound mailer.
func (c *Container) Mailer() port.Mailer {
	return c.mailer
}

// FileStorage returns the file storage.
func (c *Container) FileStorage() port.FileStorage {
	return c.fileStorage
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Workflow returns the project workflow engine.
func (c *Container) Workflow() workflow.ProjectWorkflow {
	return c.workflow
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *Config {
	return c.config
}
