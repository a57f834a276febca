// Package http provides HTTP server adapter for the application layer.
// This is a thin adapter layer that translates HTTP requests to application service calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/garyjia/monitoria/internal/application/service"
	"github.com/garyjia/monitoria/internal/application/workflow"
	"github.com/garyjia/monitoria/internal/domain/entity"
)

// Logger interface for logging operations
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:         "0.0.0.0",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// Server is the HTTP server adapter
type Server struct {
	config     ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	projects   workflow.ProjectWorkflow
	reminders  service.ReminderService
	reports    service.ReportService
	tokens     *TokenManager
	health     HealthChecker
	logger     Logger
}

// Services groups the application services the server exposes
type Services struct {
	Projects  workflow.ProjectWorkflow
	Reminders service.ReminderService
	Reports   service.ReportService
	Health    HealthChecker
}

var registerTagNames sync.Once

// NewServer creates a new HTTP server with the given services
func NewServer(config ServerConfig, services Services, tokens *TokenManager, logger Logger) *Server {
	// Set gin mode based on environment
	gin.SetMode(gin.ReleaseMode)
	registerTagNames.Do(useJSONFieldNames)

	router := gin.New()

	server := &Server{
		config:    config,
		router:    router,
		projects:  services.Projects,
		reminders: services.Reminders,
		reports:   services.Reports,
		tokens:    tokens,
		health:    services.Health,
		logger:    logger,
	}

	// Setup middleware
	server.setupMiddleware()

	// Setup routes
	server.setupRoutes()

	return server
}

// useJSONFieldNames makes validation errors report json/form names
func useJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	// Recovery middleware
	s.router.Use(gin.Recovery())

	// Logging middleware
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		// Process request
		c.Next()

		// Log request details
		latency := time.Since(start)
		status := c.Writer.Status()

		fields := []interface{}{
			"method", method,
			"path", path,
			"status", status,
			"latency", latency.String(),
			"client_ip", c.ClientIP(),
		}
		if actor := actorFrom(c); actor.UserID != 0 {
			fields = append(fields, "user_id", actor.UserID, "role", actor.Role.String())
		}

		s.logger.Info("HTTP request", fields...)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.projects, s.reminders, s.reports, s.health, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// API routes
	api := s.router.Group("/api", s.authMiddleware())
	{
		// Projects
		api.POST("/project", requireRole(entity.RoleProfessor, entity.RoleAdmin), handlers.CreateProject)
		api.GET("/project", handlers.ListProjects)
		api.GET("/project/:id", handlers.GetProject)
		api.GET("/project/:id/history", handlers.GetHistory)
		api.PUT("/project/:id", requireRole(entity.RoleProfessor, entity.RoleAdmin), handlers.UpdateProject)
		api.DELETE("/project/:id", requireRole(entity.RoleProfessor, entity.RoleAdmin), handlers.DeleteProject)

		// Signature workflow
		api.POST("/project/:id/request-signature", requireRole(entity.RoleProfessor, entity.RoleAdmin), handlers.RequestProfessorSignature)
		api.POST("/project/:id/professor-signature", requireRole(entity.RoleProfessor), handlers.SignAsProfessor)
		api.POST("/project/:id/admin-signature-request", requireRole(entity.RoleAdmin), handlers.RequestAdminSignature)
		api.POST("/project/:id/approve", requireRole(entity.RoleAdmin), handlers.Approve)
		api.POST("/project/:id/reject", requireRole(entity.RoleAdmin), handlers.Reject)

		// Admin tools
		api.POST("/notifications/reminders", requireRole(entity.RoleAdmin), handlers.SendReminders)
		api.GET("/reports/projects", requireRole(entity.RoleAdmin), handlers.ExportProjects)
	}
}

// Start starts the HTTP server
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", "address", addr)

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for context cancellation or error
	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", "error", err)
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", "error", err)
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
