// Package container provides dependency injection and lifecycle management
// for the monitoria portal following Clean Architecture principles.
package container

import (
	"fmt"
	"time"
)

// Config holds all configuration for the Container.
// It aggregates configurations for all subsystems.
type Config struct {
	// Database configuration
	Database DatabaseConfig

	// Email delivery configuration
	Email EmailConfig

	// Notification configuration
	Notification NotificationConfig

	// Storage configuration
	Storage StorageConfig
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// Path to SQLite database file
	Path string

	// MaxOpenConns is the maximum number of open connections
	MaxOpenConns int

	// MaxIdleConns is the maximum number of idle connections
	MaxIdleConns int

	// ConnMaxLifetime is the maximum connection lifetime
	ConnMaxLifetime time.Duration
}

// EmailConfig holds SendGrid settings.
type EmailConfig struct {
	// SendgridAPIKey enables SendGrid delivery; empty means log-only
	SendgridAPIKey string

	SendgridHost  string
	FromName      string
	FromEmail     string
	SubjectPrefix string
}

// NotificationConfig holds lifecycle notification settings.
type NotificationConfig struct {
	// PortalURL is linked from every notification
	PortalURL string

	// AsyncDispatch runs event handlers after the request returns
	AsyncDispatch bool
}

// StorageConfig holds file storage settings.
type StorageConfig struct {
	// BaseDir is the root of the local file store
	BaseDir string

	// ArchiveReports keeps a copy of every exported report under BaseDir
	ArchiveReports bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:            "data/monitoria.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Email: EmailConfig{
			SendgridHost:  "https://api.sendgrid.com",
			FromName:      "Monitoria",
			SubjectPrefix: "[Monitoria]",
		},
		Notification: NotificationConfig{
			PortalURL: "http://localhost:3000",
		},
		Storage: StorageConfig{
			BaseDir:        "data/files",
			ArchiveReports: true,
		},
	}
}

// Validate checks that required configuration values are present.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// SendGrid needs a verified sender
	if c.Email.SendgridAPIKey != "" && c.Email.FromEmail == "" {
		return fmt.Errorf("email.from_email is required when sendgrid is enabled")
	}

	if c.Notification.PortalURL == "" {
		return fmt.Errorf("notification.portal_url is required")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	return nil
}
