package config

import (
	"github.com/garyjia/monitoria/internal/container"
)

// ToContainerConfig converts the application Config to a container.Config.
// This provides a bridge between the file-based config loaded by viper
// and the container's configuration structure.
func (c *Config) ToContainerConfig() *container.Config {
	return &container.Config{
		Database: container.DatabaseConfig{
			Path:            c.Database.Path,
			MaxOpenConns:    c.Database.MaxOpenConns,
			MaxIdleConns:    c.Database.MaxIdleConns,
			ConnMaxLifetime: c.Database.ConnMaxLifetime,
		},
		Email: container.EmailConfig{
			SendgridAPIKey: c.Email.SendgridAPIKey,
			SendgridHost:   c.Email.SendgridHost,
			FromName:       c.Email.FromName,
			FromEmail:      c.Email.FromEmail,
			SubjectPrefix:  c.Email.SubjectPrefix,
		},
		Notification: container.NotificationConfig{
			PortalURL:     c.Notification.PortalURL,
			AsyncDispatch: c.Notification.AsyncDispatch,
		},
		Storage: container.StorageConfig{
			BaseDir:        c.Storage.BaseDir,
			ArchiveReports: c.Storage.ArchiveReports,
		},
	}
}
