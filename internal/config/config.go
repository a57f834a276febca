package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"

	"github.com/garyjia/monitoria/pkg/utils"
)

// Config holds all application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Auth         AuthConfig         `mapstructure:"auth"`
	Email        EmailConfig        `mapstructure:"email"`
	Notification NotificationConfig `mapstructure:"notification"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Logger       LoggerConfig       `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AuthConfig holds bearer token settings
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// EmailConfig holds outbound mail configuration. An empty SendgridAPIKey
// logs messages instead of sending them.
type EmailConfig struct {
	SendgridAPIKey string `mapstructure:"sendgrid_api_key"`
	SendgridHost   string `mapstructure:"sendgrid_host"`
	FromName       string `mapstructure:"from_name"`
	FromEmail      string `mapstructure:"from_email"`
	SubjectPrefix  string `mapstructure:"subject_prefix"`
}

// NotificationConfig holds lifecycle notification settings
type NotificationConfig struct {
	PortalURL     string `mapstructure:"portal_url"`
	AsyncDispatch bool   `mapstructure:"async_dispatch"`
}

// StorageConfig holds file storage configuration
type StorageConfig struct {
	BaseDir        string `mapstructure:"base_dir"`
	ArchiveReports bool   `mapstructure:"archive_reports"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from an optional .env file, the YAML file at
// configPath and environment variables, in increasing precedence
func Load(configPath string, envFiles ...string) (*Config, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Override with environment variables
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFiles exports the variables of each existing file without
// overriding variables already set
func loadEnvFiles(files ...string) error {
	for _, file := range files {
		if err := gotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.path", "data/monitoria.db")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)

	// Auth defaults
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.issuer", "monitoria")
	v.SetDefault("auth.token_ttl", 12*time.Hour)

	// Email defaults
	v.SetDefault("email.sendgrid_api_key", "")
	v.SetDefault("email.sendgrid_host", "https://api.sendgrid.com")
	v.SetDefault("email.from_name", "Monitoria")
	v.SetDefault("email.from_email", "")
	v.SetDefault("email.subject_prefix", "[Monitoria]")

	// Notification defaults
	v.SetDefault("notification.portal_url", "http://localhost:3000")
	v.SetDefault("notification.async_dispatch", false)

	// Storage defaults
	v.SetDefault("storage.base_dir", "data/files")
	v.SetDefault("storage.archive_reports", true)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) error {
	// Sensitive credentials from environment
	bindings := map[string]string{
		"auth.jwt_secret":         "JWT_SECRET",
		"email.sendgrid_api_key":  "SENDGRID_API_KEY",
		"email.from_email":        "SENDGRID_FROM_EMAIL",
		"notification.portal_url": "PORTAL_URL",
		"database.path":           "DATABASE_PATH",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	// Validate auth
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}

	// Validate email
	if c.Email.SendgridAPIKey != "" {
		if err := utils.ValidateEmail(c.Email.FromEmail); err != nil {
			return fmt.Errorf("email.from_email: %w", err)
		}
	}

	// Validate notification links
	u, err := url.Parse(c.Notification.PortalURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("notification.portal_url must be an absolute URL")
	}

	if c.Storage.BaseDir == "" {
		return fmt.Errorf("storage.base_dir is required")
	}

	return nil
}

// LoggerOptions converts the logger section for utils.NewLogger
func (c *Config) LoggerOptions() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
