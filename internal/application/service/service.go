// Package service holds the application services around the project
// lifecycle: notification delivery, bulk reminders and report export.
package service

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
