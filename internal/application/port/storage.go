package port

import "context"

// FileStorage defines file storage operations used to archive exported reports
type FileStorage interface {
	Save(ctx context.Context, path string, content []byte) error
	Exists(ctx context.Context, path string) bool
	GetFullPath(relativePath string) string
}
