package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/garyjia/monitoria/internal/application/port"
	"github.com/garyjia/monitoria/internal/domain/entity"
	"github.com/garyjia/monitoria/internal/infrastructure/persistence/sqlite"
	"go.uber.org/zap"
)

// SignatureRepository implements port.SignatureRepository. Signatures are
// append-only; rows disappear only through ProjectRepository.Delete.
type SignatureRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSignatureRepository creates a new signature repository
func NewSignatureRepository(db *sql.DB, logger *zap.Logger) port.SignatureRepository {
	return &SignatureRepository{
		db:     db,
		logger: logger,
	}
}

// Create stores a signature
func (r *SignatureRepository) Create(ctx context.Context, signature *entity.Signature) error {
	query := `
		INSERT INTO signatures (project_id, signer_user_id, kind, payload, signed_at)
		VALUES (?, ?, ?, ?, ?)
	`

	if signature.SignedAt.IsZero() {
		signature.SignedAt = time.Now()
	}

	result, err := r.getExecutor(ctx).ExecContext(ctx, query,
		signature.ProjectID,
		signature.SignerUserID,
		string(signature.Kind),
		signature.Payload,
		signature.SignedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create signature",
			zap.Int64("project_id", signature.ProjectID),
			zap.Int64("signer_user_id", signature.SignerUserID),
			zap.String("kind", string(signature.Kind)),
			zap.Error(err))
		return fmt.Errorf("failed to create signature: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	signature.ID = id
	return nil
}

// ListByProject retrieves the signatures of a project in signing order
func (r *SignatureRepository) ListByProject(ctx context.Context, projectID int64) ([]*entity.Signature, error) {
	query := `
		SELECT id, project_id, signer_user_id, kind, payload, signed_at
		FROM signatures
		WHERE project_id = ?
		ORDER BY signed_at ASC, id ASC
	`

	rows, err := r.getExecutor(ctx).QueryContext(ctx, query, projectID)
	if err != nil {
		r.logger.Error("Failed to list signatures", zap.Int64("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to list signatures: %w", err)
	}
	defer rows.Close()

	var signatures []*entity.Signature
	for rows.Next() {
		var (
			signature entity.Signature
			kind      string
		)
		err := rows.Scan(
			&signature.ID,
			&signature.ProjectID,
			&signature.SignerUserID,
			&kind,
			&signature.Payload,
			&signature.SignedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signature: %w", err)
		}
		signature.Kind = entity.SignatureKind(kind)
		signatures = append(signatures, &signature)
	}

	return signatures, rows.Err()
}

// getExecutor returns appropriate executor based on context
func (r *SignatureRepository) getExecutor(ctx context.Context) sqlite.Executor {
	return sqlite.ExecutorFrom(ctx, r.db)
}

// Verify interface compliance
var _ port.SignatureRepository = (*SignatureRepository)(nil)
