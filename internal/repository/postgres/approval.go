package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/repositories"
)

// PostgresApprovalRepository implements the ApprovalRepository interface
type PostgresApprovalRepository struct {
	pool *pgxpool.Pool
}

// NewApprovalRepository creates a new approval repository
func NewApprovalRepository(config *RepositoryConfig) repositories.ApprovalRepository {
	return &PostgresApprovalRepository{pool: config.Pool}
}

// Upsert records the latest approval decision for a file, overwriting any
// previous decision. file_id is unique: only the most recent event is kept.
func (r *PostgresApprovalRepository) Upsert(ctx context.Context, event *models.ApprovalEvent) error {
	q := GetExecutor(ctx, r.pool)

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.DecidedAt.IsZero() {
		event.DecidedAt = time.Now()
	}

	query := `
		INSERT INTO approval_events (id, file_id, decision, decided_by, decided_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (file_id)
		DO UPDATE SET decision = EXCLUDED.decision,
			decided_by = EXCLUDED.decided_by,
			decided_at = EXCLUDED.decided_at
	`

	_, err := q.Exec(ctx, query,
		event.ID,
		event.FileID,
		event.Decision,
		event.DecidedBy,
		event.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert approval event: %w", err)
	}

	return nil
}

// GetByFile retrieves the latest decision for a file, or ErrNotFound
func (r *PostgresApprovalRepository) GetByFile(ctx context.Context, fileID string) (*models.ApprovalEvent, error) {
	q := GetExecutor(ctx, r.pool)

	query := `
		SELECT id, file_id, decision, decided_by, decided_at
		FROM approval_events
		WHERE file_id = $1
	`

	var event models.ApprovalEvent
	err := q.QueryRow(ctx, query, fileID).Scan(
		&event.ID,
		&event.FileID,
		&event.Decision,
		&event.DecidedBy,
		&event.DecidedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("approval event for file %s: %w", fileID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get approval event: %w", err)
	}

	return &event, nil
}
