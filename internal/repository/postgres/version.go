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

// PostgresVersionRepository implements the VersionRepository interface
type PostgresVersionRepository struct {
	pool *pgxpool.Pool
}

// NewVersionRepository creates a new version repository
func NewVersionRepository(config *RepositoryConfig) repositories.VersionRepository {
	return &PostgresVersionRepository{pool: config.Pool}
}

// Create inserts a new version record
func (r *PostgresVersionRepository) Create(ctx context.Context, version *models.Version) error {
	q := GetExecutor(ctx, r.pool)

	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	if version.CreatedAt.IsZero() {
		version.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO versions (id, file_id, file_path, version_number,
			created_by, description, approved_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		version.ID,
		version.FileID,
		version.FilePath,
		version.VersionNumber,
		version.CreatedBy,
		version.Description,
		version.ApprovedBy,
		version.CreatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("version %d for file %s: %w",
				version.VersionNumber, version.FileID, domain.ErrConflict)
		}
		return fmt.Errorf("create version: %w", err)
	}

	return nil
}

// ListByFile lists versions of a file, oldest first
func (r *PostgresVersionRepository) ListByFile(ctx context.Context, fileID string) ([]models.Version, error) {
	q := GetExecutor(ctx, r.pool)

	query := `
		SELECT id, file_id, file_path, version_number, created_by,
			description, approved_by, created_at
		FROM versions
		WHERE file_id = $1
		ORDER BY version_number ASC
	`

	rows, err := q.Query(ctx, query, fileID)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer rows.Close()

	var versions []models.Version
	for rows.Next() {
		var v models.Version
		err := rows.Scan(
			&v.ID,
			&v.FileID,
			&v.FilePath,
			&v.VersionNumber,
			&v.CreatedBy,
			&v.Description,
			&v.ApprovedBy,
			&v.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate versions: %w", err)
	}

	return versions, nil
}

// GetByNumber retrieves a specific version of a file
func (r *PostgresVersionRepository) GetByNumber(ctx context.Context, fileID string, versionNumber int) (*models.Version, error) {
	q := GetExecutor(ctx, r.pool)

	query := `
		SELECT id, file_id, file_path, version_number, created_by,
			description, approved_by, created_at
		FROM versions
		WHERE file_id = $1 AND version_number = $2
	`

	var v models.Version
	err := q.QueryRow(ctx, query, fileID, versionNumber).Scan(
		&v.ID,
		&v.FileID,
		&v.FilePath,
		&v.VersionNumber,
		&v.CreatedBy,
		&v.Description,
		&v.ApprovedBy,
		&v.CreatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("version %d of file %s: %w", versionNumber, fileID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get version: %w", err)
	}

	return &v, nil
}

// DeleteByNumber deletes a specific version of a file
func (r *PostgresVersionRepository) DeleteByNumber(ctx context.Context, fileID string, versionNumber int) error {
	q := GetExecutor(ctx, r.pool)

	result, err := q.Exec(ctx,
		`DELETE FROM versions WHERE file_id = $1 AND version_number = $2`,
		fileID, versionNumber)
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("version %d of file %s: %w", versionNumber, fileID, domain.ErrNotFound)
	}

	return nil
}

// NextNumber computes the next version number for a file. The caller must
// hold the file row lock; otherwise two concurrent uploads can read the
// same max and collide on the (file_id, version_number) unique constraint.
func (r *PostgresVersionRepository) NextNumber(ctx context.Context, fileID string) (int, error) {
	q := GetExecutor(ctx, r.pool)

	var next int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(version_number), 0) + 1 FROM versions WHERE file_id = $1`,
		fileID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next version number: %w", err)
	}

	return next, nil
}
