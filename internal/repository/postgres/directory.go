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

// PostgresDirectoryRepository implements the DirectoryRepository interface
type PostgresDirectoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(config *RepositoryConfig) repositories.DirectoryRepository {
	return &PostgresDirectoryRepository{pool: config.Pool}
}

// Create inserts a new directory. Path uniqueness is enforced by the
// database; a duplicate surfaces as a ConflictError.
func (r *PostgresDirectoryRepository) Create(ctx context.Context, dir *models.Directory) error {
	q := GetExecutor(ctx, r.pool)

	if dir.ID == "" {
		dir.ID = uuid.NewString()
	}
	if dir.CreatedAt.IsZero() {
		dir.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO directories (id, name, path, parent_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		dir.ID,
		dir.Name,
		dir.Path,
		dir.ParentID,
		dir.CreatedBy,
		dir.CreatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("directory %q already exists", dir.Path),
				ResourceType: "directory",
			}
		}
		return fmt.Errorf("create directory: %w", err)
	}

	return nil
}

// GetByID retrieves a directory by ID
func (r *PostgresDirectoryRepository) GetByID(ctx context.Context, id string) (*models.Directory, error) {
	q := GetExecutor(ctx, r.pool)

	query := `
		SELECT id, name, path, parent_id, created_by, created_at
		FROM directories
		WHERE id = $1
	`

	var dir models.Directory
	err := q.QueryRow(ctx, query, id).Scan(
		&dir.ID,
		&dir.Name,
		&dir.Path,
		&dir.ParentID,
		&dir.CreatedBy,
		&dir.CreatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("directory %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get directory: %w", err)
	}

	return &dir, nil
}

// GetByPath retrieves a directory by its canonical path
func (r *PostgresDirectoryRepository) GetByPath(ctx context.Context, path string) (*models.Directory, error) {
	q := GetExecutor(ctx, r.pool)

	query := `
		SELECT id, name, path, parent_id, created_by, created_at
		FROM directories
		WHERE path = $1
	`

	var dir models.Directory
	err := q.QueryRow(ctx, query, path).Scan(
		&dir.ID,
		&dir.Name,
		&dir.Path,
		&dir.ParentID,
		&dir.CreatedBy,
		&dir.CreatedAt,
	)
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("directory at path %q: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get directory by path: %w", err)
	}

	return &dir, nil
}

// ListChildren lists immediate child directories
func (r *PostgresDirectoryRepository) ListChildren(ctx context.Context, parentID *string) ([]models.Directory, error) {
	q := GetExecutor(ctx, r.pool)

	var query string
	var args []interface{}

	if parentID == nil {
		query = `
			SELECT id, name, path, parent_id, created_by, created_at
			FROM directories
			WHERE parent_id IS NULL
			ORDER BY name ASC
		`
	} else {
		query = `
			SELECT id, name, path, parent_id, created_by, created_at
			FROM directories
			WHERE parent_id = $1
			ORDER BY name ASC
		`
		args = append(args, *parentID)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list directory children: %w", err)
	}
	defer rows.Close()

	var dirs []models.Directory
	for rows.Next() {
		var dir models.Directory
		err := rows.Scan(
			&dir.ID,
			&dir.Name,
			&dir.Path,
			&dir.ParentID,
			&dir.CreatedBy,
			&dir.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan directory: %w", err)
		}
		dirs = append(dirs, dir)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate directories: %w", err)
	}

	return dirs, nil
}

// Delete deletes a directory row. Child rows are removed by the service
// layer bottom-up before the parent is deleted.
func (r *PostgresDirectoryRepository) Delete(ctx context.Context, id string) error {
	q := GetExecutor(ctx, r.pool)

	result, err := q.Exec(ctx, `DELETE FROM directories WHERE id = $1`, id)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("directory still has children: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete directory: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("directory %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
