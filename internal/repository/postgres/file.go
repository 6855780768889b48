package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/repositories"
)

// PostgresFileRepository implements the FileRepository interface
type PostgresFileRepository struct {
	pool *pgxpool.Pool
}

// NewFileRepository creates a new file repository
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{pool: config.Pool}
}

const fileColumns = `id, name, path, directory_id, directory_path, description,
	created_by, approval_status, approved_by, created_at, updated_at`

func scanFile(row pgx.Row) (*models.File, error) {
	var f models.File
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.Path,
		&f.DirectoryID,
		&f.DirectoryPath,
		&f.Description,
		&f.CreatedBy,
		&f.ApprovalStatus,
		&f.ApprovedBy,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Create inserts a new file
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	q := GetExecutor(ctx, r.pool)

	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	now := time.Now()
	if file.CreatedAt.IsZero() {
		file.CreatedAt = now
	}
	file.UpdatedAt = now

	query := `
		INSERT INTO files (id, name, path, directory_id, directory_path, description,
			created_by, approval_status, approved_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := q.Exec(ctx, query,
		file.ID,
		file.Name,
		file.Path,
		file.DirectoryID,
		file.DirectoryPath,
		file.Description,
		file.CreatedBy,
		file.ApprovalStatus,
		file.ApprovedBy,
		file.CreatedAt,
		file.UpdatedAt,
	)
	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("file %q already exists", file.Path),
				ResourceType: "file",
			}
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	q := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM files WHERE id = $1`, fileColumns)

	file, err := scanFile(q.QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return file, nil
}

// GetByPath retrieves a file by its canonical path
func (r *PostgresFileRepository) GetByPath(ctx context.Context, path string) (*models.File, error) {
	q := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`SELECT %s FROM files WHERE path = $1`, fileColumns)

	file, err := scanFile(q.QueryRow(ctx, query, path))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("file at path %q: %w", path, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file by path: %w", err)
	}

	return file, nil
}

// ListByDirectory lists files in a directory
func (r *PostgresFileRepository) ListByDirectory(ctx context.Context, directoryID *string) ([]models.File, error) {
	q := GetExecutor(ctx, r.pool)

	var query string
	var args []interface{}

	if directoryID == nil {
		query = fmt.Sprintf(`
			SELECT %s FROM files
			WHERE directory_id IS NULL
			ORDER BY name ASC
		`, fileColumns)
	} else {
		query = fmt.Sprintf(`
			SELECT %s FROM files
			WHERE directory_id = $1
			ORDER BY name ASC
		`, fileColumns)
		args = append(args, *directoryID)
	}

	return r.queryFiles(ctx, q, query, args...)
}

// LockForUpdate takes a row lock on the file for the duration of the
// surrounding transaction. Version numbering reads max+1, so concurrent
// uploads to the same file must serialize on this lock.
func (r *PostgresFileRepository) LockForUpdate(ctx context.Context, id string) error {
	q := GetExecutor(ctx, r.pool)

	var locked string
	err := q.QueryRow(ctx, `SELECT id FROM files WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if isPgNoRowsError(err) {
			return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("lock file: %w", err)
	}

	return nil
}

// SetApproval updates approval status and approver
func (r *PostgresFileRepository) SetApproval(ctx context.Context, id string, status models.ApprovalStatus, approvedBy *string) error {
	q := GetExecutor(ctx, r.pool)

	query := `
		UPDATE files
		SET approval_status = $1, approved_by = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := q.Exec(ctx, query, status, approvedBy, time.Now(), id)
	if err != nil {
		return fmt.Errorf("set file approval: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// Update updates mutable file fields
func (r *PostgresFileRepository) Update(ctx context.Context, file *models.File) error {
	q := GetExecutor(ctx, r.pool)

	file.UpdatedAt = time.Now()

	query := `
		UPDATE files
		SET description = $1, created_by = $2, approval_status = $3,
			approved_by = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := q.Exec(ctx, query,
		file.Description,
		file.CreatedBy,
		file.ApprovalStatus,
		file.ApprovedBy,
		file.UpdatedAt,
		file.ID,
	)
	if err != nil {
		return fmt.Errorf("update file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete deletes a file row; versions and permissions cascade in the schema
func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	q := GetExecutor(ctx, r.pool)

	result, err := q.Exec(ctx, `DELETE FROM files WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ListPending returns every PENDING file
func (r *PostgresFileRepository) ListPending(ctx context.Context) ([]models.File, error) {
	q := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		SELECT %s FROM files
		WHERE approval_status = 'PENDING'
		ORDER BY created_at ASC
	`, fileColumns)

	return r.queryFiles(ctx, q, query)
}

// ListPendingForUser returns PENDING files visible to a non-admin reviewer:
// files whose directory the user created or holds a WRITE grant on, matched
// by directory id or by cascading-grant path prefix. DISTINCT collapses
// files matched by more than one condition.
func (r *PostgresFileRepository) ListPendingForUser(ctx context.Context, userID string) ([]models.File, error) {
	q := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM files f
		JOIN directories d ON d.id = f.directory_id
		WHERE f.approval_status = 'PENDING'
		  AND (
			d.created_by = $1
			OR EXISTS (
				SELECT 1 FROM permissions p
				WHERE p.user_id = $1
				  AND p.directory_id = d.id
				  AND p.permission_type = 'WRITE'
			)
			OR EXISTS (
				SELECT 1 FROM permissions p
				JOIN directories pd ON pd.id = p.directory_id
				WHERE p.user_id = $1
				  AND p.permission_type = 'WRITE'
				  AND p.cascade_to_children
				  AND (f.directory_path = pd.path OR f.directory_path LIKE pd.path || '/%%')
			)
		  )
		ORDER BY f.created_at ASC
	`, prefixFileColumns("f"))

	return r.queryFiles(ctx, q, query, userID)
}

func prefixFileColumns(alias string) string {
	return fmt.Sprintf(`%[1]s.id, %[1]s.name, %[1]s.path, %[1]s.directory_id,
		%[1]s.directory_path, %[1]s.description, %[1]s.created_by,
		%[1]s.approval_status, %[1]s.approved_by, %[1]s.created_at, %[1]s.updated_at`, alias)
}

func (r *PostgresFileRepository) queryFiles(ctx context.Context, q repositories.DBTX, query string, args ...interface{}) ([]models.File, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		file, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, *file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}
