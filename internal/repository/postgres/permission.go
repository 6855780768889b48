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

// PostgresPermissionRepository implements the PermissionRepository interface
type PostgresPermissionRepository struct {
	pool *pgxpool.Pool
}

// NewPermissionRepository creates a new permission repository
func NewPermissionRepository(config *RepositoryConfig) repositories.PermissionRepository {
	return &PostgresPermissionRepository{pool: config.Pool}
}

const permissionColumns = `id, user_id, resource_type, file_id, directory_id,
	permission_type, granted_by, cascade_to_children, created_at`

func scanPermission(row pgx.Row) (*models.Permission, error) {
	var p models.Permission
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.ResourceType,
		&p.FileID,
		&p.DirectoryID,
		&p.PermissionType,
		&p.GrantedBy,
		&p.CascadeToChildren,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Upsert inserts or updates a grant keyed on (user, resource). The partial
// unique indexes on (user_id, file_id) and (user_id, directory_id) carry
// the at-most-one-row-per-resource invariant.
func (r *PostgresPermissionRepository) Upsert(ctx context.Context, perm *models.Permission) error {
	q := GetExecutor(ctx, r.pool)

	if perm.ID == "" {
		perm.ID = uuid.NewString()
	}
	if perm.CreatedAt.IsZero() {
		perm.CreatedAt = time.Now()
	}

	var query string
	switch perm.ResourceType {
	case models.ResourceFile:
		query = `
			INSERT INTO permissions (id, user_id, resource_type, file_id, directory_id,
				permission_type, granted_by, cascade_to_children, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (user_id, file_id) WHERE file_id IS NOT NULL
			DO UPDATE SET permission_type = EXCLUDED.permission_type,
				granted_by = EXCLUDED.granted_by,
				cascade_to_children = EXCLUDED.cascade_to_children
		`
	case models.ResourceDirectory:
		query = `
			INSERT INTO permissions (id, user_id, resource_type, file_id, directory_id,
				permission_type, granted_by, cascade_to_children, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (user_id, directory_id) WHERE directory_id IS NOT NULL
			DO UPDATE SET permission_type = EXCLUDED.permission_type,
				granted_by = EXCLUDED.granted_by,
				cascade_to_children = EXCLUDED.cascade_to_children
		`
	default:
		return fmt.Errorf("unknown resource type %q: %w", perm.ResourceType, domain.ErrValidation)
	}

	_, err := q.Exec(ctx, query,
		perm.ID,
		perm.UserID,
		perm.ResourceType,
		perm.FileID,
		perm.DirectoryID,
		perm.PermissionType,
		perm.GrantedBy,
		perm.CascadeToChildren,
		perm.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert permission: %w", err)
	}

	return nil
}

// GetForFile retrieves a user's grant on a file, or ErrNotFound
func (r *PostgresPermissionRepository) GetForFile(ctx context.Context, userID, fileID string) (*models.Permission, error) {
	q := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		SELECT %s FROM permissions
		WHERE user_id = $1 AND file_id = $2
	`, permissionColumns)

	perm, err := scanPermission(q.QueryRow(ctx, query, userID, fileID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("permission for user %s on file %s: %w", userID, fileID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file permission: %w", err)
	}

	return perm, nil
}

// GetForDirectory retrieves a user's grant on a directory, or ErrNotFound
func (r *PostgresPermissionRepository) GetForDirectory(ctx context.Context, userID, directoryID string) (*models.Permission, error) {
	q := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		SELECT %s FROM permissions
		WHERE user_id = $1 AND directory_id = $2
	`, permissionColumns)

	perm, err := scanPermission(q.QueryRow(ctx, query, userID, directoryID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("permission for user %s on directory %s: %w", userID, directoryID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get directory permission: %w", err)
	}

	return perm, nil
}

// DeleteForFile removes a user's grant on a file. Missing rows are not an
// error: revoke is idempotent.
func (r *PostgresPermissionRepository) DeleteForFile(ctx context.Context, userID, fileID string) error {
	q := GetExecutor(ctx, r.pool)

	_, err := q.Exec(ctx,
		`DELETE FROM permissions WHERE user_id = $1 AND file_id = $2`,
		userID, fileID)
	if err != nil {
		return fmt.Errorf("delete file permission: %w", err)
	}

	return nil
}

// DeleteForDirectory removes a user's grant on a directory
func (r *PostgresPermissionRepository) DeleteForDirectory(ctx context.Context, userID, directoryID string) error {
	q := GetExecutor(ctx, r.pool)

	_, err := q.Exec(ctx,
		`DELETE FROM permissions WHERE user_id = $1 AND directory_id = $2`,
		userID, directoryID)
	if err != nil {
		return fmt.Errorf("delete directory permission: %w", err)
	}

	return nil
}

// ListCascadingForDirectory lists cascading grants on a directory
func (r *PostgresPermissionRepository) ListCascadingForDirectory(ctx context.Context, directoryID string) ([]models.Permission, error) {
	q := GetExecutor(ctx, r.pool)

	query := fmt.Sprintf(`
		SELECT %s FROM permissions
		WHERE directory_id = $1 AND cascade_to_children
	`, permissionColumns)

	return r.queryPermissions(ctx, q, query, directoryID)
}

// ListForResource lists every grant on a resource
func (r *PostgresPermissionRepository) ListForResource(ctx context.Context, resourceType models.ResourceType, resourceID string) ([]models.Permission, error) {
	q := GetExecutor(ctx, r.pool)

	var query string
	switch resourceType {
	case models.ResourceFile:
		query = fmt.Sprintf(`SELECT %s FROM permissions WHERE file_id = $1`, permissionColumns)
	case models.ResourceDirectory:
		query = fmt.Sprintf(`SELECT %s FROM permissions WHERE directory_id = $1`, permissionColumns)
	default:
		return nil, fmt.Errorf("unknown resource type %q: %w", resourceType, domain.ErrValidation)
	}

	return r.queryPermissions(ctx, q, query, resourceID)
}

func (r *PostgresPermissionRepository) queryPermissions(ctx context.Context, q repositories.DBTX, query string, args ...interface{}) ([]models.Permission, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query permissions: %w", err)
	}
	defer rows.Close()

	var perms []models.Permission
	for rows.Next() {
		perm, err := scanPermission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan permission: %w", err)
		}
		perms = append(perms, *perm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate permissions: %w", err)
	}

	return perms, nil
}
