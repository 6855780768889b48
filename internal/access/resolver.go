package access

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/repositories"
)

// Resolver computes effective access for a (user, resource) pair. It is a
// pure read: "no permission" is a false result, never an error. Resolution
// order, first match wins:
//
//  1. ADMIN role bypasses everything.
//  2. The resource creator always has full access.
//  3. A direct grant at a satisfying level.
//  4. For files: the owning directory, re-resolved with the same rules.
//  5. For directories: any ancestor holding a cascading grant at a
//     satisfying level.
//
// Step 5 is the read-time fallback for subtrees created after a cascading
// grant was materialized; the write-time fan-out keeps the common case at
// one row lookup.
type Resolver struct {
	directories repositories.DirectoryRepository
	files       repositories.FileRepository
	permissions repositories.PermissionRepository
	logger      *slog.Logger
}

// NewResolver creates a new access resolver
func NewResolver(
	directories repositories.DirectoryRepository,
	files repositories.FileRepository,
	permissions repositories.PermissionRepository,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		directories: directories,
		files:       files,
		permissions: permissions,
		logger:      logger,
	}
}

// HasAccess resolves effective access for a user on a resource. The
// resource must exist; a missing resource surfaces ErrNotFound so callers
// report "not found" before "forbidden".
func (r *Resolver) HasAccess(ctx context.Context, userID string, role models.Role, resourceType models.ResourceType, resourceID string, required models.PermissionType) (bool, error) {
	if role == models.RoleAdmin {
		return true, nil
	}

	switch resourceType {
	case models.ResourceFile:
		return r.fileAccess(ctx, userID, resourceID, required)
	case models.ResourceDirectory:
		dir, err := r.directories.GetByID(ctx, resourceID)
		if err != nil {
			return false, err
		}
		return r.directoryAccess(ctx, userID, dir, required)
	default:
		return false, fmt.Errorf("unknown resource type %q: %w", resourceType, domain.ErrValidation)
	}
}

// CanAccessDirectory resolves access against an already-loaded directory,
// saving a lookup when the caller resolved it by path.
func (r *Resolver) CanAccessDirectory(ctx context.Context, userID string, role models.Role, dir *models.Directory, required models.PermissionType) (bool, error) {
	if role == models.RoleAdmin {
		return true, nil
	}
	return r.directoryAccess(ctx, userID, dir, required)
}

func (r *Resolver) fileAccess(ctx context.Context, userID, fileID string, required models.PermissionType) (bool, error) {
	file, err := r.files.GetByID(ctx, fileID)
	if err != nil {
		return false, err
	}

	if file.CreatedBy == userID {
		return true, nil
	}

	perm, err := r.permissions.GetForFile(ctx, userID, fileID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if perm != nil && perm.PermissionType.Satisfies(required) {
		return true, nil
	}

	// No direct grant: fall back to the owning directory.
	if file.DirectoryID == nil {
		return false, nil
	}
	dir, err := r.directories.GetByID(ctx, *file.DirectoryID)
	if err != nil {
		return false, err
	}
	return r.directoryAccess(ctx, userID, dir, required)
}

func (r *Resolver) directoryAccess(ctx context.Context, userID string, dir *models.Directory, required models.PermissionType) (bool, error) {
	if dir.CreatedBy == userID {
		return true, nil
	}

	perm, err := r.permissions.GetForDirectory(ctx, userID, dir.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if perm != nil && perm.PermissionType.Satisfies(required) {
		return true, nil
	}

	return r.ancestorAccess(ctx, userID, dir, required)
}

// ancestorAccess walks the parent chain from deepest to shallowest, looking
// for a cascading grant at a satisfying level.
func (r *Resolver) ancestorAccess(ctx context.Context, userID string, dir *models.Directory, required models.PermissionType) (bool, error) {
	parentID := dir.ParentID
	for parentID != nil {
		ancestor, err := r.directories.GetByID(ctx, *parentID)
		if err != nil {
			return false, err
		}

		perm, err := r.permissions.GetForDirectory(ctx, userID, ancestor.ID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return false, err
		}
		if perm != nil && perm.CascadeToChildren && perm.PermissionType.Satisfies(required) {
			r.logger.Debug("access granted via ancestor cascade",
				"user_id", userID,
				"directory", dir.Path,
				"ancestor", ancestor.Path,
			)
			return true, nil
		}

		parentID = ancestor.ParentID
	}

	return false, nil
}
