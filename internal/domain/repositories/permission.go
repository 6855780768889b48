package repositories

import (
	"context"

	"docuvault/internal/domain/models"
)

// PermissionRepository persists per-(user, resource) grants. Upsert keys on
// (user id, resource type, resource id) so repeated grants converge to one
// row.
type PermissionRepository interface {
	Upsert(ctx context.Context, perm *models.Permission) error
	GetForFile(ctx context.Context, userID, fileID string) (*models.Permission, error)
	GetForDirectory(ctx context.Context, userID, directoryID string) (*models.Permission, error)
	DeleteForFile(ctx context.Context, userID, fileID string) error
	DeleteForDirectory(ctx context.Context, userID, directoryID string) error
	// ListCascadingForDirectory lists grants on the directory that carry
	// cascade_to_children, for snapshot-copying onto new children.
	ListCascadingForDirectory(ctx context.Context, directoryID string) ([]models.Permission, error)
	// ListForResource lists every grant on a resource.
	ListForResource(ctx context.Context, resourceType models.ResourceType, resourceID string) ([]models.Permission, error)
}

// ApprovalRepository records the most recent approval decision per file.
type ApprovalRepository interface {
	Upsert(ctx context.Context, event *models.ApprovalEvent) error
	GetByFile(ctx context.Context, fileID string) (*models.ApprovalEvent, error)
}
