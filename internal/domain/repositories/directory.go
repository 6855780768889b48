package repositories

import (
	"context"

	"docuvault/internal/domain/models"
)

// DirectoryRepository persists the directory hierarchy. All lookups are by
// id or canonical path; name-only lookups are deliberately absent.
type DirectoryRepository interface {
	Create(ctx context.Context, dir *models.Directory) error
	GetByID(ctx context.Context, id string) (*models.Directory, error)
	GetByPath(ctx context.Context, path string) (*models.Directory, error)
	// ListChildren lists immediate child directories. A nil parentID lists
	// root-level directories.
	ListChildren(ctx context.Context, parentID *string) ([]models.Directory, error)
	Delete(ctx context.Context, id string) error
}
