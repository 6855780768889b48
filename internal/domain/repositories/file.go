package repositories

import (
	"context"

	"docuvault/internal/domain/models"
)

// FileRepository persists file metadata and approval status.
type FileRepository interface {
	Create(ctx context.Context, file *models.File) error
	GetByID(ctx context.Context, id string) (*models.File, error)
	GetByPath(ctx context.Context, path string) (*models.File, error)
	// ListByDirectory lists files in a directory. A nil directoryID lists
	// root-level files.
	ListByDirectory(ctx context.Context, directoryID *string) ([]models.File, error)
	// LockForUpdate takes a row lock on the file, serializing concurrent
	// version-number assignment per file id. Must run inside a transaction.
	LockForUpdate(ctx context.Context, id string) error
	// SetApproval updates approval status, approver and the updated
	// timestamp.
	SetApproval(ctx context.Context, id string, status models.ApprovalStatus, approvedBy *string) error
	Update(ctx context.Context, file *models.File) error
	Delete(ctx context.Context, id string) error
	// ListPending returns every PENDING file.
	ListPending(ctx context.Context) ([]models.File, error)
	// ListPendingForUser returns PENDING files in directories the user
	// created or holds a WRITE grant on, either directly or via a
	// directory-path prefix. Results are distinct by file id.
	ListPendingForUser(ctx context.Context, userID string) ([]models.File, error)
}

// VersionRepository persists archived file snapshots.
type VersionRepository interface {
	Create(ctx context.Context, version *models.Version) error
	ListByFile(ctx context.Context, fileID string) ([]models.Version, error)
	GetByNumber(ctx context.Context, fileID string, versionNumber int) (*models.Version, error)
	DeleteByNumber(ctx context.Context, fileID string, versionNumber int) error
	// NextNumber computes max(version_number)+1 for the file. Callers must
	// hold the file row lock so two uploads cannot observe the same max.
	NextNumber(ctx context.Context, fileID string) (int, error)
}
