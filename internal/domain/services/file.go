package services

import (
	"context"
	"io"

	"docuvault/internal/domain/models"
)

// FileService handles file upload, download and version history
type FileService interface {
	// Upload stores new content. The first upload of a path creates the
	// file; later uploads archive the superseded content as a version.
	Upload(ctx context.Context, actor Actor, req *UploadRequest) (*UploadResult, error)

	// Download streams the current content of a file
	Download(ctx context.Context, actor Actor, fileID string) (*models.File, io.ReadCloser, error)

	// GetFile retrieves file metadata by ID
	GetFile(ctx context.Context, actor Actor, fileID string) (*models.File, error)

	// ListVersions returns the version history of a file, oldest first
	ListVersions(ctx context.Context, actor Actor, fileID string) ([]models.Version, error)

	// RestoreVersion re-activates an archived version as the current content
	RestoreVersion(ctx context.Context, actor Actor, fileID string, versionNumber int) (*models.Version, error)

	// DeleteVersion removes a single archived version
	DeleteVersion(ctx context.Context, actor Actor, fileID string, versionNumber int) error
}

// UploadRequest represents a file upload
type UploadRequest struct {
	DirectoryPath string    `json:"directory_path"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Content       io.Reader `json:"-"`
}

// UploadResult is the outcome of an upload. Version is nil when the upload
// created the file; otherwise it is the archived snapshot of the content
// the upload superseded.
type UploadResult struct {
	File    *models.File    `json:"file"`
	Version *models.Version `json:"version,omitempty"`
}
