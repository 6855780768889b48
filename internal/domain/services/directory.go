package services

import (
	"context"

	"docuvault/internal/domain/models"
)

// DirectoryService handles directory business logic
type DirectoryService interface {
	// CreateDirectory creates a new directory at the given path
	CreateDirectory(ctx context.Context, actor Actor, req *CreateDirectoryRequest) (*models.Directory, error)

	// ListDirectory lists the immediate children of a directory
	ListDirectory(ctx context.Context, actor Actor, path string) (*DirectoryContents, error)

	// GetDirectory retrieves a directory by path
	GetDirectory(ctx context.Context, actor Actor, path string) (*models.Directory, error)

	// DeleteDirectory removes a directory and everything beneath it
	DeleteDirectory(ctx context.Context, actor Actor, path string) error
}

// CreateDirectoryRequest represents a directory creation request
type CreateDirectoryRequest struct {
	Path string `json:"path"`
}

// DirectoryContents represents a directory with its children
type DirectoryContents struct {
	Directory   *models.Directory  `json:"directory,omitempty"` // null for root
	Directories []models.Directory `json:"directories"`
	Files       []models.File      `json:"files"`
}
