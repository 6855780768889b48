package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docuvault/internal/access"
	"docuvault/internal/blobstore"
	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/repositories"
	"docuvault/internal/domain/services"
)

type directoryService struct {
	directoryRepo  repositories.DirectoryRepository
	fileRepo       repositories.FileRepository
	permissionRepo repositories.PermissionRepository
	txManager      repositories.TransactionManager
	resolver       *access.Resolver
	policy         *access.Registry
	blobs          blobstore.Store
	logger         *slog.Logger
}

// NewDirectoryService creates a new directory service
func NewDirectoryService(
	directoryRepo repositories.DirectoryRepository,
	fileRepo repositories.FileRepository,
	permissionRepo repositories.PermissionRepository,
	txManager repositories.TransactionManager,
	resolver *access.Resolver,
	policy *access.Registry,
	blobs blobstore.Store,
	logger *slog.Logger,
) services.DirectoryService {
	return &directoryService{
		directoryRepo:  directoryRepo,
		fileRepo:       fileRepo,
		permissionRepo: permissionRepo,
		txManager:      txManager,
		resolver:       resolver,
		policy:         policy,
		blobs:          blobs,
		logger:         logger,
	}
}

// CreateDirectory creates a new directory at the given path. Cascading
// grants on the parent are snapshot-copied onto the new directory so the
// common permission check stays a single row lookup.
func (s *directoryService) CreateDirectory(ctx context.Context, actor services.Actor, req *services.CreateDirectoryRequest) (*models.Directory, error) {
	if err := s.policy.Require(actor.Role, access.ActionCreateDirectory); err != nil {
		return nil, err
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Path, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	path, err := NormalizePath(req.Path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%w: directory path cannot be empty", domain.ErrValidation)
	}

	if existing, err := s.directoryRepo.GetByPath(ctx, path); err == nil {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("directory already exists at %s", path),
			ResourceType: "directory",
			ResourceID:   existing.ID,
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	parentPath, name := SplitPath(path)

	var parent *models.Directory
	if parentPath != "" {
		parent, err = s.directoryRepo.GetByPath(ctx, parentPath)
		if err != nil {
			return nil, fmt.Errorf("parent directory not found: %w", err)
		}

		allowed, err := s.resolver.CanAccessDirectory(ctx, actor.UserID, actor.Role, parent, models.PermissionWrite)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("write access to %s required: %w", parentPath, domain.ErrForbidden)
		}
	}

	dir := &models.Directory{
		Name:      name,
		Path:      path,
		CreatedBy: actor.UserID,
		CreatedAt: time.Now(),
	}
	if parent != nil {
		dir.ParentID = &parent.ID
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.directoryRepo.Create(ctx, dir); err != nil {
			return err
		}
		if parent != nil {
			return s.copyCascadingGrants(ctx, actor, parent.ID, dir)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.blobs.MkdirAll(path); err != nil {
		s.logger.Warn("failed to create directory on disk", "path", path, "error", err)
	}

	s.logger.Info("directory created",
		"id", dir.ID,
		"path", dir.Path,
		"created_by", actor.UserID,
	)

	return dir, nil
}

// copyCascadingGrants snapshots the parent's cascading grants onto a newly
// created child. The copy is a one-time snapshot attributed to the creator,
// not a live link to the parent's grants.
func (s *directoryService) copyCascadingGrants(ctx context.Context, actor services.Actor, parentID string, child *models.Directory) error {
	grants, err := s.permissionRepo.ListCascadingForDirectory(ctx, parentID)
	if err != nil {
		return err
	}

	for _, grant := range grants {
		copied := &models.Permission{
			UserID:            grant.UserID,
			ResourceType:      models.ResourceDirectory,
			DirectoryID:       &child.ID,
			PermissionType:    grant.PermissionType,
			GrantedBy:         actor.UserID,
			CascadeToChildren: true,
			CreatedAt:         time.Now(),
		}
		if err := s.permissionRepo.Upsert(ctx, copied); err != nil {
			return fmt.Errorf("failed to copy grant for user %s: %w", grant.UserID, err)
		}
	}
	return nil
}

// GetDirectory retrieves a directory by path
func (s *directoryService) GetDirectory(ctx context.Context, actor services.Actor, path string) (*models.Directory, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		return nil, fmt.Errorf("%w: directory path cannot be empty", domain.ErrValidation)
	}

	dir, err := s.directoryRepo.GetByPath(ctx, path)
	if err != nil {
		return nil, err
	}

	allowed, err := s.resolver.CanAccessDirectory(ctx, actor.UserID, actor.Role, dir, models.PermissionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("read access to %s required: %w", path, domain.ErrForbidden)
	}
	return dir, nil
}

// ListDirectory lists the immediate children of a directory. The empty path
// denotes the root, which every authenticated user may list. Files that are
// not yet approved are only visible to their creator and to admins.
func (s *directoryService) ListDirectory(ctx context.Context, actor services.Actor, path string) (*services.DirectoryContents, error) {
	path, err := NormalizePath(path)
	if err != nil {
		return nil, err
	}

	contents := &services.DirectoryContents{
		Directories: []models.Directory{},
		Files:       []models.File{},
	}

	var parentID *string
	if path != "" {
		dir, err := s.GetDirectory(ctx, actor, path)
		if err != nil {
			return nil, err
		}
		contents.Directory = dir
		parentID = &dir.ID
	}

	children, err := s.directoryRepo.ListChildren(ctx, parentID)
	if err != nil {
		return nil, err
	}
	contents.Directories = children

	files, err := s.fileRepo.ListByDirectory(ctx, parentID)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if s.fileVisible(actor, &file) {
			contents.Files = append(contents.Files, file)
		}
	}

	return contents, nil
}

// fileVisible reports whether the actor may see a file in a listing.
func (s *directoryService) fileVisible(actor services.Actor, file *models.File) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if file.CreatedBy == actor.UserID {
		return true
	}
	return file.ApprovalStatus == models.StatusApproved
}

// DeleteDirectory removes a directory and everything beneath it. Child rows
// go with the parent through the foreign keys; content and archived versions
// are swept from disk afterwards.
func (s *directoryService) DeleteDirectory(ctx context.Context, actor services.Actor, path string) error {
	if err := s.policy.Require(actor.Role, access.ActionDeleteDirectory); err != nil {
		return err
	}

	path, err := NormalizePath(path)
	if err != nil {
		return err
	}
	if path == "" {
		return fmt.Errorf("%w: cannot delete the root directory", domain.ErrValidation)
	}

	dir, err := s.directoryRepo.GetByPath(ctx, path)
	if err != nil {
		return err
	}

	if err := s.directoryRepo.Delete(ctx, dir.ID); err != nil {
		return err
	}

	if err := s.blobs.RemoveAll(path); err != nil {
		s.logger.Warn("failed to remove directory content", "path", path, "error", err)
	}
	if err := s.blobs.RemoveAll(archivePrefix + "/" + path); err != nil {
		s.logger.Warn("failed to remove archived content", "path", path, "error", err)
	}

	s.logger.Info("directory deleted",
		"id", dir.ID,
		"path", dir.Path,
		"deleted_by", actor.UserID,
	)

	return nil
}
