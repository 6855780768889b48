package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docuvault/internal/access"
	"docuvault/internal/blobstore"
	"docuvault/internal/config"
	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/repositories"
	"docuvault/internal/domain/services"
)

// archivePrefix is the blob tree holding superseded version content. User
// path segments cannot start with an underscore, so it never collides.
const archivePrefix = "_archive"

type fileService struct {
	fileRepo       repositories.FileRepository
	versionRepo    repositories.VersionRepository
	directoryRepo  repositories.DirectoryRepository
	permissionRepo repositories.PermissionRepository
	approvalRepo   repositories.ApprovalRepository
	txManager      repositories.TransactionManager
	resolver       *access.Resolver
	policy         *access.Registry
	blobs          blobstore.Store
	logger         *slog.Logger
}

// NewFileService creates a new file service
func NewFileService(
	fileRepo repositories.FileRepository,
	versionRepo repositories.VersionRepository,
	directoryRepo repositories.DirectoryRepository,
	permissionRepo repositories.PermissionRepository,
	approvalRepo repositories.ApprovalRepository,
	txManager repositories.TransactionManager,
	resolver *access.Resolver,
	policy *access.Registry,
	blobs blobstore.Store,
	logger *slog.Logger,
) services.FileService {
	return &fileService{
		fileRepo:       fileRepo,
		versionRepo:    versionRepo,
		directoryRepo:  directoryRepo,
		permissionRepo: permissionRepo,
		approvalRepo:   approvalRepo,
		txManager:      txManager,
		resolver:       resolver,
		policy:         policy,
		blobs:          blobs,
		logger:         logger,
	}
}

// Upload stores new content. The first upload of a path creates the file
// with no version history; uploading to an existing path archives the
// superseded content as the next numbered version. Content is staged to a
// temporary location first, so a failed database write never corrupts the
// live blob.
func (s *fileService) Upload(ctx context.Context, actor services.Actor, req *services.UploadRequest) (*services.UploadResult, error) {
	if err := s.policy.Require(actor.Role, access.ActionUploadFile); err != nil {
		return nil, err
	}
	if err := s.validateUploadRequest(req); err != nil {
		return nil, err
	}

	dirPath, err := NormalizePath(req.DirectoryPath)
	if err != nil {
		return nil, err
	}
	filePath := JoinPath(dirPath, req.Name)

	// Re-uploads are authorized against the file itself, so a file-level
	// WRITE grant suffices even without write access to the directory.
	existing, err := s.fileRepo.GetByPath(ctx, filePath)
	if err == nil {
		staged, err := s.stage(filePath, req.Content)
		if err != nil {
			return nil, err
		}
		return s.appendVersion(ctx, actor, existing, req.Description, staged)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	var dir *models.Directory
	if dirPath != "" {
		dir, err = s.directoryRepo.GetByPath(ctx, dirPath)
		if err != nil {
			return nil, fmt.Errorf("directory not found: %w", err)
		}
		allowed, err := s.resolver.CanAccessDirectory(ctx, actor.UserID, actor.Role, dir, models.PermissionWrite)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("write access to %s required: %w", dirPath, domain.ErrForbidden)
		}
	}

	staged, err := s.stage(filePath, req.Content)
	if err != nil {
		return nil, err
	}
	return s.createFile(ctx, actor, dir, filePath, req, staged)
}

// stage buffers upload content and enforces the size cap.
func (s *fileService) stage(filePath string, content io.Reader) (blobstore.Staged, error) {
	staged, err := s.blobs.Stage(filePath, content)
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}
	if staged.Size() > config.MaxUploadBytes {
		staged.Discard()
		return nil, fmt.Errorf("%w: upload exceeds maximum size of %d bytes", domain.ErrValidation, config.MaxUploadBytes)
	}
	return staged, nil
}

// createFile handles the first upload of a path. No Version row is written;
// history starts when the content is first superseded.
func (s *fileService) createFile(ctx context.Context, actor services.Actor, dir *models.Directory, filePath string, req *services.UploadRequest, staged blobstore.Staged) (*services.UploadResult, error) {
	now := time.Now()
	file := &models.File{
		Name:           req.Name,
		Path:           filePath,
		Description:    req.Description,
		CreatedBy:      actor.UserID,
		ApprovalStatus: models.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if dir != nil {
		file.DirectoryID = &dir.ID
		file.DirectoryPath = dir.Path
	}
	// Admin uploads skip review.
	if actor.Role == models.RoleAdmin {
		file.ApprovalStatus = models.StatusApproved
		file.ApprovedBy = &actor.UserID
	}

	err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.fileRepo.Create(ctx, file); err != nil {
			return err
		}
		if actor.Role == models.RoleAdmin {
			if err := s.recordAutoApproval(ctx, actor, file.ID); err != nil {
				return err
			}
		}
		if dir != nil {
			return s.copyDirectoryGrants(ctx, actor, dir.ID, file.ID)
		}
		return nil
	})
	if err != nil {
		staged.Discard()
		return nil, err
	}

	if err := staged.Promote(); err != nil {
		return nil, fmt.Errorf("upload recorded but content write failed: %w", err)
	}

	s.logger.Info("file created",
		"id", file.ID,
		"path", file.Path,
		"created_by", actor.UserID,
		"status", file.ApprovalStatus,
	)

	return &services.UploadResult{File: file}, nil
}

// copyDirectoryGrants snapshots the owning directory's cascading grants onto
// a newly created file. Files have no children, so the copies never cascade
// further.
func (s *fileService) copyDirectoryGrants(ctx context.Context, actor services.Actor, dirID, fileID string) error {
	grants, err := s.permissionRepo.ListCascadingForDirectory(ctx, dirID)
	if err != nil {
		return err
	}

	for _, grant := range grants {
		copied := &models.Permission{
			UserID:         grant.UserID,
			ResourceType:   models.ResourceFile,
			FileID:         &fileID,
			PermissionType: grant.PermissionType,
			GrantedBy:      actor.UserID,
			CreatedAt:      time.Now(),
		}
		if err := s.permissionRepo.Upsert(ctx, copied); err != nil {
			return fmt.Errorf("failed to copy grant for user %s: %w", grant.UserID, err)
		}
	}
	return nil
}

// appendVersion handles an upload to an existing path: the superseded
// content is archived as the next numbered version before the new bytes go
// live. The file row is locked for the duration of the transaction so
// concurrent uploads cannot claim the same version number.
func (s *fileService) appendVersion(ctx context.Context, actor services.Actor, file *models.File, description string, staged blobstore.Staged) (*services.UploadResult, error) {
	allowed, err := s.resolver.HasAccess(ctx, actor.UserID, actor.Role, models.ResourceFile, file.ID, models.PermissionWrite)
	if err != nil {
		staged.Discard()
		return nil, err
	}
	if !allowed {
		staged.Discard()
		return nil, fmt.Errorf("write access to %s required: %w", file.Path, domain.ErrForbidden)
	}

	// The version row snapshots the superseded state of the file.
	version := &models.Version{
		FileID:      file.ID,
		CreatedBy:   actor.UserID,
		Description: file.Description,
		ApprovedBy:  file.ApprovedBy,
		CreatedAt:   time.Now(),
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.fileRepo.LockForUpdate(ctx, file.ID); err != nil {
			return err
		}

		next, err := s.versionRepo.NextNumber(ctx, file.ID)
		if err != nil {
			return err
		}
		version.VersionNumber = next
		version.FilePath = archiveKey(file.Path, next)

		// Preserve the superseded content before it is overwritten.
		if err := s.blobs.Copy(file.Path, version.FilePath); err != nil {
			return fmt.Errorf("failed to archive current content: %w", err)
		}

		if err := s.versionRepo.Create(ctx, version); err != nil {
			return err
		}

		file.Description = description
		file.UpdatedAt = version.CreatedAt
		s.resetApproval(actor, file)
		if actor.Role == models.RoleAdmin {
			if err := s.recordAutoApproval(ctx, actor, file.ID); err != nil {
				return err
			}
		}
		return s.fileRepo.Update(ctx, file)
	})
	if err != nil {
		staged.Discard()
		return nil, err
	}

	if err := staged.Promote(); err != nil {
		return nil, fmt.Errorf("upload recorded but content write failed: %w", err)
	}

	s.logger.Info("version added",
		"file_id", file.ID,
		"path", file.Path,
		"version", version.VersionNumber,
		"created_by", actor.UserID,
	)

	return &services.UploadResult{File: file, Version: version}, nil
}

// resetApproval puts new content back through review, except for admins
// whose uploads are approved on the spot.
func (s *fileService) resetApproval(actor services.Actor, file *models.File) {
	if actor.Role == models.RoleAdmin {
		file.ApprovalStatus = models.StatusApproved
		file.ApprovedBy = &actor.UserID
		return
	}
	file.ApprovalStatus = models.StatusPending
	file.ApprovedBy = nil
}

// recordAutoApproval writes the approval bookkeeping for content an admin
// put live without review.
func (s *fileService) recordAutoApproval(ctx context.Context, actor services.Actor, fileID string) error {
	return s.approvalRepo.Upsert(ctx, &models.ApprovalEvent{
		FileID:    fileID,
		Decision:  models.DecisionApproved,
		DecidedBy: actor.UserID,
		DecidedAt: time.Now(),
	})
}

// Download streams the current content of a file. Content pending review is
// only served to its creator and to admins.
func (s *fileService) Download(ctx context.Context, actor services.Actor, fileID string) (*models.File, io.ReadCloser, error) {
	file, err := s.authorizeRead(ctx, actor, fileID)
	if err != nil {
		return nil, nil, err
	}

	rc, err := s.blobs.Open(file.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("content missing for %s: %w", file.Path, err)
	}
	return file, rc, nil
}

// GetFile retrieves file metadata by ID
func (s *fileService) GetFile(ctx context.Context, actor services.Actor, fileID string) (*models.File, error) {
	return s.authorizeRead(ctx, actor, fileID)
}

// ListVersions returns the version history of a file, oldest first
func (s *fileService) ListVersions(ctx context.Context, actor services.Actor, fileID string) ([]models.Version, error) {
	if _, err := s.authorizeRead(ctx, actor, fileID); err != nil {
		return nil, err
	}
	return s.versionRepo.ListByFile(ctx, fileID)
}

// RestoreVersion re-activates an archived version as the current content.
// The superseded content is archived as a new version before the copy, so
// nothing is lost by restoring.
func (s *fileService) RestoreVersion(ctx context.Context, actor services.Actor, fileID string, versionNumber int) (*models.Version, error) {
	if err := s.policy.Require(actor.Role, access.ActionRestoreVersion); err != nil {
		return nil, err
	}

	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.resolver.HasAccess(ctx, actor.UserID, actor.Role, models.ResourceFile, fileID, models.PermissionWrite)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("write access to %s required: %w", file.Path, domain.ErrForbidden)
	}

	source, err := s.versionRepo.GetByNumber(ctx, fileID, versionNumber)
	if err != nil {
		return nil, err
	}

	// Snapshot of the content being replaced, attributed to the restorer.
	snapshot := &models.Version{
		FileID:      fileID,
		CreatedBy:   actor.UserID,
		Description: file.Description,
		ApprovedBy:  file.ApprovedBy,
		CreatedAt:   time.Now(),
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.fileRepo.LockForUpdate(ctx, fileID); err != nil {
			return err
		}

		next, err := s.versionRepo.NextNumber(ctx, fileID)
		if err != nil {
			return err
		}
		snapshot.VersionNumber = next
		snapshot.FilePath = archiveKey(file.Path, next)

		if err := s.blobs.Copy(file.Path, snapshot.FilePath); err != nil {
			return fmt.Errorf("failed to archive current content: %w", err)
		}
		if err := s.blobs.Copy(source.FilePath, file.Path); err != nil {
			return fmt.Errorf("failed to restore archived content: %w", err)
		}

		if err := s.versionRepo.Create(ctx, snapshot); err != nil {
			return err
		}

		file.Description = source.Description
		file.UpdatedAt = snapshot.CreatedAt
		s.resetApproval(actor, file)
		if actor.Role == models.RoleAdmin {
			if err := s.recordAutoApproval(ctx, actor, fileID); err != nil {
				return err
			}
		}
		return s.fileRepo.Update(ctx, file)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("version restored",
		"file_id", fileID,
		"path", file.Path,
		"source_version", versionNumber,
		"archived_as", snapshot.VersionNumber,
		"restored_by", actor.UserID,
	)

	return snapshot, nil
}

// DeleteVersion removes a single archived version and its stored content.
// Admins may delete any version; others only their own.
func (s *fileService) DeleteVersion(ctx context.Context, actor services.Actor, fileID string, versionNumber int) error {
	if err := s.policy.Require(actor.Role, access.ActionDeleteVersion); err != nil {
		return err
	}

	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}

	version, err := s.versionRepo.GetByNumber(ctx, fileID, versionNumber)
	if err != nil {
		return err
	}
	if actor.Role != models.RoleAdmin && version.CreatedBy != actor.UserID {
		return fmt.Errorf("only the version creator or an admin may delete it: %w", domain.ErrForbidden)
	}

	err = s.txManager.ExecTx(ctx, func(ctx context.Context) error {
		if err := s.fileRepo.LockForUpdate(ctx, fileID); err != nil {
			return err
		}
		return s.versionRepo.DeleteByNumber(ctx, fileID, versionNumber)
	})
	if err != nil {
		return err
	}

	if err := s.blobs.Remove(version.FilePath); err != nil {
		s.logger.Warn("failed to remove archived content", "path", file.Path, "version", versionNumber, "error", err)
	}

	s.logger.Info("version deleted",
		"file_id", fileID,
		"path", file.Path,
		"version", versionNumber,
		"deleted_by", actor.UserID,
	)

	return nil
}

// authorizeRead loads a file and checks READ access plus review visibility.
func (s *fileService) authorizeRead(ctx context.Context, actor services.Actor, fileID string) (*models.File, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.resolver.HasAccess(ctx, actor.UserID, actor.Role, models.ResourceFile, fileID, models.PermissionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("read access to %s required: %w", file.Path, domain.ErrForbidden)
	}

	if file.ApprovalStatus != models.StatusApproved &&
		actor.Role != models.RoleAdmin &&
		file.CreatedBy != actor.UserID {
		return nil, fmt.Errorf("file %s is not approved: %w", file.Path, domain.ErrForbidden)
	}
	return file, nil
}

func (s *fileService) validateUploadRequest(req *services.UploadRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxFileNameLength)),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.Content == nil {
		return fmt.Errorf("%w: upload content is required", domain.ErrValidation)
	}
	return validateSegment(req.Name)
}

// archiveKey names the archived blob for one version of a file, e.g.
// "reports/q2.pdf" version 3 becomes "_archive/reports/q2_v3.pdf".
func archiveKey(filePath string, versionNumber int) string {
	dir, name := SplitPath(filePath)
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	archived := fmt.Sprintf("%s_v%d%s", base, versionNumber, ext)
	return archivePrefix + "/" + JoinPath(dir, archived)
}
