package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"docuvault/internal/access"
	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/repositories"
	"docuvault/internal/domain/services"
)

type permissionService struct {
	permissionRepo repositories.PermissionRepository
	directoryRepo  repositories.DirectoryRepository
	fileRepo       repositories.FileRepository
	userRepo       repositories.UserRepository
	txManager      repositories.TransactionManager
	resolver       *access.Resolver
	policy         *access.Registry
	logger         *slog.Logger
}

// NewPermissionService creates a new permission service
func NewPermissionService(
	permissionRepo repositories.PermissionRepository,
	directoryRepo repositories.DirectoryRepository,
	fileRepo repositories.FileRepository,
	userRepo repositories.UserRepository,
	txManager repositories.TransactionManager,
	resolver *access.Resolver,
	policy *access.Registry,
	logger *slog.Logger,
) services.PermissionService {
	return &permissionService{
		permissionRepo: permissionRepo,
		directoryRepo:  directoryRepo,
		fileRepo:       fileRepo,
		userRepo:       userRepo,
		txManager:      txManager,
		resolver:       resolver,
		policy:         policy,
		logger:         logger,
	}
}

// Grant gives a user access to a resource. A cascading directory grant is
// fanned out to every descendant directory and file in the same transaction,
// so a later permission check needs only one row. Granting twice for the
// same (user, resource) pair updates the existing grant in place.
func (s *permissionService) Grant(ctx context.Context, actor services.Actor, req *services.GrantRequest) (*models.Permission, error) {
	if err := s.policy.Require(actor.Role, access.ActionGrantPermission); err != nil {
		return nil, err
	}
	if err := s.validateGrantRequest(req); err != nil {
		return nil, err
	}

	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		return nil, fmt.Errorf("grantee not found: %w", err)
	}

	if err := s.authorizeManage(ctx, actor, req.ResourceType, req.ResourceID); err != nil {
		return nil, err
	}

	perm := &models.Permission{
		UserID:         req.UserID,
		ResourceType:   req.ResourceType,
		PermissionType: req.PermissionType,
		GrantedBy:      actor.UserID,
		CreatedAt:      time.Now(),
	}

	switch req.ResourceType {
	case models.ResourceFile:
		perm.FileID = &req.ResourceID
		if err := s.permissionRepo.Upsert(ctx, perm); err != nil {
			return nil, err
		}

	case models.ResourceDirectory:
		perm.DirectoryID = &req.ResourceID
		perm.CascadeToChildren = req.CascadeToChildren

		err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
			if err := s.permissionRepo.Upsert(ctx, perm); err != nil {
				return err
			}
			if !req.CascadeToChildren {
				return nil
			}
			if err := s.grantOnFiles(ctx, actor, req, req.ResourceID); err != nil {
				return err
			}
			return s.walkDescendants(ctx, req.ResourceID, func(ctx context.Context, child *models.Directory) error {
				copied := &models.Permission{
					UserID:            req.UserID,
					ResourceType:      models.ResourceDirectory,
					DirectoryID:       &child.ID,
					PermissionType:    req.PermissionType,
					GrantedBy:         actor.UserID,
					CascadeToChildren: true,
					CreatedAt:         time.Now(),
				}
				if err := s.permissionRepo.Upsert(ctx, copied); err != nil {
					return err
				}
				return s.grantOnFiles(ctx, actor, req, child.ID)
			})
		})
		if err != nil {
			return nil, err
		}
	}

	s.logger.Info("permission granted",
		"user_id", req.UserID,
		"resource_type", req.ResourceType,
		"resource_id", req.ResourceID,
		"permission", req.PermissionType,
		"cascade", req.CascadeToChildren,
		"granted_by", actor.UserID,
	)

	return perm, nil
}

// Revoke removes a user's grant on a resource. Revoking with cascade on a
// directory also strips the materialized grants from every descendant.
// Revoking a grant that does not exist is a no-op.
func (s *permissionService) Revoke(ctx context.Context, actor services.Actor, req *services.RevokeRequest) error {
	if err := s.policy.Require(actor.Role, access.ActionGrantPermission); err != nil {
		return err
	}
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.ResourceType, validation.Required, validation.In(models.ResourceFile, models.ResourceDirectory)),
		validation.Field(&req.ResourceID, validation.Required),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if err := s.authorizeManage(ctx, actor, req.ResourceType, req.ResourceID); err != nil {
		return err
	}

	switch req.ResourceType {
	case models.ResourceFile:
		if err := s.permissionRepo.DeleteForFile(ctx, req.UserID, req.ResourceID); err != nil {
			return err
		}

	case models.ResourceDirectory:
		err := s.txManager.ExecTx(ctx, func(ctx context.Context) error {
			if err := s.permissionRepo.DeleteForDirectory(ctx, req.UserID, req.ResourceID); err != nil {
				return err
			}
			if !req.Cascade {
				return nil
			}
			if err := s.revokeOnFiles(ctx, req.UserID, req.ResourceID); err != nil {
				return err
			}
			return s.walkDescendants(ctx, req.ResourceID, func(ctx context.Context, child *models.Directory) error {
				if err := s.permissionRepo.DeleteForDirectory(ctx, req.UserID, child.ID); err != nil {
					return err
				}
				return s.revokeOnFiles(ctx, req.UserID, child.ID)
			})
		})
		if err != nil {
			return err
		}
	}

	s.logger.Info("permission revoked",
		"user_id", req.UserID,
		"resource_type", req.ResourceType,
		"resource_id", req.ResourceID,
		"cascade", req.Cascade,
		"revoked_by", actor.UserID,
	)

	return nil
}

// ListForResource returns all grants on a resource
func (s *permissionService) ListForResource(ctx context.Context, actor services.Actor, resourceType models.ResourceType, resourceID string) ([]models.Permission, error) {
	if err := s.authorizeManage(ctx, actor, resourceType, resourceID); err != nil {
		return nil, err
	}
	return s.permissionRepo.ListForResource(ctx, resourceType, resourceID)
}

// Check resolves the actor's effective access to a resource. Unlike the
// other operations it never fails on denial; the answer is the payload.
func (s *permissionService) Check(ctx context.Context, actor services.Actor, resourceType models.ResourceType, resourceID string, required models.PermissionType) (bool, error) {
	if required != models.PermissionRead && required != models.PermissionWrite {
		return false, fmt.Errorf("%w: unknown permission type %q", domain.ErrValidation, required)
	}
	return s.resolver.HasAccess(ctx, actor.UserID, actor.Role, resourceType, resourceID, required)
}

// authorizeManage checks that the actor may manage grants on the resource:
// admins, the resource creator, or anyone holding WRITE on it.
func (s *permissionService) authorizeManage(ctx context.Context, actor services.Actor, resourceType models.ResourceType, resourceID string) error {
	allowed, err := s.resolver.HasAccess(ctx, actor.UserID, actor.Role, resourceType, resourceID, models.PermissionWrite)
	if err != nil {
		return err
	}
	if !allowed {
		return fmt.Errorf("write access required to manage grants: %w", domain.ErrForbidden)
	}
	return nil
}

// grantOnFiles materializes a cascading directory grant onto the files held
// directly in one directory. File grants never cascade further.
func (s *permissionService) grantOnFiles(ctx context.Context, actor services.Actor, req *services.GrantRequest, dirID string) error {
	files, err := s.fileRepo.ListByDirectory(ctx, &dirID)
	if err != nil {
		return err
	}
	for i := range files {
		copied := &models.Permission{
			UserID:         req.UserID,
			ResourceType:   models.ResourceFile,
			FileID:         &files[i].ID,
			PermissionType: req.PermissionType,
			GrantedBy:      actor.UserID,
			CreatedAt:      time.Now(),
		}
		if err := s.permissionRepo.Upsert(ctx, copied); err != nil {
			return err
		}
	}
	return nil
}

// revokeOnFiles strips a user's grants from the files held directly in one
// directory.
func (s *permissionService) revokeOnFiles(ctx context.Context, userID, dirID string) error {
	files, err := s.fileRepo.ListByDirectory(ctx, &dirID)
	if err != nil {
		return err
	}
	for i := range files {
		if err := s.permissionRepo.DeleteForFile(ctx, userID, files[i].ID); err != nil {
			return err
		}
	}
	return nil
}

// walkDescendants visits every directory below rootID, depth first.
func (s *permissionService) walkDescendants(ctx context.Context, rootID string, visit func(context.Context, *models.Directory) error) error {
	children, err := s.directoryRepo.ListChildren(ctx, &rootID)
	if err != nil {
		return err
	}
	for i := range children {
		child := &children[i]
		if err := visit(ctx, child); err != nil {
			return err
		}
		if err := s.walkDescendants(ctx, child.ID, visit); err != nil {
			return err
		}
	}
	return nil
}

func (s *permissionService) validateGrantRequest(req *services.GrantRequest) error {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.ResourceType, validation.Required, validation.In(models.ResourceFile, models.ResourceDirectory)),
		validation.Field(&req.ResourceID, validation.Required),
		validation.Field(&req.PermissionType, validation.Required, validation.In(models.PermissionRead, models.PermissionWrite)),
	); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if req.ResourceType == models.ResourceFile && req.CascadeToChildren {
		return fmt.Errorf("%w: cascade applies to directories only", domain.ErrValidation)
	}
	return nil
}
