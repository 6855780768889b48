package services

import (
	"context"

	"docuvault/internal/domain/models"
)

// PermissionService handles grants and revocations
type PermissionService interface {
	// Grant gives a user access to a resource. Granting twice for the same
	// (user, resource) pair updates the existing grant.
	Grant(ctx context.Context, actor Actor, req *GrantRequest) (*models.Permission, error)

	// Revoke removes a user's grant on a resource
	Revoke(ctx context.Context, actor Actor, req *RevokeRequest) error

	// ListForResource returns all grants on a resource
	ListForResource(ctx context.Context, actor Actor, resourceType models.ResourceType, resourceID string) ([]models.Permission, error)

	// Check reports whether the actor holds the required access level on a
	// resource, resolving ownership, direct grants and ancestor cascades
	Check(ctx context.Context, actor Actor, resourceType models.ResourceType, resourceID string, required models.PermissionType) (bool, error)
}

// GrantRequest represents a permission grant
type GrantRequest struct {
	UserID            string                `json:"user_id"`
	ResourceType      models.ResourceType   `json:"resource_type"`
	ResourceID        string                `json:"resource_id"`
	PermissionType    models.PermissionType `json:"permission_type"`
	CascadeToChildren bool                  `json:"cascade_to_children"`
}

// RevokeRequest represents a permission revocation
type RevokeRequest struct {
	UserID       string              `json:"user_id"`
	ResourceType models.ResourceType `json:"resource_type"`
	ResourceID   string              `json:"resource_id"`
	Cascade      bool                `json:"cascade"`
}
