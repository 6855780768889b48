package models

import "time"

// ResourceType identifies what a permission row is attached to.
type ResourceType string

const (
	ResourceFile      ResourceType = "FILE"
	ResourceDirectory ResourceType = "DIRECTORY"
)

// PermissionType is the access level of a grant. WRITE implies READ in
// access checks.
type PermissionType string

const (
	PermissionRead  PermissionType = "READ"
	PermissionWrite PermissionType = "WRITE"
)

// Satisfies reports whether a granted level satisfies a required level.
func (p PermissionType) Satisfies(required PermissionType) bool {
	if p == PermissionWrite {
		return true
	}
	return p == PermissionRead && required == PermissionRead
}

// Permission is a per-(user, resource) grant. Exactly one of FileID and
// DirectoryID is set, matching ResourceType. At most one active row exists
// per (user, resource type, resource id); grants upsert on that key.
// CascadeToChildren is meaningful for directories only; files have no
// children so it is always false for file grants.
type Permission struct {
	ID                string         `json:"id"`
	UserID            string         `json:"user_id"`
	ResourceType      ResourceType   `json:"resource_type"`
	FileID            *string        `json:"file_id"`
	DirectoryID       *string        `json:"directory_id"`
	PermissionType    PermissionType `json:"permission_type"`
	GrantedBy         string         `json:"granted_by"`
	CascadeToChildren bool           `json:"cascade_to_children"`
	CreatedAt         time.Time      `json:"created_at"`
}
