package service

import (
	"context"
	"errors"
	"testing"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/services"
)

func TestGrantCascadeFanOut(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	guest := e.user(t, "guest", models.RoleEditor)
	ctx := context.Background()

	top := e.mkdir(t, owner, "tree")
	mid := e.mkdir(t, owner, "tree/mid")
	leaf := e.mkdir(t, owner, "tree/mid/leaf")
	aside := e.mkdir(t, owner, "elsewhere")
	topFile := e.upload(t, owner, "tree", "plan.txt", "v1")
	leafFile := e.upload(t, owner, "tree/mid/leaf", "notes.txt", "v1")
	asideFile := e.upload(t, owner, "elsewhere", "other.txt", "v1")

	e.grant(t, owner, &services.GrantRequest{
		UserID:            guest.UserID,
		ResourceType:      models.ResourceDirectory,
		ResourceID:        top.ID,
		PermissionType:    models.PermissionWrite,
		CascadeToChildren: true,
	})

	// Every directory in the subtree got its own row.
	for _, dir := range []*models.Directory{top, mid, leaf} {
		perm, err := e.store.Permissions.GetForDirectory(ctx, guest.UserID, dir.ID)
		if err != nil {
			t.Fatalf("no grant on %s: %v", dir.Path, err)
		}
		if perm.PermissionType != models.PermissionWrite || !perm.CascadeToChildren {
			t.Errorf("grant on %s = %+v", dir.Path, perm)
		}
	}

	// Files in the subtree are materialized too, without the cascade flag.
	for _, f := range []*services.UploadResult{topFile, leafFile} {
		perm, err := e.store.Permissions.GetForFile(ctx, guest.UserID, f.File.ID)
		if err != nil {
			t.Fatalf("no grant on %s: %v", f.File.Path, err)
		}
		if perm.PermissionType != models.PermissionWrite || perm.CascadeToChildren {
			t.Errorf("grant on %s = %+v", f.File.Path, perm)
		}
	}

	// Unrelated directories and files are untouched.
	if _, err := e.store.Permissions.GetForDirectory(ctx, guest.UserID, aside.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cascade leaked outside the subtree: %v", err)
	}
	if _, err := e.store.Permissions.GetForFile(ctx, guest.UserID, asideFile.File.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("cascade leaked onto an outside file: %v", err)
	}

	// Granting again converges instead of duplicating.
	e.grant(t, owner, &services.GrantRequest{
		UserID:            guest.UserID,
		ResourceType:      models.ResourceDirectory,
		ResourceID:        top.ID,
		PermissionType:    models.PermissionRead,
		CascadeToChildren: true,
	})
	perms, _ := e.store.Permissions.ListForResource(ctx, models.ResourceDirectory, leaf.ID)
	if len(perms) != 1 {
		t.Fatalf("grant count on leaf = %d, want 1", len(perms))
	}
	if perms[0].PermissionType != models.PermissionRead {
		t.Errorf("re-grant did not update level: %s", perms[0].PermissionType)
	}
}

func TestRevokeCascade(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	guest := e.user(t, "guest", models.RoleEditor)
	ctx := context.Background()

	top := e.mkdir(t, owner, "tree")
	leaf := e.mkdir(t, owner, "tree/leaf")
	leafFile := e.upload(t, owner, "tree/leaf", "notes.txt", "v1")

	e.grant(t, owner, &services.GrantRequest{
		UserID:            guest.UserID,
		ResourceType:      models.ResourceDirectory,
		ResourceID:        top.ID,
		PermissionType:    models.PermissionWrite,
		CascadeToChildren: true,
	})

	err := e.permissions.Revoke(ctx, owner, &services.RevokeRequest{
		UserID:       guest.UserID,
		ResourceType: models.ResourceDirectory,
		ResourceID:   top.ID,
		Cascade:      true,
	})
	if err != nil {
		t.Fatalf("revoke: %v", err)
	}

	for _, dir := range []*models.Directory{top, leaf} {
		if _, err := e.store.Permissions.GetForDirectory(ctx, guest.UserID, dir.ID); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("grant on %s survived revoke: %v", dir.Path, err)
		}
	}
	if _, err := e.store.Permissions.GetForFile(ctx, guest.UserID, leafFile.File.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("file grant survived revoke: %v", err)
	}

	// Revoking an absent grant is a no-op, not an error.
	err = e.permissions.Revoke(ctx, owner, &services.RevokeRequest{
		UserID:       guest.UserID,
		ResourceType: models.ResourceDirectory,
		ResourceID:   top.ID,
	})
	if err != nil {
		t.Errorf("revoke absent grant: %v", err)
	}
}

func TestCheckEffectiveAccess(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	guest := e.user(t, "guest", models.RoleEditor)
	ctx := context.Background()

	dir := e.mkdir(t, owner, "docs")

	// Ownership resolves without any grant rows.
	allowed, err := e.permissions.Check(ctx, owner, models.ResourceDirectory, dir.ID, models.PermissionWrite)
	if err != nil || !allowed {
		t.Errorf("owner write check = %v, %v", allowed, err)
	}

	allowed, err = e.permissions.Check(ctx, guest, models.ResourceDirectory, dir.ID, models.PermissionRead)
	if err != nil || allowed {
		t.Errorf("guest read check before grant = %v, %v", allowed, err)
	}

	// A READ grant answers READ but not WRITE.
	e.grant(t, owner, &services.GrantRequest{
		UserID:         guest.UserID,
		ResourceType:   models.ResourceDirectory,
		ResourceID:     dir.ID,
		PermissionType: models.PermissionRead,
	})
	if allowed, _ := e.permissions.Check(ctx, guest, models.ResourceDirectory, dir.ID, models.PermissionRead); !allowed {
		t.Error("guest read check after grant = false")
	}
	if allowed, _ := e.permissions.Check(ctx, guest, models.ResourceDirectory, dir.ID, models.PermissionWrite); allowed {
		t.Error("READ grant satisfied a WRITE check")
	}

	if _, err := e.permissions.Check(ctx, guest, models.ResourceDirectory, dir.ID, models.PermissionType("OWN")); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("bogus level: got %v, want validation error", err)
	}
}

func TestGrantAuthority(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	stranger := e.user(t, "stranger", models.RoleEditor)
	guest := e.user(t, "guest", models.RoleEditor)
	viewer := e.user(t, "viewer", models.RoleViewer)
	ctx := context.Background()

	dir := e.mkdir(t, owner, "private")

	// Without WRITE on the resource you cannot hand out grants.
	_, err := e.permissions.Grant(ctx, stranger, &services.GrantRequest{
		UserID:         guest.UserID,
		ResourceType:   models.ResourceDirectory,
		ResourceID:     dir.ID,
		PermissionType: models.PermissionRead,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger grant: got %v, want forbidden", err)
	}

	// Viewers are blocked at the role gate.
	_, err = e.permissions.Grant(ctx, viewer, &services.GrantRequest{
		UserID:         guest.UserID,
		ResourceType:   models.ResourceDirectory,
		ResourceID:     dir.ID,
		PermissionType: models.PermissionRead,
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("viewer grant: got %v, want forbidden", err)
	}

	// Unknown grantee.
	_, err = e.permissions.Grant(ctx, owner, &services.GrantRequest{
		UserID:         "missing",
		ResourceType:   models.ResourceDirectory,
		ResourceID:     dir.ID,
		PermissionType: models.PermissionRead,
	})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("unknown grantee: got %v, want not found", err)
	}

	// Cascade on a file grant is invalid.
	file := e.upload(t, owner, "private", "doc.txt", "x")
	_, err = e.permissions.Grant(ctx, owner, &services.GrantRequest{
		UserID:            guest.UserID,
		ResourceType:      models.ResourceFile,
		ResourceID:        file.File.ID,
		PermissionType:    models.PermissionRead,
		CascadeToChildren: true,
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("file cascade: got %v, want validation error", err)
	}
}
