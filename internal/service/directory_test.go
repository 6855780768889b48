package service

import (
	"context"
	"errors"
	"testing"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/services"
)

func TestCreateDirectory(t *testing.T) {
	e := newEnv(t)
	editor := e.user(t, "editor", models.RoleEditor)
	ctx := context.Background()

	dir := e.mkdir(t, editor, "reports")
	if dir.Path != "reports" || dir.Name != "reports" || dir.ParentID != nil {
		t.Errorf("unexpected directory %+v", dir)
	}
	if dir.CreatedBy != editor.UserID {
		t.Errorf("CreatedBy = %s, want %s", dir.CreatedBy, editor.UserID)
	}

	child := e.mkdir(t, editor, "reports/2026")
	if child.ParentID == nil || *child.ParentID != dir.ID {
		t.Errorf("child not linked to parent")
	}

	// Duplicate path is a conflict carrying the existing ID.
	_, err := e.directories.CreateDirectory(ctx, editor, &services.CreateDirectoryRequest{Path: "reports"})
	var conflict *domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("duplicate create: got %v, want conflict", err)
	}
	if conflict.ResourceID != dir.ID {
		t.Errorf("conflict.ResourceID = %s, want %s", conflict.ResourceID, dir.ID)
	}

	// Missing parent.
	_, err = e.directories.CreateDirectory(ctx, editor, &services.CreateDirectoryRequest{Path: "nope/sub"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing parent: got %v, want not found", err)
	}
}

func TestCreateDirectoryRequiresParentWrite(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	other := e.user(t, "other", models.RoleEditor)
	viewer := e.user(t, "viewer", models.RoleViewer)
	admin := e.user(t, "admin", models.RoleAdmin)
	ctx := context.Background()

	e.mkdir(t, owner, "team")

	// A stranger cannot create under someone else's directory.
	_, err := e.directories.CreateDirectory(ctx, other, &services.CreateDirectoryRequest{Path: "team/sub"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger create: got %v, want forbidden", err)
	}

	// Viewers are blocked by role before any resource check.
	_, err = e.directories.CreateDirectory(ctx, viewer, &services.CreateDirectoryRequest{Path: "anything"})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("viewer create: got %v, want forbidden", err)
	}

	// Admins bypass resource checks.
	if _, err := e.directories.CreateDirectory(ctx, admin, &services.CreateDirectoryRequest{Path: "team/by-admin"}); err != nil {
		t.Errorf("admin create: %v", err)
	}

	// A WRITE grant opens the parent up.
	team, _ := e.store.Directories.GetByPath(ctx, "team")
	e.grant(t, owner, &services.GrantRequest{
		UserID:         other.UserID,
		ResourceType:   models.ResourceDirectory,
		ResourceID:     team.ID,
		PermissionType: models.PermissionWrite,
	})
	if _, err := e.directories.CreateDirectory(ctx, other, &services.CreateDirectoryRequest{Path: "team/sub"}); err != nil {
		t.Errorf("create after grant: %v", err)
	}
}

func TestCreateDirectoryCopiesCascadingGrants(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	admin := e.user(t, "admin", models.RoleAdmin)
	guest := e.user(t, "guest", models.RoleEditor)
	ctx := context.Background()

	parent := e.mkdir(t, owner, "shared")
	e.grant(t, owner, &services.GrantRequest{
		UserID:            guest.UserID,
		ResourceType:      models.ResourceDirectory,
		ResourceID:        parent.ID,
		PermissionType:    models.PermissionRead,
		CascadeToChildren: true,
	})

	child := e.mkdir(t, admin, "shared/sub")

	perm, err := e.store.Permissions.GetForDirectory(ctx, guest.UserID, child.ID)
	if err != nil {
		t.Fatalf("grant was not copied to the new child: %v", err)
	}
	if perm.PermissionType != models.PermissionRead || !perm.CascadeToChildren {
		t.Errorf("copied grant = %+v", perm)
	}
	// The snapshot is attributed to whoever created the directory.
	if perm.GrantedBy != admin.UserID {
		t.Errorf("copied grant attributed to %s, want creator", perm.GrantedBy)
	}

	// Non-cascading grants stay on the parent only.
	solo := e.user(t, "solo", models.RoleEditor)
	e.grant(t, owner, &services.GrantRequest{
		UserID:         solo.UserID,
		ResourceType:   models.ResourceDirectory,
		ResourceID:     parent.ID,
		PermissionType: models.PermissionRead,
	})
	deeper := e.mkdir(t, owner, "shared/deeper")
	if _, err := e.store.Permissions.GetForDirectory(ctx, solo.UserID, deeper.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("non-cascading grant leaked to child: %v", err)
	}
}

func TestListDirectoryVisibility(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	admin := e.user(t, "admin", models.RoleAdmin)
	guest := e.user(t, "guest", models.RoleEditor)
	ctx := context.Background()

	dir := e.mkdir(t, owner, "docs")
	e.upload(t, owner, "docs", "draft.txt", "draft")

	e.grant(t, owner, &services.GrantRequest{
		UserID:         guest.UserID,
		ResourceType:   models.ResourceDirectory,
		ResourceID:     dir.ID,
		PermissionType: models.PermissionRead,
	})

	// The creator sees their own pending file.
	contents, err := e.directories.ListDirectory(ctx, owner, "docs")
	if err != nil {
		t.Fatalf("owner list: %v", err)
	}
	if len(contents.Files) != 1 {
		t.Errorf("owner sees %d files, want 1", len(contents.Files))
	}

	// A reader does not see pending files.
	contents, err = e.directories.ListDirectory(ctx, guest, "docs")
	if err != nil {
		t.Fatalf("guest list: %v", err)
	}
	if len(contents.Files) != 0 {
		t.Errorf("guest sees %d pending files, want 0", len(contents.Files))
	}

	// After approval the reader sees it.
	files, _ := e.store.Files.ListPending(ctx)
	if _, err := e.approvals.Approve(ctx, admin, files[0].ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	contents, err = e.directories.ListDirectory(ctx, guest, "docs")
	if err != nil {
		t.Fatalf("guest list after approval: %v", err)
	}
	if len(contents.Files) != 1 {
		t.Errorf("guest sees %d files after approval, want 1", len(contents.Files))
	}
}

func TestDeleteDirectory(t *testing.T) {
	e := newEnv(t)
	editor := e.user(t, "editor", models.RoleEditor)
	admin := e.user(t, "admin", models.RoleAdmin)
	ctx := context.Background()

	e.mkdir(t, editor, "old")
	e.mkdir(t, editor, "old/deep")
	e.upload(t, editor, "old", "keep.txt", "content")

	// Only admins may delete directories, even their own.
	if err := e.directories.DeleteDirectory(ctx, editor, "old"); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("editor delete: got %v, want forbidden", err)
	}

	if err := e.directories.DeleteDirectory(ctx, admin, "old"); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	if _, err := e.store.Directories.GetByPath(ctx, "old/deep"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("subtree survived delete: %v", err)
	}
	if exists, _ := e.blobs.Exists("old/keep.txt"); exists {
		t.Errorf("blob survived delete")
	}

	// The root itself cannot be deleted.
	if err := e.directories.DeleteDirectory(ctx, admin, "/"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("root delete: got %v, want validation error", err)
	}
}
