package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/services"
)

func TestUploadFirstVersion(t *testing.T) {
	e := newEnv(t)
	editor := e.user(t, "editor", models.RoleEditor)
	ctx := context.Background()

	e.mkdir(t, editor, "docs")
	result := e.upload(t, editor, "docs", "report.txt", "v1 content")

	// History starts empty; versions only record superseded content.
	if result.Version != nil {
		t.Errorf("first upload returned version %+v, want none", result.Version)
	}
	versions, err := e.store.Versions.ListByFile(ctx, result.File.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 0 {
		t.Errorf("first upload wrote %d version rows, want 0", len(versions))
	}
	if result.File.ApprovalStatus != models.StatusPending {
		t.Errorf("editor upload status = %s, want PENDING", result.File.ApprovalStatus)
	}
	if result.File.Path != "docs/report.txt" {
		t.Errorf("path = %s", result.File.Path)
	}
	if got := readBlob(t, e.blobs, "docs/report.txt"); got != "v1 content" {
		t.Errorf("blob = %q", got)
	}
}

func TestAdminUploadSkipsReview(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin", models.RoleAdmin)
	ctx := context.Background()

	e.mkdir(t, admin, "docs")
	result := e.upload(t, admin, "docs", "policy.txt", "content")

	if result.File.ApprovalStatus != models.StatusApproved {
		t.Errorf("admin upload status = %s, want APPROVED", result.File.ApprovalStatus)
	}
	if result.File.ApprovedBy == nil || *result.File.ApprovedBy != admin.UserID {
		t.Errorf("ApprovedBy = %v, want the admin", result.File.ApprovedBy)
	}

	// The auto-approval is recorded like any reviewer decision.
	event, err := e.store.Approvals.GetByFile(ctx, result.File.ID)
	if err != nil {
		t.Fatalf("no approval record for admin upload: %v", err)
	}
	if event.Decision != models.DecisionApproved || event.DecidedBy != admin.UserID {
		t.Errorf("approval record = %+v, want APPROVED by the admin", event)
	}
}

func TestUploadSecondVersionArchivesFirst(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin", models.RoleAdmin)
	editor := e.user(t, "editor", models.RoleEditor)
	ctx := context.Background()

	e.mkdir(t, editor, "docs")
	first := e.upload(t, editor, "docs", "report.txt", "v1 content")

	// Approve, then supersede: new content goes back to PENDING.
	if _, err := e.approvals.Approve(ctx, admin, first.File.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	second := e.upload(t, editor, "docs", "report.txt", "v2 content")
	if second.Version == nil || second.Version.VersionNumber != 1 {
		t.Fatalf("second upload archived version = %+v, want number 1", second.Version)
	}
	if second.Version.FilePath != "_archive/docs/report_v1.txt" {
		t.Errorf("version FilePath = %s, want the archive key", second.Version.FilePath)
	}
	if second.File.ApprovalStatus != models.StatusPending {
		t.Errorf("status after re-upload = %s, want PENDING", second.File.ApprovalStatus)
	}
	if second.File.ID != first.File.ID {
		t.Errorf("re-upload created a new file row")
	}

	if got := readBlob(t, e.blobs, "docs/report.txt"); got != "v2 content" {
		t.Errorf("live blob = %q", got)
	}
	if got := readBlob(t, e.blobs, "_archive/docs/report_v1.txt"); got != "v1 content" {
		t.Errorf("archived blob = %q", got)
	}

	versions, err := e.files.ListVersions(ctx, editor, first.File.ID)
	if err != nil {
		t.Fatalf("list versions: %v", err)
	}
	if len(versions) != 1 || versions[0].VersionNumber != 1 {
		t.Errorf("versions = %+v", versions)
	}
}

func TestUploadCopiesCascadingGrants(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	guest := e.user(t, "guest", models.RoleEditor)
	solo := e.user(t, "solo", models.RoleEditor)
	ctx := context.Background()

	dir := e.mkdir(t, owner, "shared")
	e.grant(t, owner, &services.GrantRequest{
		UserID:            guest.UserID,
		ResourceType:      models.ResourceDirectory,
		ResourceID:        dir.ID,
		PermissionType:    models.PermissionRead,
		CascadeToChildren: true,
	})
	e.grant(t, owner, &services.GrantRequest{
		UserID:         solo.UserID,
		ResourceType:   models.ResourceDirectory,
		ResourceID:     dir.ID,
		PermissionType: models.PermissionRead,
	})

	result := e.upload(t, owner, "shared", "report.txt", "v1")

	perm, err := e.store.Permissions.GetForFile(ctx, guest.UserID, result.File.ID)
	if err != nil {
		t.Fatalf("cascading grant was not copied onto the file: %v", err)
	}
	if perm.PermissionType != models.PermissionRead || perm.CascadeToChildren {
		t.Errorf("copied grant = %+v", perm)
	}

	// Non-cascading grants stay on the directory.
	if _, err := e.store.Permissions.GetForFile(ctx, solo.UserID, result.File.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("non-cascading grant leaked onto the file: %v", err)
	}
}

func TestUploadToForeignFileRequiresWrite(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	other := e.user(t, "other", models.RoleEditor)
	ctx := context.Background()

	e.mkdir(t, owner, "docs")
	first := e.upload(t, owner, "docs", "report.txt", "v1")

	_, err := e.files.Upload(ctx, other, &services.UploadRequest{
		DirectoryPath: "docs",
		Name:          "report.txt",
		Content:       strings.NewReader("hijack"),
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("foreign re-upload: got %v, want forbidden", err)
	}

	// The live content is untouched and nothing was archived.
	if got := readBlob(t, e.blobs, "docs/report.txt"); got != "v1" {
		t.Errorf("blob = %q", got)
	}
	versions, _ := e.store.Versions.ListByFile(ctx, first.File.ID)
	if len(versions) != 0 {
		t.Errorf("version count = %d, want 0", len(versions))
	}

	// With a WRITE grant on the file it works.
	e.grant(t, owner, &services.GrantRequest{
		UserID:         other.UserID,
		ResourceType:   models.ResourceFile,
		ResourceID:     first.File.ID,
		PermissionType: models.PermissionWrite,
	})
	result, err := e.files.Upload(ctx, other, &services.UploadRequest{
		DirectoryPath: "docs",
		Name:          "report.txt",
		Content:       strings.NewReader("v2"),
	})
	if err != nil {
		t.Fatalf("re-upload after grant: %v", err)
	}
	if result.Version == nil || result.Version.VersionNumber != 1 {
		t.Errorf("archived version = %+v, want number 1", result.Version)
	}
}

func TestRestoreVersion(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	other := e.user(t, "other", models.RoleEditor)
	ctx := context.Background()

	e.mkdir(t, owner, "docs")
	first := e.upload(t, owner, "docs", "report.txt", "v1")
	e.upload(t, owner, "docs", "report.txt", "v2")

	// Grant WRITE so a collaborator can restore.
	e.grant(t, owner, &services.GrantRequest{
		UserID:         other.UserID,
		ResourceType:   models.ResourceFile,
		ResourceID:     first.File.ID,
		PermissionType: models.PermissionWrite,
	})

	snapshot, err := e.files.RestoreVersion(ctx, other, first.File.ID, 1)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	// The superseded v2 content is archived as version 2, attributed to
	// the user who performed the restore.
	if snapshot.VersionNumber != 2 {
		t.Errorf("archived version = %d, want 2", snapshot.VersionNumber)
	}
	if snapshot.CreatedBy != other.UserID {
		t.Errorf("snapshot CreatedBy = %s, want restorer %s", snapshot.CreatedBy, other.UserID)
	}

	if got := readBlob(t, e.blobs, "docs/report.txt"); got != "v1" {
		t.Errorf("live blob after restore = %q, want v1 content", got)
	}
	if got := readBlob(t, e.blobs, "_archive/docs/report_v2.txt"); got != "v2" {
		t.Errorf("archived v2 = %q", got)
	}

	// File ownership is unaffected by who restored.
	file, err := e.store.Files.GetByID(ctx, first.File.ID)
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if file.CreatedBy != owner.UserID {
		t.Errorf("file CreatedBy = %s, want %s", file.CreatedBy, owner.UserID)
	}
	if file.ApprovalStatus != models.StatusPending {
		t.Errorf("status after editor restore = %s, want PENDING", file.ApprovalStatus)
	}
}

func TestAdminRestoreRecordsApproval(t *testing.T) {
	e := newEnv(t)
	admin := e.user(t, "admin", models.RoleAdmin)
	ctx := context.Background()

	e.mkdir(t, admin, "docs")
	first := e.upload(t, admin, "docs", "report.txt", "v1")
	e.upload(t, admin, "docs", "report.txt", "v2")

	if _, err := e.files.RestoreVersion(ctx, admin, first.File.ID, 1); err != nil {
		t.Fatalf("restore: %v", err)
	}

	file, err := e.store.Files.GetByID(ctx, first.File.ID)
	if err != nil {
		t.Fatalf("get file: %v", err)
	}
	if file.ApprovalStatus != models.StatusApproved {
		t.Errorf("status after admin restore = %s, want APPROVED", file.ApprovalStatus)
	}
	event, err := e.store.Approvals.GetByFile(ctx, first.File.ID)
	if err != nil {
		t.Fatalf("no approval record after admin restore: %v", err)
	}
	if event.Decision != models.DecisionApproved || event.DecidedBy != admin.UserID {
		t.Errorf("approval record = %+v, want APPROVED by the admin", event)
	}
}

func TestDeleteVersion(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	admin := e.user(t, "admin", models.RoleAdmin)
	stranger := e.user(t, "stranger", models.RoleEditor)
	ctx := context.Background()

	e.mkdir(t, owner, "docs")
	first := e.upload(t, owner, "docs", "report.txt", "v1")
	e.upload(t, owner, "docs", "report.txt", "v2")
	e.upload(t, owner, "docs", "report.txt", "v3")

	// Only the creator or an admin may delete.
	if err := e.files.DeleteVersion(ctx, stranger, first.File.ID, 1); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("stranger delete: got %v, want forbidden", err)
	}

	if err := e.files.DeleteVersion(ctx, owner, first.File.ID, 1); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := e.files.DeleteVersion(ctx, admin, first.File.ID, 2); err != nil {
		t.Fatalf("admin delete: %v", err)
	}

	versions, _ := e.store.Versions.ListByFile(ctx, first.File.ID)
	if len(versions) != 0 {
		t.Errorf("remaining versions = %+v", versions)
	}
	// The live content is untouched by version deletion.
	if got := readBlob(t, e.blobs, "docs/report.txt"); got != "v3" {
		t.Errorf("live blob = %q", got)
	}
}

func TestDownloadVisibility(t *testing.T) {
	e := newEnv(t)
	owner := e.user(t, "owner", models.RoleEditor)
	admin := e.user(t, "admin", models.RoleAdmin)
	guest := e.user(t, "guest", models.RoleEditor)
	ctx := context.Background()

	dir := e.mkdir(t, owner, "docs")
	result := e.upload(t, owner, "docs", "report.txt", "secret")

	e.grant(t, owner, &services.GrantRequest{
		UserID:         guest.UserID,
		ResourceType:   models.ResourceDirectory,
		ResourceID:     dir.ID,
		PermissionType: models.PermissionRead,
	})

	// Pending content is only served to the creator and admins.
	if _, _, err := e.files.Download(ctx, guest, result.File.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("guest download of pending file: got %v, want forbidden", err)
	}
	if _, rc, err := e.files.Download(ctx, owner, result.File.ID); err != nil {
		t.Errorf("owner download: %v", err)
	} else {
		rc.Close()
	}

	if _, err := e.approvals.Approve(ctx, admin, result.File.ID); err != nil {
		t.Fatalf("approve: %v", err)
	}
	file, rc, err := e.files.Download(ctx, guest, result.File.ID)
	if err != nil {
		t.Fatalf("guest download after approval: %v", err)
	}
	rc.Close()
	if file.Name != "report.txt" {
		t.Errorf("file name = %s", file.Name)
	}
}

func TestUploadValidation(t *testing.T) {
	e := newEnv(t)
	editor := e.user(t, "editor", models.RoleEditor)
	ctx := context.Background()

	e.mkdir(t, editor, "docs")

	tests := []struct {
		name string
		req  *services.UploadRequest
	}{
		{"empty name", &services.UploadRequest{DirectoryPath: "docs", Name: "", Content: strings.NewReader("x")}},
		{"bad name", &services.UploadRequest{DirectoryPath: "docs", Name: "a/b.txt", Content: strings.NewReader("x")}},
		{"nil content", &services.UploadRequest{DirectoryPath: "docs", Name: "ok.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := e.files.Upload(ctx, editor, tt.req); !errors.Is(err, domain.ErrValidation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}
