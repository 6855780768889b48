package service

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"docuvault/internal/access"
	"docuvault/internal/blobstore"
	"docuvault/internal/domain/models"
	"docuvault/internal/domain/services"
	"docuvault/internal/testutil"
)

// env wires the services against in-memory fakes for tests.
type env struct {
	store       *testutil.Store
	blobs       *blobstore.MemoryStore
	directories services.DirectoryService
	files       services.FileService
	permissions services.PermissionService
	approvals   services.ApprovalService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	store := testutil.NewStore()
	blobs := blobstore.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	policy, err := access.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	resolver := access.NewResolver(store.Directories, store.Files, store.Permissions, logger)

	return &env{
		store:       store,
		blobs:       blobs,
		directories: NewDirectoryService(store.Directories, store.Files, store.Permissions, store.Tx, resolver, policy, blobs, logger),
		files:       NewFileService(store.Files, store.Versions, store.Directories, store.Permissions, store.Approvals, store.Tx, resolver, policy, blobs, logger),
		permissions: NewPermissionService(store.Permissions, store.Directories, store.Files, store.Users, store.Tx, resolver, policy, logger),
		approvals:   NewApprovalService(store.Files, store.Approvals, store.Tx, policy, logger),
	}
}

// user registers an account with the given role and returns its actor.
func (e *env) user(t *testing.T, username string, role models.Role) services.Actor {
	t.Helper()

	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		Role:         role,
	}
	if err := e.store.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return services.Actor{UserID: u.ID, Role: role}
}

// mkdir creates a directory and fails the test on error.
func (e *env) mkdir(t *testing.T, actor services.Actor, path string) *models.Directory {
	t.Helper()

	dir, err := e.directories.CreateDirectory(context.Background(), actor, &services.CreateDirectoryRequest{Path: path})
	if err != nil {
		t.Fatalf("create directory %s: %v", path, err)
	}
	return dir
}

// upload stores content and fails the test on error.
func (e *env) upload(t *testing.T, actor services.Actor, dirPath, name, content string) *services.UploadResult {
	t.Helper()

	result, err := e.files.Upload(context.Background(), actor, &services.UploadRequest{
		DirectoryPath: dirPath,
		Name:          name,
		Description:   "test upload",
		Content:       strings.NewReader(content),
	})
	if err != nil {
		t.Fatalf("upload %s/%s: %v", dirPath, name, err)
	}
	return result
}

// grant gives userID access and fails the test on error.
func (e *env) grant(t *testing.T, actor services.Actor, req *services.GrantRequest) {
	t.Helper()

	if _, err := e.permissions.Grant(context.Background(), actor, req); err != nil {
		t.Fatalf("grant: %v", err)
	}
}

func readBlob(t *testing.T, blobs *blobstore.MemoryStore, key string) string {
	t.Helper()

	rc, err := blobs.Open(key)
	if err != nil {
		t.Fatalf("open blob %s: %v", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read blob %s: %v", key, err)
	}
	return string(data)
}
