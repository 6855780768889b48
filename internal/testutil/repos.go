package testutil

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
)

// FakeUserRepo is an in-memory UserRepository.
type FakeUserRepo struct {
	mu    sync.RWMutex
	users map[string]*models.User
}

func newFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{users: make(map[string]*models.User)}
}

func (r *FakeUserRepo) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("username %s is taken", user.Username),
				ResourceType: "user",
				ResourceID:   u.ID,
			}
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *FakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	clone := *u
	return &clone, nil
}

func (r *FakeUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", username, domain.ErrNotFound)
}

// FakeDirectoryRepo is an in-memory DirectoryRepository.
type FakeDirectoryRepo struct {
	mu   sync.RWMutex
	dirs map[string]*models.Directory
}

func newFakeDirectoryRepo() *FakeDirectoryRepo {
	return &FakeDirectoryRepo{dirs: make(map[string]*models.Directory)}
}

func (r *FakeDirectoryRepo) Create(ctx context.Context, dir *models.Directory) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, d := range r.dirs {
		if d.Path == dir.Path {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("directory already exists at %s", dir.Path),
				ResourceType: "directory",
				ResourceID:   d.ID,
			}
		}
	}
	if dir.ID == "" {
		dir.ID = uuid.NewString()
	}
	clone := *dir
	r.dirs[dir.ID] = &clone
	return nil
}

func (r *FakeDirectoryRepo) GetByID(ctx context.Context, id string) (*models.Directory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, ok := r.dirs[id]
	if !ok {
		return nil, fmt.Errorf("directory %s: %w", id, domain.ErrNotFound)
	}
	clone := *d
	return &clone, nil
}

func (r *FakeDirectoryRepo) GetByPath(ctx context.Context, path string) (*models.Directory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, d := range r.dirs {
		if d.Path == path {
			clone := *d
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("directory %s: %w", path, domain.ErrNotFound)
}

func (r *FakeDirectoryRepo) ListChildren(ctx context.Context, parentID *string) ([]models.Directory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Directory
	for _, d := range r.dirs {
		if sameParent(d.ParentID, parentID) {
			out = append(out, *d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *FakeDirectoryRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	target, ok := r.dirs[id]
	if !ok {
		return fmt.Errorf("directory %s: %w", id, domain.ErrNotFound)
	}

	// Mirror the ON DELETE CASCADE foreign keys: drop the whole subtree.
	doomed := map[string]bool{target.ID: true}
	for changed := true; changed; {
		changed = false
		for _, d := range r.dirs {
			if d.ParentID != nil && doomed[*d.ParentID] && !doomed[d.ID] {
				doomed[d.ID] = true
				changed = true
			}
		}
	}
	for dirID := range doomed {
		delete(r.dirs, dirID)
	}
	return nil
}

func sameParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// FakeFileRepo is an in-memory FileRepository.
type FakeFileRepo struct {
	mu    sync.RWMutex
	store *Store
	files map[string]*models.File
}

func newFakeFileRepo(store *Store) *FakeFileRepo {
	return &FakeFileRepo{store: store, files: make(map[string]*models.File)}
}

func (r *FakeFileRepo) Create(ctx context.Context, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.files {
		if f.Path == file.Path {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("file already exists at %s", file.Path),
				ResourceType: "file",
				ResourceID:   f.ID,
			}
		}
	}
	if file.ID == "" {
		file.ID = uuid.NewString()
	}
	clone := *file
	r.files[file.ID] = &clone
	return nil
}

func (r *FakeFileRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	f, ok := r.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	clone := *f
	return &clone, nil
}

func (r *FakeFileRepo) GetByPath(ctx context.Context, path string) (*models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, f := range r.files {
		if f.Path == path {
			clone := *f
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("file %s: %w", path, domain.ErrNotFound)
}

func (r *FakeFileRepo) ListByDirectory(ctx context.Context, directoryID *string) ([]models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.File
	for _, f := range r.files {
		if sameParent(f.DirectoryID, directoryID) {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *FakeFileRepo) LockForUpdate(ctx context.Context, id string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.files[id]; !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (r *FakeFileRepo) SetApproval(ctx context.Context, id string, status models.ApprovalStatus, approvedBy *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	f.ApprovalStatus = status
	f.ApprovedBy = approvedBy
	return nil
}

func (r *FakeFileRepo) Update(ctx context.Context, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[file.ID]; !ok {
		return fmt.Errorf("file %s: %w", file.ID, domain.ErrNotFound)
	}
	clone := *file
	r.files[file.ID] = &clone
	return nil
}

func (r *FakeFileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[id]; !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	delete(r.files, id)
	return nil
}

func (r *FakeFileRepo) ListPending(ctx context.Context) ([]models.File, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.File
	for _, f := range r.files {
		if f.ApprovalStatus == models.StatusPending {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *FakeFileRepo) ListPendingForUser(ctx context.Context, userID string) ([]models.File, error) {
	pending, err := r.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	var out []models.File
	for _, f := range pending {
		ok, err := r.userCanReview(ctx, userID, &f)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, f)
		}
	}
	return out, nil
}

// userCanReview mirrors the SQL pending-queue predicate: the user created
// the owning directory, or holds a WRITE grant on it or on an ancestor with
// cascade.
func (r *FakeFileRepo) userCanReview(ctx context.Context, userID string, f *models.File) (bool, error) {
	if f.DirectoryID == nil {
		return false, nil
	}
	dirID := f.DirectoryID
	first := true
	for dirID != nil {
		dir, err := r.store.Directories.GetByID(ctx, *dirID)
		if err != nil {
			return false, err
		}
		if dir.CreatedBy == userID {
			return true, nil
		}
		perm, err := r.store.Permissions.GetForDirectory(ctx, userID, dir.ID)
		if err == nil && perm.PermissionType == models.PermissionWrite && (first || perm.CascadeToChildren) {
			return true, nil
		}
		dirID = dir.ParentID
		first = false
	}
	return false, nil
}
