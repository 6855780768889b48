package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"docuvault/internal/domain"
	"docuvault/internal/domain/models"
)

// FakePermissionRepo is an in-memory PermissionRepository.
type FakePermissionRepo struct {
	mu    sync.RWMutex
	perms map[string]*models.Permission
}

func newFakePermissionRepo() *FakePermissionRepo {
	return &FakePermissionRepo{perms: make(map[string]*models.Permission)}
}

// key converges repeated grants onto one row, like the partial unique
// indexes in the schema.
func permKey(p *models.Permission) string {
	if p.FileID != nil {
		return "f:" + p.UserID + ":" + *p.FileID
	}
	return "d:" + p.UserID + ":" + *p.DirectoryID
}

func (r *FakePermissionRepo) Upsert(ctx context.Context, perm *models.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := permKey(perm)
	if existing, ok := r.perms[key]; ok {
		perm.ID = existing.ID
	} else if perm.ID == "" {
		perm.ID = uuid.NewString()
	}
	clone := *perm
	r.perms[key] = &clone
	return nil
}

func (r *FakePermissionRepo) GetForFile(ctx context.Context, userID, fileID string) (*models.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.perms["f:"+userID+":"+fileID]
	if !ok {
		return nil, fmt.Errorf("permission: %w", domain.ErrNotFound)
	}
	clone := *p
	return &clone, nil
}

func (r *FakePermissionRepo) GetForDirectory(ctx context.Context, userID, directoryID string) (*models.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.perms["d:"+userID+":"+directoryID]
	if !ok {
		return nil, fmt.Errorf("permission: %w", domain.ErrNotFound)
	}
	clone := *p
	return &clone, nil
}

func (r *FakePermissionRepo) DeleteForFile(ctx context.Context, userID, fileID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.perms, "f:"+userID+":"+fileID)
	return nil
}

func (r *FakePermissionRepo) DeleteForDirectory(ctx context.Context, userID, directoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.perms, "d:"+userID+":"+directoryID)
	return nil
}

func (r *FakePermissionRepo) ListCascadingForDirectory(ctx context.Context, directoryID string) ([]models.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Permission
	for _, p := range r.perms {
		if p.DirectoryID != nil && *p.DirectoryID == directoryID && p.CascadeToChildren {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *FakePermissionRepo) ListForResource(ctx context.Context, resourceType models.ResourceType, resourceID string) ([]models.Permission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Permission
	for _, p := range r.perms {
		switch resourceType {
		case models.ResourceFile:
			if p.FileID != nil && *p.FileID == resourceID {
				out = append(out, *p)
			}
		case models.ResourceDirectory:
			if p.DirectoryID != nil && *p.DirectoryID == resourceID {
				out = append(out, *p)
			}
		}
	}
	return out, nil
}

// FakeApprovalRepo is an in-memory ApprovalRepository.
type FakeApprovalRepo struct {
	mu     sync.RWMutex
	events map[string]*models.ApprovalEvent
}

func newFakeApprovalRepo() *FakeApprovalRepo {
	return &FakeApprovalRepo{events: make(map[string]*models.ApprovalEvent)}
}

func (r *FakeApprovalRepo) Upsert(ctx context.Context, event *models.ApprovalEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.events[event.FileID]; ok {
		event.ID = existing.ID
	} else if event.ID == "" {
		event.ID = uuid.NewString()
	}
	clone := *event
	r.events[event.FileID] = &clone
	return nil
}

func (r *FakeApprovalRepo) GetByFile(ctx context.Context, fileID string) (*models.ApprovalEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.events[fileID]
	if !ok {
		return nil, fmt.Errorf("approval event for file %s: %w", fileID, domain.ErrNotFound)
	}
	clone := *e
	return &clone, nil
}
