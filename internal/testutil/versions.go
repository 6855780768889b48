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

// FakeVersionRepo is an in-memory VersionRepository.
type FakeVersionRepo struct {
	mu       sync.RWMutex
	versions map[string]*models.Version
}

func newFakeVersionRepo() *FakeVersionRepo {
	return &FakeVersionRepo{versions: make(map[string]*models.Version)}
}

func (r *FakeVersionRepo) Create(ctx context.Context, version *models.Version) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, v := range r.versions {
		if v.FileID == version.FileID && v.VersionNumber == version.VersionNumber {
			return fmt.Errorf("version %d of file %s: %w", version.VersionNumber, version.FileID, domain.ErrConflict)
		}
	}
	if version.ID == "" {
		version.ID = uuid.NewString()
	}
	clone := *version
	r.versions[version.ID] = &clone
	return nil
}

func (r *FakeVersionRepo) ListByFile(ctx context.Context, fileID string) ([]models.Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []models.Version
	for _, v := range r.versions {
		if v.FileID == fileID {
			out = append(out, *v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VersionNumber < out[j].VersionNumber })
	return out, nil
}

func (r *FakeVersionRepo) GetByNumber(ctx context.Context, fileID string, versionNumber int) (*models.Version, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.versions {
		if v.FileID == fileID && v.VersionNumber == versionNumber {
			clone := *v
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("version %d of file %s: %w", versionNumber, fileID, domain.ErrNotFound)
}

func (r *FakeVersionRepo) DeleteByNumber(ctx context.Context, fileID string, versionNumber int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, v := range r.versions {
		if v.FileID == fileID && v.VersionNumber == versionNumber {
			delete(r.versions, id)
			return nil
		}
	}
	return fmt.Errorf("version %d of file %s: %w", versionNumber, fileID, domain.ErrNotFound)
}

func (r *FakeVersionRepo) NextNumber(ctx context.Context, fileID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	max := 0
	for _, v := range r.versions {
		if v.FileID == fileID && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}
	return max + 1, nil
}
