// Package testutil provides in-memory repository fakes for service and
// access tests. The fakes honor the same contracts as the postgres
// implementations: ErrNotFound wrapping, upsert convergence, and version
// numbering, but without a database.
package testutil

import (
	"context"

	"docuvault/internal/domain/repositories"
)

// Store bundles the in-memory fakes behind the repository interfaces. The
// file fake needs to see directories and permissions for its pending-queue
// query, so the fakes share one Store.
type Store struct {
	Users       *FakeUserRepo
	Directories *FakeDirectoryRepo
	Files       *FakeFileRepo
	Versions    *FakeVersionRepo
	Permissions *FakePermissionRepo
	Approvals   *FakeApprovalRepo
	Tx          repositories.TransactionManager
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	s := &Store{
		Users:       newFakeUserRepo(),
		Directories: newFakeDirectoryRepo(),
		Versions:    newFakeVersionRepo(),
		Permissions: newFakePermissionRepo(),
		Approvals:   newFakeApprovalRepo(),
		Tx:          noopTxManager{},
	}
	s.Files = newFakeFileRepo(s)
	return s
}

// noopTxManager runs the function directly. The fakes mutate state in
// place, so there is nothing to roll back.
type noopTxManager struct{}

func (noopTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
