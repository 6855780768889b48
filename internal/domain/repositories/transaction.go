package repositories

import "context"

// TxFn is a function executed within a transaction. Repositories invoked
// with the passed context automatically join the transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs functions inside a database transaction. Cascade
// propagation and multi-row writes go through this so a failing step rolls
// back every step already applied.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
