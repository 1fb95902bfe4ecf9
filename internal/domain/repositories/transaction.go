package repositories

import "context"

// TxFn is the unit of work run by ExecTx. Repositories called with the
// ctx it receives join the surrounding transaction.
type TxFn func(ctx context.Context) error

// TransactionManager runs multi-statement operations (folder creation,
// archival, purge) atomically. A non-nil error from fn discards every
// write made through its ctx; nested calls join the outer transaction.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error
}
