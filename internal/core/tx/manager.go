// Package tx defines the transaction-management contract the domain layer
// depends on. Every movement operation runs as one atomic unit of work
// through Manager; the concrete implementation lives in
// infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager runs functions inside a database transaction.
type Manager interface {
	// RunInTransaction executes fn within a transaction. If fn returns an
	// error the transaction is rolled back and no partial effect remains;
	// otherwise it is committed. Nested calls reuse the transaction already
	// in ctx.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transactions for analytics
// queries, which must never block writers.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction against a consistent
	// snapshot. Attempts to modify data fail.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
