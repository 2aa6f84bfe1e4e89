package tx

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// Runner executes fn as one atomic unit. Stores opt in by honoring the
// transaction placed in the context fn receives.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLRunner backs atomic units with database transactions. A call made while
// a transaction is already in flight joins it instead of opening a second one.
type SQLRunner struct {
	db *sql.DB
}

func NewSQLRunner(db *sql.DB) *SQLRunner { return &SQLRunner{db: db} }

func (r *SQLRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, joined := From(ctx); joined {
		return fn(ctx)
	}

	dbTx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after a successful commit returns ErrTxDone and is a no-op.
	defer func() { _ = dbTx.Rollback() }()

	if err := fn(WithTx(ctx, dbTx)); err != nil {
		return err
	}
	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// MemoryRunner serializes atomic units behind a single mutex. The in-memory
// stores are individually consistent; serialization is what makes a
// multi-store unit appear atomic to concurrent callers.
type MemoryRunner struct {
	mu sync.Mutex
}

func NewMemoryRunner() *MemoryRunner { return &MemoryRunner{} }

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(ctx)
}
