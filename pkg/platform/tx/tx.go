// Package tx carries a SQL transaction through context so stores participating
// in a multi-store atomic unit (match acceptance, erasure) can share it without
// widening their interfaces.
package tx

import (
	"context"
	"database/sql"
)

type txContextKey struct{}

// WithTx returns a context carrying dbTx for downstream stores. A nil
// transaction leaves the context untouched.
func WithTx(ctx context.Context, dbTx *sql.Tx) context.Context {
	if dbTx == nil {
		return ctx
	}
	return context.WithValue(ctx, txContextKey{}, dbTx)
}

// From reports the transaction in flight, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	dbTx, ok := ctx.Value(txContextKey{}).(*sql.Tx)
	return dbTx, ok
}
