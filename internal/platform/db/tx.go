package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Queryable is the subset of pgx a repository needs. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so repositories run unchanged inside or outside a
// transaction.
type Queryable interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// TxBeginner starts transactions. *pgxpool.Pool satisfies it; tests supply a
// fake.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type contextKey string

const queryableKey contextKey = "db_queryable"

// WithQueryable returns a context carrying q. Repositories prefer the
// context's Queryable over their own pool, which is how a transaction spans
// repository calls.
func WithQueryable(ctx context.Context, q Queryable) context.Context {
	return context.WithValue(ctx, queryableKey, q)
}

// FromContext returns the Queryable carried by ctx, or nil if none is set.
func FromContext(ctx context.Context) Queryable {
	q, _ := ctx.Value(queryableKey).(Queryable)
	return q
}

// WithTx runs fn inside a transaction. The transaction is injected into the
// context passed to fn; a non-nil error rolls back, otherwise the transaction
// commits.
func WithTx(ctx context.Context, db TxBeginner, fn func(ctx context.Context) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(WithQueryable(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
