package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mamacare/triagedesk/pkg/errorx"
	"github.com/mamacare/triagedesk/pkg/logger"
)

// TxKey is the context key under which an in-flight transaction is
// stored, so nested repository calls within the same request reuse
// it instead of opening a second one.
type TxKey struct{}

// Querier is the common subset of pgx.Tx and *pgxpool.Pool that
// repositories need; it lets repository code stay agnostic to whether
// it is running inside a transaction or against the bare pool.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// TxManager serializes access to the case store by wrapping
// multi-statement operations in a single database transaction.
type TxManager struct {
	pool   *pgxpool.Pool
	logger logger.Logger
}

// NewTxManager creates a new transaction manager.
func NewTxManager(pool *pgxpool.Pool, logger logger.Logger) *TxManager {
	return &TxManager{
		pool:   pool,
		logger: logger,
	}
}

// WithinTransaction runs fn inside a transaction, committing on
// success and rolling back on any returned error. If ctx already
// carries a transaction, fn reuses it instead of nesting a new one.
func (tm *TxManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(TxKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to begin transaction")
	}

	txCtx := context.WithValue(ctx, TxKey{}, tx)

	if err := fn(txCtx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			tm.logger.Error("failed to rollback transaction", rbErr,
				logger.Field{Key: "original_error", Value: err.Error()})
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return errorx.Wrap(err, errorx.InternalServerError, "failed to commit transaction")
	}

	return nil
}

// GetQuerier returns the transaction on ctx if present, otherwise the
// bare connection pool.
func (tm *TxManager) GetQuerier(ctx context.Context) Querier {
	if tx, ok := ctx.Value(TxKey{}).(pgx.Tx); ok {
		return tx
	}
	return tm.pool
}
