package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type txKey struct{}

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TxFromContext returns the transaction bound to ctx, if any.
func TxFromContext(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}

// ContextWithTx binds tx to ctx so stores join it.
func ContextWithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Conn picks the transaction bound to ctx, falling back to sqlDB. With a
// single open connection, code running inside a transaction must go through
// Conn or it will wait on itself.
func Conn(ctx context.Context, sqlDB *sql.DB) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return sqlDB
}

// ErrCommit marks a failed COMMIT.
var ErrCommit = errors.New("commit transaction")

// TxRunner runs functions inside one SQLite transaction.
type TxRunner struct {
	db *sql.DB
}

// NewTxRunner creates a TxRunner over sqlDB.
func NewTxRunner(sqlDB *sql.DB) *TxRunner {
	return &TxRunner{db: sqlDB}
}

// InTx runs fn with a transaction bound to its context, reusing one that is
// already bound.
func (r *TxRunner) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		return fn(ctx)
	}
	if r == nil || r.db == nil {
		return errors.New("no database connection in context")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ContextWithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrCommit, err)
	}
	return nil
}
