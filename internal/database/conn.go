package database

import (
	"context"
	"database/sql"
)

// Queryer is the subset of *sql.DB and *sql.Conn the repositories use.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

type connKey struct{}

// WithConn pins conn to ctx. Repositories reached with the returned context
// run on that connection instead of taking another one from the pool.
func WithConn(ctx context.Context, conn *sql.Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

// From returns the connection pinned to ctx, or db when there is none.
func From(ctx context.Context, db *sql.DB) Queryer {
	if conn, ok := ctx.Value(connKey{}).(*sql.Conn); ok && conn != nil {
		return conn
	}
	return db
}
