package database

import (
	"context"
)

// Database is the driver capability set the execution layer depends on.
// SQL text and bound arguments pass through to the driver verbatim.
type Database interface {
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
	BeginTx(ctx context.Context) (Tx, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Tx is a single open transaction. It is exclusively owned by one unit of
// work from BeginTx until Commit or Rollback returns.
type Tx interface {
	ExecContext(ctx context.Context, query string, args ...any) (Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (Rows, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Rows is a forward-only row cursor.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Columns() ([]string, error)
	Close() error
	Err() error
}

// Result reports the outcome of a statement that returns no rows.
type Result interface {
	RowsAffected() (int64, error)
}
