package dynq

import (
	"context"
	"errors"

	"github.com/Konsultn-Engineering/dynq/database"
	"github.com/Konsultn-Engineering/dynq/dialect"
	"github.com/Konsultn-Engineering/dynq/template"
)

// ExecOption configures one write operation.
type ExecOption func(*execConfig)

type execConfig struct {
	onSuccess func() error
	noFKCheck bool
}

// OnSuccess registers a callback invoked exactly once after a successful
// commit, and never when any statement fails. A callback failure surfaces as
// CallbackError; the committed data stays committed.
func OnSuccess(fn func() error) ExecOption {
	return func(c *execConfig) { c.onSuccess = fn }
}

// WithoutForeignKeyChecks brackets the write with SET FOREIGN_KEY_CHECKS=0/1
// inside the transaction. Use only when the finished sequence satisfies every
// constraint; a rollback leaves the session clean.
func WithoutForeignKeyChecks() ExecOption {
	return func(c *execConfig) { c.noFKCheck = true }
}

// sessionStatement marks a failure in a session-control statement the layer
// issued itself, such as the foreign-key-checks bracket, rather than in one of
// the caller's statements.
const sessionStatement = -1

// boundStmt is one driver-ready statement of a write sequence.
type boundStmt struct {
	stmt template.Statement
	sql  string
	args []any
}

// Exec runs an ordered sequence of write statements against one connection
// and returns the summed affected-row count. A single statement executes
// directly; two or more execute inside one transaction, in caller order,
// committed only after all succeed. Any failure rolls the whole transaction
// back and aborts the remaining statements, so partial application is never
// observable outside the transaction.
func (r *Runner) Exec(ctx context.Context, queries []template.Query, opts ...ExecOption) (int64, error) {
	if len(queries) == 0 {
		return 0, errors.New("dynq: Exec requires at least one statement")
	}

	var cfg execConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	// Expand everything first: template failures surface before any I/O.
	stmts := make([]template.Statement, len(queries))
	for i, q := range queries {
		stmt, err := template.Expand(q)
		if err != nil {
			return 0, err
		}
		stmts[i] = stmt
	}

	conn, err := r.registry.Checkout(ctx)
	if err != nil {
		return 0, err
	}

	bound, err := bindAll(stmts, conn.Dialect())
	if err != nil {
		return 0, err
	}

	op := r.opID()
	r.logger.DebugContext(ctx, "exec sequence",
		"op", op, "database", r.routeName(ctx), "dialect", conn.Dialect().Name(), "statements", len(bound))
	db := conn.Database()

	if len(bound) == 1 && !cfg.noFKCheck {
		return r.execSingle(ctx, op, db, bound[0], cfg)
	}
	return r.execTransaction(ctx, op, db, bound, cfg)
}

func bindAll(stmts []template.Statement, d dialect.Dialect) ([]boundStmt, error) {
	bound := make([]boundStmt, len(stmts))
	for i, stmt := range stmts {
		sqlText, args, err := template.BindNamed(stmt, d)
		if err != nil {
			return nil, err
		}
		bound[i] = boundStmt{stmt: stmt, sql: sqlText, args: args}
	}
	return bound, nil
}

func (r *Runner) execSingle(ctx context.Context, op string, db database.Database, b boundStmt, cfg execConfig) (int64, error) {
	r.logger.DebugContext(ctx, "exec", "op", op, "database", r.routeName(ctx), "sql", b.sql)

	res, err := db.ExecContext(ctx, b.sql, b.args...)
	if err != nil {
		return 0, classifyExec(r.routeName(ctx), b.stmt, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, classifyExec(r.routeName(ctx), b.stmt, err)
	}
	return affected, r.runCallback(ctx, op, cfg)
}

func (r *Runner) execTransaction(ctx context.Context, op string, db database.Database, bound []boundStmt, cfg execConfig) (int64, error) {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return 0, &ConnectionError{Database: r.routeName(ctx), Reason: "begin transaction failed", Err: err}
	}

	rollback := func(i int, cause error) error {
		r.logger.ErrorContext(ctx, "rolling back", "op", op, "statement", i, "error", cause)
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return &TransactionError{Index: i, Err: cause, RollbackFailed: true, RollbackErr: rbErr}
		}
		return &TransactionError{Index: i, Err: cause}
	}

	if cfg.noFKCheck {
		if _, err := tx.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=0"); err != nil {
			return 0, rollback(sessionStatement, err)
		}
	}

	var affected int64
	for i, b := range bound {
		r.logger.DebugContext(ctx, "exec", "op", op, "database", r.routeName(ctx), "statement", i, "sql", b.sql)
		res, err := tx.ExecContext(ctx, b.sql, b.args...)
		if err != nil {
			return 0, rollback(i, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}

	if cfg.noFKCheck {
		if _, err := tx.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS=1"); err != nil {
			return 0, rollback(sessionStatement, err)
		}
	}

	// A failed commit leaves the outcome unknown until a rollback confirms
	// it; when the driver has already finalized the transaction the error is
	// reported with RollbackFailed set.
	if err := tx.Commit(ctx); err != nil {
		return 0, rollback(len(bound)-1, err)
	}

	return affected, r.runCallback(ctx, op, cfg)
}

// runCallback fires the post-commit callback exactly once. By the time it
// runs the data is durable; a callback failure is reported but never undoes
// the commit.
func (r *Runner) runCallback(ctx context.Context, op string, cfg execConfig) error {
	if cfg.onSuccess == nil {
		return nil
	}
	if err := cfg.onSuccess(); err != nil {
		r.logger.ErrorContext(ctx, "post-commit callback failed", "op", op, "error", err)
		return &CallbackError{Err: err}
	}
	return nil
}
