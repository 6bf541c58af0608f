package dynq

import (
	"context"
	"errors"
	"fmt"

	"github.com/Konsultn-Engineering/dynq/connector"
	"github.com/Konsultn-Engineering/dynq/mapper"
	"github.com/Konsultn-Engineering/dynq/template"
)

// The error taxonomy of the layer. Template, connection and mapping errors
// are defined next to the code that raises them and re-exported here so
// callers can match everything with errors.As against one package.
type (
	// TemplateError reports malformed or missing template input. It always
	// surfaces before any I/O occurs and is never retried.
	TemplateError = template.Error

	// ConnectionError reports pool exhaustion or timeout, an unreachable
	// database, or an init-hook failure.
	ConnectionError = connector.ConnectionError

	// MappingError reports a missing key column or an accumulator merge
	// failure. Partial aggregates are never returned alongside it.
	MappingError = mapper.Error
)

// QueryExecutionError wraps a driver-reported statement failure together with
// the final SQL and the bound parameter values. Parameters are carried as
// bound values; they are never re-interpolated into the SQL text.
type QueryExecutionError struct {
	SQL    string
	Params map[string]any
	Err    error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("dynq: statement failed: %v (sql: %s)", e.Err, e.SQL)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// TransactionError reports a failed multi-statement write: a mid-sequence
// statement failure or a failed commit. When RollbackFailed is false the
// rollback completed and nothing from the sequence is visible; when true the
// transaction is in an unconfirmed state and must be treated as fatal. A
// negative Index means the failure was in a session-control statement the
// layer issued itself, not in one of the caller's statements.
type TransactionError struct {
	Index          int // zero-based position of the failed statement
	Err            error
	RollbackFailed bool
	RollbackErr    error
}

func (e *TransactionError) Error() string {
	at := fmt.Sprintf("statement %d", e.Index)
	if e.Index < 0 {
		at = "session control"
	}
	msg := fmt.Sprintf("dynq: transaction failed at %s: %v", at, e.Err)
	if e.RollbackFailed {
		msg += fmt.Sprintf(" (rollback not confirmed: %v)", e.RollbackErr)
	}
	return msg
}

func (e *TransactionError) Unwrap() error { return e.Err }

// CallbackError reports a post-commit callback failure. The transaction is
// already durably committed when this error is returned; it is distinct from
// a transaction failure.
type CallbackError struct {
	Err error
}

func (e *CallbackError) Error() string {
	return fmt.Sprintf("dynq: post-commit callback failed: %v", e.Err)
}

func (e *CallbackError) Unwrap() error { return e.Err }

// classifyExec turns a driver failure into the layer's taxonomy: context
// expiry during acquisition or execution is a connection problem, everything
// else is a statement failure. Driver timeouts are propagated, never masked
// as successful empty results.
func classifyExec(database string, stmt template.Statement, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &ConnectionError{Database: database, Reason: "statement timed out", Err: err}
	}
	return &QueryExecutionError{SQL: stmt.SQL, Params: stmt.Params, Err: err}
}
