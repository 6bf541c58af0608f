// Package mapper folds the raw row stream of a read query into the
// caller-visible result. The Combiner is the interesting member of the
// family: it groups rows sharing an aggregate key into one result each.
// The simpler mappers return the first row, a single column, a scalar, or a
// key/value mapping.
package mapper

import (
	"fmt"

	"github.com/Konsultn-Engineering/dynq/database"
)

// Mapper consumes the full ordered row stream of one query result and
// produces the aggregate result. Each Rows cursor is consumed by exactly one
// MapRows invocation; the mapper does not close it.
type Mapper interface {
	MapRows(rows database.Rows) (any, error)
}

// Row is one result row: column names in driver order plus the scanned
// values.
type Row struct {
	columns []string
	values  []any
}

// Columns returns the column names in driver order.
func (r Row) Columns() []string { return r.columns }

// Len returns the number of columns.
func (r Row) Len() int { return len(r.values) }

// Value returns the value of the named column.
func (r Row) Value(name string) (any, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return nil, false
}

// Index returns the value at column position i.
func (r Row) Index(i int) any { return r.values[i] }

// Error reports a mapping failure: a missing key column, a bad mapper
// configuration, or an accumulator merge failure.
type Error struct {
	Reason string
}

func (e *Error) Error() string { return "mapper: " + e.Reason }

func errf(format string, args ...any) *Error {
	return &Error{Reason: fmt.Sprintf(format, args...)}
}

// forEachRow scans every row of the cursor in stream order and hands it to
// fn. Driver errors are returned verbatim; they are never masked as an empty
// result.
func forEachRow(rows database.Rows, fn func(Row) error) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return err
		}
		if err := fn(Row{columns: cols, values: values}); err != nil {
			return err
		}
	}
	return rows.Err()
}
