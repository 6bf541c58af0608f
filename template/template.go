// Package template turns SQL text containing dynamic placeholders such as
// {in__name}, {not_in__name} and {values__name} into driver-ready statements
// with named bound parameters. SQL text is treated as opaque except for the
// recognized placeholder tokens.
package template

import (
	"fmt"
	"reflect"
)

// Query describes one statement before expansion: the SQL text, caller-bound
// named parameters, and the inputs for any template placeholders embedded in
// the text. A Query is an immutable value; expanding the same Query twice
// yields identical SQL and identical parameter names and values.
type Query struct {
	SQL       string
	Params    map[string]any
	Templates map[string]Input
}

// Statement is a fully expanded statement: final SQL with :name parameter
// tokens and the union of caller-supplied and generated bindings. It is
// owned by the executor for the duration of one execution.
type Statement struct {
	SQL    string
	Params map[string]any
}

// Error reports malformed or missing template input. It always surfaces
// before any I/O occurs.
type Error struct {
	Placeholder string
	Reason      string
}

func (e *Error) Error() string {
	if e.Placeholder == "" {
		return "template: " + e.Reason
	}
	return fmt.Sprintf("template: {%s}: %s", e.Placeholder, e.Reason)
}

func errf(placeholder, format string, args ...any) *Error {
	return &Error{Placeholder: placeholder, Reason: fmt.Sprintf(format, args...)}
}

// Input is the tagged value supplied for one template placeholder. Construct
// it with In, NotIn or Values; the kind must match the placeholder's declared
// kind or expansion fails.
type Input struct {
	kind tokenKind
	list []any
	rows []Row
}

// In builds the input for an {in__name} placeholder. A single slice or array
// argument (other than []byte) is flattened into its elements.
func In(values ...any) Input {
	return Input{kind: kindIn, list: flatten(values)}
}

// NotIn builds the input for a {not_in__name} placeholder.
func NotIn(values ...any) Input {
	return Input{kind: kindNotIn, list: flatten(values)}
}

// Values builds the input for a {values__name} placeholder. Every row must
// carry the same column set; the first row's column order is used.
func Values(rows ...Row) Input {
	return Input{kind: kindValues, rows: rows}
}

// flatten unwraps a single non-byte slice argument into its elements so that
// In(ids...) and In(ids) behave the same for typed slices.
func flatten(values []any) []any {
	if len(values) != 1 {
		return values
	}
	if _, isBytes := values[0].([]byte); isBytes {
		return values
	}
	rv := reflect.ValueOf(values[0])
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return values
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// Row is an ordered column-to-value mapping for one VALUES row. Column order
// is insertion order.
type Row struct {
	cols []string
	vals map[string]any
}

// RowOf builds a Row from alternating column name / value pairs. It panics on
// an odd number of arguments or a non-string column name, both of which are
// programming errors at the call site.
func RowOf(pairs ...any) Row {
	if len(pairs)%2 != 0 {
		panic("template: RowOf expects column/value pairs")
	}
	r := Row{vals: make(map[string]any, len(pairs)/2)}
	for i := 0; i < len(pairs); i += 2 {
		col, ok := pairs[i].(string)
		if !ok || col == "" {
			panic(fmt.Sprintf("template: RowOf column at position %d must be a non-empty string", i))
		}
		r = r.Set(col, pairs[i+1])
	}
	return r
}

// Set adds or replaces a column value, preserving first-insertion order.
func (r Row) Set(col string, v any) Row {
	if r.vals == nil {
		r.vals = make(map[string]any, 4)
	}
	if _, seen := r.vals[col]; !seen {
		r.cols = append(r.cols, col)
	}
	r.vals[col] = v
	return r
}

// Columns returns the column names in insertion order.
func (r Row) Columns() []string { return r.cols }

// Value returns the value bound to col.
func (r Row) Value(col string) (any, bool) {
	v, ok := r.vals[col]
	return v, ok
}

// Len returns the number of columns in the row.
func (r Row) Len() int { return len(r.cols) }
