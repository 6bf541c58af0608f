package mapper

// Accumulator receives every row belonging to one aggregate, in stream order,
// including the first. Implementations decide field semantics; the Combiner
// only owns key computation, ordering and lifecycle.
type Accumulator interface {
	Merge(row Row) error
}

// Record is the default accumulator: a dynamic field bag. Scalar columns are
// first-writer-wins, so rows after the first never overwrite an established
// value. Columns routed through Collect are appended to a collection field on
// every merge, including the first.
type Record struct {
	collect map[string]string
	order   []string
	fields  map[string]any
}

// NewRecord creates an empty Record.
func NewRecord() *Record {
	return &Record{fields: make(map[string]any, 8)}
}

// Collect routes the value of column into the named collection field,
// appending one entry per merged row. Returns the receiver for chaining
// inside an accumulator factory.
func (r *Record) Collect(column, field string) *Record {
	if r.collect == nil {
		r.collect = make(map[string]string, 2)
	}
	r.collect[column] = field
	return r
}

// Merge folds one row into the record.
func (r *Record) Merge(row Row) error {
	for _, col := range row.Columns() {
		v, _ := row.Value(col)
		if field, ok := r.collect[col]; ok {
			cur, seen := r.fields[field]
			if !seen {
				r.order = append(r.order, field)
			}
			list, _ := cur.([]any)
			r.fields[field] = append(list, v)
			continue
		}
		if cur, seen := r.fields[col]; seen && cur != nil {
			continue
		} else if !seen {
			r.order = append(r.order, col)
		}
		r.fields[col] = v
	}
	return nil
}

// Get returns the value of a field.
func (r *Record) Get(field string) (any, bool) {
	v, ok := r.fields[field]
	return v, ok
}

// Has reports whether the field holds a non-nil value.
func (r *Record) Has(field string) bool {
	v, ok := r.fields[field]
	return ok && v != nil
}

// Fields returns the field names in first-set order.
func (r *Record) Fields() []string {
	return append([]string(nil), r.order...)
}

// Raw returns a copy of the record's field map.
func (r *Record) Raw() map[string]any {
	out := make(map[string]any, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}
