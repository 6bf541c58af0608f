package mapper

import (
	"github.com/Konsultn-Engineering/dynq/database"
)

// SingleRow returns the first row as one accumulator, even when the stream
// holds more rows. The result is nil when the stream is empty.
type SingleRow[T Accumulator] struct {
	factory func() T
}

// NewSingleRow creates a SingleRow mapper over the given accumulator factory.
func NewSingleRow[T Accumulator](factory func() T) *SingleRow[T] {
	return &SingleRow[T]{factory: factory}
}

// NewSingleRecord returns the first row as a plain Record.
func NewSingleRecord() *SingleRow[*Record] {
	return NewSingleRow(NewRecord)
}

func (s *SingleRow[T]) MapRows(rows database.Rows) (any, error) {
	var result any
	done := false
	err := forEachRow(rows, func(row Row) error {
		if done {
			return nil
		}
		acc := s.factory()
		if err := acc.Merge(row); err != nil {
			return errf("merge failed: %v", err)
		}
		result = acc
		done = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SingleColumn returns the first column of every row as a flat []any.
type SingleColumn struct{}

func NewSingleColumn() *SingleColumn { return &SingleColumn{} }

func (s *SingleColumn) MapRows(rows database.Rows) (any, error) {
	results := make([]any, 0, 16)
	err := forEachRow(rows, func(row Row) error {
		if row.Len() == 0 {
			return errf("row has no columns")
		}
		results = append(results, row.Index(0))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Scalar returns the first column of the first row, or nil when the stream
// is empty.
type Scalar struct{}

func NewScalar() *Scalar { return &Scalar{} }

// Count is an alias for Scalar, convenient for count queries.
type Count = Scalar

// NewCount returns a mapper for the single value of a count query.
func NewCount() *Count { return NewScalar() }

func (s *Scalar) MapRows(rows database.Rows) (any, error) {
	var result any
	done := false
	err := forEachRow(rows, func(row Row) error {
		if done {
			return nil
		}
		if row.Len() == 0 {
			return errf("row has no columns")
		}
		result = row.Index(0)
		done = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// KeyValue builds a mapping from one designated column to another. With
// Multi, each key collects a []any of every value seen for it; otherwise a
// later duplicate key overwrites the earlier value.
type KeyValue struct {
	keyColumn   string
	valueColumn string
	multi       bool
}

// NewKeyValue creates a KeyValue mapper. Empty column names default to the
// first and second column of the result. Key and value columns must differ.
func NewKeyValue(keyColumn, valueColumn string) (*KeyValue, error) {
	if keyColumn == valueColumn && keyColumn != "" {
		return nil, errf("key and value columns cannot be the same")
	}
	return &KeyValue{keyColumn: keyColumn, valueColumn: valueColumn}, nil
}

// Multi makes the mapper collect every value per key into a slice.
func (kv *KeyValue) Multi() *KeyValue {
	kv.multi = true
	return kv
}

func (kv *KeyValue) MapRows(rows database.Rows) (any, error) {
	if kv.multi {
		results := make(map[any][]any)
		err := forEachRow(rows, func(row Row) error {
			k, v, err := kv.pair(row)
			if err != nil {
				return err
			}
			results[k] = append(results[k], v)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return results, nil
	}

	results := make(map[any]any)
	err := forEachRow(rows, func(row Row) error {
		k, v, err := kv.pair(row)
		if err != nil {
			return err
		}
		results[k] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (kv *KeyValue) pair(row Row) (any, any, error) {
	k, err := kv.column(row, kv.keyColumn, 0)
	if err != nil {
		return nil, nil, err
	}
	v, err := kv.column(row, kv.valueColumn, 1)
	if err != nil {
		return nil, nil, err
	}
	// []byte keys are not comparable; store them as strings
	if bs, ok := k.([]byte); ok {
		k = string(bs)
	}
	return k, v, nil
}

func (kv *KeyValue) column(row Row, name string, fallback int) (any, error) {
	if name != "" {
		v, ok := row.Value(name)
		if !ok {
			return nil, errf("column %q not present in row", name)
		}
		return v, nil
	}
	if row.Len() <= fallback {
		return nil, errf("row has fewer than %d columns", fallback+1)
	}
	return row.Index(fallback), nil
}
