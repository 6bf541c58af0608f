package mapper

import (
	"fmt"
	"strings"

	"github.com/Konsultn-Engineering/dynq/database"
)

// Combiner groups the row stream into one accumulator per distinct aggregate
// key and returns the accumulators in first-occurrence order. The aggregate
// key is the tuple of the configured key columns' values; the default is the
// single column "id". A null key value is itself a valid, distinct grouping
// key: rows whose key columns are all NULL combine into one aggregate rather
// than being dropped.
type Combiner[T Accumulator] struct {
	keys    []string
	factory func() T
}

// NewCombiner creates a Combiner producing one T per distinct key, keyed by
// the "id" column until WithKeys overrides it.
func NewCombiner[T Accumulator](factory func() T) *Combiner[T] {
	return &Combiner[T]{keys: []string{"id"}, factory: factory}
}

// NewRecordCombiner is the default mapper: a Combiner over plain Records.
func NewRecordCombiner() *Combiner[*Record] {
	return NewCombiner(NewRecord)
}

// WithKeys overrides the key columns used to compute the aggregate key.
func (c *Combiner[T]) WithKeys(columns ...string) *Combiner[T] {
	if len(columns) > 0 {
		c.keys = columns
	}
	return c
}

// MapRows consumes the cursor and returns []T in first-occurrence order.
// A zero-row stream yields an empty slice, never an error. A key column
// missing from a row, or a failed Merge, aborts the pass; partial aggregates
// are not returned.
func (c *Combiner[T]) MapRows(rows database.Rows) (any, error) {
	byKey := make(map[string]T)
	results := make([]T, 0, 16)

	err := forEachRow(rows, func(row Row) error {
		key, err := c.aggregateKey(row)
		if err != nil {
			return err
		}
		acc, ok := byKey[key]
		if !ok {
			acc = c.factory()
			byKey[key] = acc
			results = append(results, acc)
		}
		if err := acc.Merge(row); err != nil {
			return errf("merge failed for key %q: %v", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// aggregateKey encodes the key-column tuple into a comparable string. The
// encoding is type-tagged so int64(1) and "1" remain distinct keys, and NULL
// is encoded as its own marker distinct from any value.
func (c *Combiner[T]) aggregateKey(row Row) (string, error) {
	var b strings.Builder
	for _, col := range c.keys {
		v, ok := row.Value(col)
		if !ok {
			return "", errf("key column %q not present in row", col)
		}
		switch tv := v.(type) {
		case nil:
			b.WriteString("<null>")
		case []byte:
			fmt.Fprintf(&b, "bytes=%s", tv)
		default:
			fmt.Fprintf(&b, "%T=%v", tv, tv)
		}
		b.WriteByte(0x1f)
	}
	return b.String(), nil
}
