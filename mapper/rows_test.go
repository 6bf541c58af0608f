package mapper

import (
	"errors"
)

// fakeRows is an in-memory database.Rows for mapper tests.
type fakeRows struct {
	cols    []string
	rows    [][]any
	pos     int
	iterErr error // reported by Err() after the stream ends
	closed  bool
}

func newFakeRows(cols []string, rows ...[]any) *fakeRows {
	return &fakeRows{cols: cols, rows: rows, pos: -1}
}

func (f *fakeRows) Next() bool {
	if f.pos+1 >= len(f.rows) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	if f.pos < 0 || f.pos >= len(f.rows) {
		return errors.New("scan without next")
	}
	row := f.rows[f.pos]
	if len(dest) != len(row) {
		return errors.New("destination count mismatch")
	}
	for i, v := range row {
		p, ok := dest[i].(*any)
		if !ok {
			return errors.New("expected *any destination")
		}
		*p = v
	}
	return nil
}

func (f *fakeRows) Columns() ([]string, error) { return f.cols, nil }

func (f *fakeRows) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRows) Err() error { return f.iterErr }
