// Package dataset provides the columnar continuous dataset scores are
// evaluated against.
package dataset

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidShape is returned when columns are empty or ragged, or when
	// names and columns disagree in count.
	ErrInvalidShape = errors.New("dataset: invalid shape")

	// ErrDuplicateName is returned when two columns share a name.
	ErrDuplicateName = errors.New("dataset: duplicate column name")
)

// Dataset is an immutable set of named float64 columns of equal length.
// Column order is significant: scores and models built from the same
// dataset share its column indexing.
type Dataset struct {
	names []string
	index map[string]int
	cols  [][]float64
	rows  int
}

// New creates a Dataset from names and columns. All columns must be
// non-empty and of equal length. The column slices are retained, not
// copied; callers must not mutate them afterwards.
func New(names []string, cols [][]float64) (*Dataset, error) {
	if len(names) == 0 || len(names) != len(cols) {
		return nil, fmt.Errorf("%w: %d names, %d columns", ErrInvalidShape, len(names), len(cols))
	}

	rows := len(cols[0])
	if rows == 0 {
		return nil, fmt.Errorf("%w: empty columns", ErrInvalidShape)
	}
	for i, col := range cols {
		if len(col) != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrInvalidShape, names[i], len(col), rows)
		}
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
		}
		index[name] = i
	}

	return &Dataset{
		names: names,
		index: index,
		cols:  cols,
		rows:  rows,
	}, nil
}

// NumRows returns the number of observations.
func (d *Dataset) NumRows() int { return d.rows }

// NumColumns returns the number of variables.
func (d *Dataset) NumColumns() int { return len(d.cols) }

// Names returns a copy of the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Name returns the name of column i.
func (d *Dataset) Name(i int) string { return d.names[i] }

// Index returns the index of the named column, if present.
func (d *Dataset) Index(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Column returns the data of column i. The returned slice is shared with
// the dataset and must be treated as read-only.
func (d *Dataset) Column(i int) []float64 { return d.cols[i] }

// Columns returns the underlying column slices, shared and read-only.
func (d *Dataset) Columns() [][]float64 { return d.cols }
