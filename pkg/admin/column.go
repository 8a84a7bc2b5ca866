package admin

import (
	"encoding/csv"
	"fmt"
	"io"
)

// Column is one table column over items of type T.
type Column[T any] struct {
	// Name is the backend field, used as the sort key.
	Name string
	// Label is the header text.
	Label string
	// Sortable columns may be passed to the sort parameter.
	Sortable bool
	// Width is the preferred display width in cells.
	Width int
	// Value renders the cell.
	Value func(T) string
}

// Resource describes one listable backend resource.
type Resource[T any] struct {
	Name    string
	Title   string
	Path    string
	Columns []Column[T]
	ID      func(T) int
}

// Headers returns the column labels.
func (r Resource[T]) Headers() []string {
	headers := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		headers[i] = col.Label
	}
	return headers
}

// Row projects item onto the columns.
func (r Resource[T]) Row(item T) []string {
	row := make([]string, len(r.Columns))
	for i, col := range r.Columns {
		row[i] = col.Value(item)
	}
	return row
}

// Rows projects every item.
func (r Resource[T]) Rows(items []T) [][]string {
	rows := make([][]string, len(items))
	for i, item := range items {
		rows[i] = r.Row(item)
	}
	return rows
}

// Column returns the column with the given backend name.
func (r Resource[T]) Column(name string) (Column[T], bool) {
	for _, col := range r.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column[T]{}, false
}

// SortableColumn returns the name of the i-th column if it can be sorted.
func (r Resource[T]) SortableColumn(i int) (string, bool) {
	if i < 0 || i >= len(r.Columns) || !r.Columns[i].Sortable {
		return "", false
	}
	return r.Columns[i].Name, true
}

// IDs returns the ids of items.
func (r Resource[T]) IDs(items []T) []int {
	ids := make([]int, len(items))
	for i, item := range items {
		ids[i] = r.ID(item)
	}
	return ids
}

// WriteCSV writes a header row and one row per item.
func (r Resource[T]) WriteCSV(w io.Writer, items []T) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Headers()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, item := range items {
		if err := cw.Write(r.Row(item)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
