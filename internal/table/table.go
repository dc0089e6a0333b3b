package table

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// DefaultIndexName names the step index when none is given.
const DefaultIndexName = "step"

// Table is an ordered, step-indexed set of rows sharing one column set.
type Table struct {
	indexName string
	columns   []string
	colIndex  map[string]int
	rows      [][]cty.Value
}

// New creates an empty table with a fixed column order.
func New(indexName string, columns []string) *Table {
	if indexName == "" {
		indexName = DefaultIndexName
	}
	colIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		colIndex[c] = i
	}
	return &Table{
		indexName: indexName,
		columns:   slices.Clone(columns),
		colIndex:  colIndex,
	}
}

// Append adds the row for the next step. The row must carry exactly the
// table's columns.
func (t *Table) Append(row map[string]cty.Value) error {
	values := make([]cty.Value, len(t.columns))
	var missing []string
	for i, c := range t.columns {
		v, ok := row[c]
		if !ok {
			missing = append(missing, c)
			continue
		}
		values[i] = v
	}
	if len(missing) > 0 {
		return fmt.Errorf("row %d is missing columns: %s", len(t.rows), strings.Join(missing, ", "))
	}
	if len(row) != len(t.columns) {
		var extra []string
		for c := range row {
			if _, ok := t.colIndex[c]; !ok {
				extra = append(extra, c)
			}
		}
		sort.Strings(extra)
		return fmt.Errorf("row %d has unknown columns: %s", len(t.rows), strings.Join(extra, ", "))
	}
	t.rows = append(t.rows, values)
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.rows)
}

// IndexName returns the name of the step index.
func (t *Table) IndexName() string {
	return t.indexName
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Index returns the step of every row, 0 through Len()-1.
func (t *Table) Index() []int {
	index := make([]int, len(t.rows))
	for i := range index {
		index[i] = i
	}
	return index
}

// Value returns the cell at the given step and column.
func (t *Table) Value(step int, column string) (cty.Value, bool) {
	c, ok := t.colIndex[column]
	if !ok || step < 0 || step >= len(t.rows) {
		return cty.NilVal, false
	}
	return t.rows[step][c], true
}

// Column returns every value of a column in step order.
func (t *Table) Column(column string) ([]cty.Value, bool) {
	c, ok := t.colIndex[column]
	if !ok {
		return nil, false
	}
	values := make([]cty.Value, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[c]
	}
	return values, true
}

// Row returns the cells of one step keyed by column.
func (t *Table) Row(step int) (map[string]cty.Value, bool) {
	if step < 0 || step >= len(t.rows) {
		return nil, false
	}
	row := make(map[string]cty.Value, len(t.columns))
	for i, c := range t.columns {
		row[c] = t.rows[step][i]
	}
	return row, true
}
