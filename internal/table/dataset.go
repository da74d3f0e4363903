// Package table holds the in-memory tabular model shared by the spreadsheet
// adapters and the annotation pipeline.
package table

import (
	"fmt"
)

// Row is one record, positionally aligned with Dataset.Columns.
type Row []Cell

// Clone returns a copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	copy(out, r)
	return out
}

// Dataset is an ordered set of named columns and the rows that fill them.
// Every row has exactly len(Columns) cells.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// New builds a Dataset from a header and rows. Short rows are padded with
// empty cells; rows wider than the header are rejected.
func New(columns []string, rows []Row) (*Dataset, error) {
	ds := &Dataset{
		Columns: append([]string(nil), columns...),
		Rows:    make([]Row, 0, len(rows)),
	}
	for i, r := range rows {
		if len(r) > len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, header has %d columns", i+1, len(r), len(columns))
		}
		row := make(Row, len(columns))
		copy(row, r)
		ds.Rows = append(ds.Rows, row)
	}
	return ds, nil
}

// FromStrings builds a Dataset of inferred cells from string records.
func FromStrings(columns []string, records [][]string) (*Dataset, error) {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row := make(Row, len(rec))
		for j, v := range rec {
			row[j] = Infer(v)
		}
		rows = append(rows, row)
	}
	return New(columns, rows)
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Clone returns a deep copy; mutating the copy never affects d.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	out := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i, r := range d.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// ColumnIndex returns the position of the named column, or -1.
// Names are compared exactly.
func (d *Dataset) ColumnIndex(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the dataset has a column with this exact name.
func (d *Dataset) HasColumn(name string) bool { return d.ColumnIndex(name) >= 0 }

// AppendColumn adds a column at the end and fills every row with fill.
// It returns the index of the new column.
func (d *Dataset) AppendColumn(name string, fill Cell) int {
	d.Columns = append(d.Columns, name)
	for i := range d.Rows {
		d.Rows[i] = append(d.Rows[i], fill)
	}
	return len(d.Columns) - 1
}

// Column returns the cells of column idx in row order.
func (d *Dataset) Column(idx int) []Cell {
	out := make([]Cell, len(d.Rows))
	for i, r := range d.Rows {
		if idx < len(r) {
			out[i] = r[idx]
		}
	}
	return out
}

// Head returns a shallow view of the first n rows (all rows if n <= 0 or n > Len).
func (d *Dataset) Head(n int) *Dataset {
	if n <= 0 || n > len(d.Rows) {
		n = len(d.Rows)
	}
	return &Dataset{Columns: d.Columns, Rows: d.Rows[:n]}
}

// Records renders every cell as text, header first.
func (d *Dataset) Records() [][]string {
	out := make([][]string, 0, len(d.Rows)+1)
	out = append(out, append([]string(nil), d.Columns...))
	for _, r := range d.Rows {
		rec := make([]string, len(r))
		for j, c := range r {
			rec[j] = c.Text()
		}
		out = append(out, rec)
	}
	return out
}
