// Package annotate labels the rows of a dataset whose search column matches a
// predicate and moves those rows to the top.
package annotate

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/sheetmark-cli/internal/table"
)

// RemarkColumn is the column that receives the label for matching rows.
const RemarkColumn = "備註欄"

// Predicate decides whether a cell's text matches.
type Predicate interface {
	Match(value string) bool
}

// PredicateFunc adapts a function to the Predicate interface.
type PredicateFunc func(value string) bool

func (f PredicateFunc) Match(value string) bool { return f(value) }

// ColumnNotFoundError reports a search column missing from the dataset.
type ColumnNotFoundError struct {
	Column    string
	Available []string
}

func (e *ColumnNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("column %q not found (dataset has no columns)", e.Column)
	}
	return fmt.Sprintf("column %q not found; available columns: %s", e.Column, strings.Join(e.Available, ", "))
}

// Result is the outcome of an annotation.
type Result struct {
	Dataset *table.Dataset
	// Mask[i] is true when row i of the input matched.
	Mask  []bool
	Count int
}

// Annotate copies ds, makes sure the remark column exists, and writes label
// into it for every row whose column value satisfies pred. Row order is kept.
// ds itself is never modified.
func Annotate(ds *table.Dataset, column string, pred Predicate, label string) (*Result, error) {
	if ds == nil {
		ds = &table.Dataset{}
	}
	searchIdx := ds.ColumnIndex(column)
	if searchIdx < 0 {
		return nil, &ColumnNotFoundError{Column: column, Available: append([]string(nil), ds.Columns...)}
	}

	out := ds.Clone()
	remarkIdx := out.ColumnIndex(RemarkColumn)
	if remarkIdx < 0 {
		remarkIdx = out.AppendColumn(RemarkColumn, table.Text(""))
	}

	mask := make([]bool, len(out.Rows))
	count := 0
	for i, row := range out.Rows {
		cell := row[searchIdx]
		row[remarkIdx] = table.Text(row[remarkIdx].Text())
		if cell.IsEmpty() || pred == nil {
			continue
		}
		if pred.Match(cell.Text()) {
			mask[i] = true
			count++
			row[remarkIdx] = table.Text(label)
		}
	}
	return &Result{Dataset: out, Mask: mask, Count: count}, nil
}
