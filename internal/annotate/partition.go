package annotate

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/sheetmark-cli/internal/table"
)

// ErrMaskLength is returned when a mask does not line up with the dataset rows.
var ErrMaskLength = errors.New("mask length does not match row count")

// Partition returns a copy of ds with rows whose mask entry is true first and
// the rest after, each group in its original relative order.
func Partition(ds *table.Dataset, mask []bool) (*table.Dataset, error) {
	if ds == nil {
		ds = &table.Dataset{}
	}
	if len(mask) != len(ds.Rows) {
		return nil, fmt.Errorf("%w: %d mask entries for %d rows", ErrMaskLength, len(mask), len(ds.Rows))
	}
	out := &table.Dataset{
		Columns: append([]string(nil), ds.Columns...),
		Rows:    make([]table.Row, 0, len(ds.Rows)),
	}
	for i, r := range ds.Rows {
		if mask[i] {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	for i, r := range ds.Rows {
		if !mask[i] {
			out.Rows = append(out.Rows, r.Clone())
		}
	}
	return out, nil
}
