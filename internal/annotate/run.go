package annotate

import (
	"github.com/KaramelBytes/sheetmark-cli/internal/match"
	"github.com/KaramelBytes/sheetmark-cli/internal/table"
)

// Request describes one annotation run.
type Request struct {
	Column        string
	Patterns      []string
	Label         string
	CaseSensitive bool
	WholeCell     bool
}

// Run compiles the request patterns, annotates ds and moves matching rows to
// the top. Result.Mask stays in the input row order.
func Run(ds *table.Dataset, req Request) (*Result, error) {
	m, err := match.CompileWith(req.Patterns, match.Options{
		CaseSensitive: req.CaseSensitive,
		WholeCell:     req.WholeCell,
	})
	if err != nil {
		return nil, err
	}
	res, err := Annotate(ds, req.Column, m, req.Label)
	if err != nil {
		return nil, err
	}
	sorted, err := Partition(res.Dataset, res.Mask)
	if err != nil {
		return nil, err
	}
	res.Dataset = sorted
	return res, nil
}
