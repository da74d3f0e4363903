package sheet

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/sheetmark-cli/internal/table"
)

// Markdown renders the first n rows of ds as a markdown table with every cell
// shown as text. n <= 0 renders all rows.
func Markdown(ds *table.Dataset, n int) string {
	if ds == nil || len(ds.Columns) == 0 {
		return "(empty sheet)\n"
	}
	head := ds.Head(n)
	var sb strings.Builder
	sb.WriteString("| ")
	for i, c := range head.Columns {
		if i > 0 {
			sb.WriteString(" | ")
		}
		sb.WriteString(safeVal(c))
	}
	sb.WriteString(" |\n|")
	for range head.Columns {
		sb.WriteString(" --- |")
	}
	sb.WriteString("\n")
	for _, r := range head.Rows {
		sb.WriteString("| ")
		for j, c := range r {
			if j > 0 {
				sb.WriteString(" | ")
			}
			sb.WriteString(safeVal(c.Text()))
		}
		sb.WriteString(" |\n")
	}
	if rest := ds.Len() - head.Len(); rest > 0 {
		sb.WriteString(fmt.Sprintf("… %d more rows\n", rest))
	}
	return sb.String()
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
