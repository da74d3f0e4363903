// Package sheet decodes spreadsheet files into table.Dataset values and
// encodes annotated datasets back to disk.
package sheet

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/sheetmark-cli/internal/table"
)

// Selection picks the sheet to read from a workbook and tunes CSV decoding.
type Selection struct {
	// Name selects a sheet by name (case-insensitive). Takes precedence over Index.
	Name string
	// Index is 1-based; 0 means the first sheet.
	Index int
	// Delimiter for CSV. If 0, derived from the file extension.
	Delimiter rune
}

// Sheet is one decoded worksheet.
type Sheet struct {
	Name string
	Data *table.Dataset
}

// Format reads and writes one spreadsheet file type.
type Format interface {
	CanRead(filename string) bool
	Sheets(path string) ([]string, error)
	Read(path string, sel Selection) (*Sheet, error)
	Write(path string, s *Sheet) error
}

var registry []Format

// Register adds a format implementation to the registry.
func Register(f Format) {
	registry = append(registry, f)
}

func init() {
	Register(xlsxFormat{})
	Register(csvFormat{})
}

// ErrUnsupported indicates a file type no registered format handles.
var ErrUnsupported = errors.New("unsupported spreadsheet format")

func formatFor(path string) (Format, error) {
	for _, f := range registry {
		if f.CanRead(path) {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(path))
}

// Load decodes the selected sheet of the file at path.
func Load(path string, sel Selection) (*Sheet, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return f.Read(path, sel)
}

// List returns the sheet names of the file at path. CSV files report a single
// sheet named after the file.
func List(path string) ([]string, error) {
	f, err := formatFor(path)
	if err != nil {
		return nil, err
	}
	return f.Sheets(path)
}

// Save encodes s to path using the format implied by its extension.
func Save(path string, s *Sheet) error {
	f, err := formatFor(path)
	if err != nil {
		return err
	}
	if s == nil || s.Data == nil {
		return errors.New("nothing to write")
	}
	return f.Write(path, s)
}

// OutputPath derives the default output file for input: the base name plus
// suffix, keeping the extension.
func OutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	base := strings.TrimSuffix(input, ext)
	return base + suffix + ext
}

// buildDataset turns a header row and data rows into a Dataset. Blank header
// names become "Unnamed: i", repeated names get ".1", ".2" suffixes, and rows
// with no values are dropped.
func buildDataset(header []table.Cell, rows [][]table.Cell) (*table.Dataset, error) {
	width := len(header)
	kept := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		if blankRow(r) {
			continue
		}
		r = trimTrailingEmpty(r)
		if len(r) > width {
			width = len(r)
		}
		kept = append(kept, table.Row(r))
	}
	names := make([]string, width)
	for i := range names {
		if i < len(header) {
			names[i] = strings.TrimSpace(header[i].Text())
		}
	}
	return table.New(normalizeHeader(names), kept)
}

func normalizeHeader(names []string) []string {
	out := make([]string, len(names))
	seen := make(map[string]int, len(names))
	for i, n := range names {
		if n == "" {
			n = fmt.Sprintf("Unnamed: %d", i)
		}
		if c, ok := seen[n]; ok {
			seen[n] = c + 1
			n = fmt.Sprintf("%s.%d", n, c+1)
		} else {
			seen[n] = 0
		}
		out[i] = n
	}
	return out
}

func blankRow(r []table.Cell) bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

func trimTrailingEmpty(r []table.Cell) []table.Cell {
	n := len(r)
	for n > 0 && r[n-1].IsEmpty() {
		n--
	}
	return r[:n]
}
