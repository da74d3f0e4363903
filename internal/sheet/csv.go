package sheet

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/sheetmark-cli/internal/table"
	"github.com/KaramelBytes/sheetmark-cli/internal/utils"
)

type csvFormat struct{}

func (csvFormat) CanRead(filename string) bool {
	name := strings.ToLower(filename)
	return strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".tsv")
}

func (csvFormat) Sheets(path string) ([]string, error) {
	return []string{csvSheetName(path)}, nil
}

func (csvFormat) Read(path string, sel Selection) (*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	delim := sel.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(path)
	}
	ds, err := decodeCSV(f, delim)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return &Sheet{Name: csvSheetName(path), Data: ds}, nil
}

func decodeCSV(r io.Reader, delim rune) (*table.Dataset, error) {
	cr := csv.NewReader(stripBOM(r))
	cr.FieldsPerRecord = -1
	cr.Comma = delim

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return table.New(nil, nil)
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	head := make([]table.Cell, len(header))
	for i, h := range header {
		head[i] = table.Text(h)
	}
	var rows [][]table.Cell
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		row := make([]table.Cell, len(rec))
		for j, v := range rec {
			row[j] = table.Infer(v)
		}
		rows = append(rows, row)
	}
	return buildDataset(head, rows)
}

// stripBOM drops a leading UTF-8 byte order mark, which Excel adds to CSV exports.
func stripBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if b, err := br.Peek(3); err == nil && bytes.Equal(b, []byte("\uFEFF")) {
		_, _ = br.Discard(3)
	}
	return br
}

func (csvFormat) Write(path string, s *Sheet) error {
	var buf bytes.Buffer
	// BOM so Excel opens UTF-8 (e.g. the remark column header) correctly.
	buf.WriteString("\uFEFF")
	cw := csv.NewWriter(&buf)
	cw.Comma = sniffDelimiter(path)
	if err := cw.WriteAll(s.Data.Records()); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}

func csvSheetName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
