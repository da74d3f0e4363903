package sheet

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/sheetmark-cli/internal/table"
)

type xlsxFormat struct{}

func (xlsxFormat) CanRead(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xlsx")
}

func (xlsxFormat) Sheets(p string) ([]string, error) {
	wb, err := openWorkbook(p)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.Name
	}
	return names, nil
}

// Read parses the selected sheet. The first row is the header.
func (xlsxFormat) Read(p string, sel Selection) (*Sheet, error) {
	wb, err := openWorkbook(p)
	if err != nil {
		return nil, err
	}
	ws, target, err := wb.resolve(sel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
	}
	sheetXML := readZipFile(wb.zr, target)
	if sheetXML == nil {
		return nil, fmt.Errorf("%s: worksheet %s missing from archive", filepath.Base(p), target)
	}
	shared := parseSharedStrings(readZipFile(wb.zr, "xl/sharedStrings.xml"))
	styles := parseDateStyles(readZipFile(wb.zr, "xl/styles.xml"))
	rr := newSheetRowReader(sheetXML, shared, styles, wb.date1904)

	header, ok := rr.Next()
	if !ok {
		if err := rr.Err(); err != nil {
			return nil, fmt.Errorf("%s: read sheet %q: %w", filepath.Base(p), ws.Name, err)
		}
		ds, _ := table.New(nil, nil)
		return &Sheet{Name: ws.Name, Data: ds}, nil
	}
	var rows [][]table.Cell
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	if err := rr.Err(); err != nil {
		return nil, fmt.Errorf("%s: read sheet %q: %w", filepath.Base(p), ws.Name, err)
	}
	ds, err := buildDataset(header, rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
	}
	return &Sheet{Name: ws.Name, Data: ds}, nil
}

type workbook struct {
	zr       *zip.Reader
	sheets   []wbSheet
	rels     map[string]string
	date1904 bool
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

func openWorkbook(p string) (*workbook, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wb := &workbook{zr: zr}
	wb.sheets, wb.date1904 = parseWorkbook(readZipFile(zr, "xl/workbook.xml"))
	wb.rels = parseRelationships(readZipFile(zr, "xl/_rels/workbook.xml.rels"))
	if len(wb.sheets) == 0 {
		return nil, fmt.Errorf("open xlsx: %s has no worksheets", filepath.Base(p))
	}
	return wb, nil
}

// resolve finds the requested sheet and its archive path. A name wins over an
// index; the index is 1-based and counts sheets in workbook order.
func (wb *workbook) resolve(sel Selection) (wbSheet, string, error) {
	var ws wbSheet
	found := false
	if sel.Name != "" {
		for _, s := range wb.sheets {
			if strings.EqualFold(s.Name, sel.Name) {
				ws, found = s, true
				break
			}
		}
		if !found {
			names := make([]string, len(wb.sheets))
			for i, s := range wb.sheets {
				names[i] = s.Name
			}
			return ws, "", fmt.Errorf("sheet '%s' not found; available sheets: %s", sel.Name, strings.Join(names, ", "))
		}
	} else {
		idx := sel.Index
		if idx <= 0 {
			idx = 1
		}
		if idx > len(wb.sheets) {
			return ws, "", fmt.Errorf("sheet index %d out of range (workbook has %d sheets)", idx, len(wb.sheets))
		}
		ws = wb.sheets[idx-1]
	}
	target := ""
	if rel, ok := wb.rels[ws.RID]; ok {
		target = normalizeRelPath(rel)
	}
	if target == "" {
		target = path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", ws.SheetID))
	}
	return ws, target, nil
}

// parseWorkbook extracts sheet entries and the 1904 date-system flag.
func parseWorkbook(data []byte) ([]wbSheet, bool) {
	if len(data) == 0 {
		return nil, false
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	date1904 := false
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets, date1904
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "workbookPr":
			for _, a := range se.Attr {
				if a.Name.Local == "date1904" {
					date1904 = a.Value == "1" || strings.EqualFold(a.Value, "true")
				}
			}
		case "sheet":
			var s wbSheet
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "name":
					s.Name = a.Value
				case "sheetId":
					s.SheetID = atoiSafe(a.Value)
				case "id":
					s.RID = a.Value // r: namespace
				}
			}
			sheets = append(sheets, s)
		}
	}
}

// parseRelationships returns map[r:id]Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "Relationship" {
			var id, target string
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "Id":
					id = a.Value
				case "Target":
					target = a.Value
				}
			}
			if id != "" && target != "" {
				out[id] = target
			}
		}
	}
}

func readZipFile(zr *zip.Reader, name string) []byte {
	for _, f := range zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil
			}
			defer rc.Close()
			b, _ := io.ReadAll(rc)
			return b
		}
	}
	return nil
}

// parseSharedStrings collects the text of each <si>. Phonetic runs (<rPh>)
// are skipped so CJK cells keep only their visible text.
func parseSharedStrings(data []byte) []string {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	var buf strings.Builder
	inT, inPh := false, false
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "si":
				buf.Reset()
			case "rPh":
				inPh = true
			case "t":
				inT = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "t":
				inT = false
			case "rPh":
				inPh = false
			case "si":
				out = append(out, buf.String())
				buf.Reset()
			}
		case xml.CharData:
			if inT && !inPh {
				buf.Write(se)
			}
		}
	}
}

// parseDateStyles reports, per cellXfs index, whether the number format is a
// date or time format.
func parseDateStyles(data []byte) []bool {
	if len(data) == 0 {
		return nil
	}
	custom := map[int]string{}
	var out []bool
	dec := xml.NewDecoder(bytes.NewReader(data))
	inCellXfs := false
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "numFmt":
				var id int
				var code string
				for _, a := range se.Attr {
					switch a.Name.Local {
					case "numFmtId":
						id = atoiSafe(a.Value)
					case "formatCode":
						code = a.Value
					}
				}
				custom[id] = code
			case "cellXfs":
				inCellXfs = true
			case "xf":
				if !inCellXfs {
					continue
				}
				id := 0
				for _, a := range se.Attr {
					if a.Name.Local == "numFmtId" {
						id = atoiSafe(a.Value)
					}
				}
				if code, ok := custom[id]; ok {
					out = append(out, isDateFormatCode(code))
				} else {
					out = append(out, isBuiltinDateFormat(id))
				}
			}
		case xml.EndElement:
			if se.Name.Local == "cellXfs" {
				inCellXfs = false
			}
		}
	}
	return out
}

func isBuiltinDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36: // CJK locale dates
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58: // CJK locale dates
		return true
	}
	return false
}

// isDateFormatCode looks for date/time tokens outside quoted literals,
// bracketed sections and escaped characters.
func isDateFormatCode(code string) bool {
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			if r == '"' {
				inQuote = false
			}
		case inBracket:
			if r == ']' {
				inBracket = false
			}
		case r == '\\':
			escaped = true
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		default:
			switch r {
			case 'y', 'Y', 'm', 'M', 'd', 'D', 'h', 'H', 's', 'S':
				return true
			}
		}
	}
	return false
}

// sheet row reader
type sheetRowReader struct {
	dec      *xml.Decoder
	shared   []string
	dates    []bool
	date1904 bool
	err      error
}

func newSheetRowReader(data []byte, shared []string, dates []bool, date1904 bool) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared, dates: dates, date1904: date1904}
}

// Err returns the first decode error other than io.EOF.
func (r *sheetRowReader) Err() error { return r.err }

// Next returns the cells of the next <row>, positioned by their references.
func (r *sheetRowReader) Next() ([]table.Cell, bool) {
	var cur []table.Cell
	inRow := false
	next := 0
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				inRow = true
				cur = nil
				next = 0
				continue
			}
			if !inRow || se.Name.Local != "c" {
				continue
			}
			var ref, typ string
			style := -1
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "r":
					ref = a.Value
				case "t":
					typ = a.Value
				case "s":
					style = atoiSafe(a.Value)
				}
			}
			col := next
			if ref != "" {
				col = colIndexFromRef(ref)
			}
			if col < 0 {
				col = next
			}
			next = col + 1
			raw := r.readCellValue()
			if len(cur) <= col {
				tmp := make([]table.Cell, col+1)
				copy(tmp, cur)
				cur = tmp
			}
			cur[col] = r.convert(raw, typ, style)
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return cur, true
			}
		}
	}
}

// readCellValue consumes tokens up to </c> and returns the concatenated text
// of its <v> or <is><t> children.
func (r *sheetRowReader) readCellValue() string {
	var sb strings.Builder
	capture, inPh := false, false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return sb.String()
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "v", "t":
				capture = true
			case "rPh":
				inPh = true
			}
		case xml.EndElement:
			switch se.Name.Local {
			case "v", "t":
				capture = false
			case "rPh":
				inPh = false
			case "c":
				return sb.String()
			}
		case xml.CharData:
			if capture && !inPh {
				sb.Write(se)
			}
		}
	}
}

func (r *sheetRowReader) convert(raw, typ string, style int) table.Cell {
	switch typ {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil || idx < 0 || idx >= len(r.shared) || r.shared[idx] == "" {
			return table.Empty()
		}
		return table.Text(r.shared[idx])
	case "inlineStr", "str":
		if raw == "" {
			return table.Empty()
		}
		return table.Text(raw)
	case "b":
		if strings.TrimSpace(raw) == "1" {
			return table.Text("TRUE")
		}
		return table.Text("FALSE")
	case "e":
		return table.Empty()
	case "d":
		for _, l := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(l, raw); err == nil {
				return table.Date(t)
			}
		}
		return table.Text(raw)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return table.Empty()
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return table.Text(raw)
	}
	if style >= 0 && style < len(r.dates) && r.dates[style] {
		return table.Date(serialToTime(f, r.date1904))
	}
	return table.Number(f)
}

var (
	epoch1900 = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	epoch1904 = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
)

// serialToTime converts an Excel serial date, rounded to the second.
func serialToTime(serial float64, date1904 bool) time.Time {
	base := epoch1900
	if date1904 {
		base = epoch1904
	}
	secs := math.Round(serial * 86400)
	return base.Add(time.Duration(secs) * time.Second)
}

// timeToSerial is the inverse of serialToTime for the 1900 date system.
func timeToSerial(t time.Time) float64 {
	d := t.Sub(epoch1900)
	return d.Seconds() / 86400
}

// helpers for refs like "C12" -> 2 (0-based index)
func colIndexFromRef(ref string) int {
	i := 0
	for i < len(ref) {
		c := ref[i]
		if c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' {
			i++
			continue
		}
		break
	}
	s := strings.ToUpper(ref[:i])
	idx := 0
	for j := 0; j < len(s); j++ {
		idx = idx*26 + int(s[j]-'A'+1)
	}
	return idx - 1
}

// colName is the inverse of colIndexFromRef: 0 -> "A", 27 -> "AB".
func colName(idx int) string {
	var b []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts relationship Target paths to ZIP-compatible paths.
// Targets may carry a leading slash, but ZIP entries don't.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
