package sheet

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/sheetmark-cli/internal/table"
	"github.com/KaramelBytes/sheetmark-cli/internal/utils"
)

// Style indexes into the cellXfs written by stylesXML.
const (
	styleDefault  = 0
	styleDate     = 1
	styleDateTime = 2
)

const (
	nsMain = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	nsRel  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPkg  = "http://schemas.openxmlformats.org/package/2006/relationships"
)

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
	`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
	`<Default Extension="xml" ContentType="application/xml"/>` +
	`<Override PartName="/xl/workbook.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"/>` +
	`<Override PartName="/xl/worksheets/sheet1.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"/>` +
	`<Override PartName="/xl/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"/>` +
	`</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="` + nsPkg + `">` +
	`<Relationship Id="rId1" Type="` + nsRel + `/officeDocument" Target="xl/workbook.xml"/>` +
	`</Relationships>`

const workbookRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="` + nsPkg + `">` +
	`<Relationship Id="rId1" Type="` + nsRel + `/worksheet" Target="worksheets/sheet1.xml"/>` +
	`<Relationship Id="rId2" Type="` + nsRel + `/styles" Target="styles.xml"/>` +
	`</Relationships>`

const stylesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<styleSheet xmlns="` + nsMain + `">` +
	`<numFmts count="1"><numFmt numFmtId="164" formatCode="yyyy-mm-dd hh:mm:ss"/></numFmts>` +
	`<fonts count="1"><font><sz val="11"/><name val="Calibri"/></font></fonts>` +
	`<fills count="2"><fill><patternFill patternType="none"/></fill><fill><patternFill patternType="gray125"/></fill></fills>` +
	`<borders count="1"><border><left/><right/><top/><bottom/><diagonal/></border></borders>` +
	`<cellStyleXfs count="1"><xf numFmtId="0" fontId="0" fillId="0" borderId="0"/></cellStyleXfs>` +
	`<cellXfs count="3">` +
	`<xf numFmtId="0" fontId="0" fillId="0" borderId="0" xfId="0"/>` +
	`<xf numFmtId="14" fontId="0" fillId="0" borderId="0" xfId="0" applyNumberFormat="1"/>` +
	`<xf numFmtId="164" fontId="0" fillId="0" borderId="0" xfId="0" applyNumberFormat="1"/>` +
	`</cellXfs>` +
	`<cellStyles count="1"><cellStyle name="Normal" xfId="0" builtinId="0"/></cellStyles>` +
	`</styleSheet>`

// Write encodes s as a single-sheet workbook. Text is stored as inline
// strings, numbers as values, dates as serials with a date style.
func (xlsxFormat) Write(p string, s *Sheet) error {
	var buf bytes.Buffer
	if err := encodeXLSX(&buf, s); err != nil {
		return err
	}
	return utils.SafeWriteFile(p, buf.Bytes())
}

func encodeXLSX(w io.Writer, s *Sheet) error {
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body []byte
	}{
		{"[Content_Types].xml", []byte(contentTypesXML)},
		{"_rels/.rels", []byte(rootRelsXML)},
		{"xl/workbook.xml", workbookXML(SheetName(s.Name))},
		{"xl/_rels/workbook.xml.rels", []byte(workbookRelsXML)},
		{"xl/styles.xml", []byte(stylesXML)},
		{"xl/worksheets/sheet1.xml", worksheetXML(s.Data)},
	}
	for _, part := range parts {
		fw, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("create %s: %w", part.name, err)
		}
		if _, err := fw.Write(part.body); err != nil {
			return fmt.Errorf("write %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finish xlsx: %w", err)
	}
	return nil
}

func workbookXML(name string) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<workbook xmlns="` + nsMain + `" xmlns:r="` + nsRel + `"><sheets><sheet name="`)
	escape(&b, name)
	b.WriteString(`" sheetId="1" r:id="rId1"/></sheets></workbook>`)
	return b.Bytes()
}

func worksheetXML(ds *table.Dataset) []byte {
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<worksheet xmlns="` + nsMain + `"><sheetData>`)
	header := make(table.Row, len(ds.Columns))
	for i, c := range ds.Columns {
		header[i] = table.Text(c)
	}
	writeRow(&b, 1, header)
	for i, r := range ds.Rows {
		writeRow(&b, i+2, r)
	}
	b.WriteString(`</sheetData></worksheet>`)
	return b.Bytes()
}

func writeRow(b *bytes.Buffer, n int, row table.Row) {
	rn := strconv.Itoa(n)
	b.WriteString(`<row r="` + rn + `">`)
	for j, c := range row {
		ref := colName(j) + rn
		switch c.Kind {
		case table.KindText:
			if c.Str == "" {
				continue
			}
			b.WriteString(`<c r="` + ref + `" t="inlineStr"><is><t xml:space="preserve">`)
			escape(b, c.Str)
			b.WriteString(`</t></is></c>`)
		case table.KindNumber:
			if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
				continue
			}
			b.WriteString(`<c r="` + ref + `"><v>` + strconv.FormatFloat(c.Num, 'g', -1, 64) + `</v></c>`)
		case table.KindDate:
			style := styleDateTime
			if h, m, s := c.Time.Clock(); h == 0 && m == 0 && s == 0 {
				style = styleDate
			}
			serial := strconv.FormatFloat(timeToSerial(c.Time), 'f', -1, 64)
			b.WriteString(`<c r="` + ref + `" s="` + strconv.Itoa(style) + `"><v>` + serial + `</v></c>`)
		}
	}
	b.WriteString(`</row>`)
}

func escape(b *bytes.Buffer, s string) {
	_ = xml.EscapeText(b, []byte(s))
}

// SheetName makes name acceptable to Excel: at most 31 characters, none of
// []:*?/\ and not empty.
func SheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', ':', '*', '?', '/', '\\':
			return '_'
		}
		return r
	}, strings.TrimSpace(name))
	name = strings.Trim(name, "'")
	if r := []rune(name); len(r) > 31 {
		name = string(r[:31])
	}
	if name == "" {
		return "Sheet1"
	}
	return name
}
