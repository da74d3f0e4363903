package sheet

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/sheetmark-cli/internal/table"
	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestLoadCSVInfersCells(t *testing.T) {
	p := writeFile(t, "orders.csv", "\uFEFFid,qty,shipped,zip\n"+
		"A1,12,2024-08-10,0012\n"+
		"A2,,2024-08-12 09:30:00,10115\n"+
		",,,\n"+
		"A3,3.5,soon\n")
	s, err := Load(p, Selection{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.Name != "orders" {
		t.Fatalf("sheet name = %q", s.Name)
	}
	if diff := cmp.Diff([]string{"id", "qty", "shipped", "zip"}, s.Data.Columns); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
	if s.Data.Len() != 3 {
		t.Fatalf("rows = %d, want 3 (blank row dropped)", s.Data.Len())
	}
	kinds := func(r table.Row) []table.Kind {
		out := make([]table.Kind, len(r))
		for i, c := range r {
			out[i] = c.Kind
		}
		return out
	}
	want := [][]table.Kind{
		{table.KindText, table.KindNumber, table.KindDate, table.KindText},
		{table.KindText, table.KindEmpty, table.KindDate, table.KindNumber},
		{table.KindText, table.KindNumber, table.KindText, table.KindEmpty},
	}
	for i, r := range s.Data.Rows {
		if diff := cmp.Diff(want[i], kinds(r)); diff != "" {
			t.Errorf("row %d kinds (-want +got):\n%s", i, diff)
		}
	}
}

func TestLoadCSVHeaderNormalization(t *testing.T) {
	p := writeFile(t, "dups.csv", "a,,a,a\n1,2,3,4,5\n")
	s, err := Load(p, Selection{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"a", "Unnamed: 1", "a.1", "a.2", "Unnamed: 4"}
	if diff := cmp.Diff(want, s.Data.Columns); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
}

func TestLoadTSVAndExplicitDelimiter(t *testing.T) {
	p := writeFile(t, "data.tsv", "name\tnote\nx\ta,b\n")
	s, err := Load(p, Selection{})
	if err != nil {
		t.Fatalf("load tsv: %v", err)
	}
	if got := s.Data.Rows[0][1].Text(); got != "a,b" {
		t.Fatalf("note = %q", got)
	}
	p = writeFile(t, "semi.csv", "name;note\nx;y\n")
	s, err = Load(p, Selection{Delimiter: ';'})
	if err != nil {
		t.Fatalf("load semicolon: %v", err)
	}
	if diff := cmp.Diff([]string{"name", "note"}, s.Data.Columns); diff != "" {
		t.Fatalf("columns (-want +got):\n%s", diff)
	}
}

func TestCSVWriteReadRoundTrip(t *testing.T) {
	ds, err := table.FromStrings([]string{"fruit", "備註欄"}, [][]string{
		{"banana", "found"},
		{"apple, red", ""},
		{"say \"hi\"", ""},
	})
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	p := filepath.Join(t.TempDir(), "out.csv")
	if err := Save(p, &Sheet{Name: "out", Data: ds}); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.HasPrefix(string(b), "\uFEFFfruit,備註欄\n") {
		t.Fatalf("unexpected header bytes: %q", b[:32])
	}
	got, err := Load(p, Selection{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(ds.Records(), got.Data.Records()); diff != "" {
		t.Fatalf("round trip (-want +got):\n%s", diff)
	}
}

func TestLoadEmptyCSV(t *testing.T) {
	p := writeFile(t, "empty.csv", "")
	s, err := Load(p, Selection{})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Data.Columns) != 0 || s.Data.Len() != 0 {
		t.Fatalf("expected empty dataset, got %+v", s.Data)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	p := writeFile(t, "notes.txt", "hello")
	if _, err := Load(p, Selection{}); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := List("legacy.xls"); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for .xls, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "gone.xlsx"), Selection{}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestOutputPath(t *testing.T) {
	tests := map[string]string{
		"report.xlsx":        "report_processed.xlsx",
		"/data/q1.sales.csv": "/data/q1.sales_processed.csv",
		"noext":              "noext_processed",
	}
	for in, want := range tests {
		if got := OutputPath(in, "_processed"); got != want {
			t.Errorf("OutputPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMarkdownPreview(t *testing.T) {
	ds, err := table.FromStrings([]string{"a", "b|c"}, [][]string{{"1", "x\ny"}, {"2", ""}, {"3", "z"}})
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	md := Markdown(ds, 2)
	want := "| a | b/c |\n| --- | --- |\n| 1 | x y |\n| 2 |  |\n… 1 more rows\n"
	if md != want {
		t.Fatalf("markdown:\n%s\nwant:\n%s", md, want)
	}
	if got := Markdown(&table.Dataset{}, 5); got != "(empty sheet)\n" {
		t.Fatalf("empty markdown = %q", got)
	}
}
