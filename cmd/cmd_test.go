package cmd

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/sheetmark-cli/internal/annotate"
	"github.com/KaramelBytes/sheetmark-cli/internal/rules"
	"github.com/KaramelBytes/sheetmark-cli/internal/sheet"
	"github.com/KaramelBytes/sheetmark-cli/internal/table"
	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// resetFlags clears values and Changed state that cobra keeps between
// Execute calls on the same command tree.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		if sv, ok := fl.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = fl.Value.Set(fl.DefValue)
		}
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// runCmd executes the root command with args and returns what it printed.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := runCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

// isolate points HOME at a temp dir so config and presets stay local.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func writeFruits(t *testing.T, dir string) string {
	t.Helper()
	p := filepath.Join(dir, "fruits.csv")
	body := "id,fruit,price\n1,apple,10\n2,banana,5\n3,Banana split,7\n4,cherry,3\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func loadRecords(t *testing.T, path string) [][]string {
	t.Helper()
	s, err := sheet.Load(path, sheet.Selection{})
	if err != nil {
		t.Fatalf("load %s: %v", path, err)
	}
	return s.Data.Records()
}

func TestCLI_MarkCSV(t *testing.T) {
	home := isolate(t)
	in := writeFruits(t, home)

	out := mustRun(t, "mark", in, "-c", "fruit", "-k", "ban*", "-l", "found")
	if !strings.Contains(out, "found and labelled 2 matching rows") {
		t.Fatalf("missing success line:\n%s", out)
	}

	want := [][]string{
		{"id", "fruit", "price", annotate.RemarkColumn},
		{"2", "banana", "5", "found"},
		{"3", "Banana split", "7", "found"},
		{"1", "apple", "10", ""},
		{"4", "cherry", "3", ""},
	}
	got := loadRecords(t, filepath.Join(home, "fruits_processed.csv"))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}
}

func TestCLI_MarkCaseSensitiveAndWholeCell(t *testing.T) {
	home := isolate(t)
	in := writeFruits(t, home)
	dest := filepath.Join(home, "strict.csv")

	out := mustRun(t, "mark", in, "-c", "fruit", "-k", "ban*", "-l", "x", "--case-sensitive", "--whole-cell", "-o", dest)
	if !strings.Contains(out, "found and labelled 1 matching rows") {
		t.Fatalf("expected one match:\n%s", out)
	}
	got := loadRecords(t, dest)
	if got[1][1] != "banana" || got[1][3] != "x" {
		t.Fatalf("unexpected first row %v", got[1])
	}
}

func TestCLI_MarkXLSXKeepsSheetName(t *testing.T) {
	home := isolate(t)
	ds, err := table.FromStrings([]string{"品名", "數量"}, [][]string{{"香蕉", "3"}, {"蘋果汁", "1"}})
	if err != nil {
		t.Fatal(err)
	}
	in := filepath.Join(home, "book.xlsx")
	if err := sheet.Save(in, &sheet.Sheet{Name: "清單", Data: ds}); err != nil {
		t.Fatalf("save fixture: %v", err)
	}

	out := mustRun(t, "mark", in, "-c", "品名", "-k", "蘋果*", "--label-from-keyword", "--sheet-name", "清單", "--preview")
	if !strings.Contains(out, "Input preview (清單, 2 rows)") {
		t.Fatalf("missing preview:\n%s", out)
	}

	dest := filepath.Join(home, "book_processed.xlsx")
	names, err := sheet.List(dest)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if diff := cmp.Diff([]string{"清單"}, names); diff != "" {
		t.Fatalf("sheet names (-want +got):\n%s", diff)
	}
	want := [][]string{
		{"品名", "數量", annotate.RemarkColumn},
		{"蘋果汁", "1", "蘋果*"},
		{"香蕉", "3", ""},
	}
	if diff := cmp.Diff(want, loadRecords(t, dest)); diff != "" {
		t.Fatalf("output (-want +got):\n%s", diff)
	}
}

func TestCLI_MarkErrors(t *testing.T) {
	home := isolate(t)
	in := writeFruits(t, home)

	_, err := runCmd(t, "mark", in, "-c", "colour", "-k", "red", "-l", "x")
	var colErr *annotate.ColumnNotFoundError
	if !errors.As(err, &colErr) {
		t.Fatalf("expected ColumnNotFoundError, got %v", err)
	}
	if msg := userMessage(err); !strings.Contains(msg, "choose one of: id, fruit, price") {
		t.Fatalf("unexpected message %q", msg)
	}

	if _, err := runCmd(t, "mark", in, "-c", "fruit", "-k", "apple"); !errors.Is(err, rules.ErrNoLabel) {
		t.Fatalf("expected ErrNoLabel, got %v", err)
	}
	if _, err := runCmd(t, "mark", in, "-c", "fruit", "-k", "  ", "-l", "x"); !errors.Is(err, rules.ErrNoKeywords) {
		t.Fatalf("expected ErrNoKeywords, got %v", err)
	}
	if _, err := runCmd(t, "mark", in, "-c", "fruit", "-k", "a", "-k", "b", "--label-from-keyword"); err == nil {
		t.Fatalf("expected error for --label-from-keyword with two keywords")
	}
	if _, err := os.Stat(filepath.Join(home, "fruits_processed.csv")); !os.IsNotExist(err) {
		t.Fatalf("no output should be written on failure")
	}
}

func TestCLI_KeywordsFile(t *testing.T) {
	home := isolate(t)
	in := writeFruits(t, home)
	kw := filepath.Join(home, "keywords.txt")
	if err := os.WriteFile(kw, []byte("  cherry \n\napple\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := mustRun(t, "mark", in, "-c", "fruit", "--keywords-file", kw, "-l", "pick")
	if !strings.Contains(out, "found and labelled 2 matching rows") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	got := loadRecords(t, filepath.Join(home, "fruits_processed.csv"))
	if got[1][1] != "apple" || got[2][1] != "cherry" {
		t.Fatalf("matched rows not first in original order: %v", got)
	}
}

func TestCLI_PresetLifecycle(t *testing.T) {
	home := isolate(t)
	in := writeFruits(t, home)

	mustRun(t, "preset", "save", "bananas", "-c", "fruit", "-k", "ban*", "-l", "found", "-d", "yellow things")
	out := mustRun(t, "preset", "list")
	if !strings.Contains(out, `- bananas: column "fruit", 1 keywords, label "found" (yellow things)`) {
		t.Fatalf("unexpected list:\n%s", out)
	}
	out = mustRun(t, "preset", "show", "bananas")
	if !strings.Contains(out, "ban*") || !strings.Contains(out, "id:") {
		t.Fatalf("unexpected show:\n%s", out)
	}

	dest := filepath.Join(home, "preset.csv")
	// Flags override the preset label.
	mustRun(t, "mark", in, "--preset", "bananas", "-l", "yellow", "-o", dest)
	got := loadRecords(t, dest)
	if got[1][3] != "yellow" || got[2][3] != "yellow" {
		t.Fatalf("unexpected labels: %v", got)
	}

	mustRun(t, "preset", "rm", "bananas")
	if _, err := runCmd(t, "preset", "show", "bananas"); !errors.Is(err, rules.ErrPresetNotFound) {
		t.Fatalf("expected ErrPresetNotFound, got %v", err)
	}
	if out := mustRun(t, "preset", "list"); !strings.Contains(out, "(no presets)") {
		t.Fatalf("expected empty list:\n%s", out)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	home := isolate(t)

	mustRun(t, "config", "set", "default_label", "checked")
	mustRun(t, "config", "set", "output_suffix", "_marked")
	if _, err := runCmd(t, "config", "set", "sheet_index", "0"); err == nil {
		t.Fatalf("expected error for sheet_index 0")
	}
	if _, err := runCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected error for unknown key")
	}

	out := mustRun(t, "config", "show")
	for _, want := range []string{"default_label: checked", "output_suffix: _marked", "csv_delimiter: (auto)"} {
		if !strings.Contains(out, want) {
			t.Fatalf("config show missing %q:\n%s", want, out)
		}
	}

	// The configured default label and suffix apply to mark.
	in := writeFruits(t, home)
	mustRun(t, "mark", in, "-c", "fruit", "-k", "cherry")
	got := loadRecords(t, filepath.Join(home, "fruits_marked.csv"))
	if got[1][3] != "checked" {
		t.Fatalf("default label not applied: %v", got[1])
	}
}

func TestCLI_Sheets(t *testing.T) {
	home := isolate(t)
	in := writeFruits(t, home)
	out := mustRun(t, "sheets", in, "--rows", "1")
	for _, want := range []string{"1. fruits", "Sheet fruits: 4 rows", "Columns: id, fruit, price", "| 1 | apple | 10 |", "… 3 more rows"} {
		if !strings.Contains(out, want) {
			t.Fatalf("sheets output missing %q:\n%s", want, out)
		}
	}
}
