package table

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestCellText(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"empty", Empty(), ""},
		{"text", Text("apple"), "apple"},
		{"integer", Number(1199), "1199"},
		{"fraction", Number(3.5), "3.5"},
		{"negative", Number(-0.25), "-0.25"},
		{"date", Date(time.Date(2024, 8, 10, 0, 0, 0, 0, time.UTC)), "2024-08-10"},
		{"timestamp", Date(time.Date(2024, 8, 10, 13, 5, 9, 0, time.UTC)), "2024-08-10 13:05:09"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cell.Text(); got != tt.want {
				t.Fatalf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInfer(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
	}{
		{"", KindEmpty},
		{"apple", KindText},
		{"42", KindNumber},
		{"3.25", KindNumber},
		{"0012", KindText},
		{"1,5", KindText},
		{" 42", KindText},
		{"2024-08-10", KindDate},
		{"2024-08-10 09:30:00", KindDate},
		{"10/08/2024", KindText},
	}
	for _, tt := range tests {
		c := Infer(tt.in)
		if c.Kind != tt.kind {
			t.Errorf("Infer(%q).Kind = %s, want %s", tt.in, c.Kind, tt.kind)
		}
		if c.Text() != tt.in {
			t.Errorf("Infer(%q).Text() = %q, want round trip", tt.in, c.Text())
		}
	}
}

func TestNewPadsShortRowsAndRejectsWide(t *testing.T) {
	ds, err := New([]string{"a", "b"}, []Row{{Text("x")}})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if len(ds.Rows[0]) != 2 || !ds.Rows[0][1].IsEmpty() {
		t.Fatalf("expected padded row, got %#v", ds.Rows[0])
	}
	if _, err := New([]string{"a"}, []Row{{Text("x"), Text("y")}}); err == nil {
		t.Fatalf("expected error for row wider than header")
	}
}

func TestCloneIsDeep(t *testing.T) {
	ds, err := FromStrings([]string{"fruit"}, [][]string{{"apple"}, {"banana"}})
	if err != nil {
		t.Fatalf("from strings: %v", err)
	}
	before := ds.Records()
	cp := ds.Clone()
	cp.Rows[0][0] = Text("changed")
	cp.AppendColumn("extra", Text(""))
	if diff := cmp.Diff(before, ds.Records()); diff != "" {
		t.Fatalf("original mutated (-before +after):\n%s", diff)
	}
}

func TestAppendColumnAndRecords(t *testing.T) {
	ds, err := FromStrings([]string{"id", "qty"}, [][]string{{"a", "1"}, {"b", "2.5"}})
	if err != nil {
		t.Fatalf("from strings: %v", err)
	}
	idx := ds.AppendColumn("note", Text(""))
	if idx != 2 || ds.ColumnIndex("note") != 2 {
		t.Fatalf("unexpected index %d", idx)
	}
	want := [][]string{{"id", "qty", "note"}, {"a", "1", ""}, {"b", "2.5", ""}}
	if diff := cmp.Diff(want, ds.Records()); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	if ds.ColumnIndex("missing") != -1 {
		t.Fatalf("expected -1 for missing column")
	}
}
