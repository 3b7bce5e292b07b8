package table

import (
	"bytes"
	"strings"
	"testing"
)

func TestAddColumn_RowCountMismatch(t *testing.T) {
	tbl := New()
	tbl.MustAddColumn(Column{Name: "a", Kind: Float, Floats: []float64{1, 2}})

	err := tbl.AddColumn(Column{Name: "b", Kind: Float, Floats: []float64{1}})
	if err == nil {
		t.Fatal("Expected error for mismatched row count")
	}
}

func TestAddColumn_Duplicate(t *testing.T) {
	tbl := New()
	tbl.MustAddColumn(Column{Name: "a", Kind: Int, Ints: []int64{1}})

	if err := tbl.AddColumn(Column{Name: "a", Kind: Int, Ints: []int64{2}}); err == nil {
		t.Fatal("Expected error for duplicate column name")
	}
}

func TestClone_Isolation(t *testing.T) {
	tbl := New()
	tbl.MustAddColumn(Column{Name: "x", Kind: Float, Floats: []float64{1.5, 2.5}})
	tbl.MustAddColumn(Column{Name: "s", Kind: String, Strings: []string{"a", "b"}})

	clone := tbl.Clone()
	clone.Column("x").Floats[0] = 99
	clone.Column("s").Strings[1] = "mutated"
	clone.MustAddColumn(Column{Name: "extra", Kind: Int, Ints: []int64{1, 2}})

	if tbl.Column("x").Floats[0] != 1.5 {
		t.Error("Clone mutation leaked into original float column")
	}
	if tbl.Column("s").Strings[1] != "b" {
		t.Error("Clone mutation leaked into original string column")
	}
	if tbl.HasColumn("extra") {
		t.Error("Column added to clone appeared in original")
	}
}

func TestMissingColumns(t *testing.T) {
	tbl := New()
	tbl.MustAddColumn(Column{Name: "a", Kind: Float, Floats: []float64{1}})

	missing := tbl.MissingColumns([]string{"a", "b", "c"})
	if len(missing) != 2 || missing[0] != "b" || missing[1] != "c" {
		t.Errorf("Expected [b c], got %v", missing)
	}

	if m := tbl.MissingColumns([]string{"a"}); m != nil {
		t.Errorf("Expected nil for fully present columns, got %v", m)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	input := "id,gc_content,DNA_5mer\ns1,0.6,ATGAT\ns2,0.4,GGACC\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if tbl.NumRows() != 2 || tbl.NumCols() != 3 {
		t.Fatalf("Expected 2x3 table, got %dx%d", tbl.NumRows(), tbl.NumCols())
	}
	if got := tbl.Column("DNA_5mer").Strings[1]; got != "GGACC" {
		t.Errorf("Expected GGACC, got %q", got)
	}

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	if buf.String() != input {
		t.Errorf("Round trip mismatch:\ngot  %q\nwant %q", buf.String(), input)
	}
}

func TestReadCSV_EmptyBody(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("a,b\n"))
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if tbl.NumRows() != 0 {
		t.Errorf("Expected 0 rows, got %d", tbl.NumRows())
	}
	if tbl.NumCols() != 2 {
		t.Errorf("Expected 2 columns, got %d", tbl.NumCols())
	}
}

func TestWriteCSV_MixedKinds(t *testing.T) {
	tbl := New()
	tbl.MustAddColumn(Column{Name: "n", Kind: Int, Ints: []int64{12}})
	tbl.MustAddColumn(Column{Name: "p", Kind: Float, Floats: []float64{0.723}})
	tbl.MustAddColumn(Column{Name: "s", Kind: String, Strings: []string{"Positive"}})

	var buf bytes.Buffer
	if err := tbl.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}
	want := "n,p,s\n12,0.723,Positive\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}
