package encode

import (
	"errors"
	"testing"

	"m6apred/internal/schema"
)

func TestSequences_PositionalColumns(t *testing.T) {
	seqs := []string{"ATGAT", "GGACC", "TTTTT"}

	out, err := FiveMers(seqs)
	if err != nil {
		t.Fatalf("FiveMers failed: %v", err)
	}

	if out.NumCols() != schema.SeqLen {
		t.Fatalf("Expected %d columns, got %d", schema.SeqLen, out.NumCols())
	}
	if out.NumRows() != len(seqs) {
		t.Fatalf("Expected %d rows, got %d", len(seqs), out.NumRows())
	}

	// nt_posK must equal the K-th character of each input, for all K.
	for pos := 1; pos <= schema.SeqLen; pos++ {
		col := out.Column(schema.NtPosName(pos))
		if col == nil {
			t.Fatalf("Missing column %s", schema.NtPosName(pos))
		}
		for i, seq := range seqs {
			want := string(seq[pos-1])
			if col.Strings[i] != want {
				t.Errorf("Row %d %s = %q, want %q", i, col.Name, col.Strings[i], want)
			}
		}
	}
}

func TestSequences_FullLevelDomain(t *testing.T) {
	// A batch containing only A must still declare all four levels, so the
	// encoding width matches training no matter which bases appear.
	out, err := FiveMers([]string{"AAAAA"})
	if err != nil {
		t.Fatalf("FiveMers failed: %v", err)
	}

	for pos := 1; pos <= schema.SeqLen; pos++ {
		col := out.Column(schema.NtPosName(pos))
		if len(col.Levels) != 4 {
			t.Fatalf("Column %s has %d levels, want 4", col.Name, len(col.Levels))
		}
		for i, l := range schema.Nucleotides {
			if col.Levels[i] != l {
				t.Errorf("Column %s level %d = %q, want %q", col.Name, i, col.Levels[i], l)
			}
		}
	}
}

func TestSequences_Errors(t *testing.T) {
	cases := []struct {
		name string
		seqs []string
	}{
		{"empty batch", nil},
		{"inconsistent lengths", []string{"ATGAT", "ATG"}},
		{"lowercase", []string{"atgat"}},
		{"ambiguity code", []string{"ATGAN"}},
		{"uracil", []string{"AUGAU"}},
		{"empty sequence", []string{""}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Sequences(tc.seqs)
			if err == nil {
				t.Fatal("Expected encoding error, got nil")
			}
			var encErr *EncodingError
			if !errors.As(err, &encErr) {
				t.Errorf("Expected *EncodingError, got %T: %v", err, err)
			}
		})
	}
}

func TestSequences_LengthGeneric(t *testing.T) {
	out, err := Sequences([]string{"ATG", "GCA"})
	if err != nil {
		t.Fatalf("Sequences failed: %v", err)
	}
	if out.NumCols() != 3 {
		t.Errorf("Expected 3 columns for 3-mers, got %d", out.NumCols())
	}
	if !out.HasColumn("nt_pos3") || out.HasColumn("nt_pos4") {
		t.Error("Expected exactly nt_pos1..nt_pos3 columns")
	}
}

func TestFiveMers_RejectsWrongLength(t *testing.T) {
	_, err := FiveMers([]string{"ATGATC"})
	if err == nil {
		t.Fatal("Expected error for 6-mer input")
	}
	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected *EncodingError, got %T", err)
	}
	if encErr.Index != 0 {
		t.Errorf("Expected error at index 0, got %d", encErr.Index)
	}
}

func TestSequences_ErrorReportsRow(t *testing.T) {
	_, err := Sequences([]string{"ATGAT", "GGACC", "ATGAX"})
	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected *EncodingError, got %T", err)
	}
	if encErr.Index != 2 {
		t.Errorf("Expected error at row 2, got %d", encErr.Index)
	}
	if encErr.Seq != "ATGAX" {
		t.Errorf("Expected offending sequence in error, got %q", encErr.Seq)
	}
}
