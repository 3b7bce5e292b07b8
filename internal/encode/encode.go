// Package encode turns fixed-length nucleotide strings into per-position
// categorical columns. The classifier was trained on a factor per sequence
// position, each with the full four-letter domain, so the encoder always
// declares {A,T,C,G} as every column's level set no matter which bases a
// given batch happens to contain.
package encode

import (
	"fmt"

	"m6apred/internal/schema"
	"m6apred/internal/table"
)

// EncodingError reports a sequence that cannot be encoded: inconsistent
// lengths within a batch, or a character outside the nucleotide alphabet.
type EncodingError struct {
	Index  int    // row index of the offending sequence
	Seq    string // the sequence as received
	Reason string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode: sequence %d %q: %s", e.Index, e.Seq, e.Reason)
}

// Sequences encodes a batch of equal-length nucleotide strings into a table
// with one categorical column per position, named nt_pos1..nt_posN. Row
// order follows input order. The length N is taken from the first sequence;
// every later sequence must match it.
func Sequences(seqs []string) (*table.Table, error) {
	if len(seqs) == 0 {
		return nil, &EncodingError{Index: 0, Reason: "no sequences given"}
	}

	n := len(seqs[0])
	if n == 0 {
		return nil, &EncodingError{Index: 0, Seq: seqs[0], Reason: "empty sequence"}
	}

	for i, s := range seqs {
		if len(s) != n {
			return nil, &EncodingError{
				Index:  i,
				Seq:    s,
				Reason: fmt.Sprintf("length %d, expected %d", len(s), n),
			}
		}
		for j := 0; j < len(s); j++ {
			if !schema.ValidNucleotide(s[j]) {
				return nil, &EncodingError{
					Index:  i,
					Seq:    s,
					Reason: fmt.Sprintf("invalid nucleotide %q at position %d", string(s[j]), j+1),
				}
			}
		}
	}

	t := table.New()
	for pos := 0; pos < n; pos++ {
		values := make([]string, len(seqs))
		for i, s := range seqs {
			values[i] = string(s[pos])
		}
		t.MustAddColumn(table.Column{
			Name:    schema.NtPosName(pos + 1),
			Kind:    table.Category,
			Strings: values,
			Levels:  schema.Nucleotides,
		})
	}
	return t, nil
}

// FiveMers encodes a batch of 5-mers, enforcing the window length the
// downstream model was trained on.
func FiveMers(seqs []string) (*table.Table, error) {
	for i, s := range seqs {
		if len(s) != schema.SeqLen {
			return nil, &EncodingError{
				Index:  i,
				Seq:    s,
				Reason: fmt.Sprintf("length %d, expected %d", len(s), schema.SeqLen),
			}
		}
	}
	return Sequences(seqs)
}
