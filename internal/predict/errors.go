package predict

import (
	"fmt"
	"strings"
)

// SchemaError reports a batch input table that is missing required feature
// columns. It is raised before any encoding or model invocation.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("feature table missing required columns: %s", strings.Join(e.Missing, ", "))
}

// InvalidSequenceError reports a DNA_5mer that is not exactly five
// characters from the nucleotide alphabet.
type InvalidSequenceError struct {
	Row int    // 0-based row index; 0 for the single-sample path
	Seq string
}

func (e *InvalidSequenceError) Error() string {
	return fmt.Sprintf("row %d: invalid 5-mer %q: want exactly 5 characters from {A,T,C,G}", e.Row, e.Seq)
}

// InvalidCategoryError reports a categorical feature value outside its
// declared level set. The model's factor levels were fixed at training
// time, so unrecognized levels are rejected rather than coerced.
type InvalidCategoryError struct {
	Row    int
	Field  string
	Value  string
	Levels []string
}

func (e *InvalidCategoryError) Error() string {
	return fmt.Sprintf("row %d: %s %q is not one of {%s}", e.Row, e.Field, e.Value, strings.Join(e.Levels, ", "))
}
