// Package table provides the typed, ordered-column table that feature data
// flows through. Columns carry a declared kind; categorical columns carry
// their full level set rather than just the values observed in one batch, so
// encoding width and level order stay stable across calls.
package table

import (
	"fmt"
)

// Kind enumerates the column types a table can hold.
type Kind int

const (
	Float Kind = iota
	Int
	String
	Category
)

func (k Kind) String() string {
	switch k {
	case Float:
		return "float"
	case Int:
		return "int"
	case String:
		return "string"
	case Category:
		return "category"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Column is a single named column. Exactly one of the value slices is
// populated, matching Kind. Category columns use Strings for values and
// Levels for the declared domain.
type Column struct {
	Name    string
	Kind    Kind
	Floats  []float64
	Ints    []int64
	Strings []string
	Levels  []string
}

// Len returns the number of values in the column.
func (c *Column) Len() int {
	switch c.Kind {
	case Float:
		return len(c.Floats)
	case Int:
		return len(c.Ints)
	default:
		return len(c.Strings)
	}
}

func (c *Column) clone() Column {
	out := Column{Name: c.Name, Kind: c.Kind}
	if c.Floats != nil {
		out.Floats = append([]float64(nil), c.Floats...)
	}
	if c.Ints != nil {
		out.Ints = append([]int64(nil), c.Ints...)
	}
	if c.Strings != nil {
		out.Strings = append([]string(nil), c.Strings...)
	}
	if c.Levels != nil {
		out.Levels = append([]string(nil), c.Levels...)
	}
	return out
}

// Table is an ordered collection of equal-length columns.
type Table struct {
	cols   []Column
	byName map[string]int
}

// New returns an empty table.
func New() *Table {
	return &Table{byName: make(map[string]int)}
}

// NumRows returns the row count (zero for a table with no columns).
func (t *Table) NumRows() int {
	if len(t.cols) == 0 {
		return 0
	}
	return t.cols[0].Len()
}

// NumCols returns the column count.
func (t *Table) NumCols() int { return len(t.cols) }

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Column returns the named column, or nil when absent.
func (t *Table) Column(name string) *Column {
	i, ok := t.byName[name]
	if !ok {
		return nil
	}
	return &t.cols[i]
}

// AddColumn appends a column to the table. The first column fixes the row
// count; later columns must match it.
func (t *Table) AddColumn(c Column) error {
	if _, exists := t.byName[c.Name]; exists {
		return fmt.Errorf("table: duplicate column %q", c.Name)
	}
	if len(t.cols) > 0 && c.Len() != t.NumRows() {
		return fmt.Errorf("table: column %q has %d rows, table has %d", c.Name, c.Len(), t.NumRows())
	}
	t.byName[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	return nil
}

// MustAddColumn is AddColumn for construction sites where a mismatch is a
// programming error.
func (t *Table) MustAddColumn(c Column) {
	if err := t.AddColumn(c); err != nil {
		panic(err)
	}
}

// Clone returns a deep copy; mutating the copy never touches the original.
func (t *Table) Clone() *Table {
	out := New()
	for i := range t.cols {
		out.MustAddColumn(t.cols[i].clone())
	}
	return out
}

// MissingColumns returns the subset of names not present in the table,
// preserving the order given.
func (t *Table) MissingColumns(names []string) []string {
	var missing []string
	for _, n := range names {
		if !t.HasColumn(n) {
			missing = append(missing, n)
		}
	}
	return missing
}

// CellString formats the cell at (col, row) for CSV output.
func (c *Column) CellString(row int) string {
	switch c.Kind {
	case Float:
		return formatFloat(c.Floats[row])
	case Int:
		return fmt.Sprintf("%d", c.Ints[row])
	default:
		return c.Strings[row]
	}
}
