package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
)

// ReadCSV loads a delimited table from r. Every column is read as a string
// column; callers coerce types against their schema afterwards. The header
// row supplies column names and order.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	values := make([][]string, len(header))
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV record: %w", err)
		}
		for i := range header {
			values[i] = append(values[i], record[i])
		}
	}

	t := New()
	for i, name := range header {
		col := Column{Name: name, Kind: String, Strings: values[i]}
		if col.Strings == nil {
			col.Strings = []string{}
		}
		if err := t.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// ReadCSVFile loads a table from the file at path.
func ReadCSVFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open CSV file: %w", err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("file", path).
		Int("rows", t.NumRows()).
		Int("cols", t.NumCols()).
		Msg("CSV table loaded")
	return t, nil
}

// WriteCSV writes the table to w with a header row, columns in table order.
func (t *Table) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	row := make([]string, len(t.cols))
	for r := 0; r < t.NumRows(); r++ {
		for c := range t.cols {
			row[c] = t.cols[c].CellString(r)
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write CSV row %d: %w", r, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes the table to the file at path, replacing it.
func (t *Table) WriteCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV file: %w", err)
	}
	defer f.Close()

	if err := t.WriteCSV(f); err != nil {
		return err
	}

	log.Info().
		Str("file", path).
		Int("rows", t.NumRows()).
		Msg("CSV table written")
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
