// Package output serializes pipeline tables to flat CSV files. It receives
// final tables and writes them verbatim; no reshaping happens here.
package output

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"invoiceetl/pkg/tables"
)

// WriteCSV writes the table to path, creating parent directories as needed.
// The header row is the table's column order; nulls serialize as empty cells
// and floats use the shortest round-trippable decimal form.
func WriteCSV(path string, t tables.Table) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("output: mkdir for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("output: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Cols); err != nil {
		return fmt.Errorf("output: write header %s: %w", path, err)
	}
	row := make([]string, len(t.Cols))
	for _, r := range t.Rows {
		for i, c := range t.Cols {
			row[i] = formatCell(r[c])
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("output: write row %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("output: flush %s: %w", path, err)
	}
	return nil
}

// formatCell renders one cell value for CSV.
func formatCell(v any) string {
	if tables.IsNull(v) {
		return ""
	}
	if f, ok := v.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return tables.AsString(v)
}
