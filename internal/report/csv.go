package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"procan/internal/storage"
)

// WriteCSV writes one CSV file per table under dir, creating it if needed.
// File names follow the table names (e.g. supplier_ranking.csv).
func WriteCSV(dir string, tables []storage.Table) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create %s: %w", dir, err)
	}
	for _, t := range tables {
		if err := writeOne(filepath.Join(dir, t.Name+".csv"), t); err != nil {
			return err
		}
	}
	return nil
}

func writeOne(path string, t storage.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("report: write header %s: %w", path, err)
	}
	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i, cell := range row {
			record[i] = CellString(cell)
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("report: write row %s: %w", path, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("report: flush %s: %w", path, err)
	}
	return nil
}
