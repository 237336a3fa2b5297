package report

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"procan/internal/storage"
)

// TestWriteCSVRoundTrip verifies one file per table, header row first, NULLs
// as empty cells.
func TestWriteCSVRoundTrip(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	tables := []storage.Table{{
		Name: "supplier_ranking",
		Columns: []storage.Column{
			{Name: "supplier_id", Kind: storage.KindText},
			{Name: "total_qty", Kind: storage.KindReal},
			{Name: "rate_pct", Kind: storage.KindReal},
		},
		Rows: [][]any{
			{"s1", float64(100), float64(33.33)},
			{"s2", float64(10), nil},
		},
	}}

	if err := WriteCSV(dir, tables); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "supplier_ranking.csv"))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want header + 2 rows", len(records))
	}
	if records[0][0] != "supplier_id" {
		t.Fatalf("header = %v", records[0])
	}
	if records[1][1] != "100" || records[1][2] != "33.33" {
		t.Fatalf("row 1 = %v", records[1])
	}
	if records[2][2] != "" {
		t.Fatalf("NULL cell = %q, want empty", records[2][2])
	}
}
