package analytics

import (
	"math"
	"testing"

	"procan/internal/dataset"
)

// TestAnomalyClosedFormZ pins the z-score arithmetic against a hand-computed
// group. Prices 1, 1, e have log prices 0, 0, 1: mean 1/3, population std
// sqrt(2)/3, so the e-priced entry scores z = sqrt(2).
func TestAnomalyClosedFormZ(t *testing.T) {
	t.Parallel()

	s := snapshot(dataset.Tables{
		Prices: []dataset.PriceListEntry{
			priceEntry("s1", "p1", "2025-01-01", "2025-01-31", 1, "EUR"),
			priceEntry("s1", "p1", "2025-02-01", "2025-02-28", 1, "EUR"),
			priceEntry("s1", "p1", "2025-03-01", "2025-03-31", math.E, "EUR"),
		},
	})

	rows := PriceAnomalies(s, testParams())
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (whole group scored)", len(rows))
	}

	top := rows[0]
	if top.Price != math.E {
		t.Fatalf("top anomaly price = %v, want e", top.Price)
	}
	if got, want := top.Z, math.Sqrt(2); math.Abs(got-want) > 1e-6 {
		t.Fatalf("z = %v, want sqrt(2) within 1e-6", got)
	}
	if top.Direction != DirectionHigh {
		t.Fatalf("direction = %s, want %s", top.Direction, DirectionHigh)
	}
	if top.Severity != OutlierMild {
		t.Fatalf("severity = %s, want %s (|z| <= 2 labels as mild outlier)", top.Severity, OutlierMild)
	}
	if got, want := top.GroupMean, 1.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Fatalf("group mean = %v, want 1/3", got)
	}
	if got, want := top.GroupStd, math.Sqrt(2)/3; math.Abs(got-want) > 1e-9 {
		t.Fatalf("group std = %v, want sqrt(2)/3 (population)", got)
	}
}

// TestAnomalyExclusions verifies the detector skips thin groups, zero-variance
// groups and non-positive prices.
func TestAnomalyExclusions(t *testing.T) {
	t.Parallel()

	s := snapshot(dataset.Tables{
		Prices: []dataset.PriceListEntry{
			// Group of two: below MinSeries.
			priceEntry("s1", "thin", "2025-01-01", "2025-01-31", 1, "EUR"),
			priceEntry("s1", "thin", "2025-02-01", "2025-02-28", 9, "EUR"),
			// Constant group: zero variance.
			priceEntry("s1", "flat", "2025-01-01", "2025-01-31", 5, "EUR"),
			priceEntry("s1", "flat", "2025-02-01", "2025-02-28", 5, "EUR"),
			priceEntry("s1", "flat", "2025-03-01", "2025-03-31", 5, "EUR"),
			// Free sample shrinks its group below MinSeries.
			priceEntry("s1", "free", "2025-01-01", "2025-01-31", 0, "EUR"),
			priceEntry("s1", "free", "2025-02-01", "2025-02-28", 2, "EUR"),
			priceEntry("s1", "free", "2025-03-01", "2025-03-31", 8, "EUR"),
		},
	})

	if rows := PriceAnomalies(s, testParams()); len(rows) != 0 {
		t.Fatalf("got %d rows, want 0: %+v", len(rows), rows)
	}
}

// TestAnomalyTruncationOrder verifies the top-N cut happens after a global
// sort by |z| descending.
func TestAnomalyTruncationOrder(t *testing.T) {
	t.Parallel()

	mild := []dataset.PriceListEntry{
		priceEntry("s1", "a", "2025-01-01", "2025-01-31", 10, "EUR"),
		priceEntry("s1", "a", "2025-02-01", "2025-02-28", 11, "EUR"),
		priceEntry("s1", "a", "2025-03-01", "2025-03-31", 12, "EUR"),
	}
	spiky := []dataset.PriceListEntry{
		priceEntry("s2", "b", "2025-01-01", "2025-01-31", 10, "EUR"),
		priceEntry("s2", "b", "2025-02-01", "2025-02-28", 10.5, "EUR"),
		priceEntry("s2", "b", "2025-03-01", "2025-03-31", 1000, "EUR"),
	}

	s := snapshot(dataset.Tables{Prices: append(mild, spiky...)})
	p := testParams()
	p.TopAnomalies = 2
	rows := PriceAnomalies(s, p)

	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].SupplierID != "s2" || rows[0].Price != 1000 {
		t.Fatalf("top row = %s/%v, want the 1000 EUR spike", rows[0].SupplierID, rows[0].Price)
	}
	if math.Abs(rows[0].Z) < math.Abs(rows[1].Z) {
		t.Fatalf("rows not ordered by |z| desc: %v then %v", rows[0].Z, rows[1].Z)
	}
}
