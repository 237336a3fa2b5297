package analytics

import (
	"fmt"
	"math/rand"
	"testing"

	"procan/internal/dataset"
)

// TestRollingWindowBounds verifies the strict bounds of the trailing window:
// an order exactly 90 days back counts, 91 days does not, and same-day
// orders are never part of each other's history.
func TestRollingWindowBounds(t *testing.T) {
	t.Parallel()

	// Target order on 2025-05-01. Window start is 2025-01-31.
	s := snapshot(dataset.Tables{
		Orders: []dataset.PurchaseOrder{
			order("edge90", "2025-01-31", "s1", "p1", 1),  // exactly 90 days back
			order("edge91", "2025-01-30", "s1", "p1", 1),  // 91 days, outside
			order("sameday", "2025-05-01", "s1", "p1", 1), // same date, not prior
			order("target", "2025-05-01", "s1", "p1", 1),
		},
		Deliveries: []dataset.Delivery{
			delivered("edge90", true, 2),
			delivered("edge91", true, 3),
			delivered("sameday", true, 1),
			delivered("target", false, 0),
		},
	})

	p := testParams()
	p.MinHistory = 1
	rows := RollingSupplierHistory(s, p)

	var target *RollingHistoryRow
	for i := range rows {
		if rows[i].OrderID == "target" {
			target = &rows[i]
		}
	}
	if target == nil {
		t.Fatalf("target order missing from %+v", rows)
	}
	if target.PriorOrders != 1 || target.PriorLate != 1 {
		t.Fatalf("prior = %d/%d, want 1/1 (only the 90-day-edge order)", target.PriorOrders, target.PriorLate)
	}
	if target.RatePct == nil || *target.RatePct != 100.0 {
		t.Fatalf("rate = %v, want 100.00", target.RatePct)
	}
}

// TestRollingInsufficientHistory verifies the band and nil rate below
// MinHistory.
func TestRollingInsufficientHistory(t *testing.T) {
	t.Parallel()

	s := snapshot(dataset.Tables{
		Orders: []dataset.PurchaseOrder{
			order("prior1", "2025-03-20", "s1", "p1", 1),
			order("prior2", "2025-03-25", "s1", "p1", 1),
			order("target", "2025-04-10", "s1", "p1", 1),
		},
		Deliveries: []dataset.Delivery{
			delivered("prior1", false, 0),
			delivered("prior2", false, 0),
			delivered("target", false, 0),
		},
	})

	rows := RollingSupplierHistory(s, testParams()) // MinHistory 3

	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1 (only target is in-window)", len(rows))
	}
	r := rows[0]
	if r.Band != BandInsufficientHistory {
		t.Fatalf("band = %s, want %s", r.Band, BandInsufficientHistory)
	}
	if r.RatePct != nil {
		t.Fatalf("rate = %v, want nil below MinHistory", *r.RatePct)
	}
	if r.PriorOrders != 2 {
		t.Fatalf("prior orders = %d, want 2 (counts still reported)", r.PriorOrders)
	}
}

// TestRollingBands walks the band thresholds at their boundaries.
func TestRollingBands(t *testing.T) {
	t.Parallel()

	cases := []struct {
		rate float64
		want string
	}{
		{0, BandPerfectRecord},
		{10, BandExcellent},
		{10.01, BandGood},
		{25, BandGood},
		{25.01, BandConcerning},
		{50, BandConcerning},
		{50.01, BandPoorPerformer},
	}
	for _, c := range cases {
		if got := historyBand(c.rate); got != c.want {
			t.Fatalf("historyBand(%v) = %s, want %s", c.rate, got, c.want)
		}
	}
}

// TestRollingMatchesNaiveScan cross-checks the prefix-sum sliding window
// against a direct range scan on a generated order book. Any drift between
// the two implementations is a correctness bug in the fast path.
func TestRollingMatchesNaiveScan(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(7))
	var tbl dataset.Tables
	for i := 0; i < 300; i++ {
		id := fmt.Sprintf("o%03d", i)
		date := day("2025-01-01").AddDate(0, 0, rng.Intn(180))
		sup := fmt.Sprintf("s%d", rng.Intn(4))
		tbl.Orders = append(tbl.Orders, dataset.PurchaseOrder{
			OrderID: id, OrderDate: date, SupplierID: sup, SKU: "p1", Quantity: 1,
		})
		switch rng.Intn(4) {
		case 0: // no delivery row
		case 1:
			tbl.Deliveries = append(tbl.Deliveries, dataset.Delivery{OrderID: id, Cancelled: true})
		default:
			tbl.Deliveries = append(tbl.Deliveries, delivered(id, rng.Intn(3) == 0, 0))
		}
	}

	s := snapshot(tbl)
	p := testParams()
	got := RollingSupplierHistory(s, p)

	for _, r := range got {
		wantTotal, wantLate := 0, 0
		target := day(r.OrderDate)
		from := target.AddDate(0, 0, -rollingWindowDays)
		for i := range tbl.Orders {
			o := &tbl.Orders[i]
			if o.SupplierID != r.SupplierID {
				continue
			}
			if o.OrderDate.Before(from) || !o.OrderDate.Before(target) {
				continue
			}
			d, ok := s.DeliveryByOrder[o.OrderID]
			if !ok || d.Cancelled {
				continue
			}
			wantTotal++
			if d.Late {
				wantLate++
			}
		}
		if r.PriorOrders != wantTotal || r.PriorLate != wantLate {
			t.Fatalf("order %s: window = %d/%d, naive scan = %d/%d",
				r.OrderID, r.PriorOrders, r.PriorLate, wantTotal, wantLate)
		}
	}
}

// TestRollingOutputOrdering verifies rows sort by (date, order id) across
// suppliers.
func TestRollingOutputOrdering(t *testing.T) {
	t.Parallel()

	s := snapshot(dataset.Tables{
		Orders: []dataset.PurchaseOrder{
			order("b", "2025-04-02", "s2", "p1", 1),
			order("a", "2025-04-02", "s1", "p1", 1),
			order("c", "2025-04-01", "s1", "p1", 1),
		},
		Deliveries: []dataset.Delivery{
			delivered("a", false, 0), delivered("b", false, 0), delivered("c", false, 0),
		},
	})

	rows := RollingSupplierHistory(s, testParams())
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.OrderID)
	}
	want := []string{"c", "a", "b"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("order = %v, want %v", ids, want)
		}
	}
}
