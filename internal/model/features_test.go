package model

import (
	"math"
	"testing"
	"time"

	"procan/internal/dataset"
)

func featDay(s string) time.Time {
	t, err := time.Parse(dataset.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func featSnapshot() *dataset.Snapshot {
	sea, air := "SEA", "AIR"
	rating := 4.0
	km := 250.0
	tbl := &dataset.Tables{
		Suppliers: []dataset.Supplier{
			{ID: "s1", Name: "Alpha", Preferred: true, Rating: &rating},
			{ID: "s2", Name: "Beta"}, // no rating
		},
		Orders: []dataset.PurchaseOrder{
			{OrderID: "h1", OrderDate: featDay("2025-02-01"), SupplierID: "s1", SKU: "p1", Quantity: 5, ShippingMode: &sea},
			{OrderID: "h2", OrderDate: featDay("2025-02-10"), SupplierID: "s1", SKU: "p1", Quantity: 5, ShippingMode: &sea},
			{OrderID: "h3", OrderDate: featDay("2025-02-20"), SupplierID: "s1", SKU: "p1", Quantity: 5, ShippingMode: &air},
			{OrderID: "t1", OrderDate: featDay("2025-04-01"), SupplierID: "s1", SKU: "p1", Quantity: 9, ShippingMode: &sea, DistanceKM: &km},
			{OrderID: "t2", OrderDate: featDay("2025-04-02"), SupplierID: "s2", SKU: "p1", Quantity: 1},
		},
		Deliveries: []dataset.Delivery{
			{OrderID: "h1", Late: true},
			{OrderID: "h2", Late: false},
			{OrderID: "h3", Late: true},
			{OrderID: "t1", Late: false},
		},
	}
	return dataset.Build(tbl)
}

// TestFeatureSetVocabulary verifies the shipping-mode vocabulary is sorted
// and the name list lines up with vector positions.
func TestFeatureSetVocabulary(t *testing.T) {
	t.Parallel()

	fs := NewFeatureSet(featSnapshot())
	names := fs.Names()

	wantTail := []string{"mode_AIR", "mode_SEA"}
	got := names[len(names)-2:]
	if got[0] != wantTail[0] || got[1] != wantTail[1] {
		t.Fatalf("mode columns = %v, want %v", got, wantTail)
	}
}

// TestFeaturizeVector pins the individual feature slots: quantity transform,
// distance scaling, missing-value indicators, supplier attributes and the
// trailing late rate.
func TestFeaturizeVector(t *testing.T) {
	t.Parallel()

	s := featSnapshot()
	fs := NewFeatureSet(s)

	var t1 *dataset.PurchaseOrder
	for i := range s.Tables.Orders {
		if s.Tables.Orders[i].OrderID == "t1" {
			t1 = &s.Tables.Orders[i]
		}
	}
	ex := fs.Featurize(s, t1)

	if got, want := ex.X[0], math.Log1p(9.0); got != want {
		t.Fatalf("log quantity = %v, want %v", got, want)
	}
	if got, want := ex.X[1], 0.25; got != want {
		t.Fatalf("scaled distance = %v, want %v", got, want)
	}
	if ex.X[2] != 0 {
		t.Fatalf("distance-missing flag set for a known distance")
	}
	if ex.X[3] != 1 {
		t.Fatalf("preferred flag unset for preferred supplier")
	}
	if ex.X[4] != 4.0 {
		t.Fatalf("rating = %v, want 4.0", ex.X[4])
	}
	// Three delivered prior orders within 90 days, two late.
	if got, want := ex.X[5], 2.0/3.0; math.Abs(got-want) > 1e-12 {
		t.Fatalf("trailing late rate = %v, want 2/3", got)
	}
	if ex.X[6] != 0 {
		t.Fatalf("thin-history flag set despite 3 prior orders")
	}
	if !ex.Labeled || ex.Label != 0 {
		t.Fatalf("label = %v/%v, want labeled on-time", ex.Labeled, ex.Label)
	}
}

// TestFeaturizeFallbacks verifies orders without history or rating fall back
// to the dataset-wide base rate and mean rating, with indicator flags raised.
func TestFeaturizeFallbacks(t *testing.T) {
	t.Parallel()

	s := featSnapshot()
	fs := NewFeatureSet(s)

	var t2 *dataset.PurchaseOrder
	for i := range s.Tables.Orders {
		if s.Tables.Orders[i].OrderID == "t2" {
			t2 = &s.Tables.Orders[i]
		}
	}
	ex := fs.Featurize(s, t2)

	if ex.X[2] != 1 {
		t.Fatalf("distance-missing flag unset for null distance")
	}
	if ex.X[4] != 4.0 {
		t.Fatalf("rating = %v, want the dataset mean 4.0", ex.X[4])
	}
	// Global base rate: 4 delivered orders, 2 late.
	if got, want := ex.X[5], 0.5; got != want {
		t.Fatalf("fallback late rate = %v, want base rate 0.5", got)
	}
	if ex.X[6] != 1 {
		t.Fatalf("thin-history flag unset for a first order")
	}
	if ex.Labeled {
		t.Fatalf("order without delivery must be unlabeled")
	}
}

// TestSplitPartitionsByCutoff verifies the train side holds only labeled
// orders strictly before the cutoff and the score side everything else, both
// date-ordered.
func TestSplitPartitionsByCutoff(t *testing.T) {
	t.Parallel()

	s := featSnapshot()
	fs := NewFeatureSet(s)

	train, score, err := fs.Split(s, "2025-04-01")
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	if len(train) != 3 {
		t.Fatalf("train size = %d, want 3 (h1..h3; both April orders score)", len(train))
	}
	for _, ex := range train {
		if !ex.Labeled {
			t.Fatalf("unlabeled example %s in training set", ex.OrderID)
		}
	}
	if len(score) != 2 || score[0].OrderID != "t1" || score[1].OrderID != "t2" {
		t.Fatalf("score side = %+v, want t1 then t2", score)
	}

	if _, _, err := fs.Split(s, "01.04.2025"); err == nil {
		t.Fatalf("expected error for malformed cutoff")
	}
}
