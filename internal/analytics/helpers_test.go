package analytics

import (
	"time"

	"procan/internal/dataset"
)

// Shared builders for component tests. All dates are UTC midnights, the only
// form the loader produces.

func day(s string) time.Time {
	t, err := time.Parse(dataset.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func dayPtr(s string) *time.Time {
	t := day(s)
	return &t
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

// order builds a minimal in-window purchase order.
func order(id, date, supplier, sku string, qty float64) dataset.PurchaseOrder {
	return dataset.PurchaseOrder{
		OrderID:    id,
		OrderDate:  day(date),
		SupplierID: supplier,
		SKU:        sku,
		Quantity:   qty,
	}
}

// delivered builds the delivery row for an order.
func delivered(id string, late bool, delayDays float64) dataset.Delivery {
	return dataset.Delivery{OrderID: id, Late: late, DelayDays: delayDays}
}

func snapshot(t dataset.Tables) *dataset.Snapshot {
	return dataset.Build(&t)
}

// testParams returns the reference defaults with small thresholds so
// fixtures stay compact.
func testParams() Params {
	p := DefaultParams()
	p.MinBucket = 2
	return p
}
