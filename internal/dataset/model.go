// Package dataset loads the procurement input tables from CSV into typed,
// immutable in-memory slices and provides the joined snapshot the analytics
// components run over.
//
// The loader is deliberately lenient in the same way the upstream exports are
// messy: rows with missing required keys are dropped and counted rather than
// failing the run, duplicate rows (by business key) keep the first occurrence,
// and nullable scalars decode to pointer fields so "absent" stays
// distinguishable from zero.
package dataset

import "time"

// DateLayout is the only date format accepted in the input tables.
const DateLayout = "2006-01-02"

// Supplier is an immutable reference entity.
type Supplier struct {
	ID        string
	Name      string
	Country   string
	Preferred bool
	Rating    *float64
}

// Product is an immutable reference entity keyed by SKU.
type Product struct {
	SKU      string
	Name     string
	Category string
	Unit     string
}

// PurchaseOrder is created once per order and never mutated.
type PurchaseOrder struct {
	OrderID      string
	OrderDate    time.Time
	PromisedDate *time.Time
	SupplierID   string
	SKU          string
	Quantity     float64
	ShippingMode *string
	Incoterm     *string
	DistanceKM   *float64
}

// PriceListEntry is a (supplier, sku)-scoped price with a validity interval.
// ValidFrom/ValidTo stay nullable: entries without dates are still price-match
// candidates (lowest tier) but are excluded from overlap detection.
//
// Seq is the entry's position within its (supplier, sku) group after ordering
// by (valid_from, valid_to, input order). It gives every pairwise comparison
// and every tie-break a stable key.
type PriceListEntry struct {
	SupplierID string
	SKU        string
	ValidFrom  *time.Time
	ValidTo    *time.Time
	Price      float64
	Currency   string
	MinQty     float64
	Seq        int
}

// Delivery records the outcome of exactly one purchase order.
type Delivery struct {
	OrderID      string
	ActualDate   *time.Time
	Late         bool
	DelayDays    float64
	Cancelled    bool
	Partial      bool
}

// Prediction is an externally supplied late-probability score for one order.
type Prediction struct {
	OrderID string
	PLate   float64
}
