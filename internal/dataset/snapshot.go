package dataset

import (
	"sort"
	"time"
)

// PairKey scopes price-list entries to one supplier/product combination.
type PairKey struct {
	SupplierID string
	SKU        string
}

// Snapshot is the joined, read-only view the analytics components run over.
// Build wires every relationship once; components never mutate it, which is
// what makes running them concurrently safe.
type Snapshot struct {
	Tables *Tables

	SupplierByID      map[string]*Supplier
	ProductBySKU      map[string]*Product
	DeliveryByOrder   map[string]*Delivery
	PredictionByOrder map[string]float64

	// PriceBook holds each (supplier, sku) group ordered by
	// (valid_from, valid_to, input order), with Seq assigned to match.
	// Entries without dates sort after dated ones.
	PriceBook map[PairKey][]PriceListEntry

	// OrdersBySupplier holds each supplier's orders ordered by
	// (order_date, order_id). The rolling-history window walks these.
	OrdersBySupplier map[string][]*PurchaseOrder
}

// Build indexes the loaded tables. Rows referencing unknown keys stay in the
// base slices; each component applies its own join and silently excludes
// rows that do not resolve.
func Build(t *Tables) *Snapshot {
	s := &Snapshot{
		Tables:            t,
		SupplierByID:      make(map[string]*Supplier, len(t.Suppliers)),
		ProductBySKU:      make(map[string]*Product, len(t.Products)),
		DeliveryByOrder:   make(map[string]*Delivery, len(t.Deliveries)),
		PredictionByOrder: make(map[string]float64, len(t.Predictions)),
		PriceBook:         map[PairKey][]PriceListEntry{},
		OrdersBySupplier:  map[string][]*PurchaseOrder{},
	}

	for i := range t.Suppliers {
		s.SupplierByID[t.Suppliers[i].ID] = &t.Suppliers[i]
	}
	for i := range t.Products {
		s.ProductBySKU[t.Products[i].SKU] = &t.Products[i]
	}
	for i := range t.Deliveries {
		s.DeliveryByOrder[t.Deliveries[i].OrderID] = &t.Deliveries[i]
	}
	for _, p := range t.Predictions {
		s.PredictionByOrder[p.OrderID] = p.PLate
	}

	for _, e := range t.Prices {
		k := PairKey{SupplierID: e.SupplierID, SKU: e.SKU}
		s.PriceBook[k] = append(s.PriceBook[k], e)
	}
	for k, group := range s.PriceBook {
		sort.SliceStable(group, func(i, j int) bool {
			fi, fj := dateOrInf(group[i].ValidFrom), dateOrInf(group[j].ValidFrom)
			if !fi.Equal(fj) {
				return fi.Before(fj)
			}
			ti, tj := dateOrInf(group[i].ValidTo), dateOrInf(group[j].ValidTo)
			return ti.Before(tj)
		})
		for i := range group {
			group[i].Seq = i + 1
		}
		s.PriceBook[k] = group
	}

	for i := range t.Orders {
		o := &t.Orders[i]
		s.OrdersBySupplier[o.SupplierID] = append(s.OrdersBySupplier[o.SupplierID], o)
	}
	for _, orders := range s.OrdersBySupplier {
		sort.Slice(orders, func(i, j int) bool {
			if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
				return orders[i].OrderDate.Before(orders[j].OrderDate)
			}
			return orders[i].OrderID < orders[j].OrderID
		})
	}

	return s
}

// dateOrInf maps a nil date to a far-future sentinel so undated price entries
// sort after dated ones.
func dateOrInf(t *time.Time) time.Time {
	if t == nil {
		return time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	}
	return *t
}
