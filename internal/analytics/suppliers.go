package analytics

import (
	"sort"

	"procan/internal/dataset"
)

// SupplierRankRow is one supplier's volume/reliability summary.
type SupplierRankRow struct {
	SupplierID   string
	Name         string
	Orders       int
	TotalQty     float64
	Late         int
	LateRatePct  float64
	AvgDelayDays float64
}

// SupplierRanking aggregates in-window, non-cancelled orders per supplier and
// returns the top K by total quantity. Volume ties break by supplier id
// ascending so the truncation is deterministic.
func SupplierRanking(s *dataset.Snapshot, p Params) []SupplierRankRow {
	type agg struct {
		orders   int
		qty      float64
		late     int
		delaySum float64
	}
	groups := map[string]*agg{}

	for i := range s.Tables.Orders {
		o := &s.Tables.Orders[i]
		if !p.inWindow(o.OrderDate) {
			continue
		}
		d, ok := s.DeliveryByOrder[o.OrderID]
		if !ok || d.Cancelled {
			continue
		}
		a := groups[o.SupplierID]
		if a == nil {
			a = &agg{}
			groups[o.SupplierID] = a
		}
		a.orders++
		a.qty += o.Quantity
		a.delaySum += d.DelayDays
		if d.Late {
			a.late++
		}
	}

	rows := make([]SupplierRankRow, 0, len(groups))
	for id, a := range groups {
		name := ""
		if sup, ok := s.SupplierByID[id]; ok {
			name = sup.Name
		}
		rows = append(rows, SupplierRankRow{
			SupplierID:   id,
			Name:         name,
			Orders:       a.orders,
			TotalQty:     a.qty,
			Late:         a.late,
			LateRatePct:  pct(a.late, a.orders),
			AvgDelayDays: round2(a.delaySum / float64(a.orders)),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalQty != rows[j].TotalQty {
			return rows[i].TotalQty > rows[j].TotalQty
		}
		return rows[i].SupplierID < rows[j].SupplierID
	})
	if p.TopSuppliers > 0 && len(rows) > p.TopSuppliers {
		rows = rows[:p.TopSuppliers]
	}
	return rows
}
