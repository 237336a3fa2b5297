package analytics

import (
	"sort"

	"procan/internal/dataset"
)

// AllModes is the shipping-mode value of the per-month rollup rows, which
// apply the same filters without the mode dimension.
const AllModes = "ALL"

// modeUnspecified groups orders whose shipping mode is null.
const modeUnspecified = "UNSPECIFIED"

// MonthlyRow is one (month, shipping mode) delivery-performance group.
type MonthlyRow struct {
	Month       string
	Mode        string
	Orders      int
	Late        int
	LateRatePct float64
}

// MonthlyDeliveryPerformance groups in-window, non-cancelled orders by
// (month, shipping mode) and adds an all-modes rollup per month. Orders
// without a delivery row fail the join and are excluded. Only populated
// groups are emitted, so the late-rate denominator is always positive.
func MonthlyDeliveryPerformance(s *dataset.Snapshot, p Params) []MonthlyRow {
	type agg struct{ orders, late int }
	type key struct{ month, mode string }
	groups := map[key]*agg{}

	for i := range s.Tables.Orders {
		o := &s.Tables.Orders[i]
		if !p.inWindow(o.OrderDate) {
			continue
		}
		d, ok := s.DeliveryByOrder[o.OrderID]
		if !ok || d.Cancelled {
			continue
		}
		mode := modeUnspecified
		if o.ShippingMode != nil {
			mode = *o.ShippingMode
		}
		for _, k := range []key{
			{month: monthKey(o.OrderDate), mode: mode},
			{month: monthKey(o.OrderDate), mode: AllModes},
		} {
			a := groups[k]
			if a == nil {
				a = &agg{}
				groups[k] = a
			}
			a.orders++
			if d.Late {
				a.late++
			}
		}
	}

	rows := make([]MonthlyRow, 0, len(groups))
	for k, a := range groups {
		rows = append(rows, MonthlyRow{
			Month:       k.month,
			Mode:        k.mode,
			Orders:      a.orders,
			Late:        a.late,
			LateRatePct: pct(a.late, a.orders),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month < rows[j].Month
		}
		// Rollup first within a month, then modes alphabetically.
		if (rows[i].Mode == AllModes) != (rows[j].Mode == AllModes) {
			return rows[i].Mode == AllModes
		}
		return rows[i].Mode < rows[j].Mode
	})
	return rows
}
