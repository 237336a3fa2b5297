package analytics

import (
	"sort"

	"procan/internal/dataset"
)

// History bands, ordered from no-data to worst.
const (
	BandInsufficientHistory = "INSUFFICIENT_HISTORY"
	BandPerfectRecord       = "PERFECT_RECORD"
	BandExcellent           = "EXCELLENT"
	BandGood                = "GOOD"
	BandConcerning          = "CONCERNING"
	BandPoorPerformer       = "POOR_PERFORMER"
)

// rollingWindowDays is the trailing history horizon per order.
const rollingWindowDays = 90

// RollingHistoryRow scores one in-window order by its supplier's trailing
// 90-day record. RatePct is nil when fewer than MinHistory prior orders
// qualify; the band then says INSUFFICIENT_HISTORY instead of rendering a
// misleading 0%.
type RollingHistoryRow struct {
	OrderID     string
	SupplierID  string
	OrderDate   string
	PriorOrders int
	PriorLate   int
	RatePct     *float64
	Band        string
}

// RollingSupplierHistory computes, for every order O in the reporting window,
// the late rate over prior orders P of the same supplier with
//
//	date(O) - 90d <= date(P) < date(O)
//
// counting only orders with a non-cancelled delivery. Same-day orders are
// never part of each other's history.
//
// Each supplier's orders are walked date-sorted with two monotonic pointers
// (window start, first same-day order) over prefix counts, so the whole pass
// is linear per supplier while producing exactly the output of the naive
// range scan.
func RollingSupplierHistory(s *dataset.Snapshot, p Params) []RollingHistoryRow {
	var rows []RollingHistoryRow

	for _, orders := range s.OrdersBySupplier {
		n := len(orders)

		// Prefix counts over the date-sorted orders: prefTotal[i] orders with
		// a usable delivery among orders[0:i], prefLate[i] of them late.
		prefTotal := make([]int, n+1)
		prefLate := make([]int, n+1)
		for i, o := range orders {
			prefTotal[i+1] = prefTotal[i]
			prefLate[i+1] = prefLate[i]
			if d, ok := s.DeliveryByOrder[o.OrderID]; ok && !d.Cancelled {
				prefTotal[i+1]++
				if d.Late {
					prefLate[i+1]++
				}
			}
		}

		lo, sameStart := 0, 0
		for _, o := range orders {
			// First order dated >= date(O) - 90d.
			windowFrom := o.OrderDate.AddDate(0, 0, -rollingWindowDays)
			for lo < n && orders[lo].OrderDate.Before(windowFrom) {
				lo++
			}
			// First order sharing O's date; everything from here on is not
			// strictly prior.
			for sameStart < n && orders[sameStart].OrderDate.Before(o.OrderDate) {
				sameStart++
			}

			if !p.inWindow(o.OrderDate) {
				continue
			}

			total := prefTotal[sameStart] - prefTotal[lo]
			late := prefLate[sameStart] - prefLate[lo]

			row := RollingHistoryRow{
				OrderID:     o.OrderID,
				SupplierID:  o.SupplierID,
				OrderDate:   o.OrderDate.Format(dataset.DateLayout),
				PriorOrders: total,
				PriorLate:   late,
			}
			if total < p.MinHistory {
				row.Band = BandInsufficientHistory
			} else {
				rate := pct(late, total)
				row.RatePct = &rate
				row.Band = historyBand(rate)
			}
			rows = append(rows, row)
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].OrderDate != rows[j].OrderDate {
			return rows[i].OrderDate < rows[j].OrderDate
		}
		return rows[i].OrderID < rows[j].OrderID
	})
	return rows
}

func historyBand(ratePct float64) string {
	switch {
	case ratePct == 0:
		return BandPerfectRecord
	case ratePct <= 10:
		return BandExcellent
	case ratePct <= 25:
		return BandGood
	case ratePct <= 50:
		return BandConcerning
	default:
		return BandPoorPerformer
	}
}
