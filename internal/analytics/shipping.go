package analytics

import (
	"sort"

	"procan/internal/dataset"
)

// distanceBands are the fixed report buckets in their natural distance order.
// Orders with null distance fall into an UNKNOWN band that the final report
// drops.
var distanceBands = []struct {
	label string
	maxKM float64
}{
	{"0-100km", 100},
	{"101-500km", 500},
	{"501-1500km", 1500},
	{"1501-3000km", 3000},
	{">3000km", -1},
}

// ShippingRow summarizes one (incoterm, distance band) group.
type ShippingRow struct {
	Incoterm       string
	Band           string
	Shipments      int
	AvgDelayDays   float64
	MinDelayDays   float64
	MaxDelayDays   float64
	Late           int
	LateRatePct    float64
	Partial        int
	PartialRatePct float64
}

// ShippingPerformance buckets in-window, non-cancelled orders with a known
// incoterm by (incoterm, distance band) and reports delay statistics per
// group. Groups smaller than MinBucket are suppressed as statistically thin.
// Output is ordered by incoterm, then by the band's distance order.
func ShippingPerformance(s *dataset.Snapshot, p Params) []ShippingRow {
	type agg struct {
		n        int
		delaySum float64
		delayMin float64
		delayMax float64
		late     int
		partial  int
	}
	type key struct {
		incoterm string
		band     int // index into distanceBands
	}
	groups := map[key]*agg{}

	for i := range s.Tables.Orders {
		o := &s.Tables.Orders[i]
		if !p.inWindow(o.OrderDate) || o.Incoterm == nil || o.DistanceKM == nil {
			continue
		}
		d, ok := s.DeliveryByOrder[o.OrderID]
		if !ok || d.Cancelled {
			continue
		}
		k := key{incoterm: *o.Incoterm, band: bandIndex(*o.DistanceKM)}
		a := groups[k]
		if a == nil {
			a = &agg{delayMin: d.DelayDays, delayMax: d.DelayDays}
			groups[k] = a
		}
		a.n++
		a.delaySum += d.DelayDays
		if d.DelayDays < a.delayMin {
			a.delayMin = d.DelayDays
		}
		if d.DelayDays > a.delayMax {
			a.delayMax = d.DelayDays
		}
		if d.Late {
			a.late++
		}
		if d.Partial {
			a.partial++
		}
	}

	rows := make([]ShippingRow, 0, len(groups))
	for k, a := range groups {
		if a.n < p.MinBucket {
			continue
		}
		rows = append(rows, ShippingRow{
			Incoterm:       k.incoterm,
			Band:           distanceBands[k.band].label,
			Shipments:      a.n,
			AvgDelayDays:   round2(a.delaySum / float64(a.n)),
			MinDelayDays:   a.delayMin,
			MaxDelayDays:   a.delayMax,
			Late:           a.late,
			LateRatePct:    pct(a.late, a.n),
			Partial:        a.partial,
			PartialRatePct: pct(a.partial, a.n),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Incoterm != rows[j].Incoterm {
			return rows[i].Incoterm < rows[j].Incoterm
		}
		return bandOrder(rows[i].Band) < bandOrder(rows[j].Band)
	})
	return rows
}

// bandIndex maps a known distance onto its bucket.
func bandIndex(km float64) int {
	for i, b := range distanceBands {
		if b.maxKM >= 0 && km <= b.maxKM {
			return i
		}
	}
	return len(distanceBands) - 1
}

func bandOrder(label string) int {
	for i, b := range distanceBands {
		if b.label == label {
			return i
		}
	}
	return len(distanceBands)
}
