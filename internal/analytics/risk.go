package analytics

import (
	"sort"

	"procan/internal/dataset"
)

// Fixed-threshold risk categories.
const (
	RiskHigh   = "HIGH"   // p >= 0.7
	RiskMedium = "MEDIUM" // p >= 0.3
	RiskLow    = "LOW"
)

// Capacity buckets by rank among all scored orders.
const (
	CapacityTop10   = "TOP_10_PCT_RISK"
	CapacityLower90 = "LOWER_90_PCT_RISK"
)

// RiskBucketRow is one (risk category, capacity bucket) cell of the
// cross-tab against actual outcomes.
type RiskBucketRow struct {
	RiskCategory   string
	CapacityBucket string
	Count          int
	Late           int
	LateRatePct    float64
	MeanPLate      float64
	MinPLate       float64
	MaxPLate       float64
}

// RiskBuckets cross-tabulates predicted late-probabilities against actual
// outcomes using two simultaneous bucketings: fixed thresholds (HIGH/MEDIUM/
// LOW) and a rank-based capacity cut. The capacity cut value is the k-th
// largest score with k = max(1, n/10) — a rank cut, not an interpolated
// percentile — and scores >= the cut land in the top bucket.
//
// Only in-window orders with both a prediction and a non-cancelled delivery
// participate; everything else fails the join silently.
func RiskBuckets(s *dataset.Snapshot, p Params) []RiskBucketRow {
	type scored struct {
		p    float64
		late bool
	}
	var obs []scored
	for i := range s.Tables.Orders {
		o := &s.Tables.Orders[i]
		if !p.inWindow(o.OrderDate) {
			continue
		}
		prob, ok := s.PredictionByOrder[o.OrderID]
		if !ok {
			continue
		}
		d, ok := s.DeliveryByOrder[o.OrderID]
		if !ok || d.Cancelled {
			continue
		}
		obs = append(obs, scored{p: prob, late: d.Late})
	}
	if len(obs) == 0 {
		return nil
	}

	cut := capacityCut(obs, func(x scored) float64 { return x.p })

	type agg struct {
		n    int
		late int
		sum  float64
		min  float64
		max  float64
	}
	type key struct{ risk, capacity string }
	groups := map[key]*agg{}
	for _, x := range obs {
		k := key{risk: riskCategory(x.p), capacity: CapacityLower90}
		if x.p >= cut {
			k.capacity = CapacityTop10
		}
		a := groups[k]
		if a == nil {
			a = &agg{min: x.p, max: x.p}
			groups[k] = a
		}
		a.n++
		a.sum += x.p
		if x.p < a.min {
			a.min = x.p
		}
		if x.p > a.max {
			a.max = x.p
		}
		if x.late {
			a.late++
		}
	}

	rows := make([]RiskBucketRow, 0, len(groups))
	for k, a := range groups {
		rows = append(rows, RiskBucketRow{
			RiskCategory:   k.risk,
			CapacityBucket: k.capacity,
			Count:          a.n,
			Late:           a.late,
			LateRatePct:    pct(a.late, a.n),
			MeanPLate:      round4(a.sum / float64(a.n)),
			MinPLate:       a.min,
			MaxPLate:       a.max,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CapacityBucket != rows[j].CapacityBucket {
			return rows[i].CapacityBucket == CapacityTop10
		}
		return riskOrder(rows[i].RiskCategory) < riskOrder(rows[j].RiskCategory)
	})
	return rows
}

// capacityCut returns the k-th largest score, k = max(1, n/10).
func capacityCut[T any](obs []T, score func(T) float64) float64 {
	scores := make([]float64, len(obs))
	for i, x := range obs {
		scores[i] = score(x)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))
	k := len(scores) / 10
	if k < 1 {
		k = 1
	}
	return scores[k-1]
}

func riskCategory(p float64) string {
	switch {
	case p >= 0.7:
		return RiskHigh
	case p >= 0.3:
		return RiskMedium
	default:
		return RiskLow
	}
}

func riskOrder(cat string) int {
	switch cat {
	case RiskHigh:
		return 0
	case RiskMedium:
		return 1
	default:
		return 2
	}
}
