// Package model trains a logistic-regression late-delivery model on past
// orders and scores future ones. The feature set deliberately stays small
// and interpretable; anything the loader could not parse becomes an explicit
// missing-value indicator rather than a silent zero.
package model

import (
	"fmt"
	"math"
	"sort"
	"time"

	"procan/internal/dataset"
)

// trailingDays is the supplier-history horizon used for the prior late rate
// feature, matching the reporting horizon.
const trailingDays = 90

// minTrailing is the minimum usable history before the supplier's own rate
// replaces the global base rate.
const minTrailing = 3

// Example is one featurized order. Label is only meaningful when Labeled.
type Example struct {
	OrderID string
	X       []float64
	Label   float64
	Labeled bool
}

// FeatureSet builds example vectors from a snapshot. Construct it once per
// dataset; the categorical vocabulary and fill values are frozen at build
// time so training and scoring agree on column meaning.
type FeatureSet struct {
	names []string

	modes      []string // sorted shipping-mode vocabulary
	modeIndex  map[string]int
	meanRating float64
	baseRate   float64 // global late rate among delivered orders

	trailing map[string]trailingStats // order_id -> history before that order
}

type trailingStats struct {
	total int
	late  int
}

// NewFeatureSet scans the snapshot and freezes vocabulary and fill values.
func NewFeatureSet(s *dataset.Snapshot) *FeatureSet {
	fs := &FeatureSet{modeIndex: map[string]int{}, trailing: map[string]trailingStats{}}

	modeSeen := map[string]bool{}
	var ratingSum float64
	var ratingN int
	for i := range s.Tables.Suppliers {
		if r := s.Tables.Suppliers[i].Rating; r != nil {
			ratingSum += *r
			ratingN++
		}
	}
	if ratingN > 0 {
		fs.meanRating = ratingSum / float64(ratingN)
	}

	var delivered, late int
	for i := range s.Tables.Orders {
		o := &s.Tables.Orders[i]
		if o.ShippingMode != nil {
			modeSeen[*o.ShippingMode] = true
		}
		if d, ok := s.DeliveryByOrder[o.OrderID]; ok && !d.Cancelled {
			delivered++
			if d.Late {
				late++
			}
		}
	}
	if delivered > 0 {
		fs.baseRate = float64(late) / float64(delivered)
	}

	for m := range modeSeen {
		fs.modes = append(fs.modes, m)
	}
	sort.Strings(fs.modes)
	for i, m := range fs.modes {
		fs.modeIndex[m] = i
	}

	fs.buildTrailing(s)

	fs.names = []string{
		"log_quantity",
		"distance_1000km",
		"distance_missing",
		"supplier_preferred",
		"supplier_rating",
		"prior_late_rate",
		"prior_history_thin",
	}
	for _, m := range fs.modes {
		fs.names = append(fs.names, "mode_"+m)
	}
	return fs
}

// Names lists feature columns in vector order.
func (fs *FeatureSet) Names() []string { return fs.names }

// buildTrailing walks each supplier's date-sorted orders once, accumulating
// prefix counts so every order knows its strictly-prior 90-day record.
func (fs *FeatureSet) buildTrailing(s *dataset.Snapshot) {
	for _, orders := range s.OrdersBySupplier {
		n := len(orders)
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
			windowFrom := o.OrderDate.AddDate(0, 0, -trailingDays)
			for lo < n && orders[lo].OrderDate.Before(windowFrom) {
				lo++
			}
			for sameStart < n && orders[sameStart].OrderDate.Before(o.OrderDate) {
				sameStart++
			}
			fs.trailing[o.OrderID] = trailingStats{
				total: prefTotal[sameStart] - prefTotal[lo],
				late:  prefLate[sameStart] - prefLate[lo],
			}
		}
	}
}

// Featurize converts one order. The label comes from its delivery when one
// exists and is not cancelled.
func (fs *FeatureSet) Featurize(s *dataset.Snapshot, o *dataset.PurchaseOrder) Example {
	x := make([]float64, len(fs.names))

	x[0] = math.Log1p(o.Quantity)
	if o.DistanceKM != nil {
		x[1] = *o.DistanceKM / 1000
	} else {
		x[2] = 1
	}
	if sup, ok := s.SupplierByID[o.SupplierID]; ok {
		if sup.Preferred {
			x[3] = 1
		}
		if sup.Rating != nil {
			x[4] = *sup.Rating
		} else {
			x[4] = fs.meanRating
		}
	} else {
		x[4] = fs.meanRating
	}

	h := fs.trailing[o.OrderID]
	if h.total >= minTrailing {
		x[5] = float64(h.late) / float64(h.total)
	} else {
		x[5] = fs.baseRate
		x[6] = 1
	}

	if o.ShippingMode != nil {
		if idx, ok := fs.modeIndex[*o.ShippingMode]; ok {
			x[7+idx] = 1
		}
	}

	ex := Example{OrderID: o.OrderID, X: x}
	if d, ok := s.DeliveryByOrder[o.OrderID]; ok && !d.Cancelled {
		ex.Labeled = true
		if d.Late {
			ex.Label = 1
		}
	}
	return ex
}

// Split featurizes every order, returning labeled examples strictly before
// the cutoff date for training and all orders on/after the cutoff for
// scoring. Both slices come back ordered by (order_date, order_id).
func (fs *FeatureSet) Split(s *dataset.Snapshot, cutoff string) (train, score []Example, err error) {
	cut, err := parseCutoff(cutoff)
	if err != nil {
		return nil, nil, err
	}

	orders := make([]*dataset.PurchaseOrder, 0, len(s.Tables.Orders))
	for i := range s.Tables.Orders {
		orders = append(orders, &s.Tables.Orders[i])
	}
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].OrderDate.Equal(orders[j].OrderDate) {
			return orders[i].OrderDate.Before(orders[j].OrderDate)
		}
		return orders[i].OrderID < orders[j].OrderID
	})

	for _, o := range orders {
		ex := fs.Featurize(s, o)
		if o.OrderDate.Before(cut) {
			if ex.Labeled {
				train = append(train, ex)
			}
		} else {
			score = append(score, ex)
		}
	}
	return train, score, nil
}

func parseCutoff(s string) (time.Time, error) {
	t, err := time.Parse(dataset.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("model: cutoff %q: %w", s, err)
	}
	return t, nil
}
