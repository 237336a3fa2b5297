package analytics

import (
	"sort"
	"time"

	"procan/internal/dataset"
)

// Overlap severities by inclusive day count.
const (
	SeverityMajor    = "MAJOR"    // > 30 days
	SeverityModerate = "MODERATE" // > 7 days
	SeverityMinor    = "MINOR"
)

// Overlap price flags.
const (
	FlagPriceConflict = "PRICE_CONFLICT" // price or currency differ
	FlagSamePrice     = "SAME_PRICE"
)

// OverlapRow reports one unordered pair of price-list entries whose validity
// intervals intersect. SeqA < SeqB always holds, so each pair appears once.
type OverlapRow struct {
	SupplierID  string
	SKU         string
	SeqA        int
	SeqB        int
	FromA, ToA  string
	FromB, ToB  string
	OverlapDays int
	Severity    string
	PriceFlag   string
	PriceA      float64
	CurrencyA   string
	PriceB      float64
	CurrencyB   string
}

// PriceOverlaps scans every (supplier, sku) price group for pairs of entries
// with intersecting validity intervals. Intervals are inclusive on both ends:
// a and b overlap iff a.from <= b.to && a.to >= b.from, and the overlap
// length is min(to) - max(from) + 1 days.
//
// Entries missing either date, or with from > to, are excluded entirely.
// Groups are scanned sorted by valid_from, and the inner scan stops at the
// first entry starting after the outer entry ends; that prunes the quadratic
// worst case without changing the reported pair set.
func PriceOverlaps(s *dataset.Snapshot, _ Params) []OverlapRow {
	var rows []OverlapRow

	keys := make([]dataset.PairKey, 0, len(s.PriceBook))
	for k := range s.PriceBook {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SupplierID != keys[j].SupplierID {
			return keys[i].SupplierID < keys[j].SupplierID
		}
		return keys[i].SKU < keys[j].SKU
	})

	for _, k := range keys {
		var entries []dataset.PriceListEntry
		for _, e := range s.PriceBook[k] {
			if e.ValidFrom == nil || e.ValidTo == nil || e.ValidFrom.After(*e.ValidTo) {
				continue
			}
			entries = append(entries, e)
		}
		// Already from-sorted via Seq assignment; Seq order doubles as the
		// strict pair ordering.
		for i := 0; i < len(entries); i++ {
			a := entries[i]
			for j := i + 1; j < len(entries); j++ {
				b := entries[j]
				if b.ValidFrom.After(*a.ValidTo) {
					break // no later entry can reach back into a
				}
				days := overlapDays(*a.ValidFrom, *a.ValidTo, *b.ValidFrom, *b.ValidTo)
				if days < 1 {
					continue
				}
				flag := FlagSamePrice
				if a.Price != b.Price || a.Currency != b.Currency {
					flag = FlagPriceConflict
				}
				rows = append(rows, OverlapRow{
					SupplierID:  k.SupplierID,
					SKU:         k.SKU,
					SeqA:        a.Seq,
					SeqB:        b.Seq,
					FromA:       a.ValidFrom.Format(dataset.DateLayout),
					ToA:         a.ValidTo.Format(dataset.DateLayout),
					FromB:       b.ValidFrom.Format(dataset.DateLayout),
					ToB:         b.ValidTo.Format(dataset.DateLayout),
					OverlapDays: days,
					Severity:    overlapSeverity(days),
					PriceFlag:   flag,
					PriceA:      a.Price,
					CurrencyA:   a.Currency,
					PriceB:      b.Price,
					CurrencyB:   b.Currency,
				})
			}
		}
	}
	return rows
}

// overlapDays returns the inclusive day count of the intersection, or 0 when
// the intervals do not meet.
func overlapDays(fromA, toA, fromB, toB time.Time) int {
	start := fromA
	if fromB.After(start) {
		start = fromB
	}
	end := toA
	if toB.Before(end) {
		end = toB
	}
	if end.Before(start) {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

func overlapSeverity(days int) string {
	switch {
	case days > 30:
		return SeverityMajor
	case days > 7:
		return SeverityModerate
	default:
		return SeverityMinor
	}
}
