package analytics

import (
	"sort"

	"procan/internal/dataset"
)

// Match tiers, lowest wins.
const (
	TierExact    = 1 // order date inside validity, quantity meets min_qty
	TierDateOnly = 2 // order date inside validity, quantity below min_qty
	TierFallback = 3 // no date containment
)

// Match type labels per tier.
const (
	MatchExact         = "EXACT_MATCH"
	MatchDateOnly      = "DATE_ONLY_MATCH"
	MatchFallback      = "FALLBACK_MATCH"
	MatchNoneAvailable = "NO_PRICE_AVAILABLE"
)

// PriceMatchRow is the price resolution for one order. Price fields are nil
// when the (supplier, sku) pair has no price-list entries at all.
type PriceMatchRow struct {
	OrderID       string
	SupplierID    string
	SKU           string
	Quantity      float64
	Tier          int // 0 when no candidate exists
	MatchType     string
	EntrySeq      int
	MinQty        *float64
	UnitPrice     *float64
	Currency      string
	UnitPriceEUR  *float64 // rounded to 4 decimals
	OrderValueEUR *float64 // unit price EUR * quantity, rounded to 2 decimals
	Note          string   // NoteUnsupportedCurrency when applicable
}

// PriceMatch resolves each in-window order to its best price-list entry.
// Candidates are every entry of the order's (supplier, sku) pair; no date
// filter is applied at the join so coverage stays maximal. Candidates rank by
// (tier, min_qty, entry seq) and the first wins, which makes the selection
// deterministic and guarantees a tier-1 candidate is never passed over.
func PriceMatch(s *dataset.Snapshot, p Params) []PriceMatchRow {
	var rows []PriceMatchRow

	for i := range s.Tables.Orders {
		o := &s.Tables.Orders[i]
		if !p.inWindow(o.OrderDate) {
			continue
		}
		candidates := s.PriceBook[dataset.PairKey{SupplierID: o.SupplierID, SKU: o.SKU}]

		row := PriceMatchRow{
			OrderID:    o.OrderID,
			SupplierID: o.SupplierID,
			SKU:        o.SKU,
			Quantity:   o.Quantity,
		}
		if len(candidates) == 0 {
			row.MatchType = MatchNoneAvailable
			rows = append(rows, row)
			continue
		}

		best := candidates[0]
		bestTier := matchTier(o, best)
		for _, c := range candidates[1:] {
			t := matchTier(o, c)
			if t < bestTier ||
				(t == bestTier && (c.MinQty < best.MinQty ||
					(c.MinQty == best.MinQty && c.Seq < best.Seq))) {
				best, bestTier = c, t
			}
		}

		eur, note := p.toEUR(best.Price, best.Currency)
		unitEUR := round4(eur)
		value := round2(eur * o.Quantity)

		row.Tier = bestTier
		row.MatchType = matchLabel(bestTier)
		row.EntrySeq = best.Seq
		minQty := best.MinQty
		row.MinQty = &minQty
		price := best.Price
		row.UnitPrice = &price
		row.Currency = best.Currency
		row.UnitPriceEUR = &unitEUR
		row.OrderValueEUR = &value
		row.Note = note
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].OrderID < rows[j].OrderID })
	return rows
}

// matchTier scores one candidate for one order.
func matchTier(o *dataset.PurchaseOrder, e dataset.PriceListEntry) int {
	dateOK := e.ValidFrom != nil && e.ValidTo != nil &&
		!o.OrderDate.Before(*e.ValidFrom) && !o.OrderDate.After(*e.ValidTo)
	switch {
	case dateOK && o.Quantity >= e.MinQty:
		return TierExact
	case dateOK:
		return TierDateOnly
	default:
		return TierFallback
	}
}

func matchLabel(tier int) string {
	switch tier {
	case TierExact:
		return MatchExact
	case TierDateOnly:
		return MatchDateOnly
	default:
		return MatchFallback
	}
}
