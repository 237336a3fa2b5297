package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"procan/internal/dataset"
)

// Anomaly severities by |z|.
//
// Every scored observation lands in a bucket: the reference report labels
// |z| <= 2 as MILD_OUTLIER rather than "normal". That labeling is kept
// as-is (and pinned by a test) so report output stays comparable; renaming
// the bucket would silently change a published column.
const (
	OutlierExtreme  = "EXTREME_OUTLIER"  // |z| > 3
	OutlierStrong   = "STRONG_OUTLIER"   // |z| > 2.5
	OutlierModerate = "MODERATE_OUTLIER" // |z| > 2
	OutlierMild     = "MILD_OUTLIER"
)

// Anomaly directions by the sign of z.
const (
	DirectionHigh = "UNUSUALLY_HIGH"
	DirectionLow  = "UNUSUALLY_LOW"
)

// AnomalyRow is one scored price-list entry.
type AnomalyRow struct {
	SupplierID string
	SKU        string
	EntrySeq   int
	Price      float64
	Currency   string
	PriceEUR   float64
	LogPrice   float64
	GroupN     int
	GroupMean  float64 // mean of the group's log prices
	GroupStd   float64 // population std of the group's log prices
	Z          float64
	Severity   string
	Direction  string
	Note       string // NoteUnsupportedCurrency when applicable
}

// PriceAnomalies z-scores every positive price against its (supplier, sku)
// group in log space. Prices are right-skewed; the natural log makes
// deviations roughly symmetric before scoring. Statistics are population
// moments (divide by N). Groups with fewer than MinSeries entries, or with
// zero variance, are excluded rather than emitting undefined or trivially
// zero scores.
//
// The result is the TopAnomalies entries by |z| descending, with ties broken
// by (supplier, sku, seq) so truncation is deterministic.
func PriceAnomalies(s *dataset.Snapshot, p Params) []AnomalyRow {
	var rows []AnomalyRow

	for k, group := range s.PriceBook {
		type obs struct {
			e    dataset.PriceListEntry
			eur  float64
			logp float64
			note string
		}
		var seen []obs
		for _, e := range group {
			if e.Price <= 0 {
				continue
			}
			eur, note := p.toEUR(e.Price, e.Currency)
			seen = append(seen, obs{e: e, eur: eur, logp: math.Log(eur), note: note})
		}
		if len(seen) < p.MinSeries {
			continue
		}

		logs := make([]float64, len(seen))
		for i, ob := range seen {
			logs[i] = ob.logp
		}
		mean := stat.Mean(logs, nil)
		std := stat.PopStdDev(logs, nil)
		if std == 0 {
			continue // identical prices carry no anomaly signal
		}

		for _, ob := range seen {
			z := (ob.logp - mean) / std
			direction := DirectionHigh
			if z < 0 {
				direction = DirectionLow
			}
			rows = append(rows, AnomalyRow{
				SupplierID: k.SupplierID,
				SKU:        k.SKU,
				EntrySeq:   ob.e.Seq,
				Price:      ob.e.Price,
				Currency:   ob.e.Currency,
				PriceEUR:   round4(ob.eur),
				LogPrice:   ob.logp,
				GroupN:     len(seen),
				GroupMean:  mean,
				GroupStd:   std,
				Z:          z,
				Severity:   outlierSeverity(math.Abs(z)),
				Direction:  direction,
				Note:       ob.note,
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool {
		ai, aj := math.Abs(rows[i].Z), math.Abs(rows[j].Z)
		if ai != aj {
			return ai > aj
		}
		if rows[i].SupplierID != rows[j].SupplierID {
			return rows[i].SupplierID < rows[j].SupplierID
		}
		if rows[i].SKU != rows[j].SKU {
			return rows[i].SKU < rows[j].SKU
		}
		return rows[i].EntrySeq < rows[j].EntrySeq
	})
	if p.TopAnomalies > 0 && len(rows) > p.TopAnomalies {
		rows = rows[:p.TopAnomalies]
	}
	return rows
}

func outlierSeverity(absZ float64) string {
	switch {
	case absZ > 3:
		return OutlierExtreme
	case absZ > 2.5:
		return OutlierStrong
	case absZ > 2:
		return OutlierModerate
	default:
		return OutlierMild
	}
}
