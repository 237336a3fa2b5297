// Package analytics implements the eight report components of the
// procurement pipeline. Every component is a pure function over an immutable
// dataset.Snapshot plus explicit Params; there is no shared mutable state, so
// RunAll executes them concurrently.
package analytics

import (
	"fmt"
	"math"
	"time"

	"procan/internal/dataset"
)

// ConversionNote flags how a price was normalized to EUR.
const (
	// NoteUnsupportedCurrency marks values reported unconverted because no
	// rate is configured for their currency. The numeric value then sits in a
	// nominally-EUR column at its original magnitude. Extending the rate
	// table would change report output, so the gap is surfaced instead of
	// silently fixed.
	NoteUnsupportedCurrency = "UNSUPPORTED_CURRENCY"
)

// Params carries the run-scoped configuration shared by all components.
// The reporting window is a closed date interval.
type Params struct {
	WindowFrom time.Time
	WindowTo   time.Time

	// Rates maps currency code to the multiplier into EUR. EUR must map to
	// 1.0. Currencies absent from the table pass through unconverted and are
	// flagged with NoteUnsupportedCurrency.
	Rates map[string]float64

	TopSuppliers int // ranking truncation (K)
	MinHistory   int // rolling window: minimum prior orders for a rate
	MinSeries    int // anomaly detector: minimum observations per group
	TopAnomalies int // anomaly detector truncation (N)
	MinBucket    int // shipping report: minimum group size
}

// DefaultParams mirrors the reference report configuration.
func DefaultParams() Params {
	return Params{
		WindowFrom:   time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		WindowTo:     time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC),
		Rates:        map[string]float64{"EUR": 1.0, "USD": 0.92},
		TopSuppliers: 5,
		MinHistory:   3,
		MinSeries:    3,
		TopAnomalies: 10,
		MinBucket:    5,
	}
}

// Validate rejects parameter sets no component can run with.
func (p Params) Validate() error {
	if p.WindowFrom.After(p.WindowTo) {
		return fmt.Errorf("analytics: window from %s after to %s",
			p.WindowFrom.Format(dataset.DateLayout), p.WindowTo.Format(dataset.DateLayout))
	}
	if r, ok := p.Rates["EUR"]; !ok || r != 1.0 {
		return fmt.Errorf("analytics: rate table must map EUR to 1.0")
	}
	return nil
}

// inWindow reports whether d falls inside the closed reporting window.
func (p Params) inWindow(d time.Time) bool {
	return !d.Before(p.WindowFrom) && !d.After(p.WindowTo)
}

// toEUR converts price into EUR using the configured rate table. For unknown
// currencies the original value is returned together with
// NoteUnsupportedCurrency.
func (p Params) toEUR(price float64, currency string) (float64, string) {
	if rate, ok := p.Rates[currency]; ok {
		return price * rate, ""
	}
	return price, NoteUnsupportedCurrency
}

// round2 rounds to 2 decimal places (report money and percentages).
func round2(v float64) float64 { return math.Round(v*100) / 100 }

// round4 rounds to 4 decimal places (unit prices).
func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

// pct returns 100*num/den rounded to 2 decimals. Callers guarantee den > 0;
// grouped aggregates only ever emit populated groups.
func pct(num, den int) float64 {
	return round2(100 * float64(num) / float64(den))
}

// monthKey formats a date as its report month bucket.
func monthKey(d time.Time) string { return d.Format("2006-01") }
