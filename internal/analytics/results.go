package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"procan/internal/dataset"
	"procan/internal/metrics"
)

// Results bundles every component's output for one run.
type Results struct {
	Monthly   []MonthlyRow
	Suppliers []SupplierRankRow
	Rolling   []RollingHistoryRow
	Overlaps  []OverlapRow
	Prices    []PriceMatchRow
	Anomalies []AnomalyRow
	Shipping  []ShippingRow
	Risk      []RiskBucketRow
}

// RunAll executes every component over the snapshot. Components have no data
// dependencies on each other and only read the snapshot, so they run
// concurrently. The risk cross-tab runs only when predictions were loaded.
//
// job labels the per-component step metrics.
func RunAll(ctx context.Context, s *dataset.Snapshot, p Params, job string) (*Results, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	res := &Results{}
	g, _ := errgroup.WithContext(ctx)

	step := func(name string, fn func()) func() error {
		return func() error {
			start := time.Now()
			fn()
			metrics.RecordStep(job, name, nil, time.Since(start))
			return nil
		}
	}

	g.Go(step("monthly_delivery_performance", func() { res.Monthly = MonthlyDeliveryPerformance(s, p) }))
	g.Go(step("supplier_ranking", func() { res.Suppliers = SupplierRanking(s, p) }))
	g.Go(step("rolling_supplier_history", func() { res.Rolling = RollingSupplierHistory(s, p) }))
	g.Go(step("price_overlaps", func() { res.Overlaps = PriceOverlaps(s, p) }))
	g.Go(step("price_match", func() { res.Prices = PriceMatch(s, p) }))
	g.Go(step("price_anomalies", func() { res.Anomalies = PriceAnomalies(s, p) }))
	g.Go(step("shipping_performance", func() { res.Shipping = ShippingPerformance(s, p) }))
	if len(s.PredictionByOrder) > 0 {
		g.Go(step("risk_buckets", func() { res.Risk = RiskBuckets(s, p) }))
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
