package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"procan/internal/analytics"
	"procan/internal/dataset"
)

// WriteText renders the full run as an aligned, sectioned text report.
// Numbers go through a locale-aware printer so large quantities stay
// readable.
func WriteText(w io.Writer, meta Meta, res *analytics.Results, stats dataset.LoadStats) error {
	pr := message.NewPrinter(language.English)

	fmt.Fprintf(w, "procurement report  job=%s  run=%s\n", meta.Job, meta.RunID)
	fmt.Fprintf(w, "window %s .. %s  generated %s\n",
		meta.WindowFrom, meta.WindowTo, meta.GeneratedAt.Format("2006-01-02 15:04:05 MST"))

	if len(stats) > 0 {
		section(w, "input tables")
		tw := newTab(w)
		fmt.Fprintln(tw, "table\tread\tloaded\tdropped\tduplicates")
		for _, name := range []string{"suppliers", "products", "purchase_orders", "deliveries", "price_lists", "predictions"} {
			st, ok := stats[name]
			if !ok {
				continue
			}
			pr.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", name, st.Read, st.Loaded, st.Dropped, st.Duplicates)
		}
		tw.Flush()
	}

	section(w, "delivery performance by month and shipping mode")
	tw := newTab(w)
	fmt.Fprintln(tw, "month\tmode\torders\tlate\tlate_rate_pct")
	for _, r := range res.Monthly {
		pr.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f\n", r.Month, r.Mode, r.Orders, r.Late, r.LateRatePct)
	}
	tw.Flush()

	section(w, "top suppliers by volume")
	tw = newTab(w)
	fmt.Fprintln(tw, "supplier\tname\torders\ttotal_qty\tlate\tlate_rate_pct\tavg_delay_days")
	for _, r := range res.Suppliers {
		pr.Fprintf(tw, "%s\t%s\t%d\t%.0f\t%d\t%.2f\t%.2f\n",
			r.SupplierID, r.Name, r.Orders, r.TotalQty, r.Late, r.LateRatePct, r.AvgDelayDays)
	}
	tw.Flush()

	section(w, "rolling 90-day supplier history")
	tw = newTab(w)
	fmt.Fprintln(tw, "order\tsupplier\tdate\tprior\tprior_late\trate_pct\tband")
	for _, r := range res.Rolling {
		rate := "-"
		if r.RatePct != nil {
			rate = pr.Sprintf("%.2f", *r.RatePct)
		}
		pr.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.OrderID, r.SupplierID, r.OrderDate, r.PriorOrders, r.PriorLate, rate, r.Band)
	}
	tw.Flush()

	section(w, "price list validity overlaps")
	tw = newTab(w)
	fmt.Fprintln(tw, "supplier\tsku\tpair\tdays\tseverity\tflag")
	for _, r := range res.Overlaps {
		pr.Fprintf(tw, "%s\t%s\t#%d/#%d\t%d\t%s\t%s\n",
			r.SupplierID, r.SKU, r.SeqA, r.SeqB, r.OverlapDays, r.Severity, r.PriceFlag)
	}
	tw.Flush()

	section(w, "order pricing")
	tw = newTab(w)
	fmt.Fprintln(tw, "order\tmatch\tunit_price_eur\torder_value_eur\tnote")
	for _, r := range res.Prices {
		unit, value := "-", "-"
		if r.UnitPriceEUR != nil {
			unit = pr.Sprintf("%.4f", *r.UnitPriceEUR)
		}
		if r.OrderValueEUR != nil {
			value = pr.Sprintf("%.2f", *r.OrderValueEUR)
		}
		pr.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.OrderID, r.MatchType, unit, value, r.Note)
	}
	tw.Flush()

	section(w, "price anomalies (top by |z|)")
	tw = newTab(w)
	fmt.Fprintln(tw, "supplier\tsku\tprice\tz\tseverity\tdirection\tnote")
	for _, r := range res.Anomalies {
		pr.Fprintf(tw, "%s\t%s\t%.4f %s\t%.3f\t%s\t%s\t%s\n",
			r.SupplierID, r.SKU, r.Price, r.Currency, r.Z, r.Severity, r.Direction, r.Note)
	}
	tw.Flush()

	section(w, "shipping performance by incoterm and distance")
	tw = newTab(w)
	fmt.Fprintln(tw, "incoterm\tband\tshipments\tavg_delay\tmin\tmax\tlate_rate_pct\tpartial_rate_pct")
	for _, r := range res.Shipping {
		pr.Fprintf(tw, "%s\t%s\t%d\t%.2f\t%.0f\t%.0f\t%.2f\t%.2f\n",
			r.Incoterm, r.Band, r.Shipments, r.AvgDelayDays, r.MinDelayDays, r.MaxDelayDays,
			r.LateRatePct, r.PartialRatePct)
	}
	tw.Flush()

	if len(res.Risk) > 0 {
		section(w, "predicted risk vs actual outcome")
		tw = newTab(w)
		fmt.Fprintln(tw, "capacity\trisk\tcount\tlate\tlate_rate_pct\tmean_p\tmin_p\tmax_p")
		for _, r := range res.Risk {
			pr.Fprintf(tw, "%s\t%s\t%d\t%d\t%.2f\t%.4f\t%.4f\t%.4f\n",
				r.CapacityBucket, r.RiskCategory, r.Count, r.Late, r.LateRatePct,
				r.MeanPLate, r.MinPLate, r.MaxPLate)
		}
		tw.Flush()
	}

	return nil
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func newTab(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}
