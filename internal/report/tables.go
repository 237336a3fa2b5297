// Package report renders the analytics results for humans (text), for
// spreadsheets (CSV), and as positional tables for the SQL sink. All three
// renderings share the table conversion in this file so columns never drift
// between them.
package report

import (
	"fmt"
	"time"

	"procan/internal/analytics"
	"procan/internal/dataset"
	"procan/internal/storage"
)

// Meta describes one run for report headers and persisted metadata.
type Meta struct {
	Job         string
	RunID       string
	WindowFrom  string
	WindowTo    string
	GeneratedAt time.Time
}

// ResultTables converts every component result into positional tables named
// the way the original report schema named them.
func ResultTables(res *analytics.Results) []storage.Table {
	tables := []storage.Table{
		monthlyTable(res.Monthly),
		supplierTable(res.Suppliers),
		rollingTable(res.Rolling),
		overlapTable(res.Overlaps),
		priceMatchTable(res.Prices),
		anomalyTable(res.Anomalies),
		shippingTable(res.Shipping),
	}
	if res.Risk != nil {
		tables = append(tables, riskTable(res.Risk))
	}
	return tables
}

// MetaTable records the run itself so persisted results stay attributable.
func MetaTable(meta Meta) storage.Table {
	return storage.Table{
		Name: "report_runs",
		Columns: cols(
			text("run_id"), text("job"), date("window_from"), date("window_to"),
			text("generated_at"),
		),
		Rows: [][]any{{
			meta.RunID, meta.Job, meta.WindowFrom, meta.WindowTo,
			meta.GeneratedAt.UTC().Format(time.RFC3339),
		}},
	}
}

// SnapshotTables converts the loaded input set so the sink holds the exact
// rows the report was computed from.
func SnapshotTables(t *dataset.Tables) []storage.Table {
	out := []storage.Table{
		{
			Name: "suppliers",
			Columns: cols(
				text("supplier_id"), text("name"), text("country"),
				boolean("preferred"), real("rating"),
			),
			Rows: mapRows(t.Suppliers, func(s dataset.Supplier) []any {
				return []any{s.ID, s.Name, s.Country, b2i(s.Preferred), fptr(s.Rating)}
			}),
		},
		{
			Name: "products",
			Columns: cols(
				text("sku"), text("name"), text("category"), text("unit_of_measure"),
			),
			Rows: mapRows(t.Products, func(p dataset.Product) []any {
				return []any{p.SKU, p.Name, p.Category, p.Unit}
			}),
		},
		{
			Name: "purchase_orders",
			Columns: cols(
				text("order_id"), date("order_date"), date("promised_date"),
				text("supplier_id"), text("sku"), real("quantity"),
				text("shipping_mode"), text("incoterm"), real("distance_km"),
			),
			Rows: mapRows(t.Orders, func(o dataset.PurchaseOrder) []any {
				return []any{
					o.OrderID, dstr(&o.OrderDate), dptr(o.PromisedDate),
					o.SupplierID, o.SKU, o.Quantity,
					sptr(o.ShippingMode), sptr(o.Incoterm), fptr(o.DistanceKM),
				}
			}),
		},
		{
			Name: "deliveries",
			Columns: cols(
				text("order_id"), date("actual_delivery_date"), boolean("late_delivery"),
				real("delay_days"), boolean("cancelled"), boolean("partial_delivery"),
			),
			Rows: mapRows(t.Deliveries, func(d dataset.Delivery) []any {
				return []any{
					d.OrderID, dptr(d.ActualDate), b2i(d.Late),
					d.DelayDays, b2i(d.Cancelled), b2i(d.Partial),
				}
			}),
		},
		{
			Name: "price_lists",
			Columns: cols(
				text("supplier_id"), text("sku"), date("valid_from"), date("valid_to"),
				real("price"), text("currency"), real("min_qty"),
			),
			Rows: mapRows(t.Prices, func(e dataset.PriceListEntry) []any {
				return []any{
					e.SupplierID, e.SKU, dptr(e.ValidFrom), dptr(e.ValidTo),
					e.Price, e.Currency, e.MinQty,
				}
			}),
		},
	}
	if len(t.Predictions) > 0 {
		out = append(out, storage.Table{
			Name:    "predictions",
			Columns: cols(text("order_id"), real("p_late")),
			Rows: mapRows(t.Predictions, func(p dataset.Prediction) []any {
				return []any{p.OrderID, p.PLate}
			}),
		})
	}
	return out
}

func monthlyTable(rows []analytics.MonthlyRow) storage.Table {
	return storage.Table{
		Name: "monthly_delivery_performance",
		Columns: cols(
			text("month"), text("shipping_mode"), integer("orders"),
			integer("late"), real("late_rate_pct"),
		),
		Rows: mapRows(rows, func(r analytics.MonthlyRow) []any {
			return []any{r.Month, r.Mode, int64(r.Orders), int64(r.Late), r.LateRatePct}
		}),
	}
}

func supplierTable(rows []analytics.SupplierRankRow) storage.Table {
	return storage.Table{
		Name: "supplier_ranking",
		Columns: cols(
			text("supplier_id"), text("name"), integer("orders"), real("total_qty"),
			integer("late"), real("late_rate_pct"), real("avg_delay_days"),
		),
		Rows: mapRows(rows, func(r analytics.SupplierRankRow) []any {
			return []any{r.SupplierID, r.Name, int64(r.Orders), r.TotalQty, int64(r.Late), r.LateRatePct, r.AvgDelayDays}
		}),
	}
}

func rollingTable(rows []analytics.RollingHistoryRow) storage.Table {
	return storage.Table{
		Name: "rolling_supplier_history",
		Columns: cols(
			text("order_id"), text("supplier_id"), date("order_date"),
			integer("prior_orders"), integer("prior_late"), real("rate_pct"), text("band"),
		),
		Rows: mapRows(rows, func(r analytics.RollingHistoryRow) []any {
			return []any{r.OrderID, r.SupplierID, r.OrderDate, int64(r.PriorOrders), int64(r.PriorLate), fptr(r.RatePct), r.Band}
		}),
	}
}

func overlapTable(rows []analytics.OverlapRow) storage.Table {
	return storage.Table{
		Name: "price_overlaps",
		Columns: cols(
			text("supplier_id"), text("sku"), integer("seq_a"), integer("seq_b"),
			date("from_a"), date("to_a"), date("from_b"), date("to_b"),
			integer("overlap_days"), text("severity"), text("price_flag"),
			real("price_a"), text("currency_a"), real("price_b"), text("currency_b"),
		),
		Rows: mapRows(rows, func(r analytics.OverlapRow) []any {
			return []any{
				r.SupplierID, r.SKU, int64(r.SeqA), int64(r.SeqB),
				r.FromA, r.ToA, r.FromB, r.ToB,
				int64(r.OverlapDays), r.Severity, r.PriceFlag,
				r.PriceA, r.CurrencyA, r.PriceB, r.CurrencyB,
			}
		}),
	}
}

func priceMatchTable(rows []analytics.PriceMatchRow) storage.Table {
	return storage.Table{
		Name: "order_prices",
		Columns: cols(
			text("order_id"), text("supplier_id"), text("sku"), real("quantity"),
			integer("tier"), text("match_type"), integer("entry_seq"), real("min_qty"),
			real("unit_price"), text("currency"), real("unit_price_eur"),
			real("order_value_eur"), text("note"),
		),
		Rows: mapRows(rows, func(r analytics.PriceMatchRow) []any {
			return []any{
				r.OrderID, r.SupplierID, r.SKU, r.Quantity,
				int64(r.Tier), r.MatchType, int64(r.EntrySeq), fptr(r.MinQty),
				fptr(r.UnitPrice), r.Currency, fptr(r.UnitPriceEUR),
				fptr(r.OrderValueEUR), r.Note,
			}
		}),
	}
}

func anomalyTable(rows []analytics.AnomalyRow) storage.Table {
	return storage.Table{
		Name: "price_anomalies",
		Columns: cols(
			text("supplier_id"), text("sku"), integer("entry_seq"),
			real("price"), text("currency"), real("price_eur"), real("log_price"),
			integer("group_n"), real("group_mean"), real("group_std"),
			real("z_score"), text("severity"), text("direction"), text("note"),
		),
		Rows: mapRows(rows, func(r analytics.AnomalyRow) []any {
			return []any{
				r.SupplierID, r.SKU, int64(r.EntrySeq),
				r.Price, r.Currency, r.PriceEUR, r.LogPrice,
				int64(r.GroupN), r.GroupMean, r.GroupStd,
				r.Z, r.Severity, r.Direction, r.Note,
			}
		}),
	}
}

func shippingTable(rows []analytics.ShippingRow) storage.Table {
	return storage.Table{
		Name: "shipping_performance",
		Columns: cols(
			text("incoterm"), text("distance_band"), integer("shipments"),
			real("avg_delay_days"), real("min_delay_days"), real("max_delay_days"),
			integer("late"), real("late_rate_pct"),
			integer("partial"), real("partial_rate_pct"),
		),
		Rows: mapRows(rows, func(r analytics.ShippingRow) []any {
			return []any{
				r.Incoterm, r.Band, int64(r.Shipments),
				r.AvgDelayDays, r.MinDelayDays, r.MaxDelayDays,
				int64(r.Late), r.LateRatePct,
				int64(r.Partial), r.PartialRatePct,
			}
		}),
	}
}

func riskTable(rows []analytics.RiskBucketRow) storage.Table {
	return storage.Table{
		Name: "risk_buckets",
		Columns: cols(
			text("risk_category"), text("capacity_bucket"), integer("count"),
			integer("late"), real("late_rate_pct"),
			real("mean_p_late"), real("min_p_late"), real("max_p_late"),
		),
		Rows: mapRows(rows, func(r analytics.RiskBucketRow) []any {
			return []any{
				r.RiskCategory, r.CapacityBucket, int64(r.Count),
				int64(r.Late), r.LateRatePct,
				r.MeanPLate, r.MinPLate, r.MaxPLate,
			}
		}),
	}
}

func mapRows[T any](in []T, f func(T) []any) [][]any {
	out := make([][]any, len(in))
	for i, v := range in {
		out[i] = f(v)
	}
	return out
}

func cols(cs ...storage.Column) []storage.Column { return cs }

func text(name string) storage.Column    { return storage.Column{Name: name, Kind: storage.KindText} }
func integer(name string) storage.Column { return storage.Column{Name: name, Kind: storage.KindInteger} }
func real(name string) storage.Column    { return storage.Column{Name: name, Kind: storage.KindReal} }
func date(name string) storage.Column    { return storage.Column{Name: name, Kind: storage.KindDate} }
func boolean(name string) storage.Column { return storage.Column{Name: name, Kind: storage.KindBool} }

// b2i stores booleans as 0/1 so every backend agrees on the representation.
func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// fptr unwraps an optional float; nil stays SQL NULL.
func fptr(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

// sptr unwraps an optional string; nil stays SQL NULL.
func sptr(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

// dptr formats an optional date; nil stays SQL NULL.
func dptr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(dataset.DateLayout)
}

// dstr formats a required date.
func dstr(t *time.Time) string { return t.Format(dataset.DateLayout) }

// CellString renders one positional cell for CSV output. NULLs render empty.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return fmt.Sprintf("%d", x)
	case float64:
		return trimFloat(x)
	default:
		return fmt.Sprintf("%v", x)
	}
}

// trimFloat renders floats without trailing zero noise.
func trimFloat(f float64) string {
	s := fmt.Sprintf("%.6f", f)
	for len(s) > 0 && s[len(s)-1] == '0' {
		s = s[:len(s)-1]
	}
	if len(s) > 0 && s[len(s)-1] == '.' {
		s = s[:len(s)-1]
	}
	return s
}
