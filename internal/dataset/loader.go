package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"
)

// Source names the input tables. Each value is a local path or an http(s)
// URL. Predictions is optional; when empty the risk-bucket component is
// skipped.
type Source struct {
	Suppliers   string `json:"suppliers" yaml:"suppliers"`
	Products    string `json:"products" yaml:"products"`
	Orders      string `json:"purchase_orders" yaml:"purchase_orders"`
	Deliveries  string `json:"deliveries" yaml:"deliveries"`
	Prices      string `json:"price_lists" yaml:"price_lists"`
	Predictions string `json:"predictions,omitempty" yaml:"predictions,omitempty"`
}

// TableStats counts what the loader did with one table. Dropped rows are a
// soft failure: they are excluded from every downstream aggregate, never an
// error.
type TableStats struct {
	Read       int // data rows seen (excluding header)
	Loaded     int // rows that survived decode + dedup
	Dropped    int // rows with unparseable or missing required fields
	Duplicates int // rows collapsed by business-key dedup (first wins)
}

// LoadStats aggregates per-table loader statistics keyed by table name.
type LoadStats map[string]*TableStats

// Tables is the decoded, immutable input set.
type Tables struct {
	Suppliers   []Supplier
	Products    []Product
	Orders      []PurchaseOrder
	Deliveries  []Delivery
	Prices      []PriceListEntry
	Predictions []Prediction
	Stats       LoadStats
}

// Loader reads the input tables. Opener abstracts file vs HTTP access so
// tests can feed in-memory readers.
type Loader struct {
	Open Opener
}

// Opener returns a reader for a table location. The caller closes it.
type Opener func(ctx context.Context, location string) (io.ReadCloser, error)

// Load reads all configured tables concurrently and returns the decoded set.
// The predictions table is loaded only when a location is configured.
func (l *Loader) Load(ctx context.Context, src Source) (*Tables, error) {
	if l.Open == nil {
		return nil, fmt.Errorf("dataset: loader requires an Opener")
	}

	t := &Tables{Stats: LoadStats{}}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, st, err := loadTable(ctx, l.Open, src.Suppliers, decodeSupplier)
		if err != nil {
			return fmt.Errorf("dataset: suppliers: %w", err)
		}
		t.Suppliers, t.Stats["suppliers"] = rows, st
		return nil
	})
	g.Go(func() error {
		rows, st, err := loadTable(ctx, l.Open, src.Products, decodeProduct)
		if err != nil {
			return fmt.Errorf("dataset: products: %w", err)
		}
		t.Products, t.Stats["products"] = rows, st
		return nil
	})
	g.Go(func() error {
		rows, st, err := loadTable(ctx, l.Open, src.Orders, decodeOrder)
		if err != nil {
			return fmt.Errorf("dataset: purchase_orders: %w", err)
		}
		t.Orders, t.Stats["purchase_orders"] = rows, st
		return nil
	})
	g.Go(func() error {
		rows, st, err := loadTable(ctx, l.Open, src.Deliveries, decodeDelivery)
		if err != nil {
			return fmt.Errorf("dataset: deliveries: %w", err)
		}
		t.Deliveries, t.Stats["deliveries"] = rows, st
		return nil
	})
	g.Go(func() error {
		rows, st, err := loadTable(ctx, l.Open, src.Prices, decodePrice)
		if err != nil {
			return fmt.Errorf("dataset: price_lists: %w", err)
		}
		t.Prices, t.Stats["price_lists"] = rows, st
		return nil
	})
	if src.Predictions != "" {
		g.Go(func() error {
			rows, st, err := loadTable(ctx, l.Open, src.Predictions, decodePrediction)
			if err != nil {
				return fmt.Errorf("dataset: predictions: %w", err)
			}
			t.Predictions, t.Stats["predictions"] = rows, st
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

// LoadForEvaluation reads only the tables prediction scoring needs: orders
// for the join spine, deliveries for outcomes, and the predictions file under
// test. The other tables stay empty.
func (l *Loader) LoadForEvaluation(ctx context.Context, orders, deliveries, predictions string) (*Tables, error) {
	if l.Open == nil {
		return nil, fmt.Errorf("dataset: loader requires an Opener")
	}

	t := &Tables{Stats: LoadStats{}}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rows, st, err := loadTable(ctx, l.Open, orders, decodeOrder)
		if err != nil {
			return fmt.Errorf("dataset: purchase_orders: %w", err)
		}
		t.Orders, t.Stats["purchase_orders"] = rows, st
		return nil
	})
	g.Go(func() error {
		rows, st, err := loadTable(ctx, l.Open, deliveries, decodeDelivery)
		if err != nil {
			return fmt.Errorf("dataset: deliveries: %w", err)
		}
		t.Deliveries, t.Stats["deliveries"] = rows, st
		return nil
	})
	g.Go(func() error {
		rows, st, err := loadTable(ctx, l.Open, predictions, decodePrediction)
		if err != nil {
			return fmt.Errorf("dataset: predictions: %w", err)
		}
		t.Predictions, t.Stats["predictions"] = rows, st
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}

// row gives a decode function header-name access to one CSV record.
type row struct {
	idx map[string]int
	rec []string
}

// get returns the trimmed cell under the named header, or "" when the column
// is absent or the record is short.
func (r row) get(name string) string {
	i, ok := r.idx[name]
	if !ok || i >= len(r.rec) {
		return ""
	}
	return strings.TrimSpace(r.rec[i])
}

// decodeFn turns one record into a typed row. It returns the business key
// used for dedup, the decoded value, and ok=false for rows to drop.
type decodeFn[T any] func(r row) (key string, v T, ok bool)

const utf8BOM = "\uFEFF"

// loadTable streams one CSV table through the lenient reader settings used
// for real-world exports: variable field counts, lazy quotes, reused records.
func loadTable[T any](ctx context.Context, open Opener, location string, decode decodeFn[T]) ([]T, *TableStats, error) {
	if strings.TrimSpace(location) == "" {
		return nil, nil, fmt.Errorf("location must not be empty")
	}
	rc, err := open(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, utf8BOM))
		idx[strings.ToLower(h)] = i
	}

	var (
		out  []T
		st   = &TableStats{}
		seen = map[uint64]struct{}{}
	)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Malformed row: count and continue, same soft-fail policy as
			// missing keys.
			st.Read++
			st.Dropped++
			continue
		}
		st.Read++

		key, v, ok := decode(row{idx: idx, rec: rec})
		if !ok {
			st.Dropped++
			continue
		}
		h := xxh3.HashString(key)
		if _, dup := seen[h]; dup {
			st.Duplicates++
			continue
		}
		seen[h] = struct{}{}
		out = append(out, v)
		st.Loaded++
	}
	return out, st, nil
}

func decodeSupplier(r row) (string, Supplier, bool) {
	id := r.get("supplier_id")
	if id == "" {
		return "", Supplier{}, false
	}
	return id, Supplier{
		ID:        id,
		Name:      r.get("name"),
		Country:   r.get("country"),
		Preferred: parseBool(r.get("preferred")),
		Rating:    parseFloatPtr(r.get("rating")),
	}, true
}

func decodeProduct(r row) (string, Product, bool) {
	sku := r.get("sku")
	if sku == "" {
		return "", Product{}, false
	}
	return sku, Product{
		SKU:      sku,
		Name:     r.get("name"),
		Category: r.get("category"),
		Unit:     r.get("unit_of_measure"),
	}, true
}

func decodeOrder(r row) (string, PurchaseOrder, bool) {
	id := r.get("order_id")
	date, derr := time.Parse(DateLayout, r.get("order_date"))
	qty, qerr := strconv.ParseFloat(r.get("quantity"), 64)
	if id == "" || r.get("supplier_id") == "" || r.get("sku") == "" || derr != nil || qerr != nil {
		return "", PurchaseOrder{}, false
	}
	return id, PurchaseOrder{
		OrderID:      id,
		OrderDate:    date,
		PromisedDate: parseDatePtr(r.get("promised_date")),
		SupplierID:   r.get("supplier_id"),
		SKU:          r.get("sku"),
		Quantity:     qty,
		ShippingMode: parseStringPtr(r.get("shipping_mode")),
		Incoterm:     parseStringPtr(r.get("incoterm")),
		DistanceKM:   parseFloatPtr(r.get("distance_km")),
	}, true
}

func decodeDelivery(r row) (string, Delivery, bool) {
	id := r.get("order_id")
	if id == "" {
		return "", Delivery{}, false
	}
	return id, Delivery{
		OrderID:    id,
		ActualDate: parseDatePtr(r.get("actual_delivery_date")),
		Late:       parseBool(r.get("late_delivery")),
		DelayDays:  parseFloat(r.get("delay_days"), 0),
		Cancelled:  parseBool(r.get("cancelled")),
		Partial:    parseBool(r.get("partial_delivery")),
	}, true
}

func decodePrice(r row) (string, PriceListEntry, bool) {
	sup, sku := r.get("supplier_id"), r.get("sku")
	price, perr := strconv.ParseFloat(r.get("price"), 64)
	if sup == "" || sku == "" || perr != nil {
		return "", PriceListEntry{}, false
	}
	e := PriceListEntry{
		SupplierID: sup,
		SKU:        sku,
		ValidFrom:  parseDatePtr(r.get("valid_from")),
		ValidTo:    parseDatePtr(r.get("valid_to")),
		Price:      price,
		Currency:   strings.ToUpper(r.get("currency")),
		MinQty:     parseFloat(r.get("min_qty"), 0),
	}
	key := strings.Join([]string{sup, sku, r.get("valid_from"), r.get("valid_to"), r.get("min_qty"), r.get("currency"), r.get("price")}, "\x1f")
	return key, e, true
}

func decodePrediction(r row) (string, Prediction, bool) {
	id := r.get("order_id")
	p, err := strconv.ParseFloat(r.get("p_late"), 64)
	if id == "" || err != nil || p < 0 || p > 1 {
		return "", Prediction{}, false
	}
	return id, Prediction{OrderID: id, PLate: p}, true
}

var truthy = map[string]struct{}{
	"1": {}, "t": {}, "true": {}, "yes": {}, "y": {},
}

func parseBool(s string) bool {
	_, ok := truthy[strings.ToLower(s)]
	return ok
}

func parseFloat(s string, def float64) float64 {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return def
}

func parseFloatPtr(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseStringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func parseDatePtr(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
