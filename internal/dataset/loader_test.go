package dataset

import (
	"context"
	"io"
	"strings"
	"testing"
)

// memOpener serves fixture CSVs from a map keyed by location.
func memOpener(files map[string]string) Opener {
	return func(_ context.Context, location string) (io.ReadCloser, error) {
		return io.NopCloser(strings.NewReader(files[location])), nil
	}
}

func fullSource() Source {
	return Source{
		Suppliers:  "suppliers",
		Products:   "products",
		Orders:     "orders",
		Deliveries: "deliveries",
		Prices:     "prices",
	}
}

func minimalFiles() map[string]string {
	return map[string]string{
		"suppliers":  "supplier_id,name,country,preferred,rating\ns1,Alpha,DE,true,4.5\n",
		"products":   "sku,name,category,unit_of_measure\np1,Widget,parts,pcs\n",
		"orders":     "order_id,order_date,promised_date,supplier_id,sku,quantity,shipping_mode,incoterm,distance_km\no1,2025-04-01,2025-04-10,s1,p1,10,SEA,FOB,120\n",
		"deliveries": "order_id,actual_delivery_date,late_delivery,delay_days,cancelled,partial_delivery\no1,2025-04-12,1,2,0,0\n",
		"prices":     "supplier_id,sku,valid_from,valid_to,price,currency,min_qty\ns1,p1,2025-01-01,2025-12-31,10,EUR,1\n",
	}
}

// TestLoaderDecodesAllTables verifies the happy path end to end, including
// optional-column decoding.
func TestLoaderDecodesAllTables(t *testing.T) {
	t.Parallel()

	l := &Loader{Open: memOpener(minimalFiles())}
	tables, err := l.Load(context.Background(), fullSource())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(tables.Suppliers) != 1 || !tables.Suppliers[0].Preferred || *tables.Suppliers[0].Rating != 4.5 {
		t.Fatalf("suppliers = %+v", tables.Suppliers)
	}
	o := tables.Orders[0]
	if o.PromisedDate == nil || *o.ShippingMode != "SEA" || *o.DistanceKM != 120 {
		t.Fatalf("order = %+v", o)
	}
	d := tables.Deliveries[0]
	if !d.Late || d.DelayDays != 2 || d.Cancelled {
		t.Fatalf("delivery = %+v", d)
	}
	if tables.Predictions != nil {
		t.Fatalf("predictions loaded without a location")
	}
}

// TestLoaderDedupAndDropCounts verifies first-wins dedup by business key and
// the soft-fail drop policy, both reflected in TableStats.
func TestLoaderDedupAndDropCounts(t *testing.T) {
	t.Parallel()

	files := minimalFiles()
	files["orders"] = strings.Join([]string{
		"order_id,order_date,supplier_id,sku,quantity",
		"o1,2025-04-01,s1,p1,10",
		"o1,2025-05-09,s1,p1,99", // duplicate id, first wins
		"o2,not-a-date,s1,p1,10", // bad date, dropped
		",2025-04-01,s1,p1,10",   // missing id, dropped
		"o3,2025-04-02,s1,p1,abc", // bad quantity, dropped
		"o4,2025-04-03,s1,p1,7",
		"",
	}, "\n")

	l := &Loader{Open: memOpener(files)}
	tables, err := l.Load(context.Background(), fullSource())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	st := tables.Stats["purchase_orders"]
	if st.Read != 6 || st.Loaded != 2 || st.Dropped != 3 || st.Duplicates != 1 {
		t.Fatalf("stats = %+v, want read=6 loaded=2 dropped=3 duplicates=1", st)
	}
	if got := tables.Orders[0].Quantity; got != 10 {
		t.Fatalf("first-wins violated: o1 quantity = %v, want 10", got)
	}
}

// TestLoaderStripsBOMAndNormalizesHeaders verifies a BOM-prefixed, mixed-case
// header still binds columns.
func TestLoaderStripsBOMAndNormalizesHeaders(t *testing.T) {
	t.Parallel()

	files := minimalFiles()
	files["suppliers"] = "\uFEFFSupplier_ID,Name,Country,Preferred,Rating\ns1,Alpha,DE,yes,\n"

	l := &Loader{Open: memOpener(files)}
	tables, err := l.Load(context.Background(), fullSource())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	s := tables.Suppliers[0]
	if s.ID != "s1" || !s.Preferred || s.Rating != nil {
		t.Fatalf("supplier = %+v, want id bound through BOM header and nil rating", s)
	}
}

// TestLoaderPredictionBounds verifies probabilities outside [0,1] are dropped
// rather than clamped.
func TestLoaderPredictionBounds(t *testing.T) {
	t.Parallel()

	files := minimalFiles()
	files["predictions"] = "order_id,p_late\no1,0.5\no2,1.5\no3,-0.1\no4,1\no5,0\n"

	src := fullSource()
	src.Predictions = "predictions"

	l := &Loader{Open: memOpener(files)}
	tables, err := l.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tables.Predictions) != 3 {
		t.Fatalf("loaded %d predictions, want 3 (out-of-range dropped)", len(tables.Predictions))
	}
	if st := tables.Stats["predictions"]; st.Dropped != 2 {
		t.Fatalf("dropped = %d, want 2", st.Dropped)
	}
}

// TestLoaderPriceDedupKeySpansAllFields verifies two price rows differing only
// in price are both kept: the dedup key is the full business tuple, not the
// (supplier, sku, dates) prefix.
func TestLoaderPriceDedupKeySpansAllFields(t *testing.T) {
	t.Parallel()

	files := minimalFiles()
	files["prices"] = strings.Join([]string{
		"supplier_id,sku,valid_from,valid_to,price,currency,min_qty",
		"s1,p1,2025-01-01,2025-12-31,10,EUR,1",
		"s1,p1,2025-01-01,2025-12-31,12,EUR,1", // same interval, new price: kept
		"s1,p1,2025-01-01,2025-12-31,10,EUR,1", // exact repeat: dropped
		"",
	}, "\n")

	l := &Loader{Open: memOpener(files)}
	tables, err := l.Load(context.Background(), fullSource())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tables.Prices) != 2 {
		t.Fatalf("loaded %d price rows, want 2", len(tables.Prices))
	}
	if st := tables.Stats["price_lists"]; st.Duplicates != 1 {
		t.Fatalf("duplicates = %d, want 1", st.Duplicates)
	}
}
