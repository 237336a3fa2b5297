// Command datacheck probes the input tables before a run: it prints each
// table's headers, row counts, per-column type guesses and empty-cell counts
// so malformed exports surface before they silently shrink the report.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"procan/internal/config"
	"procan/internal/dataset"
)

func main() {
	var (
		cfgPath    string
		sampleRows int
	)
	flag.StringVar(&cfgPath, "config", "", "run config; probes every table it names")
	flag.IntVar(&sampleRows, "sample", 1000, "rows to sample per table for type guessing (0 = all)")
	flag.Parse()

	locations := map[string]string{}
	if cfgPath != "" {
		run, err := config.Load(cfgPath)
		if err != nil {
			fatalf("load config: %v", err)
		}
		locations["suppliers"] = run.Dataset.Suppliers
		locations["products"] = run.Dataset.Products
		locations["purchase_orders"] = run.Dataset.Orders
		locations["deliveries"] = run.Dataset.Deliveries
		locations["price_lists"] = run.Dataset.Prices
		if run.Dataset.Predictions != "" {
			locations["predictions"] = run.Dataset.Predictions
		}
	}
	for _, arg := range flag.Args() {
		locations[arg] = arg
	}
	if len(locations) == 0 {
		fatalf("nothing to probe: pass -config or file paths")
	}

	open := dataset.NewOpener(dataset.FetchConfig{})
	ctx := context.Background()

	names := make([]string, 0, len(locations))
	for name := range locations {
		names = append(names, name)
	}
	sort.Strings(names)

	ok := true
	for _, name := range names {
		if err := probe(ctx, open, name, locations[name], sampleRows); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
			ok = false
		}
	}
	if !ok {
		os.Exit(1)
	}
}

// colStats tracks how one column's sampled values decode.
type colStats struct {
	name   string
	empty  int
	ints   int
	floats int
	dates  int
	bools  int
	texts  int
}

func probe(ctx context.Context, open dataset.Opener, name, location string, sampleRows int) error {
	rc, err := open(ctx, location)
	if err != nil {
		return err
	}
	defer rc.Close()

	cr := csv.NewReader(rc)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	stats := make([]colStats, len(header))
	for i, h := range header {
		stats[i].name = strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))
	}

	rows, ragged := 0, 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			ragged++
			continue
		}
		rows++
		if len(rec) != len(header) {
			ragged++
		}
		if sampleRows == 0 || rows <= sampleRows {
			for i := range stats {
				if i >= len(rec) {
					stats[i].empty++
					continue
				}
				classify(&stats[i], strings.TrimSpace(rec[i]))
			}
		}
	}

	fmt.Printf("\n%s  (%s)\n", name, location)
	fmt.Printf("rows=%d ragged=%d columns=%d\n", rows, ragged, len(header))

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "column\tguess\tempty")
	for _, st := range stats {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", st.name, st.guess(), st.empty)
	}
	return tw.Flush()
}

func classify(st *colStats, cell string) {
	switch {
	case cell == "":
		st.empty++
	case isDate(cell):
		st.dates++
	case isInt(cell):
		st.ints++
	case isFloat(cell):
		st.floats++
	case isBool(cell):
		st.bools++
	default:
		st.texts++
	}
}

// guess picks the dominant non-empty class; mixed columns fall back to text.
func (st colStats) guess() string {
	type kv struct {
		label string
		n     int
	}
	classes := []kv{
		{"date", st.dates}, {"int", st.ints}, {"float", st.floats},
		{"bool", st.bools}, {"text", st.texts},
	}
	best, total := kv{"empty", 0}, 0
	for _, c := range classes {
		total += c.n
		if c.n > best.n {
			best = c
		}
	}
	if total == 0 {
		return "empty"
	}
	// ints inside a float column are still floats.
	if best.label == "int" && st.floats > 0 {
		return "float"
	}
	if best.n < total {
		return best.label + " (mixed)"
	}
	return best.label
}

func isDate(s string) bool {
	_, err := time.Parse(dataset.DateLayout, s)
	return err == nil
}

func isInt(s string) bool {
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isFloat(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func isBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "t", "f", "yes", "no", "y", "n":
		return true
	}
	return false
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
