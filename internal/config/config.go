// Package config defines the serializable run configuration for the
// procurement analytics binaries. A run file describes where the input tables
// live, the reporting window, the currency table, per-component thresholds,
// and the optional storage sink.
//
// Files decode from JSON or YAML, dispatched on the file extension. Field
// names in Go mirror the JSON structure used in run files under
// configs/*.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"procan/internal/analytics"
	"procan/internal/dataset"
)

// Run is the top-level object decoded from a run file.
type Run struct {
	// Job names the run for metrics labeling and report headers.
	Job string `json:"job" yaml:"job"`

	// Dataset locates the input tables (paths or http(s) URLs).
	Dataset dataset.Source `json:"dataset" yaml:"dataset"`

	// Window is the closed reporting date interval.
	Window Window `json:"window" yaml:"window"`

	// Currency maps currency code to its multiplier into EUR. EUR must map
	// to 1.0. Codes absent from the table pass through unconverted and are
	// flagged in the report.
	Currency map[string]float64 `json:"currency" yaml:"currency"`

	// Report carries per-component thresholds.
	Report Report `json:"report" yaml:"report"`

	// Output controls where and how rendered reports are written.
	Output Output `json:"output" yaml:"output"`

	// Storage optionally persists the input snapshot and all result tables
	// to a SQL sink. Empty kind disables persistence.
	Storage Storage `json:"storage" yaml:"storage"`

	// HTTP tunes remote table fetching.
	HTTP HTTP `json:"http" yaml:"http"`
}

// Window is a closed [From, To] date interval in 2006-01-02 form.
type Window struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Report holds the per-component thresholds, all optional.
type Report struct {
	TopSuppliers int `json:"top_suppliers" yaml:"top_suppliers"`
	MinHistory   int `json:"min_history" yaml:"min_history"`
	MinSeries    int `json:"min_series" yaml:"min_series"`
	TopAnomalies int `json:"top_anomalies" yaml:"top_anomalies"`
	MinBucket    int `json:"min_bucket" yaml:"min_bucket"`
}

// Output selects report renderings. Formats may contain "text" and "csv";
// text goes to stdout when Dir is empty.
type Output struct {
	Dir     string   `json:"dir" yaml:"dir"`
	Formats []string `json:"formats" yaml:"formats"`
}

// Storage selects the sink used to persist the snapshot and results.
type Storage struct {
	// Kind selects the backend: "sqlite", "postgres", or "mysql". Empty
	// disables persistence.
	Kind string `json:"kind" yaml:"kind"`

	// DSN is the backend connection string.
	DSN string `json:"dsn" yaml:"dsn"`

	// AutoCreateTables creates destination tables before loading.
	AutoCreateTables bool `json:"auto_create_tables" yaml:"auto_create_tables"`

	// Options is a free-form bag interpreted by the backend (e.g. sqlite
	// busy_timeout_ms, journal_mode).
	Options Options `json:"options" yaml:"options"`
}

// HTTP tunes the remote fetcher.
type HTTP struct {
	TimeoutSeconds int     `json:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int     `json:"max_retries" yaml:"max_retries"`
	RatePerSecond  float64 `json:"rate_per_second" yaml:"rate_per_second"`
}

// Load reads and decodes a run file. Extension selects the decoder:
// .yaml/.yml use YAML, everything else JSON.
func Load(path string) (Run, error) {
	var r Run
	b, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("config: read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &r); err != nil {
			return r, fmt.Errorf("config: decode yaml %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &r); err != nil {
			return r, fmt.Errorf("config: decode json %s: %w", path, err)
		}
	}
	return r, nil
}

// Params resolves the run configuration into analytics parameters, applying
// reference defaults for anything unset.
func (r Run) Params() (analytics.Params, error) {
	p := analytics.DefaultParams()

	if r.Window.From != "" {
		from, err := time.Parse(dataset.DateLayout, r.Window.From)
		if err != nil {
			return p, fmt.Errorf("config: window.from: %w", err)
		}
		p.WindowFrom = from
	}
	if r.Window.To != "" {
		to, err := time.Parse(dataset.DateLayout, r.Window.To)
		if err != nil {
			return p, fmt.Errorf("config: window.to: %w", err)
		}
		p.WindowTo = to
	}
	if len(r.Currency) > 0 {
		p.Rates = make(map[string]float64, len(r.Currency))
		for code, rate := range r.Currency {
			p.Rates[strings.ToUpper(code)] = rate
		}
	}
	if r.Report.TopSuppliers > 0 {
		p.TopSuppliers = r.Report.TopSuppliers
	}
	if r.Report.MinHistory > 0 {
		p.MinHistory = r.Report.MinHistory
	}
	if r.Report.MinSeries > 0 {
		p.MinSeries = r.Report.MinSeries
	}
	if r.Report.TopAnomalies > 0 {
		p.TopAnomalies = r.Report.TopAnomalies
	}
	if r.Report.MinBucket > 0 {
		p.MinBucket = r.Report.MinBucket
	}
	return p, p.Validate()
}

// FetchConfig resolves the HTTP section into fetcher settings.
func (r Run) FetchConfig() dataset.FetchConfig {
	return dataset.FetchConfig{
		Timeout:       time.Duration(r.HTTP.TimeoutSeconds) * time.Second,
		MaxRetries:    r.HTTP.MaxRetries,
		RatePerSecond: r.HTTP.RatePerSecond,
	}
}

// Options is a small helper to fetch typed values from arbitrary JSON/YAML
// maps without introducing a third-party configuration library for free-form
// backend settings. It performs only minimal type coercion and returns the
// provided default when a key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64,
// so this method accepts float64 and casts to int.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// UnmarshalJSON makes a missing or null "options" object decode to a non-nil,
// empty Options map, removing nil-checks at call sites.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
