// This file adds a lightweight linter/validator for Run values. It performs
// static checks over a decoded Run and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.
package config

import (
	"fmt"
	"strings"
	"time"

	"procan/internal/dataset"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a configuration warning that should be surfaced
	// to users but may not necessarily block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Run.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "dataset.suppliers"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// ValidateRun performs static validation of a Run. It does not mutate the
// run; callers decide whether warnings are fatal.
func ValidateRun(r Run) []Issue {
	var issues []Issue

	if strings.TrimSpace(r.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}

	issues = append(issues, validateDataset(r.Dataset)...)
	issues = append(issues, validateWindow(r.Window)...)
	issues = append(issues, validateCurrency(r.Currency)...)
	issues = append(issues, validateOutput(r.Output)...)
	issues = append(issues, validateStorage(r.Storage)...)

	return issues
}

func validateDataset(s dataset.Source) []Issue {
	var issues []Issue
	required := []struct{ path, value string }{
		{"dataset.suppliers", s.Suppliers},
		{"dataset.products", s.Products},
		{"dataset.purchase_orders", s.Orders},
		{"dataset.deliveries", s.Deliveries},
		{"dataset.price_lists", s.Prices},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     f.path,
				Message:  "table location must not be empty",
			})
		}
	}
	// Predictions are optional; only their absence downgrades the risk
	// component, which is worth a note, not a warning.
	return issues
}

func validateWindow(w Window) []Issue {
	var issues []Issue
	var from, to time.Time
	var fromOK, toOK bool

	if w.From != "" {
		t, err := time.Parse(dataset.DateLayout, w.From)
		if err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "window.from",
				Message:  fmt.Sprintf("invalid date %q; expected YYYY-MM-DD", w.From),
			})
		} else {
			from, fromOK = t, true
		}
	}
	if w.To != "" {
		t, err := time.Parse(dataset.DateLayout, w.To)
		if err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "window.to",
				Message:  fmt.Sprintf("invalid date %q; expected YYYY-MM-DD", w.To),
			})
		} else {
			to, toOK = t, true
		}
	}
	if fromOK && toOK && from.After(to) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "window",
			Message:  "window.from must not be after window.to",
		})
	}
	return issues
}

func validateCurrency(rates map[string]float64) []Issue {
	var issues []Issue
	if len(rates) == 0 {
		return issues // defaults apply
	}
	eur, ok := rates["EUR"]
	if !ok {
		// Case-insensitive lookup; Params upper-cases keys.
		for code, v := range rates {
			if strings.EqualFold(code, "EUR") {
				eur, ok = v, true
				break
			}
		}
	}
	if !ok || eur != 1.0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "currency.EUR",
			Message:  "currency table must map EUR to 1.0",
		})
	}
	for code, v := range rates {
		if v <= 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "currency." + code,
				Message:  "rates must be positive",
			})
		}
	}
	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue
	known := map[string]struct{}{"text": {}, "csv": {}}
	for i, f := range o.Formats {
		if _, ok := known[strings.ToLower(f)]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     fmt.Sprintf("output.formats[%d]", i),
				Message:  fmt.Sprintf("unknown format %q; supported: text, csv", f),
			})
		}
	}
	if containsFormat(o.Formats, "csv") && strings.TrimSpace(o.Dir) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.dir",
			Message:  "csv output requires a directory",
		})
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue
	if strings.TrimSpace(s.Kind) == "" {
		return issues // persistence disabled
	}
	known := map[string]struct{}{"sqlite": {}, "postgres": {}, "mysql": {}}
	if _, ok := known[s.Kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", s.Kind),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage requires a non-empty DSN",
		})
	}
	return issues
}

func containsFormat(formats []string, want string) bool {
	for _, f := range formats {
		if strings.EqualFold(f, want) {
			return true
		}
	}
	return false
}
