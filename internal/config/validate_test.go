package config

import (
	"strings"
	"testing"
)

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

func validRun() Run {
	r := Run{Job: "q2"}
	r.Dataset.Suppliers = "s.csv"
	r.Dataset.Products = "p.csv"
	r.Dataset.Orders = "o.csv"
	r.Dataset.Deliveries = "d.csv"
	r.Dataset.Prices = "pl.csv"
	return r
}

// TestValidateRun_ValidMinimal verifies a well-formed run produces no issues.
func TestValidateRun_ValidMinimal(t *testing.T) {
	t.Parallel()

	if issues := ValidateRun(validRun()); len(issues) != 0 {
		t.Fatalf("expected no issues, got %+v", issues)
	}
}

// TestValidateRun_MissingJob verifies a missing Job field produces a
// SeverityError with path "job".
func TestValidateRun_MissingJob(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Job = ""
	issues := ValidateRun(r)
	if !hasIssue(t, issues, SeverityError, "job", "job must not be empty") {
		t.Fatalf("expected SeverityError for job; got issues: %+v", issues)
	}
}

// TestValidateRun_MissingTables verifies every required table location is
// checked under its dotted path.
func TestValidateRun_MissingTables(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Dataset.Deliveries = ""
	r.Dataset.Prices = " "
	issues := ValidateRun(r)
	if !hasIssue(t, issues, SeverityError, "dataset.deliveries", "must not be empty") {
		t.Fatalf("missing deliveries issue: %+v", issues)
	}
	if !hasIssue(t, issues, SeverityError, "dataset.price_lists", "must not be empty") {
		t.Fatalf("missing price_lists issue: %+v", issues)
	}
}

// TestValidateRun_Window covers bad dates and inverted intervals.
func TestValidateRun_Window(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Window = Window{From: "April 1st", To: "2025-06-30"}
	if issues := ValidateRun(r); !hasIssue(t, issues, SeverityError, "window.from", "invalid date") {
		t.Fatalf("expected window.from issue: %+v", issues)
	}

	r = validRun()
	r.Window = Window{From: "2025-07-01", To: "2025-06-30"}
	if issues := ValidateRun(r); !hasIssue(t, issues, SeverityError, "window", "must not be after") {
		t.Fatalf("expected inverted-window issue: %+v", issues)
	}
}

// TestValidateRun_Currency verifies the EUR identity and positivity checks.
func TestValidateRun_Currency(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Currency = map[string]float64{"USD": 0.92}
	if issues := ValidateRun(r); !hasIssue(t, issues, SeverityError, "currency.EUR", "EUR to 1.0") {
		t.Fatalf("expected missing-EUR issue: %+v", issues)
	}

	r = validRun()
	r.Currency = map[string]float64{"EUR": 1.0, "JPY": -5}
	if issues := ValidateRun(r); !hasIssue(t, issues, SeverityError, "currency.JPY", "positive") {
		t.Fatalf("expected negative-rate issue: %+v", issues)
	}

	// Lower-case eur counts: Params upper-cases the table.
	r = validRun()
	r.Currency = map[string]float64{"eur": 1.0}
	if issues := ValidateRun(r); len(issues) != 0 {
		t.Fatalf("lower-case eur should validate: %+v", issues)
	}
}

// TestValidateRun_Output verifies csv output demands a directory and unknown
// formats warn.
func TestValidateRun_Output(t *testing.T) {
	t.Parallel()

	r := validRun()
	r.Output = Output{Formats: []string{"csv"}}
	if issues := ValidateRun(r); !hasIssue(t, issues, SeverityError, "output.dir", "requires a directory") {
		t.Fatalf("expected output.dir issue: %+v", issues)
	}

	r = validRun()
	r.Output = Output{Dir: "out", Formats: []string{"xml"}}
	if issues := ValidateRun(r); !hasIssue(t, issues, SeverityWarning, "output.formats[0]", "unknown format") {
		t.Fatalf("expected unknown-format warning: %+v", issues)
	}
}

// TestValidateRun_Storage verifies kind/DSN checks while leaving persistence
// optional.
func TestValidateRun_Storage(t *testing.T) {
	t.Parallel()

	r := validRun() // storage disabled
	if issues := ValidateRun(r); len(issues) != 0 {
		t.Fatalf("disabled storage should not raise issues: %+v", issues)
	}

	r = validRun()
	r.Storage = Storage{Kind: "oracle", DSN: "x"}
	if issues := ValidateRun(r); !hasIssue(t, issues, SeverityWarning, "storage.kind", "unknown storage kind") {
		t.Fatalf("expected unknown-kind warning: %+v", issues)
	}

	r = validRun()
	r.Storage = Storage{Kind: "sqlite"}
	if issues := ValidateRun(r); !hasIssue(t, issues, SeverityError, "storage.dsn", "non-empty DSN") {
		t.Fatalf("expected missing-DSN issue: %+v", issues)
	}
}
