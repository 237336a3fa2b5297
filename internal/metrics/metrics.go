// Package metrics decouples the pipeline from any concrete metrics system.
// Call sites record against a process-wide Backend; until one is installed a
// no-op stands in, so instrumentation never needs a nil check and a run with
// metrics disabled costs nothing. Concrete backends (Prometheus Pushgateway)
// live in subpackages.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend receives recorded metrics. Implementations must be safe for
// concurrent use.
type Backend interface {
	// IncCounter adds delta to the named counter.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records one observation of a duration-style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes buffered metrics for backends that batch (Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend swaps in a concrete backend. A nil argument is ignored so the
// no-op default stays in place.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush flushes the installed backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep measures latency + success/failure for one pipeline step
// (a table load, one analytics component, a report write).
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter("procan_step_total", 1, lbls)
	backend.ObserveHistogram("procan_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRows increments a row-level counter for the given job and kind.
//
// Typical kinds mirror the loader statistics, e.g.:
//   - "loaded"
//   - "dropped"
//   - "duplicates"
//   - "persisted"
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("procan_rows_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}
