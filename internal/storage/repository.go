// Package storage contains the storage-agnostic contracts for persisting the
// input snapshot and the analytics result tables to a SQL sink.
//
// Concrete backends (sqlite, postgres, mysql) live in subpackages and
// register themselves with the factory at init time; importing storage/all
// (typically as a blank import in the wiring layer) makes every built-in
// backend available. The rest of the application depends only on this
// package.
package storage

import (
	"context"
	"fmt"
	"sync"

	"procan/internal/config"
)

// ColumnKind is a backend-independent column type. Backends map kinds onto
// their own SQL types.
type ColumnKind string

const (
	KindText    ColumnKind = "text"
	KindInteger ColumnKind = "integer"
	KindReal    ColumnKind = "real"
	KindDate    ColumnKind = "date"
	KindBool    ColumnKind = "bool"
)

// Column describes one destination column.
type Column struct {
	Name    string
	Kind    ColumnKind
	NotNull bool
}

// Table pairs a destination table with its column spec and row data, aligned
// positionally.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// ColumnNames returns the ordered column names for inserts.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Config selects and configures a backend.
type Config struct {
	// Kind selects the backend implementation: "sqlite", "postgres", "mysql".
	Kind string

	// DSN is the backend connection string.
	DSN string

	// Options is a free-form bag interpreted by the backend.
	Options config.Options
}

// Repository is the minimal sink contract. Implementations must be safe for
// sequential use; the pipeline writes tables one at a time.
type Repository interface {
	// EnsureTable creates the destination table if it does not exist.
	EnsureTable(ctx context.Context, table string, cols []Column) error

	// CopyFrom bulk-inserts rows (aligned to columns order) and returns the
	// number of rows reported as inserted.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Close releases the underlying connections.
	Close()
}

// Factory constructs a Repository from a Config.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) a backend factory for the given kind. It
// is typically called from backend packages' init() functions.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	factories[kind] = f
}

// New opens a Repository for cfg.Kind. Unknown kinds list the registered
// backends in the error to make a missing blank import obvious.
func New(ctx context.Context, cfg Config) (Repository, error) {
	regMu.RLock()
	f, ok := factories[cfg.Kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %v)", cfg.Kind, Kinds())
	}
	return f(ctx, cfg)
}

// Kinds returns the registered backend kinds, for diagnostics.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	kinds := make([]string, 0, len(factories))
	for k := range factories {
		kinds = append(kinds, k)
	}
	return kinds
}
