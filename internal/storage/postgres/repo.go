// Package postgres implements a Postgres storage.Repository using pgx v5.
// Bulk loading goes through the native COPY protocol via pgx CopyFrom.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"procan/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	// DSN is the connection string for pgxpool (e.g. postgresql://...).
	DSN string

	// Schema qualifies destination tables; empty means the default
	// search_path.
	Schema string
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
	cfg  Config
}

// NewRepository constructs a Repository and returns a Close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: pgxpool: %w", err)
	}
	closeFn := func() { pool.Close() }
	return &Repository{pool: pool, cfg: cfg}, closeFn, nil
}

// EnsureTable creates the destination table if it does not exist.
func (r *Repository) EnsureTable(ctx context.Context, table string, cols []storage.Column) error {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", pgIdent(c.Name), sqlType(c.Kind))
		if c.NotNull {
			defs[i] += " NOT NULL"
		}
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", r.fqn(table), strings.Join(defs, ", "))
	if _, err := r.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("postgres: create table %s: %w", table, err)
	}
	return nil
}

// CopyFrom streams rows through the COPY protocol.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("postgres: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ident := pgx.Identifier{table}
	if r.cfg.Schema != "" {
		ident = pgx.Identifier{r.cfg.Schema, table}
	}
	n, err := r.pool.CopyFrom(ctx, ident, columns, pgx.CopyFromRows(rows))
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", table, err)
	}
	return n, nil
}

func (r *Repository) fqn(table string) string {
	if r.cfg.Schema != "" {
		return pgIdent(r.cfg.Schema) + "." + pgIdent(table)
	}
	return pgIdent(table)
}

func sqlType(k storage.ColumnKind) string {
	switch k {
	case storage.KindInteger:
		return "BIGINT"
	case storage.KindReal:
		return "DOUBLE PRECISION"
	case storage.KindBool:
		return "SMALLINT" // rows carry 0/1 so every backend agrees
	default:
		return "TEXT" // dates travel as 2006-01-02 text, which sorts correctly
	}
}

func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
