// Package mysql implements a MySQL storage.Repository using database/sql and
// the go-sql-driver. Bulk loading uses multi-row INSERT statements inside a
// transaction, the closest MySQL equivalent to a bulk-load API without
// resorting to LOAD DATA INFILE.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"procan/internal/storage"
)

// Config holds MySQL repository configuration.
type Config struct {
	// DSN in go-sql-driver form, e.g. "user:pass@tcp(host:3306)/reports".
	DSN string

	// MaxOpenConns bounds the pool; zero keeps the driver default.
	MaxOpenConns int
}

// Repository is a MySQL-backed implementation of storage.Repository.
type Repository struct {
	db  *sql.DB
	cfg Config
}

// NewRepository opens a MySQL pool and returns a Repository plus a Close
// function for cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	db, err := sql.Open("mysql", cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("mysql: open: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("mysql: ping: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Repository{db: db, cfg: cfg}, closeFn, nil
}

// EnsureTable creates the destination table if it does not exist.
func (r *Repository) EnsureTable(ctx context.Context, table string, cols []storage.Column) error {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = fmt.Sprintf("%s %s", myIdent(c.Name), sqlType(c.Kind))
		if c.NotNull {
			defs[i] += " NOT NULL"
		}
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", myIdent(table), strings.Join(defs, ", "))
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("mysql: create table %s: %w", table, err)
	}
	return nil
}

// CopyFrom inserts rows with one multi-row INSERT per call inside a
// transaction.
func (r *Repository) CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(columns) == 0 {
		return 0, fmt.Errorf("mysql: CopyFrom: columns must not be empty")
	}
	if len(rows) == 0 {
		return 0, nil
	}

	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = myIdent(c)
	}
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var (
		tuples = make([]string, 0, len(rows))
		args   = make([]any, 0, len(rows)*len(columns))
	)
	for _, row := range rows {
		if len(row) != len(columns) {
			return 0, fmt.Errorf("mysql: CopyFrom: row length %d != columns length %d", len(row), len(columns))
		}
		tuples = append(tuples, tuple)
		args = append(args, row...)
	}
	stmtSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s",
		myIdent(table),
		strings.Join(quoted, ", "),
		strings.Join(tuples, ", "),
	)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mysql: begin tx: %w", err)
	}
	res, err := tx.ExecContext(ctx, stmtSQL, args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("mysql: insert: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mysql: commit: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return int64(len(rows)), nil // driver reported success; trust the batch size
	}
	return n, nil
}

func sqlType(k storage.ColumnKind) string {
	switch k {
	case storage.KindInteger:
		return "BIGINT"
	case storage.KindReal:
		return "DOUBLE"
	case storage.KindBool:
		return "TINYINT"
	case storage.KindDate:
		return "VARCHAR(10)"
	default:
		return "TEXT"
	}
}

func myIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
