package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"procan/internal/metrics"
)

// defaultBatchSize keeps individual statements bounded; SQLite and MySQL
// insert per-batch transactions, Postgres streams COPY.
const defaultBatchSize = 500

// PersistTables ensures and fills every table in order. ensure controls
// whether destination tables are created first. A concise progress line is
// logged per table; row counts feed the run metrics under kind "persisted".
func PersistTables(ctx context.Context, repo Repository, job string, tables []Table, ensure bool) error {
	for _, t := range tables {
		start := time.Now()
		if ensure {
			if err := repo.EnsureTable(ctx, t.Name, t.Columns); err != nil {
				return fmt.Errorf("storage: ensure %s: %w", t.Name, err)
			}
		}
		n, err := copyBatches(ctx, repo, t)
		metrics.RecordStep(job, "persist_"+t.Name, err, time.Since(start))
		if err != nil {
			return fmt.Errorf("storage: load %s: %w", t.Name, err)
		}
		metrics.RecordRows(job, "persisted", n)
		log.Printf("storage: %s: %d rows in %s", t.Name, n, time.Since(start).Truncate(time.Millisecond))
	}
	return nil
}

// copyBatches feeds a table's rows through CopyFrom in fixed-size batches and
// returns the total inserted. It stops at the first error, returning the
// running total alongside it.
func copyBatches(ctx context.Context, repo Repository, t Table) (int64, error) {
	cols := t.ColumnNames()
	var total int64
	for lo := 0; lo < len(t.Rows); lo += defaultBatchSize {
		hi := lo + defaultBatchSize
		if hi > len(t.Rows) {
			hi = len(t.Rows)
		}
		n, err := repo.CopyFrom(ctx, t.Name, cols, t.Rows[lo:hi])
		total += n
		if err != nil {
			return total, err
		}
		if err := ctx.Err(); err != nil {
			return total, err
		}
	}
	return total, nil
}
