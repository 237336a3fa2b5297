package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"procan/internal/analytics"
	"procan/internal/config"
	"procan/internal/dataset"
	"procan/internal/metrics"
	"procan/internal/report"
	"procan/internal/storage"
)

// execute runs the full report: load tables, build the snapshot, run every
// component, render the requested outputs and optionally persist everything
// to the configured SQL sink.
func execute(ctx context.Context, run config.Run, runID string, verbose bool) error {
	params, err := run.Params()
	if err != nil {
		return err
	}

	loader := &dataset.Loader{Open: dataset.NewOpener(run.FetchConfig())}

	loadStart := time.Now()
	tables, err := loader.Load(ctx, run.Dataset)
	if err != nil {
		metrics.RecordStep(run.Job, "load", err, time.Since(loadStart))
		return err
	}
	metrics.RecordStep(run.Job, "load", nil, time.Since(loadStart))
	for name, st := range tables.Stats {
		metrics.RecordRows(run.Job, "loaded", int64(st.Loaded))
		metrics.RecordRows(run.Job, "dropped", int64(st.Dropped))
		metrics.RecordRows(run.Job, "duplicates", int64(st.Duplicates))
		if verbose {
			log.Printf("load: %s: read=%d loaded=%d dropped=%d duplicates=%d",
				name, st.Read, st.Loaded, st.Dropped, st.Duplicates)
		}
	}

	snapshot := dataset.Build(tables)

	res, err := analytics.RunAll(ctx, snapshot, params, run.Job)
	if err != nil {
		return err
	}

	meta := report.Meta{
		Job:         run.Job,
		RunID:       runID,
		WindowFrom:  params.WindowFrom.Format(dataset.DateLayout),
		WindowTo:    params.WindowTo.Format(dataset.DateLayout),
		GeneratedAt: time.Now(),
	}

	if err := render(run.Output, meta, res, tables); err != nil {
		return err
	}

	if run.Storage.Kind != "" {
		if err := persist(ctx, run, meta, res, tables); err != nil {
			return err
		}
	}
	return nil
}

// render writes the configured report formats. Text goes to stdout unless an
// output directory is set; CSV always needs the directory.
func render(out config.Output, meta report.Meta, res *analytics.Results, tables *dataset.Tables) error {
	formats := out.Formats
	if len(formats) == 0 {
		formats = []string{"text"}
	}
	for _, f := range formats {
		switch f {
		case "text":
			w := os.Stdout
			if out.Dir != "" {
				if err := os.MkdirAll(out.Dir, 0o755); err != nil {
					return fmt.Errorf("report: create %s: %w", out.Dir, err)
				}
				path := filepath.Join(out.Dir, "report.txt")
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("report: create %s: %w", path, err)
				}
				defer file.Close()
				w = file
			}
			if err := report.WriteText(w, meta, res, tables.Stats); err != nil {
				return err
			}
		case "csv":
			if err := report.WriteCSV(out.Dir, report.ResultTables(res)); err != nil {
				return err
			}
		default:
			log.Printf("report: skipping unknown format %q", f)
		}
	}
	return nil
}

// persist writes the run metadata, the input snapshot and every result table
// through the configured storage backend.
func persist(ctx context.Context, run config.Run, meta report.Meta, res *analytics.Results, tables *dataset.Tables) error {
	repo, err := storage.New(ctx, storage.Config{
		Kind:    run.Storage.Kind,
		DSN:     run.Storage.DSN,
		Options: run.Storage.Options,
	})
	if err != nil {
		return err
	}
	defer repo.Close()

	all := []storage.Table{report.MetaTable(meta)}
	all = append(all, report.SnapshotTables(tables)...)
	all = append(all, report.ResultTables(res)...)
	return storage.PersistTables(ctx, repo, run.Job, all, run.Storage.AutoCreateTables)
}
