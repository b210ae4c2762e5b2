// Package pipeline orchestrates one end-to-end run: ingest raw exports,
// normalize each file into its canonical shape, consolidate per entity, join
// into the analytical model, run the report queries, and hand the results to
// the output writer and the optional database sink.
//
// Every stage fully materializes its output before the next stage starts.
// The only concurrency is per-file normalization, which is embarrassingly
// parallel; results are slotted back by input position so the deterministic
// lexicographic concatenation order is preserved for the merge.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"invoiceetl/internal/config"
	"invoiceetl/internal/consolidate"
	"invoiceetl/internal/ingest"
	"invoiceetl/internal/metrics"
	"invoiceetl/internal/model"
	"invoiceetl/internal/normalize"
	"invoiceetl/internal/output"
	"invoiceetl/internal/queries"
	"invoiceetl/internal/storage"
	"invoiceetl/internal/storage/mssql"
	"invoiceetl/internal/storage/postgres"
	"invoiceetl/internal/storage/sqlite"
	"invoiceetl/pkg/tables"
)

// Result carries the durable artifacts and reports of one run.
type Result struct {
	Clients  tables.Table
	Invoices tables.Table
	Model    tables.Table

	TopOutstanding tables.Table
	Growth         tables.Table
	TopDiscounted  tables.Table
	Savings        tables.Table
	SavingsOver50  tables.Table
	SavingsOver500 tables.Table
}

// Run executes the pipeline once. Nothing is written until every stage has
// succeeded; a failure halts the run rather than persisting partial output.
func Run(ctx context.Context, cfg config.Pipeline) error {
	res, err := Build(ctx, cfg)
	if err != nil {
		return err
	}

	if err := timed(cfg.Job, "output", func() error {
		return writeAll(cfg.Output.Dir, res)
	}); err != nil {
		return err
	}

	if cfg.Storage.Kind != "none" {
		if err := timed(cfg.Job, "storage", func() error {
			return store(ctx, cfg, res)
		}); err != nil {
			return err
		}
	}
	return nil
}

// Build runs the in-memory stages and returns the computed tables without
// touching disk or databases.
func Build(ctx context.Context, cfg config.Pipeline) (Result, error) {
	var res Result

	var batch ingest.Batch
	if err := timed(cfg.Job, "ingest", func() error {
		var err error
		batch, err = ingest.Scan(ctx, cfg.Source.Dir)
		return err
	}); err != nil {
		return res, err
	}

	var cleanClients, cleanInvoices []tables.Table
	if err := timed(cfg.Job, "normalize", func() error {
		var err error
		if cleanClients, err = normalizeAll(ctx, batch.Clients, normalize.Client, cfg.Runtime.NormalizeWorkers); err != nil {
			return err
		}
		cleanInvoices, err = normalizeAll(ctx, batch.Invoices, normalize.Invoice, cfg.Runtime.NormalizeWorkers)
		return err
	}); err != nil {
		return res, err
	}

	if err := timed(cfg.Job, "consolidate", func() error {
		res.Clients = consolidate.Tables(cleanClients, normalize.Client)
		res.Invoices = consolidate.Tables(cleanInvoices, normalize.Invoice)
		return nil
	}); err != nil {
		return res, err
	}
	metrics.RecordRows(cfg.Job, "client_rows", int64(res.Clients.Len()))
	metrics.RecordRows(cfg.Job, "invoice_rows", int64(res.Invoices.Len()))

	if err := timed(cfg.Job, "join", func() error {
		var err error
		res.Model, err = model.Combine(res.Clients, res.Invoices)
		return err
	}); err != nil {
		return res, err
	}
	metrics.RecordRows(cfg.Job, "model_rows", int64(res.Model.Len()))

	if err := timed(cfg.Job, "queries", func() error {
		res.TopOutstanding = queries.AmountOutstanding(res.Model).Head(5)
		res.Growth = queries.MonthOverMonthGrowth(res.Model)
		res.TopDiscounted = queries.DiscountApplied(res.Model).Head(5)
		res.Savings, res.SavingsOver50, res.SavingsOver500 = queries.ReclassifyDiscount(res.Model)
		return nil
	}); err != nil {
		return res, err
	}

	return res, nil
}

// normalizeAll canonicalizes each raw table concurrently, preserving input
// order in the result slice.
func normalizeAll(ctx context.Context, parts []tables.Table, e normalize.Entity, workers int) ([]tables.Table, error) {
	out := make([]tables.Table, len(parts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range parts {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = normalize.Table(p, e)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// writeAll serializes the three artifacts and six reports under dir.
func writeAll(dir string, res Result) error {
	files := []struct {
		path string
		t    tables.Table
	}{
		{filepath.Join(dir, "Outputs", "Clients_Merged_Cleaned.csv"), res.Clients},
		{filepath.Join(dir, "Outputs", "Invoices_Merged_Cleaned.csv"), res.Invoices},
		{filepath.Join(dir, "Outputs", "Clients_Invoices_Model.csv"), res.Model},
		{filepath.Join(dir, "Analysis", "Top5_Invoice_Outstanding.csv"), res.TopOutstanding},
		{filepath.Join(dir, "Analysis", "Month_Per_Month_Invoice_Growth.csv"), res.Growth},
		{filepath.Join(dir, "Analysis", "Top5_Invoice_Discounts.csv"), res.TopDiscounted},
		{filepath.Join(dir, "Analysis", "Total_Cost_Savings.csv"), res.Savings},
		{filepath.Join(dir, "Analysis", "Savings_Over_50percent.csv"), res.SavingsOver50},
		{filepath.Join(dir, "Analysis", "Savings_Over_500k.csv"), res.SavingsOver500},
	}
	for _, f := range files {
		if err := output.WriteCSV(f.path, f.t); err != nil {
			return err
		}
	}
	log.Printf("pipeline: wrote %d files under %s", len(files), dir)
	return nil
}

// store persists the three pipeline artifacts to the configured backend.
func store(ctx context.Context, cfg config.Pipeline, res Result) error {
	repo, err := openRepository(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	defer repo.Close()

	artifacts := []struct {
		table string
		t     tables.Table
	}{
		{"clients_merged_cleaned", res.Clients},
		{"invoices_merged_cleaned", res.Invoices},
		{"clients_invoices_model", res.Model},
	}
	for _, a := range artifacts {
		n, err := storage.StoreTable(ctx, repo, a.table, a.t, cfg.Storage.DB.BatchSize)
		if err != nil {
			return err
		}
		metrics.RecordRows(cfg.Job, "stored_rows", n)
	}
	return nil
}

// openRepository constructs the configured storage backend.
func openRepository(ctx context.Context, s config.Storage) (storage.Repository, error) {
	switch s.Kind {
	case "sqlite":
		return sqlite.Open(ctx, s.DB.DSN)
	case "postgres":
		return postgres.Open(ctx, s.DB.DSN, s.DB.Schema)
	case "mssql":
		return mssql.Open(ctx, s.DB.DSN, s.DB.Schema)
	}
	return nil, fmt.Errorf("pipeline: unknown storage kind %q", s.Kind)
}

// timed runs fn and records the stage outcome and duration.
func timed(job, stage string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.RecordStage(job, stage, err, time.Since(start))
	if err != nil {
		return fmt.Errorf("%s: %w", stage, err)
	}
	log.Printf("pipeline: %s done in %s", stage, time.Since(start).Truncate(time.Millisecond))
	return nil
}
