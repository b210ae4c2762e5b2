package storage

import (
	"context"
	"fmt"
	"log"
	"time"

	"invoiceetl/pkg/tables"
)

// StoreTable replaces the destination table and loads the whole artifact in
// batches of batchSize rows. It returns the total row count reported by the
// backend. A concise progress line is logged per flushed batch.
func StoreTable(ctx context.Context, repo Repository, table string, t tables.Table, batchSize int) (int64, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("storage: batchSize must be > 0")
	}

	cols := InferColumns(t)
	if err := repo.Replace(ctx, table, cols); err != nil {
		return 0, fmt.Errorf("storage: replace %s: %w", table, err)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}

	var (
		total   int64
		batches int64
		batch   = make([][]any, 0, batchSize)
		start   = time.Now()
	)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := repo.InsertBatch(ctx, table, names, batch)
		total += n
		batch = batch[:0]
		if err != nil {
			return fmt.Errorf("storage: insert into %s: %w", table, err)
		}
		batches++
		log.Printf("storage: %s batch #%d inserted=%d total=%d elapsed=%s",
			table, batches, n, total, time.Since(start).Truncate(time.Millisecond))
		return nil
	}

	for _, r := range t.Rows {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		row := make([]any, len(names))
		for i, c := range names {
			row[i] = r[c]
		}
		batch = append(batch, row)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}
