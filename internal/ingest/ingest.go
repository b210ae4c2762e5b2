// Package ingest discovers client and invoice CSV exports in a directory and
// reads them into raw tables. Files are partitioned by filename convention
// (clients_* vs invoices_*) and processed in lexicographic order, which fixes
// the deterministic concatenation order the consolidation stage depends on.
//
// Ingestion is deliberately forgiving: unreadable files are logged and
// skipped, malformed rows are skipped individually, and byte-identical
// duplicate files (re-exports of the same data) are detected by content hash
// and read only once. The collected tables are returned as explicit values;
// nothing accumulates in package state.
package ingest

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/zeebo/xxh3"

	"invoiceetl/pkg/tables"
)

const (
	clientPrefix  = "clients_"
	invoicePrefix = "invoices_"
	csvSuffix     = ".csv"
)

// Batch is the result of scanning one directory: raw tables per entity, in
// lexicographic filename order.
type Batch struct {
	Clients  []tables.Table
	Invoices []tables.Table
}

// Scan reads every clients_*.csv and invoices_*.csv under dir. Files that
// cannot be read are reported and skipped; a directory with no matching files
// yields an empty batch, not an error.
func Scan(ctx context.Context, dir string) (Batch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Batch{}, fmt.Errorf("ingest: read dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var b Batch
	seen := make(map[uint64]string)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}

		isClient := strings.HasPrefix(name, clientPrefix) && strings.HasSuffix(name, csvSuffix)
		isInvoice := strings.HasPrefix(name, invoicePrefix) && strings.HasSuffix(name, csvSuffix)
		if !isClient && !isInvoice {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", name, err)
			continue
		}

		sum := xxh3.Hash(data)
		if prev, dup := seen[sum]; dup {
			log.Printf("ingest: skipping %s: identical content to %s", name, prev)
			continue
		}
		seen[sum] = name

		t, skipped, err := Parse(strings.NewReader(string(data)), name)
		if err != nil {
			log.Printf("ingest: skipping %s: %v", name, err)
			continue
		}
		if skipped > 0 {
			log.Printf("ingest: %s: rows=%d skipped=%d", name, t.Len(), skipped)
		}

		if isClient {
			b.Clients = append(b.Clients, t)
		} else {
			b.Invoices = append(b.Invoices, t)
		}
	}

	log.Printf("ingest: dir=%s client_files=%d invoice_files=%d", dir, len(b.Clients), len(b.Invoices))
	return b, nil
}
