// Package consolidate merges many canonical per-file tables for one entity
// into a single table with a unique identity key. Field conflicts resolve by
// first-non-null-wins in the concatenated row order, which the caller makes
// deterministic by supplying per-file tables in lexicographic filename order.
package consolidate

import (
	"invoiceetl/internal/normalize"
	"invoiceetl/pkg/tables"
)

// group accumulates the merged record for one identity key.
type group struct {
	rec tables.Record
}

// Tables concatenates the per-file tables and reduces duplicate identity keys
// to one row per key. For every non-key field the group's value is the first
// non-null value encountered; a field that is null in every source row stays
// null. An empty input yields an empty table with the full canonical column
// list.
//
// Rows with a null key are discarded for entities whose key column was
// assigned per-file (clients); for invoices a null invoice_id collapses into
// a single null-key group, mirroring the original merge semantics.
func Tables(parts []tables.Table, e normalize.Entity) tables.Table {
	groups := make(map[string]*group)

	for _, part := range parts {
		for _, r := range part.Rows {
			keyV := r[e.Key]
			if tables.IsNull(keyV) && e.Key == normalize.Client.Key {
				continue
			}
			key := tables.AsString(keyV)
			g, ok := groups[key]
			if !ok {
				g = &group{rec: tables.Record{e.Key: keyV}}
				groups[key] = g
			}
			for _, c := range e.Columns {
				if c == e.Key {
					continue
				}
				if tables.IsNull(g.rec[c]) && !tables.IsNull(r[c]) {
					g.rec[c] = r[c]
				}
			}
		}
	}

	out := tables.New(e.Columns...)
	for _, g := range groups {
		out.Append(g.rec.Reindexed(e.Columns))
	}
	out.SortByCols(sortKeys(e)...)
	return out
}

// sortKeys returns the output ordering per entity: clients by id then start
// date, invoices by id then client id.
func sortKeys(e normalize.Entity) []string {
	if e.Key == normalize.Client.Key {
		return []string{"client_id", "start_date"}
	}
	return []string{"invoice_id", "client_id"}
}
