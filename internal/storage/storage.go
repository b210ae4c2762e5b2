// Package storage contains the storage-agnostic contract and utilities used
// to persist pipeline artifacts. Concrete backends (SQLite, Postgres, SQL
// Server) live in subpackages and implement Repository with their most
// efficient bulk primitives.
package storage

import (
	"context"

	"invoiceetl/pkg/tables"
)

// Kind tags the abstract column type; backends map it to a concrete SQL type.
type Kind string

const (
	// KindText stores string and null cells.
	KindText Kind = "text"
	// KindNumber stores float64 cells.
	KindNumber Kind = "number"
)

// Column describes one destination column.
type Column struct {
	Name string
	Kind Kind
}

// Repository is the minimal contract a backend must satisfy. Replace gives
// run-once semantics: each pipeline invocation fully replaces the previous
// artifact table.
type Repository interface {
	// Replace drops and recreates the destination table for the given columns.
	Replace(ctx context.Context, table string, cols []Column) error

	// InsertBatch appends rows (aligned with cols order) and returns the
	// number of rows inserted.
	InsertBatch(ctx context.Context, table string, cols []string, rows [][]any) (int64, error)

	// Close releases the underlying connections.
	Close()
}

// InferColumns derives destination column types from the table's values: a
// column whose non-null cells are all numeric becomes KindNumber, everything
// else is KindText.
func InferColumns(t tables.Table) []Column {
	out := make([]Column, len(t.Cols))
	for i, c := range t.Cols {
		kind := KindNumber
		seen := false
		for _, r := range t.Rows {
			v := r[c]
			if tables.IsNull(v) {
				continue
			}
			seen = true
			if _, ok := tables.AsFloat(v); !ok {
				kind = KindText
				break
			}
		}
		if !seen {
			kind = KindText
		}
		out[i] = Column{Name: c, Kind: kind}
	}
	return out
}
