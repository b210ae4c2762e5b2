// Package normalize turns one raw table into a canonical single-entity table.
// It runs the column classifier over every original column, accumulates
// renames, row drops and value transforms into a working copy, and finally
// reindexes onto the entity's fixed canonical column list.
package normalize

import (
	"strconv"

	"invoiceetl/internal/classify"
	"invoiceetl/pkg/tables"
)

// Entity describes one canonical shape the normalizer can target.
type Entity struct {
	// Name identifies the entity in logs and table names.
	Name string

	// Columns is the fixed canonical column list, in output order.
	Columns []string

	// Key is the identity column whose uniqueness drives consolidation.
	Key string

	// Numeric lists the canonical fields coerced to float64 after reindexing.
	Numeric []string

	// Hypotheses is the ordered classification strategy for this shape.
	Hypotheses func() []classify.Hypothesis
}

// Client is the canonical client shape.
var Client = Entity{
	Name:       "clients",
	Columns:    []string{"client_id", "client_name", "status", "start_date", "tier"},
	Key:        "client_id",
	Hypotheses: classify.ClientHypotheses,
}

// Invoice is the canonical invoice shape.
var Invoice = Entity{
	Name:       "invoices",
	Columns:    []string{"invoice_id", "client_id", "start_date", "subtotal", "tax", "total", "shipment_type"},
	Key:        "invoice_id",
	Numeric:    []string{"subtotal", "tax", "total"},
	Hypotheses: classify.InvoiceHypotheses,
}

// Table normalizes one raw table into the entity's canonical shape. The input
// is not mutated. Columns whose names already match a canonical field are
// trusted as assigned, which makes normalization idempotent on already-clean
// tables.
func Table(raw tables.Table, e Entity) tables.Table {
	work := raw.Clone()
	hyps := e.Hypotheses()

	assigned := make(map[string]bool, len(e.Columns))
	for _, c := range work.Cols {
		for _, canon := range e.Columns {
			if c == canon {
				assigned[c] = true
			}
		}
	}

	// Snapshot the original column order; renames and drops below must not
	// affect which columns get classified.
	original := make([]string, len(work.Cols))
	copy(original, work.Cols)

	for _, col := range original {
		if !work.HasCol(col) {
			continue
		}
		res := classify.Classify(work.Column(col), assigned, hyps)
		if !res.Accepted {
			continue
		}
		if res.DropColumn {
			work.DropCol(col)
			continue
		}
		applyResult(&work, col, res)
		work.Rename(col, res.Field)
		assigned[res.Field] = true
	}

	out := work.Reindex(e.Columns)
	coerceNumeric(&out, e.Numeric)
	return out
}

// applyResult filters dropped rows and writes the cleaned series back onto
// the working table, still under the column's original name.
func applyResult(work *tables.Table, col string, res classify.Result) {
	kept := work.Rows[:0]
	for i, r := range work.Rows {
		if !res.Keep[i] {
			continue
		}
		r[col] = res.Values[i]
		kept = append(kept, r)
	}
	work.Rows = kept
}

// coerceNumeric parses string values in the named columns as float64. Values
// that do not parse become null rather than corrupting later arithmetic.
func coerceNumeric(t *tables.Table, cols []string) {
	for _, c := range cols {
		for _, r := range t.Rows {
			v := r[c]
			if tables.IsNull(v) {
				continue
			}
			if _, ok := tables.AsFloat(v); ok {
				continue
			}
			s, ok := v.(string)
			if !ok {
				r[c] = nil
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				r[c] = f
			} else {
				r[c] = nil
			}
		}
	}
}
