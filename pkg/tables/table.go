// Package tables defines the in-memory tabular model shared by every pipeline
// stage. A Table is an ordered column list plus row data; stages never mutate
// a table they received, they build and return a new one.
package tables

import (
	"fmt"
	"sort"
	"strings"
)

// Record is one row keyed by column name. A nil value (or absent key) is a
// null; empty CSV cells are converted to nil at parse time.
type Record map[string]any

// Reindexed returns a copy of the record restricted to exactly the given
// columns; absent columns become explicit nulls.
func (r Record) Reindexed(cols []string) Record {
	out := make(Record, len(cols))
	for _, c := range cols {
		out[c] = r[c]
	}
	return out
}

// Table is an ordered set of named columns plus row data. Cols defines both
// the column set and the serialization order.
type Table struct {
	Cols []string
	Rows []Record
}

// New returns an empty table with the given column order.
func New(cols ...string) Table {
	c := make([]string, len(cols))
	copy(c, cols)
	return Table{Cols: c, Rows: []Record{}}
}

// Len returns the row count.
func (t Table) Len() int { return len(t.Rows) }

// HasCol reports whether the table declares the named column.
func (t Table) HasCol(name string) bool {
	for _, c := range t.Cols {
		if c == name {
			return true
		}
	}
	return false
}

// Append adds a row. The record is stored as-is; callers must not reuse it.
func (t *Table) Append(r Record) { t.Rows = append(t.Rows, r) }

// Clone returns a deep copy. Row maps are copied so the clone can be mutated
// without touching the original; values themselves are shared.
func (t Table) Clone() Table {
	out := Table{Cols: make([]string, len(t.Cols)), Rows: make([]Record, len(t.Rows))}
	copy(out.Cols, t.Cols)
	for i, r := range t.Rows {
		nr := make(Record, len(r))
		for k, v := range r {
			nr[k] = v
		}
		out.Rows[i] = nr
	}
	return out
}

// Reindex projects the table onto exactly the given columns, in that order.
// Columns absent from the source become all-null; extra columns are dropped.
func (t Table) Reindex(cols []string) Table {
	out := New(cols...)
	for _, r := range t.Rows {
		nr := make(Record, len(cols))
		for _, c := range cols {
			nr[c] = r[c] // missing key yields nil
		}
		out.Append(nr)
	}
	return out
}

// Rename renames a column in place, in both Cols and every row.
func (t *Table) Rename(old, name string) {
	for i, c := range t.Cols {
		if c == old {
			t.Cols[i] = name
		}
	}
	for _, r := range t.Rows {
		if v, ok := r[old]; ok {
			delete(r, old)
			r[name] = v
		}
	}
}

// DropCol removes a column in place.
func (t *Table) DropCol(name string) {
	cols := t.Cols[:0]
	for _, c := range t.Cols {
		if c != name {
			cols = append(cols, c)
		}
	}
	t.Cols = cols
	for _, r := range t.Rows {
		delete(r, name)
	}
}

// Column returns the values of one column, aligned with Rows.
func (t Table) Column(name string) []any {
	out := make([]any, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = r[name]
	}
	return out
}

// Head returns a table with at most n leading rows (rows shared, not copied).
func (t Table) Head(n int) Table {
	if n > len(t.Rows) {
		n = len(t.Rows)
	}
	return Table{Cols: t.Cols, Rows: t.Rows[:n]}
}

// SortStable sorts rows in place with a stable sort.
func (t *Table) SortStable(less func(a, b Record) bool) {
	sort.SliceStable(t.Rows, func(i, j int) bool { return less(t.Rows[i], t.Rows[j]) })
}

// SortByCols stable-sorts rows ascending by the given columns, nulls last
// within each key. Values are compared with Compare.
func (t *Table) SortByCols(cols ...string) {
	t.SortStable(func(a, b Record) bool {
		for _, c := range cols {
			if cmp := Compare(a[c], b[c]); cmp != 0 {
				return cmp < 0
			}
		}
		return false
	})
}

// IsNull reports whether v counts as a missing value.
func IsNull(v any) bool { return v == nil }

// Compare orders two cell values: nulls sort after everything, numbers compare
// numerically, everything else compares as its string form.
func Compare(a, b any) int {
	switch {
	case IsNull(a) && IsNull(b):
		return 0
	case IsNull(a):
		return 1
	case IsNull(b):
		return -1
	}
	af, aok := AsFloat(a)
	bf, bok := AsFloat(b)
	if aok && bok {
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	}
	return strings.Compare(AsString(a), AsString(b))
}

// AsFloat converts numeric cell values to float64.
func AsFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// AsString renders a cell value for comparison or serialization. Nulls render
// as the empty string.
func AsString(v any) string {
	if IsNull(v) {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
