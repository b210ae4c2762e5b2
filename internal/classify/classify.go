// Package classify scores anonymous columns against an ordered list of
// semantic hypotheses and returns the best classification together with a
// cleaned value series.
//
// Each hypothesis pairs a value predicate/transform with an acceptance
// threshold on the match ratio (fraction of non-null values that satisfy the
// pattern). Hypotheses are tested in a fixed priority order per entity shape;
// the first hypothesis whose ratio clears its threshold wins the column.
// Columns that satisfy no hypothesis stay unclassified and are later dropped
// by reindexing.
package classify

import (
	"strings"

	"invoiceetl/pkg/tables"
)

// Canonical field names assignable by classification.
const (
	FieldClientID     = "client_id"
	FieldInvoiceID    = "invoice_id"
	FieldClientName   = "client_name"
	FieldStatus       = "status"
	FieldStartDate    = "start_date"
	FieldShipmentType = "shipment_type"
)

// MissPolicy controls what happens to rows whose value fails the accepted
// hypothesis's pattern.
type MissPolicy int

const (
	// DropRow removes the failing row from the table. Used for identity and
	// name columns, where pattern integrity is load-bearing for later joins.
	DropRow MissPolicy = iota

	// NullValue keeps the row and nulls the failing value. Used for fields
	// that are permitted to be missing (status, shipment type).
	NullValue
)

// Hypothesis is one predicate/transform strategy in the ordered list.
type Hypothesis struct {
	// Field is the canonical field assigned when the hypothesis is accepted.
	// Empty for column-discarding hypotheses (currency markers).
	Field string

	// Threshold is the exclusive lower bound on the match ratio.
	Threshold float64

	// Unique skips the hypothesis entirely when Field is already assigned in
	// the current table, so identity fields are never assigned twice.
	Unique bool

	// OnMiss selects the row policy for values failing the pattern.
	OnMiss MissPolicy

	// DropColumn discards the whole column on acceptance. A confirmed-uniform
	// currency column carries no information.
	DropColumn bool

	// Clean reports whether a trimmed non-null value matches the pattern and,
	// when it does, returns the canonical value.
	Clean func(s string) (any, bool)
}

// Result is the outcome of classifying one column.
type Result struct {
	// Accepted reports whether any hypothesis cleared its threshold.
	Accepted bool

	// Field is the canonical field the column was assigned to. Empty when the
	// column was not accepted, or was accepted by a column-dropping hypothesis.
	Field string

	// Ratio is the winning hypothesis's match ratio.
	Ratio float64

	// DropColumn signals the column must be removed from the table.
	DropColumn bool

	// Values holds the cleaned series aligned with the input. Only meaningful
	// when Accepted and not DropColumn.
	Values []any

	// Keep marks, per row, whether the row survives. Rows failing a DropRow
	// hypothesis (including null values) are marked false.
	Keep []bool
}

// Classify tests the column values against each hypothesis in order and
// returns the first acceptance. assigned carries the canonical fields already
// present in the table being normalized, so Unique hypotheses do not fire
// twice.
func Classify(values []any, assigned map[string]bool, hyps []Hypothesis) Result {
	for _, h := range hyps {
		if h.Unique && assigned[h.Field] {
			continue
		}
		res, ok := apply(values, h)
		if ok {
			return res
		}
	}
	return Result{}
}

// apply evaluates a single hypothesis against the column.
func apply(values []any, h Hypothesis) (Result, bool) {
	cleaned := make([]any, len(values))
	matched := make([]bool, len(values))
	var nonNull, hits int

	for i, v := range values {
		if tables.IsNull(v) {
			continue
		}
		s := strings.TrimSpace(tables.AsString(v))
		if s == "" {
			continue
		}
		nonNull++
		if cv, ok := h.Clean(s); ok {
			cleaned[i] = cv
			matched[i] = true
			hits++
		}
	}

	if nonNull == 0 {
		return Result{}, false
	}
	ratio := float64(hits) / float64(nonNull)
	if ratio <= h.Threshold {
		return Result{}, false
	}

	res := Result{
		Accepted:   true,
		Field:      h.Field,
		Ratio:      ratio,
		DropColumn: h.DropColumn,
	}
	if h.DropColumn {
		return res, true
	}

	res.Values = cleaned
	res.Keep = make([]bool, len(values))
	for i := range values {
		switch {
		case matched[i]:
			res.Keep[i] = true
		case h.OnMiss == NullValue:
			res.Keep[i] = true // value already nil in cleaned
		default:
			res.Keep[i] = false
		}
	}
	return res, true
}
