// Package queries implements the analytical aggregations over the joined
// invoice-client model. Every query is a pure function that returns a fresh
// table; the input model is never mutated.
package queries

import (
	"strings"
	"time"

	"invoiceetl/pkg/tables"
)

// Report column schemas. Consumers match these lists exactly.
var (
	OutstandingColumns = []string{"client_id", "client_name", "total"}
	GrowthColumns      = []string{"client_id", "client_name", "year_month", "total", "mom_delta", "mom_growth_pct"}
	SavingsColumns     = []string{"client_id", "client_name", "old_total", "discounted_total", "savings", "percent_savings"}
)

// Month-over-month reporting window, inclusive on both ends.
var (
	growthWindowStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	growthWindowEnd   = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
)

// discountFactors maps shipment types to the per-invoice discount multiplier.
// Unknown or null types keep the full price.
var discountFactors = map[string]float64{
	"GROUND":  0.8,
	"FREIGHT": 0.7,
	"2DAY":    0.5,
}

// clientKey builds the composite grouping key. Rows with a null client_id or
// client_name do not participate in per-client aggregation (an unmatched
// invoice has no client to report under).
func clientKey(r tables.Record) (string, bool) {
	if tables.IsNull(r["client_id"]) || tables.IsNull(r["client_name"]) {
		return "", false
	}
	return tables.AsString(r["client_id"]) + "\x1f" + tables.AsString(r["client_name"]), true
}

// clientTotal is one per-client accumulator, kept in first-seen order.
type clientTotal struct {
	id, name string
	total    float64
}

// sumByClient groups rows by (client_id, client_name) and sums the named
// column, skipping null amounts. Group order is first occurrence.
func sumByClient(t tables.Table, col string) []*clientTotal {
	byKey := make(map[string]*clientTotal)
	var order []*clientTotal
	for _, r := range t.Rows {
		key, ok := clientKey(r)
		if !ok {
			continue
		}
		g, seen := byKey[key]
		if !seen {
			g = &clientTotal{id: tables.AsString(r["client_id"]), name: tables.AsString(r["client_name"])}
			byKey[key] = g
			order = append(order, g)
		}
		if f, ok := tables.AsFloat(r[col]); ok {
			g.total += f
		}
	}
	return order
}

// AmountOutstanding aggregates invoice totals per client and ranks them
// descending by total. Ties keep the underlying grouping order (stable sort).
func AmountOutstanding(m tables.Table) tables.Table {
	groups := sumByClient(m, "total")
	out := tables.New(OutstandingColumns...)
	for _, g := range groups {
		out.Append(tables.Record{"client_id": g.id, "client_name": g.name, "total": g.total})
	}
	out.SortStable(func(a, b tables.Record) bool {
		af, _ := tables.AsFloat(a["total"])
		bf, _ := tables.AsFloat(b["total"])
		return af > bf
	})
	return out
}

// MonthOverMonthGrowth buckets totals per client per calendar month within
// the reporting window and annotates absolute and percentage deltas versus
// the client's immediately preceding month.
//
// The first month of each client carries delta=0 and pct=0. A previous-month
// total of zero also yields pct=0 rather than an undefined ratio.
func MonthOverMonthGrowth(m tables.Table) tables.Table {
	type bucket struct {
		id, name, ym string
		total        float64
	}
	byKey := make(map[string]*bucket)
	var order []*bucket

	for _, r := range m.Rows {
		key, ok := clientKey(r)
		if !ok {
			continue
		}
		d, ok := parseDate(r["start_date"])
		if !ok || d.Before(growthWindowStart) || d.After(growthWindowEnd) {
			continue
		}
		ym := d.Format("2006-01")
		bk := key + "\x1f" + ym
		b, seen := byKey[bk]
		if !seen {
			b = &bucket{id: tables.AsString(r["client_id"]), name: tables.AsString(r["client_name"]), ym: ym}
			byKey[bk] = b
			order = append(order, b)
		}
		if f, ok := tables.AsFloat(r["total"]); ok {
			b.total += f
		}
	}

	out := tables.New(GrowthColumns...)
	for _, b := range order {
		out.Append(tables.Record{
			"client_id": b.id, "client_name": b.name,
			"year_month": b.ym, "total": b.total,
		})
	}
	out.SortByCols("client_id", "year_month")

	prevByClient := make(map[string]float64)
	for _, r := range out.Rows {
		id := tables.AsString(r["client_id"])
		total, _ := tables.AsFloat(r["total"])
		prev, seen := prevByClient[id]
		switch {
		case !seen:
			r["mom_delta"] = 0.0
			r["mom_growth_pct"] = 0.0
		default:
			delta := total - prev
			r["mom_delta"] = delta
			if prev == 0 {
				r["mom_growth_pct"] = 0.0
			} else {
				r["mom_growth_pct"] = delta / prev * 100
			}
		}
		prevByClient[id] = total
	}
	return out
}

// DiscountApplied multiplies each invoice total by its shipment-type discount
// factor and re-runs the per-client outstanding ranking on the result.
func DiscountApplied(m tables.Table) tables.Table {
	disc := m.Clone()
	for _, r := range disc.Rows {
		f, ok := tables.AsFloat(r["total"])
		if !ok {
			continue
		}
		factor := 1.0
		if ship, ok := r["shipment_type"].(string); ok {
			if df, known := discountFactors[ship]; known {
				factor = df
			}
		}
		r["total"] = f * factor
	}
	return AmountOutstanding(disc)
}

// ReclassifyDiscount reclassifies EXPRESS shipments to GROUND, recomputes
// discounted per-client totals, and reports savings versus the original
// totals. It returns the full savings table plus the subsets with
// percent_savings > 50 and savings > 500000.
//
// A client with an old total of zero reports percent_savings of zero; the
// division is otherwise undefined and the policy here is explicit.
func ReclassifyDiscount(m tables.Table) (full, pctOver50, over500k tables.Table) {
	oldTotals := AmountOutstanding(m)

	recl := m.Clone()
	for _, r := range recl.Rows {
		if s, ok := r["shipment_type"].(string); ok && s == "EXPRESS" {
			r["shipment_type"] = "GROUND"
		}
	}
	newTotals := DiscountApplied(recl)

	oldByKey := make(map[string]float64, oldTotals.Len())
	for _, r := range oldTotals.Rows {
		key, ok := clientKey(r)
		if !ok {
			continue
		}
		f, _ := tables.AsFloat(r["total"])
		oldByKey[key] = f
	}

	full = tables.New(SavingsColumns...)
	pctOver50 = tables.New(SavingsColumns...)
	over500k = tables.New(SavingsColumns...)

	for _, r := range newTotals.Rows {
		key, ok := clientKey(r)
		if !ok {
			continue
		}
		oldTotal, matched := oldByKey[key]
		if !matched {
			continue // inner join: clients must appear on both sides
		}
		discounted, _ := tables.AsFloat(r["total"])
		savings := oldTotal - discounted
		pct := 0.0
		if oldTotal != 0 {
			pct = savings / oldTotal * 100
		}
		row := tables.Record{
			"client_id":        r["client_id"],
			"client_name":      r["client_name"],
			"old_total":        oldTotal,
			"discounted_total": discounted,
			"savings":          savings,
			"percent_savings":  pct,
		}
		full.Append(row)
		if pct > 50.0 {
			pctOver50.Append(row.Reindexed(SavingsColumns))
		}
		if savings > 500000.0 {
			over500k.Append(row.Reindexed(SavingsColumns))
		}
	}
	return full, pctOver50, over500k
}

// parseDate reads a canonical YYYY-MM-DD cell. Anything else (including the
// null sentinel) is treated as missing and excluded by the window filter.
func parseDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
