// Package model builds the curated invoice-client analytical model by
// left-joining consolidated invoices onto deduplicated client attributes.
package model

import (
	"fmt"
	"strings"

	"invoiceetl/pkg/tables"
)

// Columns is the fixed projection of the joined model, at invoice grain.
var Columns = []string{"client_id", "client_name", "invoice_id", "start_date", "total", "shipment_type"}

var (
	requiredClientCols  = []string{"client_id", "client_name", "status", "tier"}
	requiredInvoiceCols = []string{"invoice_id", "client_id", "start_date", "subtotal", "tax", "total", "shipment_type"}
)

// Combine left-joins the consolidated invoice table onto client attributes by
// client_id. Client attributes are deduplicated by key first (defensive;
// consolidation already guarantees uniqueness), so the join can never fan out:
// the output row count equals the invoice row count, with unmatched clients
// contributing null attributes. Internal financial columns (subtotal, tax,
// tier, status) are dropped from the projection.
//
// A missing expected column on either side is a schema contract violation and
// returns an error naming the missing columns; continuing would silently
// corrupt the model.
func Combine(clients, invoices tables.Table) (tables.Table, error) {
	if err := checkColumns("clients", clients, requiredClientCols); err != nil {
		return tables.Table{}, err
	}
	if err := checkColumns("invoices", invoices, requiredInvoiceCols); err != nil {
		return tables.Table{}, err
	}

	// First occurrence wins on duplicate client ids.
	attrs := make(map[string]tables.Record, clients.Len())
	for _, r := range clients.Rows {
		key := tables.AsString(r["client_id"])
		if tables.IsNull(r["client_id"]) {
			continue
		}
		if _, seen := attrs[key]; !seen {
			attrs[key] = r
		}
	}

	out := tables.New(Columns...)
	for _, inv := range invoices.Rows {
		row := tables.Record{
			"client_id":     inv["client_id"],
			"invoice_id":    inv["invoice_id"],
			"start_date":    inv["start_date"],
			"total":         inv["total"],
			"shipment_type": inv["shipment_type"],
		}
		if c, ok := attrs[tables.AsString(inv["client_id"])]; ok && !tables.IsNull(inv["client_id"]) {
			row["client_name"] = c["client_name"]
		}
		out.Append(row)
	}
	return out, nil
}

// checkColumns verifies the table declares every required column.
func checkColumns(name string, t tables.Table, required []string) error {
	var missing []string
	for _, c := range required {
		if !t.HasCol(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("model: %s table missing required columns: %s", name, strings.Join(missing, ", "))
	}
	return nil
}
