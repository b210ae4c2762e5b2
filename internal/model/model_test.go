package model

import (
	"reflect"
	"strings"
	"testing"

	"invoiceetl/pkg/tables"
)

func clientTable(rows ...tables.Record) tables.Table {
	t := tables.New("client_id", "client_name", "status", "start_date", "tier")
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func invoiceTable(rows ...tables.Record) tables.Table {
	t := tables.New("invoice_id", "client_id", "start_date", "subtotal", "tax", "total", "shipment_type")
	for _, r := range rows {
		t.Append(r)
	}
	return t
}

func TestCombineKeepsInvoiceGrain(t *testing.T) {
	clients := clientTable(
		tables.Record{"client_id": "A11111", "client_name": "Ann Lee", "status": "ACTIVE", "tier": "GOLD"},
	)
	invoices := invoiceTable(
		tables.Record{"invoice_id": "INV-AB12CD3", "client_id": "A11111", "start_date": "2024-01-01", "total": 100.0, "shipment_type": "GROUND"},
		tables.Record{"invoice_id": "INV-EF45GH6", "client_id": "Z99999", "start_date": "2024-02-01", "total": 50.0, "shipment_type": "2DAY"},
	)

	got, err := Combine(clients, invoices)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got.Len() != invoices.Len() {
		t.Fatalf("len = %d, want %d (invoice grain)", got.Len(), invoices.Len())
	}
	if !reflect.DeepEqual(got.Cols, Columns) {
		t.Fatalf("cols: got %v want %v", got.Cols, Columns)
	}
	if got.Rows[0]["client_name"] != "Ann Lee" {
		t.Fatalf("matched invoice missing client name: %#v", got.Rows[0])
	}
	if _, ok := got.Rows[0]["subtotal"]; ok {
		t.Fatalf("internal columns leaked into the model: %#v", got.Rows[0])
	}
}

func TestCombineUnmatchedClientIsNull(t *testing.T) {
	clients := clientTable()
	invoices := invoiceTable(
		tables.Record{"invoice_id": "INV-AB12CD3", "client_id": "A11111", "total": 10.0},
	)
	got, err := Combine(clients, invoices)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got.Rows[0]["client_name"] != nil {
		t.Fatalf("unmatched client_name must be null: %#v", got.Rows[0])
	}
}

func TestCombineFirstClientOccurrenceWins(t *testing.T) {
	clients := clientTable(
		tables.Record{"client_id": "A11111", "client_name": "First Name"},
		tables.Record{"client_id": "A11111", "client_name": "Second Name"},
	)
	invoices := invoiceTable(
		tables.Record{"invoice_id": "INV-AB12CD3", "client_id": "A11111"},
	)
	got, err := Combine(clients, invoices)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	if got.Rows[0]["client_name"] != "First Name" {
		t.Fatalf("duplicate client ids must resolve to the first row: %#v", got.Rows[0])
	}
}

func TestCombineMissingColumnsFatal(t *testing.T) {
	broken := tables.New("client_id", "client_name") // no status, no tier
	_, err := Combine(broken, invoiceTable())
	if err == nil {
		t.Fatalf("expected error for missing columns")
	}
	if !strings.Contains(err.Error(), "status") || !strings.Contains(err.Error(), "tier") {
		t.Fatalf("error must name the missing columns: %v", err)
	}
}
