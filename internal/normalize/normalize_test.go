package normalize

import (
	"reflect"
	"testing"

	"invoiceetl/pkg/tables"
)

func clientRaw() tables.Table {
	t := tables.New("id", "full_name", "state", "joined", "curr", "tier")
	t.Append(tables.Record{"id": "A12345", "full_name": "john smith", "state": "active", "joined": "2024-01-15", "curr": "usd", "tier": "GOLD"})
	t.Append(tables.Record{"id": "B23456", "full_name": "MARY O'BRIEN", "state": "n", "joined": "01/20/2024", "curr": "USD", "tier": "SILVER"})
	t.Append(tables.Record{"id": nil, "full_name": "ghost row", "state": "active", "joined": "2024-02-01", "curr": "usd", "tier": "BRONZE"})
	return t
}

func TestTableNormalizesClients(t *testing.T) {
	got := Table(clientRaw(), Client)

	if !reflect.DeepEqual(got.Cols, Client.Columns) {
		t.Fatalf("cols: got %v want %v", got.Cols, Client.Columns)
	}
	want := []tables.Record{
		{"client_id": "A12345", "client_name": "John Smith", "status": "ACTIVE", "start_date": "2024-01-15", "tier": "GOLD"},
		{"client_id": "B23456", "client_name": "Mary OBrien", "status": "INACTIVE", "start_date": "2024-01-20", "tier": "SILVER"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Fatalf("rows:\n got %#v\nwant %#v", got.Rows, want)
	}
}

func TestTableIsIdempotent(t *testing.T) {
	once := Table(clientRaw(), Client)
	twice := Table(once, Client)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second pass changed the table:\n got %#v\nwant %#v", twice, once)
	}
}

func TestTableDoesNotMutateInput(t *testing.T) {
	raw := clientRaw()
	_ = Table(raw, Client)
	if !reflect.DeepEqual(raw, clientRaw()) {
		t.Fatalf("input mutated: %#v", raw)
	}
}

func TestTableCoercesInvoiceNumerics(t *testing.T) {
	raw := tables.New("invoice_id", "client_id", "start_date", "subtotal", "tax", "total", "shipment_type")
	raw.Append(tables.Record{
		"invoice_id": "INV-AB12CD3", "client_id": "A12345", "start_date": "2024-03-01",
		"subtotal": "100.5", "tax": "9.5", "total": "110", "shipment_type": "GROUND",
	})
	raw.Append(tables.Record{
		"invoice_id": "INV-EF45GH6", "client_id": "B23456", "start_date": "2024-03-02",
		"subtotal": "oops", "tax": nil, "total": "90", "shipment_type": "2DAY",
	})

	got := Table(raw, Invoice)
	if got.Len() != 2 {
		t.Fatalf("len = %d, want 2", got.Len())
	}
	if got.Rows[0]["subtotal"] != 100.5 || got.Rows[0]["tax"] != 9.5 || got.Rows[0]["total"] != 110.0 {
		t.Fatalf("numerics not coerced: %#v", got.Rows[0])
	}
	if got.Rows[1]["subtotal"] != nil || got.Rows[1]["tax"] != nil {
		t.Fatalf("bad numerics not nulled: %#v", got.Rows[1])
	}
}

func TestTableDropsUnclassifiableColumns(t *testing.T) {
	raw := tables.New("id", "noise")
	raw.Append(tables.Record{"id": "A12345", "noise": "zzz"})
	raw.Append(tables.Record{"id": "B23456", "noise": "qqq"})

	got := Table(raw, Client)
	if got.HasCol("noise") {
		t.Fatalf("unclassified column survived: %v", got.Cols)
	}
	// Canonical columns absent from the source come back all-null.
	if got.Rows[0]["status"] != nil || got.Rows[0]["tier"] != nil {
		t.Fatalf("missing canonical columns not null: %#v", got.Rows[0])
	}
}
