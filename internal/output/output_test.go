package output

import (
	"os"
	"path/filepath"
	"testing"

	"invoiceetl/pkg/tables"
)

func TestWriteCSV(t *testing.T) {
	tb := tables.New("client_id", "total", "note")
	tb.Append(tables.Record{"client_id": "A12345", "total": 1234.5, "note": nil})
	tb.Append(tables.Record{"client_id": "B23456", "total": 100.0, "note": "has, comma"})

	path := filepath.Join(t.TempDir(), "Outputs", "report.csv")
	if err := WriteCSV(path, tb); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := "client_id,total,note\nA12345,1234.5,\nB23456,100,\"has, comma\"\n"
	if string(data) != want {
		t.Fatalf("content:\n got %q\nwant %q", string(data), want)
	}
}

func TestWriteCSVEmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	if err := WriteCSV(path, tables.New("a", "b")); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "a,b\n" {
		t.Fatalf("content: %q", string(data))
	}
}
