package ingest

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseHeaderAndNulls(t *testing.T) {
	in := "ID,Full Name,Créé\nA12345,john smith,2024-01-01\nB23456,,2024-02-01\n"
	got, skipped, err := Parse(strings.NewReader(in), "test.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d, want 0", skipped)
	}
	if !reflect.DeepEqual(got.Cols, []string{"id", "full_name", "cree"}) {
		t.Fatalf("cols: got %v", got.Cols)
	}
	if got.Rows[1]["full_name"] != nil {
		t.Fatalf("empty cell must be null: %#v", got.Rows[1])
	}
}

func TestParseStripsBOM(t *testing.T) {
	in := "\uFEFFid,name\nA12345,x\n"
	got, _, err := Parse(strings.NewReader(in), "test.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Cols[0] != "id" {
		t.Fatalf("BOM not stripped: %q", got.Cols[0])
	}
}

func TestParseSkipsMisalignedRows(t *testing.T) {
	in := "a,b\n1,2\nonly-one-field\n3,4\n"
	got, skipped, err := Parse(strings.NewReader(in), "test.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Len() != 2 || skipped != 1 {
		t.Fatalf("rows=%d skipped=%d, want 2/1", got.Len(), skipped)
	}
}

func TestParseHeaderCollisions(t *testing.T) {
	in := "amount,Amount,\nx,y,z\n"
	got, _, err := Parse(strings.NewReader(in), "test.csv")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []string{"amount", "amount_1", "col_2"}
	if !reflect.DeepEqual(got.Cols, want) {
		t.Fatalf("cols: got %v want %v", got.Cols, want)
	}
}

func TestFieldName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"Client ID", "client_id"},
		{"  Total (USD)  ", "total_usd"},
		{"Créé-le", "cree_le"},
		{"a.b.c", "a_b_c"},
		{"___", "col"},
		{"日本語", "col"},
	}
	for _, c := range cases {
		if got := fieldName(c.in); got != c.want {
			t.Errorf("fieldName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
