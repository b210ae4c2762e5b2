package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"invoiceetl/internal/config"
)

const clientsCSV = `Client Code,Customer,Account State,Signed Up,Currency,tier
A12345,ann lee,active,2024-01-15,usd,GOLD
B23456,bob ray,n,2024-02-20,usd,SILVER
`

const invoicesCSV = `Invoice Ref,Client Code,Invoice Date,Subtotal,Tax,Total,Shipping Method,Currency
INV-0001AAA,A12345,2024-01-20,100,10,110,GROUND,USD
INV-0002BBB,B23456,2024-02-25,200,20,220,2DAY,USD
INV-0003CCC,A12345,2024-02-10,50,5,55,EXPRESS,USD
`

func fixture(t *testing.T) config.Pipeline {
	t.Helper()
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "clients_2024.csv"), []byte(clientsCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "invoices_2024.csv"), []byte(invoicesCSV), 0o644); err != nil {
		t.Fatal(err)
	}

	var cfg config.Pipeline
	cfg.ApplyDefaults()
	cfg.Source.Dir = src
	cfg.Output.Dir = t.TempDir()
	return cfg
}

func TestBuildEndToEnd(t *testing.T) {
	cfg := fixture(t)
	res, err := Build(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if res.Clients.Len() != 2 {
		t.Fatalf("clients len = %d, want 2: %#v", res.Clients.Len(), res.Clients.Rows)
	}
	if res.Invoices.Len() != 3 {
		t.Fatalf("invoices len = %d, want 3: %#v", res.Invoices.Len(), res.Invoices.Rows)
	}
	if res.Model.Len() != 3 {
		t.Fatalf("model len = %d, want 3 (invoice grain)", res.Model.Len())
	}

	c := res.Clients.Rows[0]
	if c["client_id"] != "A12345" || c["client_name"] != "Ann Lee" || c["status"] != "ACTIVE" || c["tier"] != "GOLD" {
		t.Fatalf("first client: %#v", c)
	}

	top := res.TopOutstanding
	if top.Len() != 2 {
		t.Fatalf("outstanding len = %d, want 2", top.Len())
	}
	if top.Rows[0]["client_id"] != "B23456" || top.Rows[0]["total"] != 220.0 {
		t.Fatalf("top outstanding: %#v", top.Rows[0])
	}
	if top.Rows[1]["total"] != 165.0 {
		t.Fatalf("second outstanding: %#v", top.Rows[1])
	}
}

func TestRunWritesAllFiles(t *testing.T) {
	cfg := fixture(t)
	if err := Run(context.Background(), cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	files := []string{
		"Outputs/Clients_Merged_Cleaned.csv",
		"Outputs/Invoices_Merged_Cleaned.csv",
		"Outputs/Clients_Invoices_Model.csv",
		"Analysis/Top5_Invoice_Outstanding.csv",
		"Analysis/Month_Per_Month_Invoice_Growth.csv",
		"Analysis/Top5_Invoice_Discounts.csv",
		"Analysis/Total_Cost_Savings.csv",
		"Analysis/Savings_Over_50percent.csv",
		"Analysis/Savings_Over_500k.csv",
	}
	for _, f := range files {
		if _, err := os.Stat(filepath.Join(cfg.Output.Dir, f)); err != nil {
			t.Errorf("missing output %s: %v", f, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(cfg.Output.Dir, "Analysis", "Top5_Invoice_Outstanding.csv"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	want := "client_id,client_name,total\nB23456,Bob Ray,220\nA12345,Ann Lee,165\n"
	if string(data) != want {
		t.Fatalf("report:\n got %q\nwant %q", string(data), want)
	}
}

func TestRunFailsOnMissingSourceDir(t *testing.T) {
	var cfg config.Pipeline
	cfg.ApplyDefaults()
	cfg.Source.Dir = filepath.Join(t.TempDir(), "nope")
	cfg.Output.Dir = t.TempDir()

	if err := Run(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for missing source dir")
	}
}
