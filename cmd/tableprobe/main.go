// Command tableprobe classifies the columns of a single CSV export against a
// canonical entity shape and reports what the normalizer would do with each
// column. Useful for checking a new upstream export before wiring it into a
// pipeline run.
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"invoiceetl/internal/classify"
	"invoiceetl/internal/ingest"
	"invoiceetl/internal/normalize"
)

var (
	flagFile   = flag.String("file", "", "path of the CSV file to probe")
	flagEntity = flag.String("entity", "clients", "canonical shape to probe against: clients|invoices")
)

func main() {
	flag.Parse()

	if *flagFile == "" {
		fatalf("usage: tableprobe -file <export.csv> [-entity clients|invoices]")
	}

	var entity normalize.Entity
	switch *flagEntity {
	case "clients":
		entity = normalize.Client
	case "invoices":
		entity = normalize.Invoice
	default:
		fatalf("unknown entity %q (want clients or invoices)", *flagEntity)
	}

	f, err := os.Open(*flagFile)
	if err != nil {
		fatalf("open: %v", err)
	}
	defer f.Close()

	t, skipped, err := ingest.Parse(f, *flagFile)
	if err != nil {
		fatalf("parse: %v", err)
	}
	fmt.Printf("file=%s entity=%s rows=%d skipped=%d\n\n", *flagFile, entity.Name, t.Len(), skipped)

	hyps := entity.Hypotheses()
	assigned := make(map[string]bool)
	for _, c := range t.Cols {
		for _, canon := range entity.Columns {
			if c == canon {
				assigned[c] = true
			}
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COLUMN\tASSIGNED FIELD\tMATCH\tACTION")
	for _, col := range t.Cols {
		res := classify.Classify(t.Column(col), assigned, hyps)
		switch {
		case res.Accepted && res.DropColumn:
			fmt.Fprintf(w, "%s\t-\t%.2f\tdrop column\n", col, res.Ratio)
		case res.Accepted:
			assigned[res.Field] = true
			fmt.Fprintf(w, "%s\t%s\t%.2f\trename\n", col, res.Field, res.Ratio)
		default:
			fmt.Fprintf(w, "%s\t-\t-\tunclassified\n", col)
		}
	}
	w.Flush()
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
