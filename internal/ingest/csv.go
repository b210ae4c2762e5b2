package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"invoiceetl/pkg/tables"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// Parse reads one CSV export into a raw table. The first row is taken as
// the header; header names are untrusted and only lightly canonicalized so
// they can serve as column keys. Body rows that fail to parse or whose field
// count differs from the header are skipped (soft fail) and counted.
//
// Empty cells become nulls; all surviving values are trimmed strings.
func Parse(r io.Reader, name string) (tables.Table, int, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // enforce width against the header ourselves

	h, err := cr.Read()
	if err != nil {
		return tables.Table{}, 0, fmt.Errorf("read csv header: %w", err)
	}
	headers := normalizeHeaders(h)

	t := tables.New(headers...)
	var skipped int
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("ingest: %s: skipping row %d: %v", name, line, err)
			skipped++
			continue
		}
		if len(row) != len(headers) {
			log.Printf("ingest: %s: skipping row %d: expected %d fields, got %d", name, line, len(headers), len(row))
			skipped++
			continue
		}
		rec := make(tables.Record, len(row))
		for i, val := range row {
			val = strings.TrimSpace(val)
			if val == "" {
				rec[headers[i]] = nil
			} else {
				rec[headers[i]] = val
			}
		}
		t.Append(rec)
	}
	return t, skipped, nil
}

// normalizeHeaders canonicalizes untrusted header text into usable column
// keys: BOM stripped from the first cell, then each name lowercased,
// accent-folded and reduced to [a-z0-9_]. Collisions get a positional suffix
// so column keys stay unique within a table.
func normalizeHeaders(h []string) []string {
	out := make([]string, len(h))
	seen := make(map[string]bool, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		name := fieldName(c)
		if name == "col" || seen[name] {
			name = fmt.Sprintf("%s_%d", name, i)
		}
		seen[name] = true
		out[i] = name
	}
	return out
}

// fieldName converts arbitrary header text into a lowercase ASCII identifier:
// lowercase, strip accents (NFD, drop nonspacing marks, NFC), keep [a-z0-9_],
// map space/dash/dot to underscore, drop the rest, fall back to "col".
func fieldName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	ascii, _, _ := transform.String(t, s)

	var b strings.Builder
	prevUnderscore := false
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.':
			if !prevUnderscore {
				b.WriteRune('_')
				prevUnderscore = true
			}
		}
	}
	name := strings.Trim(b.String(), "_")
	if name == "" {
		return "col"
	}
	return name
}
