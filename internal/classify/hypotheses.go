package classify

import (
	"regexp"
	"strings"
	"time"
)

// Identity code patterns. Non-conforming values are rejected, never repaired.
var (
	clientIDPattern  = regexp.MustCompile(`^[A-Z][0-9]{5}$`)
	invoiceIDPattern = regexp.MustCompile(`^INV-[A-Z0-9]{7}$`)
	personNamePattern = regexp.MustCompile(`^[A-Za-z'-]+ [A-Za-z'-]+$`)
	nonNameChars      = regexp.MustCompile(`[^A-Za-z ]`)
)

// statusCanonical maps accepted status spellings (lowercased) to the enum.
var statusCanonical = map[string]string{
	"active":   "ACTIVE",
	"y":        "ACTIVE",
	"inactive": "INACTIVE",
	"n":        "INACTIVE",
}

// shipmentTypes is the closed shipment category set; membership is exact.
var shipmentTypes = map[string]bool{
	"2DAY": true, "GROUND": true, "FREIGHT": true, "EXPRESS": true,
}

// dateLayouts is the ordered format sweep applied after the locale-free
// layouts fail. Order matters: the first layout that parses a value wins.
var dateLayouts = []string{
	"01/02/2006", "01/02/06",
	"2006/01/02 15:04:05", "2006/01/02",
	"02-Jan-2006", "02-Jan-06",
	"Jan 2, 2006",
	"02-01-2006",
}

// autoLayouts are the unambiguous layouts tried before the explicit sweep.
// RFC3339 covers zone-aware timestamps, which are converted to zone-naive
// (UTC) before the date is taken.
var autoLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ClientHypotheses returns the ordered hypothesis list for client tables.
func ClientHypotheses() []Hypothesis {
	return []Hypothesis{
		{Field: FieldClientID, Threshold: 0.8, Unique: true, OnMiss: DropRow, Clean: cleanClientID},
		{Field: FieldClientName, Threshold: 0.8, OnMiss: DropRow, Clean: cleanPersonName},
		{Field: FieldStatus, Threshold: 0.8, OnMiss: NullValue, Clean: cleanStatus},
		{Field: FieldStartDate, Threshold: 0.4, OnMiss: NullValue, Clean: cleanDate},
		{Threshold: 0.8, DropColumn: true, Clean: currencyMarker(false)},
	}
}

// InvoiceHypotheses returns the ordered hypothesis list for invoice tables.
// The person-name hypothesis still runs here: a name-shaped column in an
// invoice file filters its rows, even though the column itself is discarded
// by the canonical reindex afterwards.
func InvoiceHypotheses() []Hypothesis {
	return []Hypothesis{
		{Field: FieldInvoiceID, Threshold: 0.8, Unique: true, OnMiss: DropRow, Clean: cleanInvoiceID},
		{Field: FieldClientID, Threshold: 0.8, Unique: true, OnMiss: DropRow, Clean: cleanClientID},
		{Threshold: 0.8, DropColumn: true, Clean: currencyMarker(true)},
		{Field: FieldClientName, Threshold: 0.8, OnMiss: DropRow, Clean: cleanPersonName},
		{Field: FieldStartDate, Threshold: 0.4, OnMiss: NullValue, Clean: cleanDate},
		{Field: FieldShipmentType, Threshold: 0.8, OnMiss: NullValue, Clean: cleanShipment},
	}
}

func cleanClientID(s string) (any, bool) {
	if !clientIDPattern.MatchString(s) {
		return nil, false
	}
	return s, true
}

func cleanInvoiceID(s string) (any, bool) {
	if !invoiceIDPattern.MatchString(s) {
		return nil, false
	}
	return s, true
}

// cleanPersonName accepts two space-separated tokens of letters, apostrophes
// and hyphens, then canonicalizes: lowercase, title-case, and strip anything
// outside letters and spaces.
func cleanPersonName(s string) (any, bool) {
	if !personNamePattern.MatchString(s) {
		return nil, false
	}
	name := titleCase(strings.ToLower(s))
	return nonNameChars.ReplaceAllString(name, ""), true
}

// titleCase upper-cases every letter that follows a non-letter, matching the
// classic title() semantics ("o'brien smith" -> "O'Brien Smith").
func titleCase(s string) string {
	out := []rune(s)
	prevLetter := false
	for i, r := range out {
		isLetter := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if isLetter && !prevLetter && r >= 'a' && r <= 'z' {
			out[i] = r - 'a' + 'A'
		}
		prevLetter = isLetter
	}
	return string(out)
}

func cleanStatus(s string) (any, bool) {
	if canon, ok := statusCanonical[strings.ToLower(s)]; ok {
		return canon, true
	}
	return nil, false
}

func cleanShipment(s string) (any, bool) {
	if shipmentTypes[s] {
		return s, true
	}
	return nil, false
}

// currencyMarker matches a uniform currency column. Client exports spell the
// marker freely ("usd", "USD"); invoice exports are expected to carry the
// exact "USD" token.
func currencyMarker(exact bool) func(string) (any, bool) {
	return func(s string) (any, bool) {
		if exact {
			return nil, s == "USD"
		}
		return nil, strings.ToLower(s) == "usd"
	}
}

// cleanDate parses a value against the locale-free layouts and then the
// explicit format sweep, normalizing to a date-only YYYY-MM-DD string.
// Zone-aware timestamps are made zone-naive (UTC) first.
func cleanDate(s string) (any, bool) {
	for _, layout := range autoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC().Format("2006-01-02"), true
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return nil, false
}
