package tracking

import (
	"regexp"
	"slices"
	"strings"

	"smutrack/internal/browser"
)

var (
	// Carrier designator (two characters, at least one a letter) and a
	// 3-4 digit flight number, optionally split by a space or hyphen.
	flightPattern = regexp.MustCompile(`\b([A-Z][A-Z0-9]|[0-9][A-Z])\s?-?\s?(\d{3,4})\b`)
	datePattern   = regexp.MustCompile(`(?i)\b(\d{1,2})\s?(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)\b`)
)

// notCarriers are two-letter units and labels that print like a designator
// in front of a number ("KG 1500", "ID 7001").
var notCarriers = map[string]bool{
	"KG": true, "LB": true, "CM": true, "MM": true, "M3": true,
	"PC": true, "ID": true, "NO": true, "NR": true, "RP": true,
}

// FlightCandidate is a flight believed to carry the shipment into its
// destination.
type FlightCandidate struct {
	FlightNumber string // normalized, e.g. "GA123"
	Date         string // day and month as printed, e.g. "14 May"
}

// TableRowTexts flattens every row of every table into one line of text.
func TableRowTexts(tables []browser.Table) []string {
	var rows []string
	for _, t := range tables {
		for _, r := range t.Rows {
			rows = append(rows, r.Text())
		}
	}
	return rows
}

// ScanFlights walks rows from last to first. The first pass only accepts
// rows marked as bound for destination ("-> SYD"); the second accepts any
// row. A row qualifies when it holds both a flight number and a date.
func ScanFlights(rows []string, destination string) Outcome[FlightCandidate] {
	marker := regexp.MustCompile(`(?i)-\s*>\s*` + regexp.QuoteMeta(destination) + `\b`)

	reversed := slices.Clone(rows)
	slices.Reverse(reversed)

	for _, row := range reversed {
		row = strings.Join(strings.Fields(row), " ")
		if !marker.MatchString(row) {
			continue
		}
		if c, ok := matchFlight(row); ok {
			return Resolved(c)
		}
	}

	for _, row := range reversed {
		if c, ok := matchFlight(strings.Join(strings.Fields(row), " ")); ok {
			return Resolved(c)
		}
	}

	return Missed[FlightCandidate]("no flight and date in %d rows", len(rows))
}

func matchFlight(row string) (FlightCandidate, bool) {
	var fm []string
	for _, m := range flightPattern.FindAllStringSubmatch(row, -1) {
		if !notCarriers[m[1]] {
			fm = m
			break
		}
	}
	if fm == nil {
		return FlightCandidate{}, false
	}
	dm := datePattern.FindStringSubmatch(row)
	if dm == nil {
		return FlightCandidate{}, false
	}
	return FlightCandidate{
		FlightNumber: fm[1] + fm[2],
		Date:         dm[1] + " " + dm[2],
	}, true
}
