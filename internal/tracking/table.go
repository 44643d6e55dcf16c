package tracking

import (
	"regexp"
	"strconv"
	"strings"

	"smutrack/internal/browser"
)

var numberPattern = regexp.MustCompile(`\d+`)

// FindKeyedCell locates the column headed by one of labels and returns the
// matching cell of the first data row below that header. Header cells are
// matched exactly, ignoring case and surrounding space, so the column can
// move without breaking the lookup.
func FindKeyedCell(tables []browser.Table, labels ...string) Outcome[string] {
	miss := Missed[string]("no header matching %s", strings.Join(labels, "/"))
	for _, table := range tables {
		for i, row := range table.Rows {
			col := headerIndex(row.Cells, labels)
			if col < 0 {
				continue
			}

			// A header without a usable row below it may be a layout table;
			// a later table can still hold the value.
			data, ok := firstDataRow(table.Rows[i+1:])
			if !ok {
				miss = Missed[string]("no data row below %q header", row.Cells[col])
				break
			}
			if col >= len(data.Cells) {
				miss = Missed[string]("data row has no column %d for %q", col, row.Cells[col])
				break
			}
			return Resolved(data.Cells[col])
		}
	}
	return miss
}

// ExtractKeyedInt reads the first integer in the keyed cell.
func ExtractKeyedInt(tables []browser.Table, labels ...string) Outcome[int] {
	cell := FindKeyedCell(tables, labels...)
	text, ok := cell.Value()
	if !ok {
		return Missed[int]("%s", cell.Reason())
	}

	digits := numberPattern.FindString(text)
	if digits == "" {
		return Missed[int]("no number in cell %q", text)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return Missed[int]("cell %q: %v", text, err)
	}
	return Resolved(n)
}

func headerIndex(cells, labels []string) int {
	for i, cell := range cells {
		cell = strings.TrimSpace(cell)
		for _, label := range labels {
			if strings.EqualFold(cell, label) {
				return i
			}
		}
	}
	return -1
}

func firstDataRow(rows []browser.Row) (browser.Row, bool) {
	for _, row := range rows {
		if !row.Header {
			return row, true
		}
	}
	return browser.Row{}, false
}
