package browser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseTables reads every <table> in an HTML fragment. Rows of nested
// tables belong only to their innermost table.
func ParseTables(html string) ([]Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var tables []Table
	doc.Find("table").Each(func(_ int, tbl *goquery.Selection) {
		var table Table
		tbl.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			if !tr.Closest("table").IsSelection(tbl) {
				return
			}

			row := Row{Header: true}
			tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
				if !cell.Is("th") {
					row.Header = false
				}
				row.Cells = append(row.Cells, cleanText(cell.Text()))
			})
			if len(row.Cells) == 0 {
				return
			}
			table.Rows = append(table.Rows, row)
		})
		tables = append(tables, table)
	})

	return tables, nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
