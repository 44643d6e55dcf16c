package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"smutrack/internal/browser"
)

func TestScanFlights(t *testing.T) {
	tests := []struct {
		name     string
		rows     []string
		dest     string
		want     FlightCandidate
		resolved bool
	}{
		{
			name: "marked row wins over later rows",
			rows: []string{
				"Flight Date Segment",
				"GA123 14 May CGK -> SYD",
				"QF 0456 16 May SYD -> MEL",
				"QF 0457 17 May MEL -> PER",
			},
			dest:     "SYD",
			want:     FlightCandidate{FlightNumber: "GA123", Date: "14 May"},
			resolved: true,
		},
		{
			name: "latest marked row wins",
			rows: []string{
				"GA 402 14 May CGK -> SYD",
				"GA 714 15 May DPS -> SYD",
			},
			dest:     "SYD",
			want:     FlightCandidate{FlightNumber: "GA714", Date: "15 May"},
			resolved: true,
		},
		{
			name: "hyphenated flight number",
			rows: []string{"GA - 402 / 03 Jun / CGK->SYD"},
			dest: "SYD",
			want: FlightCandidate{FlightNumber: "GA402", Date: "03 Jun"},

			resolved: true,
		},
		{
			name: "falls back to last row with flight and date",
			rows: []string{
				"GA 402 14 May CGK DPS",
				"GA 714 15 May DPS MEL",
				"Remarks: none",
			},
			dest:     "SYD",
			want:     FlightCandidate{FlightNumber: "GA714", Date: "15 May"},
			resolved: true,
		},
		{
			name: "marked row without date is skipped",
			rows: []string{
				"GA 402 14 May CGK DPS",
				"GA 714 DPS -> SYD",
			},
			dest:     "SYD",
			want:     FlightCandidate{FlightNumber: "GA402", Date: "14 May"},
			resolved: true,
		},
		{
			name: "whitespace collapsed",
			rows: []string{"GA\n123\t 2  Dec   CGK\n->  SYD"},
			dest: "SYD",
			want: FlightCandidate{FlightNumber: "GA123", Date: "2 Dec"},

			resolved: true,
		},
		{
			name: "waybill numbers are not flights",
			rows: []string{"126-12345678 14 May"},
			dest: "SYD",
		},
		{
			name: "unit and label tokens are not flights",
			rows: []string{
				"Received 14 MAY 2024 at CGK ID 7001",
				"Weight KG 1500 14 May",
			},
			dest: "SYD",
		},
		{
			name:     "designator after a unit token",
			rows:     []string{"KG 1500 GA 123 14 May DPS -> SYD"},
			dest:     "SYD",
			want:     FlightCandidate{FlightNumber: "GA123", Date: "14 May"},
			resolved: true,
		},
		{
			name: "no candidates",
			rows: []string{"Pieces 7", "Weight 50"},
			dest: "SYD",
		},
		{
			name: "empty",
			dest: "SYD",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := ScanFlights(tt.rows, tt.dest)
			got, ok := out.Value()
			assert.Equal(t, tt.resolved, ok, out.Reason())
			if tt.resolved {
				assert.Equal(t, tt.want, got)
			} else {
				assert.Equal(t, KindMiss, out.Kind())
			}
		})
	}
}

func TestScanFlightsDoesNotReorderInput(t *testing.T) {
	rows := []string{"a", "b", "c"}
	ScanFlights(rows, "SYD")
	assert.Equal(t, []string{"a", "b", "c"}, rows)
}

func TestTableRowTexts(t *testing.T) {
	tables := []browser.Table{
		{Rows: []browser.Row{{Cells: []string{"GA 402", "14 May"}}}},
		{Rows: []browser.Row{{Cells: []string{"Pieces"}}, {Cells: []string{"7"}}}},
	}
	assert.Equal(t, []string{"GA 402 14 May", "Pieces", "7"}, TableRowTexts(tables))
}
