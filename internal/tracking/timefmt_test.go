package tracking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTime(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"2.30 PM", "14:30"},
		{"12:15 AM", "00:15"},
		{"9:05", "09:05"},
		{"12:40 PM", "12:40"},
		{"11:59 pm", "23:59"},
		{"7.45am", "07:45"},
		{"2.30 P.M.", "14:30"},
		{"6:00 a.m", "06:00"},
		{"14:30", "14:30"},
		{"23.10", "23:10"},
		{"25:00", "25:00"},
		{"13:00 PM", "13:00"},
		{" 10:15 ", "10:15"},
		{"noon", "noon"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTime(tt.raw))
		})
	}
}

func TestFindTimeTokens(t *testing.T) {
	text := `Updated 9:05 AM
GA 714 Denpasar 07:40 - Sydney 15:55
Departs 07:40 Arrives 15:55 (+1) price 1.299 rating 4.5
Updated 9:05 AM`

	assert.Equal(t, []string{"9:05 AM", "07:40", "15:55"}, FindTimeTokens(text))
	assert.Empty(t, FindTimeTokens("no times at all"))
}

func TestSelectTimeToken(t *testing.T) {
	tests := []struct {
		name     string
		tokens   []string
		ordinal  int
		want     string
		resolved bool
	}{
		{"second of two", []string{"9:05", "10:15"}, 2, "10:15", true},
		{"only one", []string{"9:05"}, 2, "9:05", true},
		{"none", nil, 2, "", false},
		{"first when configured", []string{"9:05", "10:15"}, 1, "9:05", true},
		{"third of three", []string{"1:00", "2:00", "3:00"}, 3, "3:00", true},
		{"fewer than ordinal falls back to first", []string{"1:00", "2:00"}, 3, "1:00", true},
		{"invalid ordinal falls back to first", []string{"1:00", "2:00"}, 0, "1:00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SelectTimeToken(tt.tokens, tt.ordinal).Value()
			assert.Equal(t, tt.resolved, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
