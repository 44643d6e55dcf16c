package exporter

import (
	"strconv"
	"time"
)

const timeLayout = "2006-01-02 15:04"

func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatTime leaves the zero time blank.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timeLayout)
}
