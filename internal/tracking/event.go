package tracking

import (
	"regexp"
	"slices"
	"strings"
)

const (
	// CodeInfo is used when the text carries no recognizable event code.
	CodeInfo = "INFO"
	// LocationUnknown is used when no location could be extracted.
	LocationUnknown = "UNKNOWN"
)

var (
	eventMarkerPattern = regexp.MustCompile(`(?i)LATEST EVENT:?\s*([A-Z]{3})`)
	locationPattern    = regexp.MustCompile(`(?i)\b(?:at|from)\s+([A-Z]{3})\b`)
	upperCodePattern   = regexp.MustCompile(`\b[A-Z]{3}\b`)

	// Three-letter words that appear in event prose but are never airports.
	structuralWords = []string{"LATEST", "EVENT", "THE", "AND", "FOR"}
)

// ExtractedEvent is the latest milestone read from the portal.
type ExtractedEvent struct {
	Code     string
	Location string
	RawText  string
}

// ParseEvent extracts the event code and location from a "latest event"
// fragment. It never fails: unmatched text yields INFO at UNKNOWN.
func ParseEvent(text string, topo LegTopology) ExtractedEvent {
	raw := strings.Join(strings.Fields(text), " ")
	ev := ExtractedEvent{Code: CodeInfo, Location: LocationUnknown, RawText: raw}
	if raw == "" {
		return ev
	}

	ev.Code = parseEventCode(raw)

	if loc := parseLocation(raw, ev.Code); loc != "" {
		ev.Location = loc
	} else if isOriginFamily(ev.Code) {
		ev.Location = topo.Origin
	}

	return ev
}

func parseEventCode(text string) string {
	if m := eventMarkerPattern.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}

	_, after, found := strings.Cut(text, ":")
	if !found {
		return CodeInfo
	}
	if fields := strings.Fields(after); len(fields) > 0 {
		return strings.ToUpper(fields[0])
	}
	return CodeInfo
}

func parseLocation(text, code string) string {
	if m := locationPattern.FindStringSubmatch(text); m != nil {
		loc := strings.ToUpper(m[1])
		if !slices.Contains(structuralWords, loc) {
			return loc
		}
	}

	for _, candidate := range upperCodePattern.FindAllString(text, -1) {
		if candidate == code || slices.Contains(structuralWords, candidate) {
			continue
		}
		return candidate
	}
	return ""
}
