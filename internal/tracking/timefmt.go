package tracking

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	timeTokenPattern = regexp.MustCompile(`\b\d{1,2}[.:]\d{2}(?:\s?[APap]\.?[Mm]\.?)?\b`)
	timeShapePattern = regexp.MustCompile(`^(\d{1,2})[.:](\d{2})\s?(?:([AaPp])\.?[Mm]\.?)?$`)
)

// FindTimeTokens returns the distinct time-of-day tokens in text, in the
// order they first appear.
func FindTimeTokens(text string) []string {
	var tokens []string
	seen := make(map[string]struct{})
	for _, tok := range timeTokenPattern.FindAllString(text, -1) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}
	return tokens
}

// SelectTimeToken picks the token at the 1-based ordinal, falling back to
// the first token when there are fewer.
func SelectTimeToken(tokens []string, ordinal int) Outcome[string] {
	switch {
	case len(tokens) == 0:
		return Missed[string]("no time tokens")
	case ordinal >= 1 && len(tokens) >= ordinal:
		return Resolved(tokens[ordinal-1])
	default:
		return Resolved(tokens[0])
	}
}

// NormalizeTime converts a scraped time token to 24-hour "HH:MM". Tokens
// that do not parse are returned trimmed but otherwise unchanged.
func NormalizeTime(raw string) string {
	token := strings.TrimSpace(raw)
	m := timeShapePattern.FindStringSubmatch(token)
	if m == nil {
		return token
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return token
	}
	minute := m[2]
	colon := m[1] + ":" + minute

	switch strings.ToUpper(m[3]) {
	case "P":
		if hour > 12 {
			return colon
		}
		if hour != 12 {
			hour += 12
		}
	case "A":
		if hour > 12 {
			return colon
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour >= 24 {
			return colon
		}
	}

	return fmt.Sprintf("%02d:%s", hour, minute)
}
