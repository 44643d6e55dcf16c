package tracking

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "smutrack/internal/errors"
)

var airportCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// LegTopology is the origin, optional transit and destination of a shipment.
type LegTopology struct {
	Origin      string
	Transit     string // empty when the shipment flies direct
	Destination string
}

// NewLegTopology normalizes the codes to upper case and validates them.
func NewLegTopology(origin, transit, destination string) (LegTopology, error) {
	t := LegTopology{
		Origin:      normalizeCode(origin),
		Transit:     normalizeCode(transit),
		Destination: normalizeCode(destination),
	}

	for _, leg := range []struct{ name, code string }{
		{"origin", t.Origin},
		{"destination", t.Destination},
	} {
		if !airportCodePattern.MatchString(leg.code) {
			return LegTopology{}, apperrors.NewAppValidationError(
				fmt.Sprintf("%s must be a 3-letter airport code, got %q", leg.name, leg.code))
		}
	}
	if t.Transit != "" && !airportCodePattern.MatchString(t.Transit) {
		return LegTopology{}, apperrors.NewAppValidationError(
			fmt.Sprintf("transit must be a 3-letter airport code, got %q", t.Transit))
	}

	if t.Origin == t.Destination {
		return LegTopology{}, apperrors.NewAppValidationError("origin and destination must differ")
	}
	if t.Transit != "" && (t.Transit == t.Origin || t.Transit == t.Destination) {
		return LegTopology{}, apperrors.NewAppValidationError("transit must differ from origin and destination")
	}

	return t, nil
}

// HasTransit reports whether the route has a transit stop.
func (t LegTopology) HasTransit() bool { return t.Transit != "" }

// NextHop is the first stop after the origin.
func (t LegTopology) NextHop() string {
	if t.HasTransit() {
		return t.Transit
	}
	return t.Destination
}

func (t LegTopology) String() string {
	if t.HasTransit() {
		return t.Origin + "-" + t.Transit + "-" + t.Destination
	}
	return t.Origin + "-" + t.Destination
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
