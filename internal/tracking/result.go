package tracking

import (
	json "github.com/goccy/go-json"
)

// Result is what one tracking request learned. ETA and Koli are
// outcomes so callers can tell "not found this time" from a real value;
// unresolved fields must not overwrite previously stored ones.
type Result struct {
	Status string
	ETA    Outcome[ETAResult]
	Koli   Outcome[int]
	Event  Outcome[ExtractedEvent]
	Flight Outcome[FlightCandidate]
}

// FailedResult is the degraded result carrying only a status.
func FailedResult(status string) Result {
	return Result{
		Status: status,
		ETA:    Missed[ETAResult]("not attempted"),
		Koli:   Missed[int]("not attempted"),
		Event:  Missed[ExtractedEvent]("not attempted"),
		Flight: Missed[FlightCandidate]("not attempted"),
	}
}

// EtaBandara is the stored airport ETA, e.g. "10:15 (14 May)".
func (r Result) EtaBandara() (string, bool) {
	eta, ok := r.ETA.Value()
	if !ok {
		return "", false
	}
	return eta.String(), true
}

type resultJSON struct {
	Status     string  `json:"status"`
	EtaBandara *string `json:"eta_bandara"`
	Koli       *int    `json:"koli"`
}

// MarshalJSON writes unresolved fields as null.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Status: r.Status}
	if eta, ok := r.EtaBandara(); ok {
		out.EtaBandara = &eta
	}
	if koli, ok := r.Koli.Value(); ok {
		out.Koli = &koli
	}
	return json.Marshal(out)
}
