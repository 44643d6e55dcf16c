package shipments

import (
	"strings"
	"time"

	"smutrack/internal/tracking"
)

// Shipment is one row of the board.
type Shipment struct {
	ID           string    `json:"id"`
	SMU          string    `json:"smu"`
	CustomerName string    `json:"customer_name"`
	Origin       string    `json:"origin"`
	Transit      string    `json:"transit,omitempty"`
	Destination  string    `json:"destination"`
	Koli         int       `json:"koli"`
	Notes        string    `json:"notes,omitempty"`
	Status       string    `json:"status"`
	EtaBandara   string    `json:"eta_bandara,omitempty"`
	EtaDoor      string    `json:"eta_door,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"last_updated_at"`
}

// Draft holds the user-editable fields of a shipment.
type Draft struct {
	SMU          string
	CustomerName string
	Origin       string
	Transit      string
	Destination  string
	Koli         int
	Notes        string
}

func (d Draft) normalized() Draft {
	d.SMU = strings.ReplaceAll(strings.TrimSpace(d.SMU), " ", "")
	d.CustomerName = strings.TrimSpace(d.CustomerName)
	d.Origin = strings.ToUpper(strings.TrimSpace(d.Origin))
	d.Transit = strings.ToUpper(strings.TrimSpace(d.Transit))
	d.Destination = strings.ToUpper(strings.TrimSpace(d.Destination))
	d.Notes = strings.TrimSpace(d.Notes)
	return d
}

// TrackingRequest is the engine request for this shipment.
func (s Shipment) TrackingRequest() tracking.Request {
	return tracking.Request{
		SMU:         s.SMU,
		Origin:      s.Origin,
		Transit:     s.Transit,
		Destination: s.Destination,
	}
}

// Filter narrows List results. Zero fields match everything.
type Filter struct {
	Destination string
	// StatusPrefix matches statuses starting with it, e.g. "arrived".
	StatusPrefix string
	Since        time.Time
	Limit        int
}

func (f Filter) matches(s *Shipment) bool {
	if f.Destination != "" && !strings.EqualFold(s.Destination, f.Destination) {
		return false
	}
	if f.StatusPrefix != "" && !strings.HasPrefix(strings.ToLower(s.Status), strings.ToLower(f.StatusPrefix)) {
		return false
	}
	if !f.Since.IsZero() && s.CreatedAt.Before(f.Since) {
		return false
	}
	return true
}
