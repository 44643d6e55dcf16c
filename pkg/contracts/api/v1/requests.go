// Package api contains the HTTP contract of the SMU tracking service.
// Version v1 represents the current stable API version.
package api

// TrackRequest asks for a one-off tracking run. Airline may be empty, in
// which case it is derived from the SMU prefix.
type TrackRequest struct {
	Airline     string `json:"airline,omitempty" validate:"omitempty,max=16"`
	SMU         string `json:"smu" validate:"required,waybill"`
	Origin      string `json:"origin" validate:"required,iata"`
	Transit     string `json:"transit,omitempty" validate:"omitempty,iata"`
	Destination string `json:"destination" validate:"required,iata"`
}

// ShipmentRequest creates or replaces a shipment on the board.
type ShipmentRequest struct {
	SMU          string `json:"smu" validate:"required,waybill"`
	CustomerName string `json:"customer_name" validate:"max=128"`
	Origin       string `json:"origin" validate:"required,iata"`
	Transit      string `json:"transit,omitempty" validate:"omitempty,iata"`
	Destination  string `json:"destination" validate:"required,iata"`
	Koli         int    `json:"koli" validate:"gte=0"`
	Notes        string `json:"notes,omitempty" validate:"max=1024"`
}

// ListShipmentsQuery holds the board filters accepted as query parameters.
type ListShipmentsQuery struct {
	Destination string `query:"destination"`
	Status      string `query:"status"`
	Since       string `query:"since"`
	Limit       int    `query:"limit"`
}
