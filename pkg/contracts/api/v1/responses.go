package api

// TrackResponse reports one tracking run. Unresolved fields are null.
type TrackResponse struct {
	Status     string  `json:"status"`
	EtaBandara *string `json:"eta_bandara"`
	Koli       *int    `json:"koli"`
}

// ListResponse wraps a collection with its size.
type ListResponse[T any] struct {
	Items []T `json:"items"`
	Count int `json:"count"`
}

// NewListResponse never returns a null items array.
func NewListResponse[T any](items []T) ListResponse[T] {
	if items == nil {
		items = []T{}
	}
	return ListResponse[T]{Items: items, Count: len(items)}
}

// ShipmentTrackResponse pairs the updated shipment with the run result.
type ShipmentTrackResponse[S any] struct {
	Shipment S             `json:"shipment"`
	Result   TrackResponse `json:"result"`
}
