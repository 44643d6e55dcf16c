package http

import (
	"context"

	"smutrack/internal/services"
	"smutrack/internal/shipments"
	"smutrack/internal/tracking"
)

// TrackingServiceInterface is the slice of TrackingService the handlers use.
type TrackingServiceInterface interface {
	Track(ctx context.Context, req tracking.Request) (tracking.Result, error)
	TrackShipment(ctx context.Context, smu string) (*shipments.Shipment, tracking.Result, error)
	TrackAll(ctx context.Context) (services.BatchSummary, error)
}

// HealthServiceInterface is the slice of HealthService the handlers use.
type HealthServiceInterface interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	GetDetailedHealth(ctx context.Context) map[string]any
	Version() map[string]any
}
