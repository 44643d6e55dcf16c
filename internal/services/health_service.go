package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// ClientCounter reports connected dashboard clients.
type ClientCounter interface {
	ClientCount() int
}

// BoardStats reports shipment board counters.
type BoardStats interface {
	Stats() map[string]int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	hub       ClientCounter
	board     BoardStats
	publisher string
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Version   string         `json:"version"`
	Runtime   map[string]any `json:"runtime,omitempty"`
	Services  map[string]any `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Uptime  string `json:"uptime,omitempty"`
}

// NewHealthService creates a health service. natsURL is empty when
// publishing is disabled.
func NewHealthService(version, buildTime string, hub ClientCounter, board BoardStats, natsURL string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	publisherMode := "disabled"
	if natsURL != "" {
		publisherMode = "nats"
	}

	return &HealthService{
		version:   version,
		buildTime: buildTime,
		hub:       hub,
		board:     board,
		publisher: publisherMode,
		startTime: time.Now(),
		logger:    logger.With(slog.String("service", "health")),
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck returns readiness status
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ready",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]any{
			"websocket": hs.checkWebSocketHealth(),
			"board":     hs.checkBoardHealth(),
			"publisher": ServiceHealth{Status: "ready", Message: hs.publisher},
		},
	}

	for _, service := range status.Services {
		if sh, ok := service.(ServiceHealth); ok && sh.Status != "ready" {
			status.Status = "not_ready"
			break
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    "alive",
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]any{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]any {
	result := map[string]any{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	return result
}

func (hs *HealthService) checkWebSocketHealth() ServiceHealth {
	if hs.hub == nil {
		return ServiceHealth{Status: "not_ready", Message: "websocket hub not initialized"}
	}
	return ServiceHealth{
		Status: "ready",
		Uptime: time.Since(hs.startTime).String(),
	}
}

func (hs *HealthService) checkBoardHealth() ServiceHealth {
	if hs.board == nil {
		return ServiceHealth{Status: "not_ready", Message: "shipment board not initialized"}
	}
	return ServiceHealth{Status: "ready"}
}

// GetDetailedHealth combines the three checks with hub and board counts.
func (hs *HealthService) GetDetailedHealth(ctx context.Context) map[string]any {
	detail := map[string]any{
		"health":    hs.HealthCheck(ctx),
		"readiness": hs.ReadinessCheck(ctx),
		"liveness":  hs.LivenessCheck(ctx),
	}
	if hs.hub != nil {
		detail["websocket_clients"] = hs.hub.ClientCount()
	}
	if hs.board != nil {
		detail["board"] = hs.board.Stats()
	}
	return detail
}
