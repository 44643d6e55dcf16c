package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"smutrack/internal/config"
	apperrors "smutrack/internal/errors"
	"smutrack/internal/infrastructure"
	"smutrack/internal/publisher"
	"smutrack/internal/shipments"
	"smutrack/internal/tracking"
	ws "smutrack/internal/websocket"
)

// Engine runs one tracking request.
type Engine interface {
	Track(ctx context.Context, req tracking.Request, progress tracking.ProgressFunc) (tracking.Result, error)
}

// WebSocketHub interface for WebSocket communication
type WebSocketHub interface {
	Broadcast(ctx context.Context, messageType string, data any)
}

// TrackingService runs tracking requests against the engine, applies the
// results to the shipment board and announces them. At most
// Tracker.MaxConcurrent requests drive a browser at once.
type TrackingService struct {
	engine    Engine
	store     shipments.Store
	hub       WebSocketHub
	publisher publisher.Publisher

	sem            *semaphore.Weighted
	maxConcurrent  int
	requestTimeout time.Duration

	logger *slog.Logger
	now    func() time.Time
}

// NewTrackingService wires the service. hub and pub may be nil.
func NewTrackingService(engine Engine, store shipments.Store, hub WebSocketHub, pub publisher.Publisher, cfg config.TrackerConfig, logger *slog.Logger) *TrackingService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	if pub == nil {
		pub = publisher.Nop{}
	}
	limit := cfg.MaxConcurrent
	if limit < 1 {
		limit = 1
	}

	return &TrackingService{
		engine:         engine,
		store:          store,
		hub:            hub,
		publisher:      pub,
		sem:            semaphore.NewWeighted(int64(limit)),
		maxConcurrent:  limit,
		requestTimeout: cfg.RequestTimeout,
		logger:         logger.With(slog.String("service", "tracking")),
		now:            time.Now,
	}
}

// Track runs an ad-hoc request that is not tied to a board entry.
func (s *TrackingService) Track(ctx context.Context, req tracking.Request) (tracking.Result, error) {
	return s.run(ctx, req)
}

// TrackShipment refreshes the board entry for smu. The entry shows the
// checking status while the engine runs. An unexpected engine failure is
// stored as "system error" before the error is returned.
func (s *TrackingService) TrackShipment(ctx context.Context, smu string) (*shipments.Shipment, tracking.Result, error) {
	sh, err := s.store.GetBySMU(ctx, smu)
	if err != nil {
		return nil, tracking.Result{}, err
	}

	waybill, err := tracking.ParseWaybill(sh.SMU)
	if err != nil {
		return sh, tracking.Result{}, err
	}
	airline, err := tracking.DetectAirline(waybill)
	if err != nil {
		return sh, tracking.Result{}, err
	}

	if sh, err = s.store.MarkChecking(ctx, sh.SMU, airline); err != nil {
		return nil, tracking.Result{}, err
	}
	s.broadcast(ctx, ws.TypeShipmentChanged, sh)

	req := sh.TrackingRequest()
	req.Airline = airline
	res, trackErr := s.run(ctx, req)

	// The board update must land even when the request context is done.
	storeCtx := context.WithoutCancel(ctx)
	if trackErr != nil && apperrors.IsType(trackErr, apperrors.ErrTypeUnexpected) {
		if stored, err := s.store.MarkSystemError(storeCtx, sh.SMU); err == nil {
			sh = stored
		}
		s.broadcast(storeCtx, ws.TypeShipmentChanged, sh)
		return sh, res, trackErr
	}

	updated, err := s.store.ApplyTracking(storeCtx, sh.SMU, res)
	if err != nil {
		return sh, res, err
	}
	s.broadcast(storeCtx, ws.TypeShipmentChanged, updated)
	return updated, res, trackErr
}

// BatchItem is the outcome for one shipment of a TrackAll run.
type BatchItem struct {
	SMU    string `json:"smu"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// BatchSummary reports a TrackAll run.
type BatchSummary struct {
	Total    int           `json:"total"`
	Updated  int           `json:"updated"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
	Items    []BatchItem   `json:"items"`
}

// TrackAll refreshes every shipment on the board. Per-shipment failures are
// reported in the summary; only a failure to list the board is an error.
func (s *TrackingService) TrackAll(ctx context.Context) (BatchSummary, error) {
	start := s.now()
	list, err := s.store.List(ctx, shipments.Filter{})
	if err != nil {
		return BatchSummary{}, err
	}

	items := make([]BatchItem, len(list))
	var mu sync.Mutex
	summary := BatchSummary{Total: len(list)}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for i, sh := range list {
		g.Go(func() error {
			updated, _, err := s.TrackShipment(gctx, sh.SMU)

			item := BatchItem{SMU: sh.SMU}
			if updated != nil {
				item.Status = updated.Status
			}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				item.Error = err.Error()
				summary.Failed++
			} else {
				summary.Updated++
			}
			items[i] = item
			return nil
		})
	}
	_ = g.Wait()

	summary.Items = items
	summary.Duration = s.now().Sub(start)
	s.logger.InfoContext(ctx, "batch tracking finished",
		slog.Int("total", summary.Total),
		slog.Int("updated", summary.Updated),
		slog.Int("failed", summary.Failed),
		slog.Duration("duration", summary.Duration))
	return summary, nil
}

func (s *TrackingService) run(ctx context.Context, req tracking.Request) (tracking.Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	if err := s.sem.Acquire(ctx, 1); err != nil {
		return tracking.FailedResult(tracking.StatusFailed), err
	}
	defer s.sem.Release(1)

	start := s.now()
	res, err := s.engine.Track(ctx, req, func(p tracking.Progress) {
		s.broadcast(ctx, ws.TypeTrackingProgress, p)
	})

	if err != nil {
		s.logger.ErrorContext(ctx, "tracking request failed",
			slog.String("smu", req.SMU),
			slog.String("status", res.Status),
			slog.String("error", err.Error()))
	} else {
		s.logger.InfoContext(ctx, "tracking request finished",
			slog.String("smu", req.SMU),
			slog.String("status", res.Status),
			slog.Bool("eta_resolved", res.ETA.IsResolved()),
			slog.Bool("koli_resolved", res.Koli.IsResolved()),
			slog.Duration("duration", s.now().Sub(start)))
	}

	if err == nil || apperrors.IsType(err, apperrors.ErrTypeUnexpected) {
		s.announce(context.WithoutCancel(ctx), req, res)
	}
	return res, err
}

func (s *TrackingService) announce(ctx context.Context, req tracking.Request, res tracking.Result) {
	airline := req.Airline
	if airline == "" {
		if w, err := tracking.ParseWaybill(req.SMU); err == nil {
			airline, _ = tracking.DetectAirline(w)
		}
	}

	msg := publisher.NewResultMessage(ctx, req.SMU, airline, res, s.now())
	s.broadcast(ctx, ws.TypeTrackingComplete, msg)
	if err := s.publisher.PublishResult(ctx, msg); err != nil {
		s.logger.WarnContext(ctx, "failed to publish tracking result",
			slog.String("smu", req.SMU),
			slog.String("error", err.Error()))
	}
}

func (s *TrackingService) broadcast(ctx context.Context, messageType string, data any) {
	if s.hub != nil {
		s.hub.Broadcast(ctx, messageType, data)
	}
}
