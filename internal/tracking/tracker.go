package tracking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"smutrack/internal/browser"
	"smutrack/internal/config"
	apperrors "smutrack/internal/errors"
	"smutrack/internal/infrastructure"
)

// Request identifies the shipment to track.
type Request struct {
	// Airline may be empty, in which case it is derived from the SMU prefix.
	Airline     Airline
	SMU         string
	Origin      string
	Transit     string
	Destination string
}

// Progress stages reported while a request runs.
const (
	StagePortal = "portal"
	StageDetail = "detail"
	StageETA    = "eta"
	StageDone   = "done"
)

// Progress is one step of a running request.
type Progress struct {
	SMU     string `json:"smu"`
	Stage   string `json:"stage"`
	Attempt int    `json:"attempt,omitempty"`
	Tier    string `json:"tier,omitempty"`
	Message string `json:"message"`
}

// ProgressFunc receives progress updates; it must not block.
type ProgressFunc func(Progress)

// Tracker runs tracking requests. It holds no per-request state and is
// safe for concurrent use; every request owns its own sessions.
type Tracker struct {
	launcher browser.Launcher
	portals  map[Airline]Portal
	eta      *ETAEngine
	cfg      config.TrackerConfig
	logger   *slog.Logger
	metrics  *infrastructure.TrackingMetrics
}

// NewTracker wires the engine. Airlines without a portal resolve to
// StatusFailed without opening a browser.
func NewTracker(launcher browser.Launcher, portals map[Airline]Portal, eta *ETAEngine, cfg config.TrackerConfig, logger *slog.Logger, metrics *infrastructure.TrackingMetrics) *Tracker {
	return &Tracker{
		launcher: launcher,
		portals:  portals,
		eta:      eta,
		cfg:      cfg,
		logger:   infrastructure.WithComponent(logger, "tracker"),
		metrics:  metrics,
	}
}

// Track runs one request. Scraping misses never produce an error; the
// returned error is non-nil only for invalid input or an unexpected panic,
// and in the latter case the result already carries StatusSystemError.
func (t *Tracker) Track(ctx context.Context, req Request, progress ProgressFunc) (res Result, err error) {
	if progress == nil {
		progress = func(Progress) {}
	}

	waybill, err := ParseWaybill(req.SMU)
	if err != nil {
		return FailedResult(StatusFailed), err
	}
	topo, err := NewLegTopology(req.Origin, req.Transit, req.Destination)
	if err != nil {
		return FailedResult(StatusFailed), err
	}
	airline := req.Airline
	if airline == "" {
		if airline, err = DetectAirline(waybill); err != nil {
			return FailedResult(StatusFailed), err
		}
	}

	ctx = infrastructure.WithWaybill(ctx, waybill.String())
	ctx, span := infrastructure.StartSpan(ctx, "tracking.track",
		attribute.String("smu", waybill.String()),
		attribute.String("airline", string(airline)),
		attribute.String("route", topo.String()))
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t.logger.ErrorContext(ctx, "tracking panicked", slog.Any("panic", r))
			res = FailedResult(StatusSystemError)
			err = apperrors.NewUnexpectedError("tracking panicked", fmt.Errorf("%v", r)).
				WithContext("smu", waybill.String())
			infrastructure.RecordError(ctx, err)
		}
		t.metrics.RecordTracking(ctx, string(airline), classify(res, err), time.Since(start))
		progress(Progress{SMU: waybill.String(), Stage: StageDone, Message: res.Status})
	}()

	portal, ok := t.portals[airline]
	if !ok {
		t.logger.WarnContext(ctx, "no tracking portal for airline", slog.String("airline", string(airline)))
		return FailedResult(StatusFailed), nil
	}

	t.logger.InfoContext(ctx, "tracking started",
		slog.String("airline", string(airline)),
		slog.String("route", topo.String()))

	return t.run(ctx, portal, waybill, topo, progress), nil
}

func (t *Tracker) run(ctx context.Context, portal Portal, w Waybill, topo LegTopology, progress ProgressFunc) Result {
	res := FailedResult(StatusFailed)

	progress(Progress{SMU: w.String(), Stage: StagePortal, Message: "opening tracking portal"})
	session, err := t.launcher.Launch(ctx, browser.Options{BlockImages: true, BlockStyles: true})
	if err != nil {
		t.logger.WarnContext(ctx, "browser launch failed", slog.String("error", err.Error()))
		return res
	}
	defer session.Close()

	detail, err := portal.Open(ctx, session, w)
	if err != nil {
		t.logger.WarnContext(ctx, "portal did not reach the detail view", slog.String("error", err.Error()))
		return res
	}
	defer detail.Close()

	progress(Progress{SMU: w.String(), Stage: StageDetail, Message: "reading detail view"})
	if err := detail.WaitLoaded(ctx, t.cfg.PageSettleTimeout); err != nil {
		t.logger.WarnContext(ctx, "detail view still loading", slog.String("error", err.Error()))
	}

	label := portal.LatestEventLabel()
	if text, err := detail.FindElementContainingText(ctx, "td", label, t.cfg.LatestEventTimeout); err == nil {
		ev := ParseEvent(text, topo)
		res.Event = Resolved(ev)
		res.Status = Decide(ev, topo)
		t.logger.InfoContext(ctx, "latest event parsed",
			slog.String("code", ev.Code),
			slog.String("location", ev.Location),
			slog.String("status", res.Status))
	} else {
		res.Event = missOrFail[ExtractedEvent](err, "no %q cell", label)
		t.logger.WarnContext(ctx, "latest event missing", slog.String("reason", res.Event.Reason()))
	}

	headers := t.cfg.PieceHeaders
	if len(headers) > 0 && !t.awaitPieceHeader(ctx, detail, headers[0]) {
		t.logger.DebugContext(ctx, "pieces header not rendered", slog.String("header", headers[0]))
	}

	tables, err := detail.ReadTables(ctx, "")
	if err != nil {
		res.Koli = Failed[int](err)
		res.Flight = Failed[FlightCandidate](err)
		t.logger.WarnContext(ctx, "tables unreadable", slog.String("error", err.Error()))
		return res
	}

	res.Koli = ExtractKeyedInt(tables, headers...)
	res.Flight = ScanFlights(TableRowTexts(tables), topo.Destination)

	flight, ok := res.Flight.Value()
	if !ok {
		res.ETA = Missed[ETAResult]("no flight candidate: %s", res.Flight.Reason())
		t.logger.InfoContext(ctx, "no flight candidate", slog.String("reason", res.Flight.Reason()))
		return res
	}

	res.ETA = t.eta.Resolve(ctx, flight, func(attempt int, tier AttemptTier) {
		progress(Progress{
			SMU:     w.String(),
			Stage:   StageETA,
			Attempt: attempt,
			Tier:    tier.Name,
			Message: fmt.Sprintf("searching arrival time for %s", flight.FlightNumber),
		})
	})

	return res
}

// pieceHeaderTags are the cells a piece-count header may render in.
const pieceHeaderTags = "th|td"

// awaitPieceHeader waits for the piece-count header, which may render after
// the event cell. A miss only means the table never showed up.
func (t *Tracker) awaitPieceHeader(ctx context.Context, detail browser.Session, label string) bool {
	_, err := detail.FindElementContainingText(ctx, pieceHeaderTags, label, t.cfg.PiecesTimeout)
	return err == nil
}

func missOrFail[T any](err error, format string, args ...any) Outcome[T] {
	if errors.Is(err, browser.ErrElementNotFound) {
		return Missed[T](format, args...)
	}
	return Failed[T](err)
}

// classify labels a finished request for metrics.
func classify(res Result, err error) string {
	switch {
	case err != nil:
		return "error"
	case res.Status == StatusFailed:
		return "failed"
	case res.ETA.IsResolved() && res.Koli.IsResolved():
		return "complete"
	default:
		return "partial"
	}
}
