package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"smutrack/internal/browser"
	"smutrack/internal/config"
	"smutrack/internal/infrastructure"
)

// AttemptTier is one row of the ETA retry policy.
type AttemptTier struct {
	Name        string
	Visible     bool
	BlockImages bool
	// PreScanWait pauses after navigation so an operator can clear a challenge.
	PreScanWait time.Duration
}

// ETAResult is a resolved arrival time and the flight date it belongs to.
type ETAResult struct {
	Time       string // "HH:MM", 24-hour
	SourceDate string
}

// String renders the stored form, e.g. "10:15 (14 May)".
func (r ETAResult) String() string {
	if r.SourceDate == "" {
		return r.Time
	}
	return fmt.Sprintf("%s (%s)", r.Time, r.SourceDate)
}

// AttemptFunc is told about each attempt before it starts.
type AttemptFunc func(attempt int, tier AttemptTier)

// ETAEngine looks up a flight's arrival time on a search results page,
// escalating through its tiers until one yields a time token.
type ETAEngine struct {
	launcher    browser.Launcher
	tiers       []AttemptTier
	urlTemplate string
	navTimeout  time.Duration
	ordinal     int
	logger      *slog.Logger
	metrics     *infrastructure.TrackingMetrics
}

// NewETAEngine builds an engine from the search configuration.
func NewETAEngine(launcher browser.Launcher, cfg config.SearchConfig, logger *slog.Logger, metrics *infrastructure.TrackingMetrics) *ETAEngine {
	var tiers []AttemptTier
	for _, t := range cfg.AttemptTiers() {
		tiers = append(tiers, AttemptTier{
			Name:        t.Name,
			Visible:     t.Visible,
			BlockImages: t.BlockImages,
			PreScanWait: t.PreScanWait,
		})
	}

	ordinal := cfg.TimeOrdinal
	if ordinal < 1 {
		ordinal = config.DefaultTimeOrdinal
	}

	return &ETAEngine{
		launcher:    launcher,
		tiers:       tiers,
		urlTemplate: cfg.URLTemplate,
		navTimeout:  cfg.NavigationTimeout,
		ordinal:     ordinal,
		logger:      infrastructure.WithComponent(logger, "eta_engine"),
		metrics:     metrics,
	}
}

// Tiers returns the engine's attempt policy.
func (e *ETAEngine) Tiers() []AttemptTier {
	return append([]AttemptTier(nil), e.tiers...)
}

// Query is the search phrase for a flight.
func Query(flight FlightCandidate) string {
	return fmt.Sprintf("%s flight schedule %s", flight.FlightNumber, flight.Date)
}

// Resolve runs the attempt tiers in order and returns the first time found.
// Exhausting every tier is a miss, not an error.
func (e *ETAEngine) Resolve(ctx context.Context, flight FlightCandidate, onAttempt AttemptFunc) Outcome[ETAResult] {
	ctx, span := infrastructure.StartSpan(ctx, "tracking.eta",
		attribute.String("flight", flight.FlightNumber),
		attribute.String("date", flight.Date))
	defer span.End()

	searchURL := fmt.Sprintf(e.urlTemplate, url.QueryEscape(Query(flight)))

	for i, tier := range e.tiers {
		if err := ctx.Err(); err != nil {
			return Failed[ETAResult](err)
		}

		attempt := i + 1
		if onAttempt != nil {
			onAttempt(attempt, tier)
		}

		start := time.Now()
		out := e.attempt(ctx, attempt, tier, searchURL)
		e.metrics.RecordETAAttempt(ctx, tier.Name, out.Kind().String())

		raw, ok := out.Value()
		if !ok {
			e.logger.WarnContext(ctx, "eta attempt missed",
				slog.Int("attempt", attempt),
				slog.String("tier", tier.Name),
				slog.String("reason", out.Reason()),
				slog.Duration("duration", time.Since(start)))
			continue
		}

		result := ETAResult{Time: NormalizeTime(raw), SourceDate: flight.Date}
		e.logger.InfoContext(ctx, "eta resolved",
			slog.Int("attempt", attempt),
			slog.String("tier", tier.Name),
			slog.String("raw", raw),
			slog.String("eta", result.Time),
			slog.Duration("duration", time.Since(start)))
		return Resolved(result)
	}

	return Missed[ETAResult]("no time found after %d attempts", len(e.tiers))
}

// attempt runs one tier in a fresh session and returns the selected raw
// token. Every failure, including a panic, becomes a non-resolved outcome.
func (e *ETAEngine) attempt(ctx context.Context, n int, tier AttemptTier, searchURL string) (out Outcome[string]) {
	ctx, span := infrastructure.StartSpan(ctx, "tracking.eta.attempt",
		attribute.Int("attempt", n),
		attribute.String("tier", tier.Name),
		attribute.Bool("visible", tier.Visible))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			out = Failed[string](fmt.Errorf("attempt panicked: %v", r))
		}
	}()

	session, err := e.launcher.Launch(ctx, browser.Options{
		Visible:     tier.Visible,
		BlockImages: tier.BlockImages,
	})
	if err != nil {
		infrastructure.RecordError(ctx, err)
		return Failed[string](err)
	}
	defer session.Close()

	e.logger.DebugContext(ctx, "eta attempt started",
		slog.Int("attempt", n),
		slog.String("tier", tier.Name),
		slog.Bool("visible", tier.Visible))

	if err := session.Navigate(ctx, searchURL, browser.WaitDOMContentLoaded, e.navTimeout); err != nil {
		infrastructure.RecordError(ctx, err)
		return Failed[string](err)
	}

	if tier.PreScanWait > 0 {
		e.logger.InfoContext(ctx, "waiting for operator on visible browser",
			slog.Int("attempt", n),
			slog.Duration("wait", tier.PreScanWait))
		if err := session.Wait(ctx, tier.PreScanWait); err != nil {
			return Failed[string](err)
		}
	}

	text, err := session.ExtractVisibleText(ctx, "body")
	if err != nil {
		return Failed[string](err)
	}

	tokens := FindTimeTokens(text)
	e.logger.DebugContext(ctx, "time tokens found",
		slog.Int("attempt", n),
		slog.Any("tokens", tokens))

	return SelectTimeToken(tokens, e.ordinal)
}
