package tracking

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"smutrack/internal/browser"
	"smutrack/internal/config"
	apperrors "smutrack/internal/errors"
)

// Airline identifies the carrier whose portal tracks a waybill.
type Airline string

const (
	AirlineGaruda Airline = "GARUDA"
	AirlineLion   Airline = "LION"
)

var airlineByPrefix = map[string]Airline{
	"126": AirlineGaruda,
	"888": AirlineGaruda,
	"990": AirlineLion,
	"920": AirlineLion,
	"938": AirlineLion,
}

var waybillPattern = regexp.MustCompile(`^(\d{3})-(\d+)$`)

// Waybill is an SMU split into carrier prefix and serial number.
type Waybill struct {
	Prefix string
	Number string
}

func (w Waybill) String() string { return w.Prefix + "-" + w.Number }

// ParseWaybill splits "126-12345678" into its parts.
func ParseWaybill(smu string) (Waybill, error) {
	m := waybillPattern.FindStringSubmatch(strings.ReplaceAll(strings.TrimSpace(smu), " ", ""))
	if m == nil {
		return Waybill{}, apperrors.NewAppValidationError(
			fmt.Sprintf("waybill %q must look like PPP-NNNNNNNN", smu))
	}
	return Waybill{Prefix: m[1], Number: m[2]}, nil
}

// DetectAirline maps a waybill prefix to its carrier.
func DetectAirline(w Waybill) (Airline, error) {
	if a, ok := airlineByPrefix[w.Prefix]; ok {
		return a, nil
	}
	return "", apperrors.NewUnsupportedError(fmt.Sprintf("unknown airline for prefix %s", w.Prefix)).
		WithContext("prefix", w.Prefix)
}

// ParseAirline accepts a carrier name in any case.
func ParseAirline(name string) (Airline, error) {
	switch a := Airline(strings.ToUpper(strings.TrimSpace(name))); a {
	case AirlineGaruda, AirlineLion:
		return a, nil
	default:
		return "", apperrors.NewUnsupportedError(fmt.Sprintf("unknown airline %q", name))
	}
}

// Portal opens a waybill's detail view on an airline's tracking site.
type Portal interface {
	// Open drives session to the detail view and returns the session that
	// shows it. The caller closes both.
	Open(ctx context.Context, session browser.Session, w Waybill) (browser.Session, error)
	// LatestEventLabel is the text marking the latest event cell.
	LatestEventLabel() string
}

// GarudaPortal drives the Garuda Indonesia cargo tracking site.
type GarudaPortal struct {
	cfg         config.PortalConfig
	pageTimeout time.Duration
	logger      *slog.Logger
}

// NewGarudaPortal creates the portal driver.
func NewGarudaPortal(cfg config.PortalConfig, pageTimeout time.Duration, logger *slog.Logger) *GarudaPortal {
	return &GarudaPortal{
		cfg:         cfg,
		pageTimeout: pageTimeout,
		logger:      logger.With(slog.String("component", "garuda_portal")),
	}
}

func (p *GarudaPortal) LatestEventLabel() string { return p.cfg.LatestEventLabel }

func (p *GarudaPortal) Open(ctx context.Context, session browser.Session, w Waybill) (browser.Session, error) {
	if err := session.Navigate(ctx, p.cfg.GarudaURL, browser.WaitDOMContentLoaded, p.pageTimeout); err != nil {
		return nil, err
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"open tracking tab", func() error { return session.ClickElement(ctx, p.cfg.TrackingTab) }},
		{"select airline code", func() error { return session.SelectOption(ctx, p.cfg.AirlineCodeSelect, w.Prefix) }},
		{"fill waybill number", func() error { return session.FillField(ctx, p.cfg.AWBField, w.Number) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return nil, apperrors.NewNavigationError(step.name, err)
		}
	}

	detail, err := session.AwaitPopup(ctx, func(ctx context.Context) error {
		return session.ClickElement(ctx, p.cfg.TrackButton)
	}, p.pageTimeout)
	if err != nil {
		return nil, apperrors.NewNavigationError("open detail view", err)
	}

	p.logger.DebugContext(ctx, "detail view opened", slog.String("smu", w.String()))
	return detail, nil
}
