// Command track runs a single SMU through the tracking engine and prints the
// result as JSON.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"

	"smutrack/internal/browser"
	"smutrack/internal/config"
	"smutrack/internal/infrastructure"
	"smutrack/internal/tracking"
	apiv1 "smutrack/pkg/contracts/api/v1"
)

func main() {
	smu := flag.String("smu", "", "air waybill, e.g. 126-12345678")
	origin := flag.String("origin", "", "origin airport code")
	transit := flag.String("transit", "", "transit airport code (optional)")
	dest := flag.String("dest", "", "destination airport code")
	airline := flag.String("airline", "", "GARUDA | LION (defaults to the SMU prefix)")
	headless := flag.Bool("headless", false, "keep every browser tier headless")
	flag.Parse()

	if *smu == "" || *origin == "" || *dest == "" {
		fmt.Fprintln(os.Stderr, "usage: track -smu 126-12345678 -origin CGK [-transit DPS] -dest SYD")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *headless {
		cfg.Browser.ForceHeadless = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", "error", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	req := tracking.Request{
		SMU:         *smu,
		Origin:      *origin,
		Transit:     *transit,
		Destination: *dest,
	}
	if *airline != "" {
		if req.Airline, err = tracking.ParseAirline(*airline); err != nil {
			logger.Error("Invalid airline", slog.String("error", err.Error()))
			os.Exit(2)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.TrackTimeout)
	defer cancel()

	launcher := browser.NewChromeLauncher(cfg.Browser, logger, nil)
	portals := map[tracking.Airline]tracking.Portal{
		tracking.AirlineGaruda: tracking.NewGarudaPortal(cfg.Portal, cfg.Tracker.PageSettleTimeout, logger),
	}
	eta := tracking.NewETAEngine(launcher, cfg.Search, logger, nil)
	tracker := tracking.NewTracker(launcher, portals, eta, cfg.Tracker, logger, nil)

	res, err := tracker.Track(ctx, req, func(p tracking.Progress) {
		logger.InfoContext(ctx, p.Message,
			slog.String("stage", p.Stage),
			slog.Int("attempt", p.Attempt),
			slog.String("tier", p.Tier))
	})
	if err != nil {
		logger.ErrorContext(ctx, "Tracking failed", slog.String("error", err.Error()))
	}

	out := apiv1.TrackResponse{Status: res.Status}
	if v, ok := res.EtaBandara(); ok {
		out.EtaBandara = &v
	}
	if v, ok := res.Koli.Value(); ok {
		out.Koli = &v
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		logger.Error("Failed to write result", slog.String("error", encErr.Error()))
		os.Exit(1)
	}
	if err != nil && res.Status == "" {
		os.Exit(1)
	}
}
