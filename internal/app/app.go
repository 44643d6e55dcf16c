package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"smutrack/internal/browser"
	"smutrack/internal/config"
	apierrors "smutrack/internal/errors"
	"smutrack/internal/exporter"
	"smutrack/internal/infrastructure"
	customMiddleware "smutrack/internal/middleware"
	"smutrack/internal/publisher"
	"smutrack/internal/services"
	"smutrack/internal/shipments"
	"smutrack/internal/tracking"
	handlers "smutrack/internal/transport/http"
	ws "smutrack/internal/websocket"
	"smutrack/pkg/contracts"
)

// Application represents the main application container
type Application struct {
	Config          *config.Config
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	Metrics         *infrastructure.TrackingMetrics
	Launcher        browser.Launcher
	Tracker         *tracking.Tracker
	Board           *shipments.MemoryStore
	WebSocketHub    *ws.Hub
	Publisher       publisher.Publisher
	TrackingService *services.TrackingService
	HealthService   *services.HealthService
	ErrorHandler    *apierrors.ErrorHandler
}

// NewApplication loads configuration and wires the service against a real
// Chrome launcher.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	return New(cfg, logger, nil)
}

// New wires an application from cfg. A nil launcher selects chromedp.
func New(cfg *config.Config, logger *slog.Logger, launcher browser.Launcher) (*Application, error) {
	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Observability), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.NewTrackingMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Launcher:      launcher,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
	}

	if err := a.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()

	return a, nil
}

// initializeServices builds the tracking engine and the services around it
func (a *Application) initializeServices() error {
	cfg := a.Config

	if a.Launcher == nil {
		a.Launcher = browser.NewChromeLauncher(cfg.Browser, a.Logger, a.Metrics)
	}

	portals := map[tracking.Airline]tracking.Portal{
		tracking.AirlineGaruda: tracking.NewGarudaPortal(cfg.Portal, cfg.Tracker.PageSettleTimeout, a.Logger),
	}
	eta := tracking.NewETAEngine(a.Launcher, cfg.Search, a.Logger, a.Metrics)
	a.Tracker = tracking.NewTracker(a.Launcher, portals, eta, cfg.Tracker, a.Logger, a.Metrics)

	a.Board = shipments.NewMemoryStore()
	a.WebSocketHub = ws.NewHub(a.Logger)

	if cfg.Publisher.NATSURL != "" {
		pub, err := publisher.NewNATSPublisher(cfg.Publisher.NATSURL, cfg.Publisher.SubjectPrefix, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect result publisher: %w", err)
		}
		a.Publisher = pub
	} else {
		a.Publisher = publisher.Nop{}
	}

	a.TrackingService = services.NewTrackingService(a.Tracker, a.Board, a.WebSocketHub, a.Publisher, cfg.Tracker, a.Logger)
	a.HealthService = services.NewHealthService(
		contracts.Version,
		contracts.BuildTime,
		a.WebSocketHub,
		a.Board,
		cfg.Publisher.NATSURL,
		a.Logger,
	)

	return nil
}

// setupRouter configures the HTTP router with all routes.
// Order: RequestID → RealIP → OTel → Logger → Recoverer → headers → compress → CORS → rate limit.
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// The upgrade must see the raw ResponseWriter, so /ws sits outside the
	// wrapping middleware.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Handle("/ws", handlers.NewWebSocketHandler(a.WebSocketHub, a.Config.Security.AllowedOrigins, a.Logger))

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.Compress(5))

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				ExposedHeaders: []string{customMiddleware.RequestIDHeader, "Content-Disposition"},
				Logger:         a.Logger,
			}))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	validator := customMiddleware.NewValidator(a.Logger)
	health := handlers.NewHealthHandler(a.HealthService, a.Logger)
	trackingHandler := handlers.NewTrackingHandler(a.TrackingService, validator, a.ErrorHandler, a.Logger)
	shipmentHandler := handlers.NewShipmentHandler(
		a.Board,
		a.TrackingService,
		exporter.NewBoardExporter(a.Logger),
		validator,
		a.ErrorHandler,
		a.Logger,
	)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			r.Mount("/health", health.Routes())
			r.Get("/version", health.Version)
		})

		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.ContentTypeValidator("application/json"))
			r.Use(customMiddleware.Timeout(a.Config.Server.TrackTimeout, a.Logger))
			r.Mount("/track", trackingHandler.Routes())
			r.Mount("/shipments", shipmentHandler.Routes())
		})
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts the hub and the HTTP server. A listen failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.Int("max_concurrent_tracks", a.Config.Tracker.MaxConcurrent))

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()
	a.Publisher.Close()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	return errors.Join(errs...)
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, stop); err != nil {
		return err
	}

	<-ctx.Done()
	a.Logger.Info("Received shutdown signal")

	// The signal context is already done; shutdown gets its own budget.
	stopCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout+5*time.Second)
	defer cancel()
	return a.Stop(stopCtx)
}
