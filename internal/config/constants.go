package config

import "time"

// Application constants for the waybill tracking service
const (
	// Application Info
	AppName    = "SMU Track"
	AppVersion = "1.2.0"

	// Env var namespace
	EnvPrefix = "SMUTRACK"

	// Tracking portal and search timeouts
	DefaultPageSettleTimeout  = 20 * time.Second
	DefaultLatestEventTimeout = 6 * time.Second
	DefaultPiecesTimeout      = 2 * time.Second
	DefaultSearchNavTimeout   = 20 * time.Second
	DefaultRescueWait         = 20 * time.Second
	DefaultRequestTimeout     = 5 * time.Minute

	// The search results page usually leads with a banner timestamp, so the
	// second distinct time token is taken by default.
	DefaultTimeOrdinal = 2

	DefaultMaxConcurrentTracks = 2

	// Garuda Indonesia cargo portal
	GarudaPortalURL = "https://icms.garuda-indonesia.com/Account/Login.cshtml"

	// Search surface; %s receives the query-escaped search terms
	DefaultSearchURLTemplate = "https://www.google.com/search?q=%s&hl=en"

	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// API Endpoints
	APIBasePath       = "/api"
	HealthEndpoint    = "/api/health"
	MetricsEndpoint   = "/metrics"
	WebSocketEndpoint = "/ws"
)
