package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "smutrack/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server" envconfig:"SERVER"`
	Security      SecurityConfig      `yaml:"security" envconfig:"SECURITY"`
	Logging       LoggingConfig       `yaml:"logging" envconfig:"LOGGING"`
	Tracker       TrackerConfig       `yaml:"tracker" envconfig:"TRACKER"`
	Portal        PortalConfig        `yaml:"portal" envconfig:"PORTAL"`
	Search        SearchConfig        `yaml:"search" envconfig:"SEARCH"`
	Browser       BrowserConfig       `yaml:"browser" envconfig:"BROWSER"`
	Publisher     PublisherConfig     `yaml:"publisher" envconfig:"PUBLISHER"`
	Observability ObservabilityConfig `yaml:"observability" envconfig:"OBSERVABILITY"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	// TrackTimeout bounds the HTTP routes that drive a browser.
	TrackTimeout time.Duration `yaml:"track_timeout" envconfig:"TRACK_TIMEOUT"`
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS"`
	EnableCORS     bool            `yaml:"enable_cors" envconfig:"ENABLE_CORS"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `yaml:"rps" envconfig:"RPS"`
	Burst   int     `yaml:"burst" envconfig:"BURST"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TrackerConfig holds the per-step waits of a tracking request.
// None of these compose into an end-to-end deadline; RequestTimeout is
// imposed by the service layer around the whole request.
type TrackerConfig struct {
	PageSettleTimeout  time.Duration `yaml:"page_settle_timeout" envconfig:"PAGE_SETTLE_TIMEOUT"`
	LatestEventTimeout time.Duration `yaml:"latest_event_timeout" envconfig:"LATEST_EVENT_TIMEOUT"`
	PiecesTimeout      time.Duration `yaml:"pieces_timeout" envconfig:"PIECES_TIMEOUT"`
	RequestTimeout     time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT"`
	MaxConcurrent      int           `yaml:"max_concurrent" envconfig:"MAX_CONCURRENT"`
	PieceHeaders       []string      `yaml:"piece_headers" envconfig:"PIECE_HEADERS"`
}

// PortalConfig describes the airline tracking portal markup.
type PortalConfig struct {
	GarudaURL         string `yaml:"garuda_url" envconfig:"GARUDA_URL"`
	TrackingTab       string `yaml:"tracking_tab" envconfig:"TRACKING_TAB"`
	AirlineCodeSelect string `yaml:"airline_code_select" envconfig:"AIRLINE_CODE_SELECT"`
	AWBField          string `yaml:"awb_field" envconfig:"AWB_FIELD"`
	TrackButton       string `yaml:"track_button" envconfig:"TRACK_BUTTON"`
	LatestEventLabel  string `yaml:"latest_event_label" envconfig:"LATEST_EVENT_LABEL"`
}

// SearchConfig drives the ETA sub-resolver.
type SearchConfig struct {
	URLTemplate       string        `yaml:"url_template" envconfig:"URL_TEMPLATE"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" envconfig:"NAVIGATION_TIMEOUT"`
	TimeOrdinal       int           `yaml:"time_ordinal" envconfig:"TIME_ORDINAL"`
	RescueWait        time.Duration `yaml:"rescue_wait" envconfig:"RESCUE_WAIT"`
	Tiers             []TierConfig  `yaml:"tiers" ignored:"true"`
}

// TierConfig is one row of the ETA attempt policy.
type TierConfig struct {
	Name        string        `yaml:"name"`
	Visible     bool          `yaml:"visible"`
	BlockImages bool          `yaml:"block_images"`
	PreScanWait time.Duration `yaml:"pre_scan_wait"`
}

// BrowserConfig contains chromedp allocator settings
type BrowserConfig struct {
	ExecPath  string `yaml:"exec_path" envconfig:"EXEC_PATH"`
	UserAgent string `yaml:"user_agent" envconfig:"USER_AGENT"`
	NoSandbox bool   `yaml:"no_sandbox" envconfig:"NO_SANDBOX"`
	// ForceHeadless keeps rescue tiers headless on hosts without a display.
	ForceHeadless bool `yaml:"force_headless" envconfig:"FORCE_HEADLESS"`
}

// PublisherConfig configures the NATS result publisher. Empty URL disables it.
type PublisherConfig struct {
	NATSURL       string `yaml:"nats_url" envconfig:"NATS_URL"`
	SubjectPrefix string `yaml:"subject_prefix" envconfig:"SUBJECT_PREFIX"`
}

// ObservabilityConfig selects OpenTelemetry exporters
type ObservabilityConfig struct {
	Environment    string  `yaml:"environment" envconfig:"ENVIRONMENT"`
	TraceExporter  string  `yaml:"trace_exporter" envconfig:"TRACE_EXPORTER"`
	MetricExporter string  `yaml:"metric_exporter" envconfig:"METRIC_EXPORTER"`
	SampleRatio    float64 `yaml:"sample_ratio" envconfig:"SAMPLE_RATIO"`
}

// Load builds the configuration from defaults, an optional YAML file and
// the environment, in increasing order of precedence.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, apperrors.NewConfigError("failed to load config from file "+configFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("failed to load config from env", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, apperrors.NewConfigError("config validation failed", err)
	}

	return cfg, nil
}

// loadFromFile overlays the YAML file onto cfg; absent keys keep their value.
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// AttemptTiers returns the configured ETA attempt policy, or the default
// stealth, stealth, rescue sequence.
func (s SearchConfig) AttemptTiers() []TierConfig {
	if len(s.Tiers) > 0 {
		return s.Tiers
	}
	return []TierConfig{
		{Name: "stealth", BlockImages: true},
		{Name: "stealth", BlockImages: true},
		{Name: "rescue", Visible: true, PreScanWait: s.RescueWait},
	}
}

// validate validates the configuration
func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Tracker.PageSettleTimeout <= 0 || c.Tracker.LatestEventTimeout <= 0 || c.Tracker.PiecesTimeout <= 0 {
		return fmt.Errorf("tracker timeouts must be positive")
	}

	if c.Tracker.MaxConcurrent < 1 {
		return fmt.Errorf("tracker max concurrent must be at least 1, got %d", c.Tracker.MaxConcurrent)
	}

	if c.Search.NavigationTimeout <= 0 {
		return fmt.Errorf("search navigation timeout must be positive")
	}

	if c.Search.TimeOrdinal < 1 {
		return fmt.Errorf("search time ordinal must be at least 1, got %d", c.Search.TimeOrdinal)
	}

	if c.Search.RescueWait < 0 {
		return fmt.Errorf("search rescue wait must not be negative")
	}

	for i, tier := range c.Search.AttemptTiers() {
		if tier.PreScanWait < 0 {
			return fmt.Errorf("search tier %d (%s): pre-scan wait must not be negative", i, tier.Name)
		}
	}

	if c.Portal.GarudaURL == "" {
		return fmt.Errorf("portal garuda url is required")
	}

	if c.Logging.Format != "json" {
		c.Logging.Format = "json"
	}

	if c.Logging.FilePath == "" {
		c.Logging.FilePath = "logs/smutrack.log"
	}

	return nil
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Minute,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			TrackTimeout:    10 * time.Minute,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"*"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     20,
				Burst:   10,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: "logs/smutrack.log",
		},
		Tracker: TrackerConfig{
			PageSettleTimeout:  DefaultPageSettleTimeout,
			LatestEventTimeout: DefaultLatestEventTimeout,
			PiecesTimeout:      DefaultPiecesTimeout,
			RequestTimeout:     DefaultRequestTimeout,
			MaxConcurrent:      DefaultMaxConcurrentTracks,
			PieceHeaders:       []string{"Pieces", "Pcs"},
		},
		Portal: PortalConfig{
			GarudaURL:         GarudaPortalURL,
			TrackingTab:       `//a[normalize-space(.)='Tracking']`,
			AirlineCodeSelect: "#Text_AirlineCode",
			AWBField:          "#AWBNo",
			TrackButton:       `//button[normalize-space(.)='Track'] | //input[@value='Track']`,
			LatestEventLabel:  "LATEST EVENT",
		},
		Search: SearchConfig{
			URLTemplate:       DefaultSearchURLTemplate,
			NavigationTimeout: DefaultSearchNavTimeout,
			TimeOrdinal:       DefaultTimeOrdinal,
			RescueWait:        DefaultRescueWait,
		},
		Browser: BrowserConfig{
			UserAgent: DefaultUserAgent,
			NoSandbox: true,
		},
		Publisher: PublisherConfig{
			SubjectPrefix: "smutrack",
		},
		Observability: ObservabilityConfig{
			Environment:    "development",
			TraceExporter:  "none",
			MetricExporter: "prometheus",
			SampleRatio:    1.0,
		},
	}
}
