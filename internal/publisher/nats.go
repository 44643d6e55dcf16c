// Package publisher announces finished tracking runs on NATS.
package publisher

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"smutrack/internal/infrastructure"
	"smutrack/internal/tracking"
)

// Publisher sends tracking outcomes to downstream consumers.
type Publisher interface {
	PublishResult(ctx context.Context, msg ResultMessage) error
	Close()
}

// ResultMessage is the payload published for every finished run.
type ResultMessage struct {
	SMU        string    `json:"smu"`
	Airline    string    `json:"airline"`
	Status     string    `json:"status"`
	EtaBandara *string   `json:"eta_bandara"`
	Koli       *int      `json:"koli"`
	TraceID    string    `json:"trace_id,omitempty"`
	TrackedAt  time.Time `json:"tracked_at"`
}

// NewResultMessage builds the payload for res. Unresolved fields are null.
func NewResultMessage(ctx context.Context, smu string, airline tracking.Airline, res tracking.Result, at time.Time) ResultMessage {
	msg := ResultMessage{
		SMU:       smu,
		Airline:   string(airline),
		Status:    res.Status,
		TraceID:   infrastructure.GetTraceID(ctx),
		TrackedAt: at.UTC(),
	}
	if eta, ok := res.EtaBandara(); ok {
		msg.EtaBandara = &eta
	}
	if koli, ok := res.Koli.Value(); ok {
		msg.Koli = &koli
	}
	return msg
}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
	Close()
}

// NATSPublisher publishes to "<prefix>.tracking.<smu>".
type NATSPublisher struct {
	nc     conn
	prefix string
	logger *slog.Logger
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, prefix string, logger *slog.Logger) (*NATSPublisher, error) {
	logger = infrastructure.WithComponent(logger, "nats_publisher")
	nc, err := nats.Connect(url,
		nats.Name("smutrack"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("nats reconnected", slog.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			logger.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats at %s: %w", url, err)
	}
	return newNATSPublisher(nc, prefix, logger), nil
}

func newNATSPublisher(nc conn, prefix string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{nc: nc, prefix: strings.Trim(prefix, "."), logger: logger}
}

// Subject is where results for smu are published.
func (p *NATSPublisher) Subject(smu string) string {
	return fmt.Sprintf("%s.tracking.%s", p.prefix, subjectToken(smu))
}

func (p *NATSPublisher) PublishResult(ctx context.Context, msg ResultMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode result for %s: %w", msg.SMU, err)
	}

	subject := p.Subject(msg.SMU)
	if err := p.nc.Publish(subject, b); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	p.logger.DebugContext(ctx, "tracking result published",
		slog.String("subject", subject),
		slog.String("status", msg.Status))
	return nil
}

func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		p.logger.Warn("nats drain failed", slog.String("error", err.Error()))
	}
	p.nc.Close()
}

// Nop drops every message. It is used when no NATS URL is configured.
type Nop struct{}

func (Nop) PublishResult(context.Context, ResultMessage) error { return nil }
func (Nop) Close()                                             {}

// NATS tokens cannot contain spaces, wildcards or dots.
func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
