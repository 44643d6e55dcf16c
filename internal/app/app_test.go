package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smutrack/internal/browser"
	"smutrack/internal/browser/browsertest"
	"smutrack/internal/config"
	"smutrack/internal/publisher"
	ws "smutrack/internal/websocket"
)

func createTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Observability.TraceExporter = "none"
	cfg.Observability.MetricExporter = "none"
	cfg.Security.RateLimit.Enabled = false
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

// garudaLauncher scripts the portal popup and one successful search page.
func garudaLauncher() *browsertest.Launcher {
	detail := &browsertest.Page{
		Elements: map[string][]string{
			"td": {"Origin CGK", "LATEST EVENT: DEP at CGK 13 May 21:40"},
			"th": {"AWB", "Pieces", "Weight"},
		},
		Tables: []browser.Table{
			{Rows: []browser.Row{
				{Header: true, Cells: []string{"AWB", "Pieces", "Weight"}},
				{Cells: []string{"126-12345678", "7", "50"}},
			}},
			{Rows: []browser.Row{
				{Header: true, Cells: []string{"Flight", "Date", "Segment"}},
				{Cells: []string{"GA 402", "13 May", "CGK -> DPS"}},
				{Cells: []string{"GA 123", "14 May", "DPS -> SYD"}},
			}},
		},
	}
	return browsertest.NewLauncher(
		&browsertest.Page{Popup: detail},
		&browsertest.Page{Text: "GA 123 Denpasar 9:05 Sydney 10:15"},
	)
}

func newTestApp(t *testing.T, launcher browser.Launcher) *Application {
	t.Helper()
	a, err := New(testConfig(), createTestLogger(), launcher)
	require.NoError(t, err)
	return a
}

func serve(a *Application, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNew(t *testing.T) {
	launcher := browsertest.NewLauncher()
	a := newTestApp(t, launcher)

	assert.Same(t, launcher, a.Launcher)
	assert.Equal(t, publisher.Nop{}, a.Publisher)
	assert.Equal(t, ":8000", a.Server.Addr)
	assert.Equal(t, a.Router, a.Server.Handler)
	assert.NotNil(t, a.Tracker)
	assert.NotNil(t, a.Board)
	assert.NotNil(t, a.TrackingService)
	assert.NotNil(t, a.HealthService)
}

func TestNewFailsOnUnreachableNATS(t *testing.T) {
	cfg := testConfig()
	cfg.Publisher.NATSURL = "nats://127.0.0.1:1"

	_, err := New(cfg, createTestLogger(), browsertest.NewLauncher())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "result publisher")
}

func TestNewRejectsUnknownExporter(t *testing.T) {
	cfg := testConfig()
	cfg.Observability.TraceExporter = "jaeger"

	_, err := New(cfg, createTestLogger(), browsertest.NewLauncher())
	require.Error(t, err)
}

func TestRouterTracksShipmentEndToEnd(t *testing.T) {
	launcher := garudaLauncher()
	a := newTestApp(t, launcher)

	created := serve(a, http.MethodPost, "/api/shipments",
		`{"smu":"126-12345678","customer_name":"PT Maju","origin":"CGK","transit":"DPS","destination":"SYD","koli":1}`)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	assert.NotEmpty(t, created.Header().Get("X-Request-ID"))

	rec := serve(a, http.MethodPost, "/api/shipments/126-12345678/track", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Shipment struct {
			Status     string `json:"status"`
			EtaBandara string `json:"eta_bandara"`
			Koli       int    `json:"koli"`
		} `json:"shipment"`
		Result struct {
			Status     string  `json:"status"`
			EtaBandara *string `json:"eta_bandara"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "CGK > DPS", body.Shipment.Status)
	assert.Equal(t, "10:15 (14 May)", body.Shipment.EtaBandara)
	assert.Equal(t, 7, body.Shipment.Koli)
	assert.Equal(t, "CGK > DPS", body.Result.Status)
	require.NotNil(t, body.Result.EtaBandara)
	assert.True(t, launcher.AllClosed())

	health := serve(a, http.MethodGet, "/api/health?detail=1", "")
	require.Equal(t, http.StatusOK, health.Code)
	var detail struct {
		Board map[string]int `json:"board"`
	}
	require.NoError(t, json.Unmarshal(health.Body.Bytes(), &detail))
	assert.Equal(t, 1, detail.Board["total"])
	assert.Equal(t, 1, detail.Board["with_eta"])

	export := serve(a, http.MethodGet, "/api/shipments/export.xlsx", "")
	assert.Equal(t, http.StatusOK, export.Code)
	assert.NotZero(t, export.Body.Len())
}

func TestRouterSurface(t *testing.T) {
	a := newTestApp(t, browsertest.NewLauncher())

	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, target: "/api/health", wantStatus: http.StatusOK},
		{name: "live", method: http.MethodGet, target: "/api/health/live", wantStatus: http.StatusOK},
		{name: "ready", method: http.MethodGet, target: "/api/health/ready", wantStatus: http.StatusOK},
		{name: "version", method: http.MethodGet, target: "/api/version", wantStatus: http.StatusOK},
		{name: "empty board", method: http.MethodGet, target: "/api/shipments", wantStatus: http.StatusOK},
		{name: "track-all on empty board", method: http.MethodPost, target: "/api/shipments/track-all", wantStatus: http.StatusOK},
		{name: "validation", method: http.MethodPost, target: "/api/track", body: `{"smu":"nope"}`, wantStatus: http.StatusBadRequest},
		{name: "unknown route", method: http.MethodGet, target: "/api/nope", wantStatus: http.StatusNotFound},
		{name: "metrics disabled", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if strings.HasPrefix(tt.target, "/api") {
				assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			}
		})
	}
}

func TestRouterRejectsNonJSONBody(t *testing.T) {
	a := newTestApp(t, browsertest.NewLauncher())

	req := httptest.NewRequest(http.MethodPost, "/api/track", strings.NewReader("smu=126-1"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestWebSocketReceivesTrackingEvents(t *testing.T) {
	a := newTestApp(t, garudaLauncher())
	a.WebSocketHub.Start()
	defer a.WebSocketHub.Stop()

	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return a.WebSocketHub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/track", "application/json",
		strings.NewReader(`{"smu":"126-12345678","origin":"CGK","transit":"DPS","destination":"SYD"}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var types []string
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg ws.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		types = append(types, msg.Type)
		if msg.Type == ws.TypeTrackingComplete {
			break
		}
	}

	assert.Contains(t, types, ws.TypeTrackingProgress)
}

func TestStartStop(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Port = 0
	a, err := New(cfg, createTestLogger(), browsertest.NewLauncher())
	require.NoError(t, err)
	a.Server.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, a.Start(ctx, cancel))
	assert.NoError(t, a.Stop(context.Background()))
}
