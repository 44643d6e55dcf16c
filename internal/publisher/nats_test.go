package publisher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smutrack/internal/infrastructure"
	"smutrack/internal/tracking"
)

type published struct {
	subject string
	data    []byte
}

type fakeConn struct {
	msgs    []published
	err     error
	drained bool
	closed  bool
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.msgs = append(c.msgs, published{subject, data})
	return nil
}

func (c *fakeConn) Drain() error { c.drained = true; return nil }
func (c *fakeConn) Close()       { c.closed = true }

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestPublishResult(t *testing.T) {
	nc := &fakeConn{}
	p := newNATSPublisher(nc, "smutrack.", testLogger())

	res := tracking.FailedResult("CGK > DPS")
	res.ETA = tracking.Resolved(tracking.ETAResult{Time: "10:15", SourceDate: "14 May"})

	ctx := infrastructure.WithTraceID(context.Background(), "trace-1")
	at := time.Date(2024, 5, 14, 3, 0, 0, 0, time.UTC)
	msg := NewResultMessage(ctx, "126-12345678", tracking.AirlineGaruda, res, at)

	require.NoError(t, p.PublishResult(ctx, msg))
	require.Len(t, nc.msgs, 1)
	assert.Equal(t, "smutrack.tracking.126-12345678", nc.msgs[0].subject)

	var got map[string]any
	require.NoError(t, json.Unmarshal(nc.msgs[0].data, &got))
	assert.Equal(t, "CGK > DPS", got["status"])
	assert.Equal(t, "10:15 (14 May)", got["eta_bandara"])
	assert.Nil(t, got["koli"])
	assert.Equal(t, "GARUDA", got["airline"])
	assert.Equal(t, "trace-1", got["trace_id"])
}

func TestPublishResultError(t *testing.T) {
	nc := &fakeConn{err: errors.New("nats: connection closed")}
	p := newNATSPublisher(nc, "smutrack", testLogger())

	err := p.PublishResult(context.Background(), ResultMessage{SMU: "126-1"})
	assert.ErrorContains(t, err, "smutrack.tracking.126-1")
}

func TestClose(t *testing.T) {
	nc := &fakeConn{}
	newNATSPublisher(nc, "smutrack", testLogger()).Close()
	assert.True(t, nc.drained)
	assert.True(t, nc.closed)
}

func TestSubjectToken(t *testing.T) {
	tests := map[string]string{
		"126-12345678": "126-12345678",
		" 126.1 ":      "126_1",
		"a b*c>d/e":    "a_b_c_d_e",
		"":             "_",
	}
	for in, want := range tests {
		assert.Equal(t, want, subjectToken(in), in)
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishResult(context.Background(), ResultMessage{}))
	p.Close()
}
