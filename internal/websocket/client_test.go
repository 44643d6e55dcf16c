package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPumps(t *testing.T) {
	hub := startedHub(t)
	conn := newMockConnection()
	client := NewClient(hub, conn, "", testLogger())
	hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	conn.deliver(`{"type":"heartbeat"}`)
	hub.Broadcast(context.Background(), TypeTrackingComplete, map[string]any{"smu": "126-1"})

	require.Eventually(t, func() bool { return len(conn.frames()) >= 2 }, time.Second, 5*time.Millisecond)
	frames := conn.frames()
	assert.Equal(t, websocket.TextMessage, frames[0].Type)
	assert.Contains(t, string(frames[0].Data), TypeConnection)
	assert.Contains(t, string(frames[1].Data), TypeTrackingComplete)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, time.Second, 5*time.Millisecond)
}

func TestClientWritePumpStopsWhenSendCloses(t *testing.T) {
	hub := NewHub(testLogger())
	conn := newMockConnection()
	client := NewClient(hub, conn, "", testLogger())

	done := make(chan struct{})
	go func() {
		client.WritePump()
		close(done)
	}()
	close(client.send)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("write pump did not stop")
	}
	assert.True(t, conn.isClosed())
}
