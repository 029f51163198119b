package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dosada05/calcetto/live"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocketRefusedAfterHubStopped(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := live.NewHub(logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	cancel()
	require.Eventually(t, hub.Stopped, time.Second, 5*time.Millisecond)

	h := NewWebSocketHandler(hub, nil, logger)
	req := httptest.NewRequest(http.MethodGet, "/ws/matches", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	done := make(chan struct{})
	rec := httptest.NewRecorder()
	go func() {
		h.ServeMatchesWs(rec, req)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("upgrade blocked after the hub stopped")
	}
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, 0, hub.ClientsInRoom(live.RoomMatches))
}
