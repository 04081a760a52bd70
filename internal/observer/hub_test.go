package observer

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/brickworld/brickworld/internal/config"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubDeliversPublishedMessages(t *testing.T) {
	hub := NewHub(config.ObserverConfig{QueueSize: 8}, zap.NewNop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	defer hub.Close()

	a, b := dial(t, srv), dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 5*time.Millisecond)

	msg := NewMessage("run1", "level_complete", "level1", 42, map[string]int{"score": 7})
	require.NoError(t, hub.PublishJSON(msg))

	for _, conn := range []*websocket.Conn{a, b} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, raw, err := conn.ReadMessage()
		require.NoError(t, err)

		var got Message
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, msg.ID, got.ID)
		assert.Equal(t, "level_complete", got.Type)
		assert.Equal(t, uint64(42), got.Tick)
	}
}

func TestHubForgetsClosedClients(t *testing.T) {
	hub := NewHub(config.ObserverConfig{}, zap.NewNop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 5*time.Millisecond)

	hub.Publish([]byte(`{}`))
	assert.Zero(t, hub.Dropped())
}

func TestHubClosedRefusesObservers(t *testing.T) {
	hub := NewHub(config.ObserverConfig{}, zap.NewNop())
	srv := httptest.NewServer(hub.Handler())
	defer srv.Close()
	hub.Close()

	conn := dial(t, srv)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
	assert.Zero(t, hub.Count())
}

func TestMessageIDsAreUnique(t *testing.T) {
	a := NewMessage("r", "t", "l", 1, nil)
	b := NewMessage("r", "t", "l", 1, nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Len(t, a.ID, 26)
}
