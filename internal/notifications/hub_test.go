package notifications

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(userID, w, r)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return conn
}

func TestHubBroadcastReachesUserConnections(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "user-1")

	// Registration happens inside Serve on the server goroutine.
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["user-1"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("user-1", Event{Event: "notification.created", Notification: map[string]any{"id": "n-1"}})

	var received Event
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	require.NoError(t, conn.ReadJSON(&received))
	require.Equal(t, "notification.created", received.Event)
}

func TestHubBroadcastIgnoresOtherUsers(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "user-2")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["user-2"]) == 1
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("someone-else", Event{Event: "notification.created"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var received Event
	err := conn.ReadJSON(&received)
	require.Error(t, err)
}

func TestHubUnregisterOnClose(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub, "user-3")

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.clients["user-3"]) == 1
	}, time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		_, ok := hub.clients["user-3"]
		return !ok
	}, time.Second, 10*time.Millisecond)
}
