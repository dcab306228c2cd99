package websocket

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Wisaacj/Supervisor/internal/logger"
	"github.com/gorilla/websocket"
)

// viewerServer upgrades every request and registers it with hub until the
// client goes away.
func viewerServer(t *testing.T, hub *HubService) *httptest.Server {
	t.Helper()

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Register(conn)
		defer hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func setupHub(t *testing.T) (*HubService, *httptest.Server) {
	t.Helper()

	hub := NewHubService(logger.New(io.Discard))
	done := make(chan struct{})
	go hub.Run(done)
	t.Cleanup(func() { close(done) })

	return hub, viewerServer(t, hub)
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *HubService, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("Expected %d clients, have %d", n, hub.GetClientCount())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_BroadcastReachesAllViewers(t *testing.T) {
	hub, server := setupHub(t)
	a := dial(t, server)
	b := dial(t, server)
	waitForClients(t, hub, 2)

	hub.Broadcast([]byte(`{"seq":1}`))

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("ReadMessage failed: %v", err)
		}
		if string(msg) != `{"seq":1}` {
			t.Errorf("Unexpected message %s", msg)
		}
	}
}

func TestHub_ViewerDisconnect(t *testing.T) {
	hub, server := setupHub(t)
	a := dial(t, server)
	dial(t, server)
	waitForClients(t, hub, 2)

	a.Close()
	waitForClients(t, hub, 1)
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	hub := NewHubService(logger.New(io.Discard))

	// Run is not started, so nothing drains the queue.
	for i := 0; i < broadcastBuffer+5; i++ {
		hub.Broadcast([]byte("x"))
	}
	if hub.Dropped() != 5 {
		t.Errorf("Expected 5 dropped messages, got %d", hub.Dropped())
	}
}

func TestHub_StopClosesViewers(t *testing.T) {
	hub := NewHubService(logger.New(io.Discard))
	done := make(chan struct{})
	go hub.Run(done)
	server := viewerServer(t, hub)

	conn := dial(t, server)
	waitForClients(t, hub, 1)

	close(done)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("Expected connection to be closed by the hub")
	}
	waitForClients(t, hub, 0)
}
