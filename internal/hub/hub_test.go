package hub

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/livedesk/livedesk/internal/events"
)

func startHub(t *testing.T) (*Hub, string) {
	t.Helper()
	h := NewHub()
	mux := http.NewServeMux()
	h.SetupRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return h, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/events"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	ev, err := events.Decode(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return ev
}

func waitFor(t *testing.T, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestBroadcastReachesAllClients(t *testing.T) {
	h, url := startHub(t)
	first := dial(t, url)
	second := dial(t, url)
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	h.Broadcast(events.TicketUpdated{TicketID: 1, Field: "status", Value: "closed", UpdatedBy: "user-bbbb"})

	for _, conn := range []*websocket.Conn{first, second} {
		ev := readEvent(t, conn)
		updated, ok := ev.(events.TicketUpdated)
		if !ok || updated.Value != "closed" {
			t.Fatalf("got %#v, want ticket.updated closed", ev)
		}
	}
}

func TestWatchBroadcastsViewerCount(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	if err := conn.WriteJSON(subscribeMessage{Action: "watch", TicketID: 7}); err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	ev := readEvent(t, conn)
	viewers, ok := ev.(events.ViewersChanged)
	if !ok || viewers.TicketID != 7 || viewers.Count != 1 {
		t.Fatalf("got %#v, want viewers.changed 7/1", ev)
	}
	if h.Viewers(7) != 1 {
		t.Errorf("Viewers(7) = %d, want 1", h.Viewers(7))
	}

	// A second watch from the same client is not double counted
	if err := conn.WriteJSON(subscribeMessage{Action: "watch", TicketID: 7}); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if h.Viewers(7) != 1 {
		t.Errorf("Viewers(7) after duplicate watch = %d, want 1", h.Viewers(7))
	}

	if err := conn.WriteJSON(subscribeMessage{Action: "unwatch", TicketID: 7}); err != nil {
		t.Fatalf("unwatch failed: %v", err)
	}
	ev = readEvent(t, conn)
	viewers, ok = ev.(events.ViewersChanged)
	if !ok || viewers.Count != 0 {
		t.Fatalf("got %#v, want viewers.changed 7/0", ev)
	}
}

func TestDisconnectReleasesViewerCounts(t *testing.T) {
	h, url := startHub(t)
	watcher := dial(t, url)
	observer := dial(t, url)
	waitFor(t, func() bool { return h.ClientCount() == 2 })

	if err := watcher.WriteJSON(subscribeMessage{Action: "watch", TicketID: 3}); err != nil {
		t.Fatalf("watch failed: %v", err)
	}
	waitFor(t, func() bool { return h.Viewers(3) == 1 })

	// Drain the viewers.changed broadcast from the watch
	readEvent(t, observer)

	watcher.Close()
	waitFor(t, func() bool { return h.Viewers(3) == 0 })

	ev := readEvent(t, observer)
	viewers, ok := ev.(events.ViewersChanged)
	if !ok || viewers.TicketID != 3 || viewers.Count != 0 {
		t.Fatalf("got %#v, want viewers.changed 3/0", ev)
	}
}

func TestMalformedSubscribeFrameIgnored(t *testing.T) {
	h, url := startHub(t)
	conn := dial(t, url)
	waitFor(t, func() bool { return h.ClientCount() == 1 })

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	// The connection survives and still receives broadcasts
	h.Broadcast(events.Heartbeat{})
	ev := readEvent(t, conn)
	if _, ok := ev.(events.Heartbeat); !ok {
		t.Fatalf("got %#v, want heartbeat", ev)
	}
}
