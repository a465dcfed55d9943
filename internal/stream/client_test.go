package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/livedesk/livedesk/internal/events"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

// startTestServer runs a websocket endpoint that pushes the given frames
// to the first client and then keeps the connection open. Received
// frames are forwarded on the returned channel.
func startTestServer(t *testing.T, frames [][]byte) (url string, received chan []byte) {
	t.Helper()
	received = make(chan []byte, 16)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for _, frame := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- data
		}
	}))
	t.Cleanup(server.Close)

	return "ws" + strings.TrimPrefix(server.URL, "http"), received
}

func mustMarshal(t *testing.T, ev events.Event) []byte {
	t.Helper()
	data, err := events.Marshal(ev)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return data
}

func TestClientDispatchesDecodedEvents(t *testing.T) {
	frames := [][]byte{
		mustMarshal(t, events.TicketUpdated{TicketID: 1, Field: "status", Value: "closed", UpdatedBy: "user-bbbb"}),
		[]byte(`{"type":"ticket.updated"`), // truncated JSON, must be skipped
		[]byte(`{"type":"ticket.exploded","data":{}}`),
		mustMarshal(t, events.ViewersChanged{TicketID: 1, Count: 3}),
	}
	url, _ := startTestServer(t, frames)

	client := NewClient(url, "test-token", log.New(testLogWriter{t}, "", 0))
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	got := make(chan events.Event, 4)
	client.AddListener(events.TypeTicketUpdated, func(ev events.Event) { got <- ev })
	client.AddListener(events.TypeViewersChanged, func(ev events.Event) { got <- ev })

	go client.ReadLoop()

	first := waitEvent(t, got)
	updated, ok := first.(events.TicketUpdated)
	if !ok || updated.Value != "closed" {
		t.Fatalf("first event = %#v, want ticket.updated closed", first)
	}

	second := waitEvent(t, got)
	viewers, ok := second.(events.ViewersChanged)
	if !ok || viewers.Count != 3 {
		t.Fatalf("second event = %#v, want viewers.changed 3", second)
	}
}

func TestClientListenerPanicContained(t *testing.T) {
	frames := [][]byte{
		mustMarshal(t, events.Heartbeat{}),
		mustMarshal(t, events.Heartbeat{}),
	}
	url, _ := startTestServer(t, frames)

	client := NewClient(url, "", log.New(testLogWriter{t}, "", 0))
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	got := make(chan struct{}, 2)
	client.AddListener(events.TypeHeartbeat, func(events.Event) { panic("boom") })
	client.AddListener(events.TypeHeartbeat, func(events.Event) { got <- struct{}{} })

	go client.ReadLoop()

	for i := 0; i < 2; i++ {
		select {
		case <-got:
		case <-time.After(2 * time.Second):
			t.Fatal("read loop died after listener panic")
		}
	}
}

func TestClientRemoveListener(t *testing.T) {
	frames := [][]byte{mustMarshal(t, events.Heartbeat{})}
	url, _ := startTestServer(t, frames)

	client := NewClient(url, "", log.New(testLogWriter{t}, "", 0))
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	fired := make(chan struct{}, 1)
	id := client.AddListener(events.TypeHeartbeat, func(events.Event) { fired <- struct{}{} })
	client.RemoveListener(events.TypeHeartbeat, id)
	client.RemoveListener(events.TypeHeartbeat, 999)

	go client.ReadLoop()

	select {
	case <-fired:
		t.Fatal("removed listener was invoked")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestClientWatchUnwatch(t *testing.T) {
	url, received := startTestServer(t, nil)

	client := NewClient(url, "", log.New(testLogWriter{t}, "", 0))
	if err := client.Connect(); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	if err := client.Watch(7); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}
	if err := client.Unwatch(7); err != nil {
		t.Fatalf("Unwatch failed: %v", err)
	}

	var msg subscribeMessage
	if err := json.Unmarshal(waitFrame(t, received), &msg); err != nil {
		t.Fatalf("bad watch frame: %v", err)
	}
	if msg.Action != "watch" || msg.TicketID != 7 {
		t.Errorf("watch frame = %+v", msg)
	}
	if err := json.Unmarshal(waitFrame(t, received), &msg); err != nil {
		t.Fatalf("bad unwatch frame: %v", err)
	}
	if msg.Action != "unwatch" || msg.TicketID != 7 {
		t.Errorf("unwatch frame = %+v", msg)
	}
}

func TestClientSendWhenDisconnected(t *testing.T) {
	client := NewClient("ws://127.0.0.1:0", "", log.New(testLogWriter{t}, "", 0))
	if err := client.Watch(1); err == nil {
		t.Fatal("Watch on a disconnected client should fail")
	}
	if client.IsConnected() {
		t.Error("client should report disconnected")
	}
}

func waitEvent(t *testing.T, ch chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func waitFrame(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case data := <-ch:
		return data
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
