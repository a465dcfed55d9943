package hub

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/livedesk/livedesk/internal/events"
)

// client is one connected stream subscriber
type client struct {
	conn *websocket.Conn

	// writeMu serializes frames; gorilla allows one concurrent writer
	writeMu sync.Mutex

	mu       sync.Mutex
	watching map[uint]struct{}
}

func (c *client) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *client) watches(ticketID uint) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.watching[ticketID]
	return ok
}

// Hub fans ticket events out to every connected WebSocket client and
// tracks per-ticket viewer counts from watch/unwatch frames.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
	viewers map[uint]int
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Auth happens at the middleware layer
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients: make(map[*client]struct{}),
		viewers: make(map[uint]int),
	}
}

// SetupRoutes configures the stream endpoint
func (h *Hub) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws/events", h.HandleWebSocket)
}

// HandleWebSocket upgrades the connection and serves it until it drops
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade WebSocket: %v", err)
		return
	}

	log.Printf("Stream client connected from %s", r.RemoteAddr)

	c := &client{conn: conn, watching: make(map[uint]struct{})}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.dropClient(c)
		conn.Close()
		log.Printf("Stream client disconnected")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			return
		}

		var msg subscribeMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("Failed to parse subscribe frame: %v", err)
			continue
		}
		h.handleSubscribe(c, msg)
	}
}

// subscribeMessage is the client-to-server frame scoping the stream to a
// ticket.
type subscribeMessage struct {
	Action   string `json:"action"`
	TicketID uint   `json:"ticket_id"`
}

func (h *Hub) handleSubscribe(c *client, msg subscribeMessage) {
	switch msg.Action {
	case "watch":
		c.mu.Lock()
		_, already := c.watching[msg.TicketID]
		c.watching[msg.TicketID] = struct{}{}
		c.mu.Unlock()
		if !already {
			h.adjustViewers(msg.TicketID, 1)
		}
	case "unwatch":
		c.mu.Lock()
		_, present := c.watching[msg.TicketID]
		delete(c.watching, msg.TicketID)
		c.mu.Unlock()
		if present {
			h.adjustViewers(msg.TicketID, -1)
		}
	default:
		log.Printf("Ignoring subscribe frame with action %q", msg.Action)
	}
}

// adjustViewers updates a ticket's viewer count and broadcasts the new
// value to everyone, including the client that caused the change.
func (h *Hub) adjustViewers(ticketID uint, delta int) {
	h.mu.Lock()
	count := h.viewers[ticketID] + delta
	if count < 0 {
		count = 0
	}
	if count == 0 {
		delete(h.viewers, ticketID)
	} else {
		h.viewers[ticketID] = count
	}
	h.mu.Unlock()

	h.Broadcast(events.ViewersChanged{TicketID: ticketID, Count: count})
}

// dropClient removes a client and releases every ticket it was watching
func (h *Hub) dropClient(c *client) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()

	c.mu.Lock()
	watched := make([]uint, 0, len(c.watching))
	for ticketID := range c.watching {
		watched = append(watched, ticketID)
	}
	c.watching = make(map[uint]struct{})
	c.mu.Unlock()

	for _, ticketID := range watched {
		h.adjustViewers(ticketID, -1)
	}
}

// Viewers returns the current viewer count for a ticket
func (h *Hub) Viewers(ticketID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.viewers[ticketID]
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast encodes an event and sends it to every connected client.
// Failed writes are logged; the read loop notices the dead connection
// and cleans up.
func (h *Hub) Broadcast(ev events.Event) {
	data, err := events.Marshal(ev)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", ev.EventType(), err)
		return
	}

	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			log.Printf("Failed to send %s event: %v", ev.EventType(), err)
		}
	}
}
