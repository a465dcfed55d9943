package stream

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/livedesk/livedesk/internal/events"
)

// Client maintains a WebSocket connection to the server's event stream
// and fans decoded events out to per-type listeners.
type Client struct {
	url    string
	token  string
	logger *log.Logger

	mu         sync.Mutex
	conn       *websocket.Conn
	connected  bool
	done       chan struct{}
	doneClosed bool

	nextID    int
	listeners map[events.Type]map[int]func(events.Event)
}

// NewClient creates a stream client for the given ws:// or wss:// URL.
// token is sent as a bearer Authorization header on the handshake.
func NewClient(url, token string, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}
	return &Client{
		url:       url,
		token:     token,
		logger:    logger,
		done:      make(chan struct{}),
		listeners: make(map[events.Type]map[int]func(events.Event)),
	}
}

// Connect establishes the WebSocket connection
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Printf("Connecting to event stream: %s", c.url)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}

	conn, _, err := dialer.Dial(c.url, header)
	if err != nil {
		return err
	}

	c.conn = conn
	c.connected = true
	c.logger.Println("Event stream connected")
	return nil
}

// IsConnected returns whether the client is connected
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// AddListener registers a handler for one event type and returns a
// registration ID for RemoveListener.
func (c *Client) AddListener(t events.Type, handler func(events.Event)) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	if c.listeners[t] == nil {
		c.listeners[t] = make(map[int]func(events.Event))
	}
	c.listeners[t][c.nextID] = handler
	return c.nextID
}

// RemoveListener drops a registration. Unknown IDs are a no-op.
func (c *Client) RemoveListener(t events.Type, id int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if handlers, ok := c.listeners[t]; ok {
		delete(handlers, id)
		if len(handlers) == 0 {
			delete(c.listeners, t)
		}
	}
}

// subscribeMessage is the client-to-server frame for scoping the stream
// to a ticket. The server broadcasts viewer counts from these.
type subscribeMessage struct {
	Action   string `json:"action"`
	TicketID uint   `json:"ticket_id"`
}

// Watch tells the server this client is viewing a ticket
func (c *Client) Watch(ticketID uint) error {
	return c.send(subscribeMessage{Action: "watch", TicketID: ticketID})
}

// Unwatch tells the server this client stopped viewing a ticket
func (c *Client) Unwatch(ticketID uint) error {
	return c.send(subscribeMessage{Action: "unwatch", TicketID: ticketID})
}

func (c *Client) send(msg interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil {
		return websocket.ErrCloseSent
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// ReadLoop reads frames until the connection drops or Close is called.
// Malformed frames are logged and skipped; they never end the loop.
func (c *Client) ReadLoop() {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
	}()

	for {
		select {
		case <-c.done:
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.logger.Printf("Event stream read error: %v", err)
				}
				return
			}

			ev, err := events.Decode(data)
			if err != nil {
				c.logger.Printf("Dropping malformed event: %v", err)
				continue
			}
			c.dispatch(ev)
		}
	}
}

// dispatch invokes every listener registered for the event's type. A
// panicking listener is contained so one bad handler cannot kill the
// read loop.
func (c *Client) dispatch(ev events.Event) {
	c.mu.Lock()
	handlers := make([]func(events.Event), 0, len(c.listeners[ev.EventType()]))
	for _, handler := range c.listeners[ev.EventType()] {
		handlers = append(handlers, handler)
	}
	c.mu.Unlock()

	for _, handler := range handlers {
		func() {
			defer func() {
				if r := recover(); r != nil {
					c.logger.Printf("Listener panic on %s: %v", ev.EventType(), r)
				}
			}()
			handler(ev)
		}()
	}
}

// Close closes the connection and stops the read loop
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.doneClosed {
		close(c.done)
		c.doneClosed = true
	}
	c.connected = false

	if c.conn != nil {
		err := c.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		if err != nil {
			c.logger.Printf("Error sending close message: %v", err)
		}
		return c.conn.Close()
	}
	return nil
}

// Reset prepares the client for reconnection after Close
func (c *Client) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.done = make(chan struct{})
	c.doneClosed = false
	c.connected = false
	c.conn = nil
}
