// Package notifications pushes re-projected views to connected websocket shells.
package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"vibefeed/internal/observability"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const maxConns = 256

var (
	// ErrTooManyConnections is returned by Register when the hub is full.
	ErrTooManyConnections = errors.New("connection limit reached")
	// ErrHubClosed is returned by Register after Shutdown.
	ErrHubClosed = errors.New("hub is shut down")
)

// Envelope is the server -> client frame.
type Envelope struct {
	Event string `json:"event"`
	View  any    `json:"view,omitempty"`
}

// Hub tracks the session's websocket clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	closed  bool
	logger  *observability.WSLogger
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  observability.NewWSLogger("feed"),
	}
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "feed hub" }

// Logger returns the hub's websocket logger.
func (h *Hub) Logger() *observability.WSLogger { return h.logger }

// Register adds a client for conn.
func (h *Hub) Register(ctx context.Context, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrHubClosed
	}
	if len(h.clients) >= maxConns {
		h.mu.Unlock()
		return nil, ErrTooManyConnections
	}
	client := NewClient(h, conn, uuid.NewString())
	h.clients[client] = struct{}{}
	h.mu.Unlock()

	observability.WebSocketConnections.Inc()
	h.logger.LogConnect(ctx, client.ID)
	return client, nil
}

// UnregisterClient removes c and closes its Send channel. Safe to call twice.
func (h *Hub) UnregisterClient(c *Client) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
		close(c.Send)
	}
	h.mu.Unlock()

	if ok {
		observability.WebSocketConnections.Dec()
		h.logger.LogDisconnect(context.Background(), c.ID, "unregistered")
	}
}

// Len reports the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends event with view to every client.
func (h *Hub) Publish(event string, view any) error {
	data, err := json.Marshal(Envelope{Event: event, View: view})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		c.TrySend(data)
	}
	return nil
}

// SendTo sends event with view to a single client.
func (h *Hub) SendTo(c *Client, event string, view any) error {
	data, err := json.Marshal(Envelope{Event: event, View: view})
	if err != nil {
		return err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.clients[c]; ok {
		c.TrySend(data)
	}
	return nil
}

// Shutdown closes every client's Send channel. Each WritePump drains what is
// queued, writes the going-away frame and closes its connection, so the pump
// stays the only writer on the socket.
func (h *Hub) Shutdown(ctx context.Context) error {
	h.mu.Lock()
	h.closed = true
	clients := h.clients
	h.clients = make(map[*Client]struct{})
	h.mu.Unlock()

	for c := range clients {
		close(c.Send)
		observability.WebSocketConnections.Dec()
		h.logger.LogDisconnect(ctx, c.ID, "server shutting down")
	}
	return nil
}
