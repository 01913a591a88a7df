package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// wsSendBufferSize is the per-client outbound message buffer. When a slow
// reader's buffer is full, the event is dropped for that client rather than
// allowed to block the broadcaster; the client stays connected.
const wsSendBufferSize = 64

// attributeEvent is the message shape broadcast to every connected
// WebSocket client on a differential property publish.
type attributeEvent struct {
	Host      string `json:"host"`
	Attribute string `json:"attribute"`
	Value     any    `json:"value"`
	Timestamp string `json:"timestamp"`
}

// Hub fans out attribute-change events to every connected operator
// WebSocket client. It implements bridge.Broadcaster.
type Hub struct {
	logger Logger

	mu      sync.RWMutex
	clients map[*wsClient]struct{}
}

// wsClient is one connected operator WebSocket.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

func newHub(logger Logger) *Hub {
	return &Hub{
		logger:  logger,
		clients: make(map[*wsClient]struct{}),
	}
}

// run blocks until ctx is cancelled, then closes every connected client.
func (h *Hub) run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

// BroadcastAttribute implements bridge.Broadcaster, forwarding one changed
// property to every connected client.
func (h *Hub) BroadcastAttribute(host, attribute string, value any) {
	payload, err := json.Marshal(attributeEvent{
		Host:      host,
		Attribute: attribute,
		Value:     value,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to marshal websocket event", "error", err)
		}
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			if h.logger != nil {
				h.logger.Warn("dropping websocket event, slow client", "host", host, "attribute", attribute)
			}
		}
	}
}

func (h *Hub) register(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// handleWebSocket upgrades the connection and starts the client's write
// pump; reads are discarded since this surface is publish-only.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := &wsClient{conn: conn, send: make(chan []byte, wsSendBufferSize)}
	s.hub.register(client)

	go client.writePump()
	go client.readPump(s.hub)
}

// writePump drains send onto the socket until the channel is closed.
func (c *wsClient) writePump() {
	defer c.conn.Close()
	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump discards inbound frames and unregisters the client once the
// connection closes, since this surface takes no client-originated input.
func (c *wsClient) readPump(hub *Hub) {
	defer hub.unregister(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
