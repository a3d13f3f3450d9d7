package api

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/hexworlds/internal/editor"
)

const (
	wsSendBuffer   = 16
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
	maxWSConns     = 32
)

// ChangeEvent is one websocket message.
type ChangeEvent struct {
	Type   string        `json:"type"`
	Status editor.Status `json:"status"`
}

// Hub fans status updates out to websocket clients. Broadcast never blocks:
// a client whose buffer is full misses updates until it drains, and the
// next one it receives is current.
type Hub struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*wsClient]struct{}
	last    *ChangeEvent
	closed  bool
}

type wsClient struct {
	conn *websocket.Conn
	send chan ChangeEvent
}

func NewHub() *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Any origin may read the feed.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Broadcast queues st for every client. It runs on the engine loop.
func (h *Hub) Broadcast(st editor.Status) {
	ev := ChangeEvent{Type: "status", Status: st}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = &ev
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}

func (h *Hub) register(conn *websocket.Conn) (*wsClient, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || len(h.clients) >= maxWSConns {
		return nil, false
	}
	c := &wsClient{conn: conn, send: make(chan ChangeEvent, wsSendBuffer)}
	if h.last != nil {
		c.send <- *h.last
	}
	h.clients[c] = struct{}{}
	return c, true
}

func (h *Hub) unregister(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		close(c.send)
		delete(h.clients, c)
	}
}

// ServeWS upgrades the request and streams change events until the client
// goes away.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	c, ok := h.register(conn)
	if !ok {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too many connections"),
			time.Now().Add(time.Second))
		conn.Close()
		return
	}
	slog.Info("websocket client connected", "remote", r.RemoteAddr)

	go c.readPump(h)
	c.writePump()
}

// readPump discards client messages and unregisters on disconnect.
func (c *wsClient) readPump(h *Hub) {
	defer h.unregister(c)
	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *wsClient) writePump() {
	ping := time.NewTicker(wsPingInterval)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case ev, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			c.conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
