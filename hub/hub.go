// Package hub streams the field's paths to websocket clients. A client gets
// every path on connect and then one message per change.
package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/milk9111/fieldroutes/events"
	"github.com/milk9111/fieldroutes/logging"
	"github.com/milk9111/fieldroutes/routing"
)

const (
	defaultSendBuffer   = 64
	defaultWriteTimeout = 5 * time.Second
)

// PathSource provides the snapshot sent to new clients.
type PathSource interface {
	GetAllPaths() []routing.Path
}

type pathMessage struct {
	Entrance  int      `json:"entrance"`
	Status    string   `json:"status"`
	Waypoints [][2]int `json:"waypoints"`
}

type snapshotMessage struct {
	Type  string        `json:"type"`
	Paths []pathMessage `json:"paths"`
}

type changeMessage struct {
	Type string `json:"type"`
	pathMessage
}

func toMessage(entrance int, p routing.Path) pathMessage {
	wp := make([][2]int, 0, p.Len())
	for _, pt := range p.Waypoints {
		wp = append(wp, [2]int{pt.X, pt.Y})
	}
	return pathMessage{Entrance: entrance, Status: p.Status.String(), Waypoints: wp}
}

type Option func(*Hub)

func WithLogger(l logging.Logger) Option {
	return func(h *Hub) {
		if l != nil {
			h.logger = l
		}
	}
}

// WithSendBuffer sets how many messages may queue for a client before it is
// considered too slow and dropped.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	source       PathSource
	logger       logging.Logger
	upgrader     websocket.Upgrader
	sendBuffer   int
	writeTimeout time.Duration

	mu      sync.Mutex
	clients map[string]*client
	closed  bool
}

var _ routing.Notifier = (*Hub)(nil)

func New(source PathSource, opts ...Option) *Hub {
	h := &Hub{
		source: source,
		logger: logging.NoOpLogger{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sendBuffer:   defaultSendBuffer,
		writeTimeout: defaultWriteTimeout,
		clients:      make(map[string]*client),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Bind forwards path change events from bus to connected clients.
func (h *Hub) Bind(bus *events.Bus) func() {
	return bus.Subscribe(events.KindPathChanged, func(e events.Event) {
		if ch, ok := e.Data.(routing.PathChange); ok {
			h.NotifyChanged(ch.Entrance, ch.Path)
		}
	})
}

// NotifyChanged broadcasts one path change.
func (h *Hub) NotifyChanged(entrance int, p routing.Path) {
	data, err := json.Marshal(changeMessage{Type: string(events.KindPathChanged), pathMessage: toMessage(entrance, p)})
	if err != nil {
		h.logger.Error("marshal path change", "entrance", entrance, "error", err)
		return
	}
	h.broadcast(data)
}

func (h *Hub) snapshot() ([]byte, error) {
	paths := h.source.GetAllPaths()
	msg := snapshotMessage{Type: "paths", Paths: make([]pathMessage, 0, len(paths))}
	for i, p := range paths {
		msg.Paths = append(msg.Paths, toMessage(i, p))
	}
	return json.Marshal(msg)
}

func (h *Hub) broadcast(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("dropping slow client", "client", c.id)
			h.dropLocked(c)
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	c := &client{id: uuid.NewString(), conn: conn, send: make(chan []byte, h.sendBuffer)}

	// The snapshot is queued under the lock so no broadcast can overtake it.
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
		_ = conn.Close()
		return
	}
	data, err := h.snapshot()
	if err != nil {
		h.mu.Unlock()
		h.logger.Error("marshal path snapshot", "error", err)
		_ = conn.Close()
		return
	}
	c.send <- data
	h.clients[c.id] = c
	h.mu.Unlock()

	h.logger.Info("client connected", "client", c.id, "remote", r.RemoteAddr)
	go h.writeLoop(c)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.drop(c)
	h.logger.Info("client disconnected", "client", c.id)
}

func (h *Hub) writeLoop(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Debug("client write failed", "client", c.id, "error", err)
			h.drop(c)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(c)
}

func (h *Hub) dropLocked(c *client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, c := range h.clients {
		h.dropLocked(c)
	}
}
