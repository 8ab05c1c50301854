package alerts

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Frame is one alert pushed to the browser dashboard over the socket.
// The browser owns the actual Notification/Audio primitives; we only
// decide when to fire them.
type Frame struct {
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Body  string `json:"body,omitempty"`
	Tag   string `json:"tag,omitempty"`
	Sound string `json:"sound,omitempty"`
}

const (
	FrameNotification      = "notification"
	FrameSound             = "sound"
	FrameRequestPermission = "request-permission"
)

// defaultWriteWait bounds every socket write so a client that stops
// reading errors out instead of stalling the alert pipeline.
const defaultWriteWait = 5 * time.Second

// Hub fans alert frames out to every attached dashboard socket.
// Writes are best effort: a client that errors or times out is
// dropped, never retried. All writes to a conn happen under h.mu;
// gorilla allows at most one concurrent writer per connection.
type Hub struct {
	log       *slog.Logger
	writeWait time.Duration

	mu    sync.Mutex
	conns map[string]*websocket.Conn
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:       log,
		writeWait: defaultWriteWait,
		conns:     make(map[string]*websocket.Conn),
	}
}

// Attach registers a socket and asks the browser for notification
// permission once, up front. The permission frame is written before
// the conn becomes visible to Broadcast so no second writer can race
// it. Returns the client id for Detach.
func (h *Hub) Attach(conn *websocket.Conn) string {
	id := uuid.NewString()

	if err := h.write(conn, Frame{Type: FrameRequestPermission}); err != nil {
		_ = conn.Close()
		return id
	}

	h.mu.Lock()
	h.conns[id] = conn
	h.mu.Unlock()
	h.log.Info("dashboard client attached", "client_id", id)
	return id
}

func (h *Hub) Detach(id string) {
	h.mu.Lock()
	conn, ok := h.conns[id]
	delete(h.conns, id)
	h.mu.Unlock()
	if ok {
		_ = conn.Close()
	}
}

func (h *Hub) Broadcast(f Frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		if err := h.write(conn, f); err != nil {
			h.log.Warn("dropping dashboard client", "client_id", id, "err", err)
			delete(h.conns, id)
			_ = conn.Close()
		}
	}
}

// Close drops every client. Safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, conn := range h.conns {
		delete(h.conns, id)
		_ = conn.Close()
	}
}

func (h *Hub) write(conn *websocket.Conn, f Frame) error {
	_ = conn.SetWriteDeadline(time.Now().Add(h.writeWait))
	return conn.WriteJSON(f)
}
