package api

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// Event is pushed to dashboard subscribers when flows or policies change.
type Event struct {
	Type    string      `json:"type"` // flow_created, policy_generated, policy_updated, policy_deleted
	Payload interface{} `json:"payload,omitempty"`
}

// EventHub fans events out to connected websocket subscribers.
type EventHub struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	subs     map[*websocket.Conn]struct{}
}

func NewEventHub() *EventHub {
	return &EventHub{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: map[*websocket.Conn]struct{}{},
	}
}

// RegisterEventRoutes wires the websocket event stream behind the same
// auth guard as the rest of the API.
func RegisterEventRoutes(mux *http.ServeMux, hub *EventHub, auth func(r *http.Request) bool) {
	mux.HandleFunc("/api/events/ws", func(w http.ResponseWriter, r *http.Request) {
		if !auth(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		hub.HandleWS(w, r)
	})
}

// HandleWS upgrades and registers a subscriber connection.
func (h *EventHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	c, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	h.mu.Lock()
	h.subs[c] = struct{}{}
	h.mu.Unlock()
	go h.readLoop(c)
}

// readLoop drains the connection until it closes; subscribers never send
// anything we act on.
func (h *EventHub) readLoop(c *websocket.Conn) {
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			h.drop(c)
			return
		}
	}
}

func (h *EventHub) drop(c *websocket.Conn) {
	h.mu.Lock()
	delete(h.subs, c)
	h.mu.Unlock()
	_ = c.Close()
}

// Broadcast sends ev to every subscriber, dropping connections that fail.
// Safe on a nil hub.
func (h *EventHub) Broadcast(ev Event) {
	if h == nil {
		return
	}
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subs))
	for c := range h.subs {
		conns = append(conns, c)
	}
	h.mu.Unlock()
	for _, c := range conns {
		if err := c.WriteJSON(ev); err != nil {
			log.Printf("ws broadcast failed: %v", err)
			h.drop(c)
		}
	}
}
