package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"fleetops-sim/internal/alert"
	"fleetops-sim/internal/fleet"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// writeWait bounds each client write so a stalled peer is dropped
// instead of holding up the broadcast loop.
const writeWait = 5 * time.Second

// Event is one websocket frame pushed to observers.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// FleetUpdate is the per-tick payload streamed to observers.
type FleetUpdate struct {
	Robots []fleet.Robot `json:"robots"`
	Alerts []alert.Alert `json:"alerts"`
}

// Hub fans events out to connected websocket clients. A client whose
// write fails is closed and dropped; the rest are untouched.
type Hub struct {
	clients   map[*websocket.Conn]bool
	broadcast chan Event
	mu        sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan Event, 256),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-h.broadcast:
			data, err := json.Marshal(event)
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.clients {
				client.SetWriteDeadline(time.Now().Add(writeWait))
				if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
					client.Close()
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish queues an event, dropping it if the channel is full. A slow
// hub never blocks the tick loop.
func (h *Hub) Publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		slog.Warn("websocket broadcast channel full, dropping event")
	}
}

// Broadcast implements the simulator's broadcaster hook.
func (h *Hub) Broadcast(robots []fleet.Robot, alerts []alert.Alert) {
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	h.Publish(Event{Type: "fleet_update", Payload: FleetUpdate{Robots: robots, Alerts: alerts}})
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	// Send the current fleet right away so new observers don't wait a
	// tick. This write happens before the conn joins the hub: once
	// registered, the hub loop is the conn's only writer.
	snapshot := Event{Type: "fleet_update", Payload: FleetUpdate{
		Robots: s.sim.Snapshot(),
		Alerts: s.store.Active(),
	}}
	if data, err := json.Marshal(snapshot); err == nil {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			conn.Close()
			return
		}
	}

	s.hub.Register(conn)
	defer func() {
		s.hub.Unregister(conn)
		conn.Close()
	}()

	// Keep connection alive, discard client messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}
