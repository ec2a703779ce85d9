// Package livefeed fans live snapshots out to websocket clients.
package livefeed

import (
	"context"
	"sort"
	"sync"

	"github.com/Rasheed893/biotime-live-view/internal/attendance/live"
	"github.com/Rasheed893/biotime-live-view/internal/logging"
	"github.com/Rasheed893/biotime-live-view/internal/metrics"
)

const (
	MessageTypeSnapshot = "live_snapshot"
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
)

type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Hub owns the client set. All membership changes go through its Serve
// loop; Broadcast may be called from any goroutine.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

func (h *Hub) String() string { return "livefeed-hub" }

// Serve runs the hub until ctx is cancelled, then closes every client.
func (h *Hub) Serve(ctx context.Context) error {
	defer h.stopOnce.Do(func() { close(h.done) })

	for {
		select {
		case <-ctx.Done():
			n := h.ClientCount()
			h.closeAll()
			logging.Info().Str("component", "livefeed-hub").Int("clients_closed", n).Msg("websocket hub stopped")
			return ctx.Err()

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketConnections.Set(float64(n))
			logging.Info().Int("total_clients", n).Msg("websocket client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			metrics.WebSocketConnections.Set(float64(n))
			logging.Info().Int("total_clients", n).Msg("websocket client disconnected")

		case m := <-h.broadcast:
			h.fanOut(m)
		}
	}
}

// Broadcast queues m for every client. It drops m when the queue is full.
func (h *Hub) Broadcast(m Message) {
	select {
	case h.broadcast <- m:
	default:
		logging.Warn().Str("type", m.Type).Msg("websocket broadcast queue full, message dropped")
	}
}

// Attach forwards every snapshot r publishes. The returned func detaches.
func (h *Hub) Attach(r *live.Reconciler) func() {
	return r.Subscribe(func(s live.Snapshot) {
		h.Broadcast(Message{Type: MessageTypeSnapshot, Data: s})
	})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) fanOut(m Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := h.sortedLocked()
	for _, c := range clients {
		select {
		case c.send <- m:
		default:
			// Slow consumer.
			close(c.send)
			delete(h.clients, c)
		}
	}
	metrics.WebSocketConnections.Set(float64(len(h.clients)))
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.sortedLocked() {
		close(c.send)
		delete(h.clients, c)
	}
	metrics.WebSocketConnections.Set(0)
}

func (h *Hub) sortedLocked() []*Client {
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool { return clients[i].id < clients[j].id })
	return clients
}
