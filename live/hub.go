// Package live pushes chart redraws and layout frames to browsers over
// WebSockets and accepts axis selections from them.
package live

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	broadcast  chan ServerMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan ServerMessage, 1000),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	fmt.Println("✓ Hub started")
	defer close(h.done)

	go h.reportMetrics(ctx)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case msg := <-h.broadcast:
			h.broadcastMessage(msg)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.closeSend()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues msg for every client without blocking
func (h *Hub) Broadcast(msg ServerMessage) {
	select {
	case h.broadcast <- msg:
	default:
		fmt.Printf("⚠️  Broadcast buffer full, dropping %s message\n", msg.Type)
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.metricsMu.Lock()
	h.totalConnections++
	h.metricsMu.Unlock()

	fmt.Printf("client %s connected (total: %d)\n", c.ID, len(h.clients))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		c.closeSend()
		fmt.Printf("client %s disconnected (total: %d)\n", c.ID, len(h.clients))
	}
}

func (h *Hub) broadcastMessage(msg ServerMessage) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	sent, dropped := 0, 0
	for _, c := range clients {
		if c.TrySend(msg) {
			sent++
			continue
		}
		dropped++
		fmt.Printf("⚠️  client %s buffer full, disconnecting\n", c.ID)
		go h.Unregister(c)
	}

	if sent > 0 {
		h.metricsMu.Lock()
		h.totalMessages++
		h.metricsMu.Unlock()
	}
	if dropped > 0 {
		fmt.Printf("⚠️  Dropped %d %s messages (slow clients)\n", dropped, msg.Type)
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// Metrics returns hub counters
func (h *Hub) Metrics() map[string]interface{} {
	active := h.ClientCount()

	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	return map[string]interface{}{
		"active_clients":     active,
		"total_connections":  h.totalConnections,
		"total_messages":     h.totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	fmt.Printf("🛑 Shutting down hub (%d active clients)\n", len(h.clients))
	for c := range h.clients {
		c.closeSend()
		delete(h.clients, c)
	}
}

func (h *Hub) reportMetrics(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m := h.Metrics()
			fmt.Printf("📊 Hub Metrics: clients=%d total_connections=%d messages=%d\n",
				m["active_clients"], m["total_connections"], m["total_messages"])
		}
	}
}
