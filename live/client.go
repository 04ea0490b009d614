package live

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	// Buffer size for outbound messages; a full layout run is ~300 frames
	sendBufferSize = 512
)

// Dispatcher applies selections received from clients.
type Dispatcher interface {
	Select(axis, key string) error
}

// Registry is the part of the hub a client talks back to.
type Registry interface {
	Unregister(c *Client)
}

// Client represents a WebSocket client connection
type Client struct {
	ID   string
	Send chan ServerMessage

	conn       *websocket.Conn
	hub        Registry
	dispatcher Dispatcher

	sendMu sync.RWMutex
	closed bool

	connectedAt      time.Time
	messagesSent     int64
	messagesReceived int64
	lastMessageAt    time.Time
	mu               sync.Mutex
}

// NewClient creates a new client instance
func NewClient(id string, conn *websocket.Conn, hub Registry, d Dispatcher) *Client {
	return &Client{
		ID:          id,
		Send:        make(chan ServerMessage, sendBufferSize),
		conn:        conn,
		hub:         hub,
		dispatcher:  d,
		connectedAt: time.Now(),
	}
}

// ReadPump pumps messages from the WebSocket connection to the dispatcher
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				fmt.Printf("client %s unexpected close: %v\n", c.ID, err)
			}
			return
		}

		c.updateReceived()
		c.handleClientMessage(msg)
	}
}

// WritePump pumps messages from the hub to the WebSocket connection
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				fmt.Printf("client %s write error: %v\n", c.ID, err)
				return
			}
			c.updateSent()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// TrySend queues msg without blocking. It returns false if the buffer is
// full or the client is already closed.
func (c *Client) TrySend(msg ServerMessage) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// closeSend closes the outbound channel once.
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Send)
	}
}

// Stats returns connection statistics
func (c *Client) Stats() ConnectionStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return ConnectionStats{
		ClientID:         c.ID,
		ConnectedAt:      c.connectedAt,
		MessagesSent:     c.messagesSent,
		MessagesReceived: c.messagesReceived,
		LastMessageAt:    c.lastMessageAt,
	}
}

func (c *Client) handleClientMessage(msg ClientMessage) {
	switch msg.Type {
	case MessageTypeSelect:
		c.handleSelect(msg.Payload)
	case MessageTypeHeartbeat:
		c.TrySend(ServerMessage{Type: MessageTypeHeartbeat, Payload: c.Stats(), Timestamp: time.Now()})
	default:
		c.sendError("unknown_message_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

func (c *Client) handleSelect(payload json.RawMessage) {
	var req SelectRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		c.sendError("invalid_selection", "failed to parse selection")
		return
	}
	if c.dispatcher == nil {
		c.sendError("unavailable", "no dataset loaded")
		return
	}
	if err := c.dispatcher.Select(req.Axis, req.Key); err != nil {
		c.sendError("invalid_selection", err.Error())
		return
	}
	fmt.Printf("client %s selected %s=%s\n", c.ID, req.Axis, req.Key)
}

func (c *Client) sendError(code, message string) {
	c.TrySend(ServerMessage{
		Type:      MessageTypeError,
		Payload:   ErrorMessage{Code: code, Message: message},
		Timestamp: time.Now(),
	})
}

func (c *Client) updateSent() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesSent++
	c.lastMessageAt = time.Now()
}

func (c *Client) updateReceived() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messagesReceived++
	c.lastMessageAt = time.Now()
}
