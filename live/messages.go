package live

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"batter-scatter/scene"
)

// Message types for WebSocket communication
const (
	MessageTypeRedraw    = "redraw"
	MessageTypeFrame     = "frame"
	MessageTypeSelect    = "select"
	MessageTypeHeartbeat = "heartbeat"
	MessageTypeError     = "error"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SelectRequest asks for one axis to switch to another column.
type SelectRequest struct {
	Axis string `json:"axis"`
	Key  string `json:"key"`
}

// Coord is a pixel coordinate. NaN and infinities encode as null.
type Coord float64

func (c Coord) MarshalJSON() ([]byte, error) {
	f := float64(c)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, f, 'g', -1, 64), nil
}

// MarkPosition is where one mark currently is.
type MarkPosition struct {
	ID int   `json:"id"`
	X  Coord `json:"x"`
	Y  Coord `json:"y"`
}

// FramePayload carries the mark movements of one layout tick.
type FramePayload struct {
	Generation uint64         `json:"generation"`
	Marks      []MarkPosition `json:"marks"`
}

// Button is one axis option and whether it is selected.
type Button struct {
	Key    string `json:"key"`
	Active bool   `json:"active"`
}

// RedrawPayload replaces the whole chart on the client.
type RedrawPayload struct {
	Generation uint64              `json:"generation"`
	Y          string              `json:"y"`
	X          string              `json:"x"`
	SVG        string              `json:"svg"`
	Buttons    map[string][]Button `json:"buttons"`
}

// ConnectionStats represents connection statistics
type ConnectionStats struct {
	ClientID         string    `json:"client_id"`
	ConnectedAt      time.Time `json:"connected_at"`
	MessagesSent     int64     `json:"messages_sent"`
	MessagesReceived int64     `json:"messages_received"`
	LastMessageAt    time.Time `json:"last_message_at"`
}

// ErrorMessage represents an error message
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewFrameMessage wraps a scene frame for broadcast.
func NewFrameMessage(f scene.Frame) ServerMessage {
	marks := make([]MarkPosition, len(f.Marks))
	for i, p := range f.Marks {
		marks[i] = MarkPosition{ID: p.ID, X: Coord(p.X), Y: Coord(p.Y)}
	}
	return ServerMessage{
		Type:      MessageTypeFrame,
		Payload:   FramePayload{Generation: f.Generation, Marks: marks},
		Timestamp: time.Now(),
	}
}

// NewRedrawMessage wraps a full chart for broadcast.
func NewRedrawMessage(p RedrawPayload) ServerMessage {
	return ServerMessage{Type: MessageTypeRedraw, Payload: p, Timestamp: time.Now()}
}
