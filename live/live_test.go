package live

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"batter-scatter/chart"
	"batter-scatter/scene"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []SelectRequest
}

func (d *recordingDispatcher) Select(axis, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if key == "weight" && axis == "y" {
		return errors.New("unknown axis key: \"weight\" on y axis")
	}
	d.calls = append(d.calls, SelectRequest{Axis: axis, Key: key})
	return nil
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.calls)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func startHub(t *testing.T, d Dispatcher, greet Greeter) (*Hub, string) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := NewHub()
	go h.Run(ctx)

	server := httptest.NewServer(h.Handler(ctx, d, greet))
	t.Cleanup(server.Close)
	return h, "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func TestHub_GreetsAndBroadcasts(t *testing.T) {
	greet := func(c *Client) {
		c.TrySend(NewRedrawMessage(RedrawPayload{Generation: 3, Y: "avg", X: "height", SVG: "<svg/>"}))
	}
	h, url := startHub(t, nil, greet)
	conn := dial(t, url)
	waitFor(t, "registration", func() bool { return h.ClientCount() == 1 })

	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read greeting: %v", err)
	}
	if msg.Type != MessageTypeRedraw {
		t.Fatalf("first message type = %q, want redraw", msg.Type)
	}
	var redraw RedrawPayload
	if err := json.Unmarshal(msg.Payload, &redraw); err != nil || redraw.Generation != 3 || redraw.SVG != "<svg/>" {
		t.Fatalf("greeting payload = %s (%v)", msg.Payload, err)
	}

	h.Broadcast(NewFrameMessage(scene.Frame{Generation: 3, Marks: []chart.Position{{ID: 0, X: 1.5, Y: math.NaN()}}}))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	if msg.Type != MessageTypeFrame {
		t.Fatalf("broadcast type = %q, want frame", msg.Type)
	}
	if want := `{"generation":3,"marks":[{"id":0,"x":1.5,"y":null}]}`; string(msg.Payload) != want {
		t.Fatalf("frame payload = %s, want %s", msg.Payload, want)
	}

	conn.Close()
	waitFor(t, "unregistration", func() bool { return h.ClientCount() == 0 })
}

func TestHub_BroadcastDuringGreetingIsDelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := NewHub()
	go h.Run(ctx)

	greet := func(c *Client) {
		// A selection lands while the client is being greeted.
		h.Broadcast(NewRedrawMessage(RedrawPayload{Generation: 4, Y: "HR", X: "height"}))
		c.TrySend(NewRedrawMessage(RedrawPayload{Generation: 3, Y: "avg", X: "height"}))
	}
	server := httptest.NewServer(h.Handler(ctx, nil, greet))
	t.Cleanup(server.Close)
	conn := dial(t, "ws"+strings.TrimPrefix(server.URL, "http")+"/ws")

	seen := map[uint64]bool{}
	for !seen[3] || !seen[4] {
		var msg received
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v (saw generations %v)", err, seen)
		}
		var redraw RedrawPayload
		if err := json.Unmarshal(msg.Payload, &redraw); err != nil {
			t.Fatalf("decode: %v", err)
		}
		seen[redraw.Generation] = true
	}
}

func TestClient_SelectIsDispatched(t *testing.T) {
	d := &recordingDispatcher{}
	_, url := startHub(t, d, nil)
	conn := dial(t, url)

	if err := conn.WriteJSON(map[string]interface{}{
		"type":    "select",
		"payload": map[string]string{"axis": "x", "key": "handedness"},
	}); err != nil {
		t.Fatalf("write select: %v", err)
	}
	waitFor(t, "dispatch", func() bool { return d.count() == 1 })
	if got := d.calls[0]; got.Axis != "x" || got.Key != "handedness" {
		t.Fatalf("dispatched %+v", got)
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"type":    "select",
		"payload": map[string]string{"axis": "y", "key": "weight"},
	}); err != nil {
		t.Fatalf("write select: %v", err)
	}
	var msg received
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read error reply: %v", err)
	}
	var e ErrorMessage
	if msg.Type != MessageTypeError || json.Unmarshal(msg.Payload, &e) != nil || e.Code != "invalid_selection" {
		t.Fatalf("unexpected reply %s %s", msg.Type, msg.Payload)
	}
	if d.count() != 1 {
		t.Fatal("rejected selection was recorded")
	}
}

func TestClient_HeartbeatAndUnknownTypes(t *testing.T) {
	_, url := startHub(t, nil, nil)
	conn := dial(t, url)

	if err := conn.WriteJSON(map[string]string{"type": "heartbeat"}); err != nil {
		t.Fatalf("write heartbeat: %v", err)
	}
	var msg received
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != MessageTypeHeartbeat {
		t.Fatalf("heartbeat reply = %+v (%v)", msg, err)
	}
	var stats ConnectionStats
	if err := json.Unmarshal(msg.Payload, &stats); err != nil || stats.ClientID == "" || stats.MessagesReceived != 1 {
		t.Fatalf("stats = %+v (%v)", stats, err)
	}

	if err := conn.WriteJSON(map[string]string{"type": "subscribe"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != MessageTypeError {
		t.Fatalf("unknown type reply = %+v (%v)", msg, err)
	}

	if err := conn.WriteJSON(map[string]interface{}{"type": "select", "payload": map[string]string{"axis": "x", "key": "weight"}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	var e ErrorMessage
	if err := conn.ReadJSON(&msg); err != nil || json.Unmarshal(msg.Payload, &e) != nil || e.Code != "unavailable" {
		t.Fatalf("select without dataset reply = %+v (%v)", msg, err)
	}
}

func TestClient_TrySendAfterClose(t *testing.T) {
	c := NewClient("c1", nil, nil, nil)
	if !c.TrySend(ServerMessage{Type: MessageTypeFrame}) {
		t.Fatal("TrySend failed on an open client")
	}
	c.closeSend()
	c.closeSend()
	if c.TrySend(ServerMessage{Type: MessageTypeFrame}) {
		t.Fatal("TrySend succeeded on a closed client")
	}
}

func TestCoord_MarshalJSON(t *testing.T) {
	out, err := json.Marshal([]Coord{1, 0.25, Coord(math.Inf(1)), Coord(math.NaN())})
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "[1,0.25,null,null]" {
		t.Fatalf("got %s", out)
	}
}
