package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"batter-scatter/live"
)

const rosterCSV = `name,handedness,height,weight,avg,HR
A,R,70,180,0.300,20
B,R,70,190,0.300,15
C,L,74,205,0.250,31
D,B,68,170,0.275,4
`

func writeRoster(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "baseball_data.csv")
	if err := os.WriteFile(path, []byte(rosterCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestServer(t *testing.T, source string) (*server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.DataSource = source
	cfg.Layout.TickIntervalMs = 1

	store, err := openPlayerStore(ctx)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	hub := live.NewHub()
	go hub.Run(ctx)

	s := newServer(ctx, cfg, store, hub)
	t.Cleanup(func() {
		if s.renderer != nil {
			s.renderer.Stop()
		}
	})
	ts := httptest.NewServer(s.routes(cfg.CORSOrigins))
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func decodeChart(t *testing.T, body string) chartJSON {
	t.Helper()
	var c chartJSON
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		t.Fatalf("decode chart: %v\n%s", err, body)
	}
	return c
}

func TestPage_RendersChartAndButtons(t *testing.T) {
	_, ts := newTestServer(t, writeRoster(t))

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`id="chart-container"`,
		`id="y-Axis"`,
		`id="x-Axis"`,
		`class="points"`,
		`class="btn btn-active" data-axis="y" data-key="avg"`,
		`class="btn btn-active" data-axis="x" data-key="height"`,
		`Choose X-Axis Domain:`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %s", want)
		}
	}
}

func TestChartSVG(t *testing.T) {
	_, ts := newTestServer(t, writeRoster(t))

	resp, body := get(t, ts.URL+"/chart.svg")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/svg+xml" {
		t.Fatalf("content type = %q", ct)
	}
	if !strings.Contains(body, "<svg") || strings.Count(body, `class="points"`) != 3 {
		t.Fatalf("unexpected svg:\n%s", body)
	}
}

func TestAPIChart_InitialState(t *testing.T) {
	_, ts := newTestServer(t, writeRoster(t))

	resp, body := get(t, ts.URL+"/api/chart")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	c := decodeChart(t, body)
	if c.Y != "avg" || c.X != "height" {
		t.Fatalf("selection = %s/%s", c.Y, c.X)
	}
	if len(c.Groups) != 3 || len(c.Groups[0].Names) != 2 {
		t.Fatalf("groups = %+v", c.Groups)
	}
	if len(c.Marks) != 3 {
		t.Fatalf("marks = %+v", c.Marks)
	}
	if !c.Buttons["y"][0].Active || c.Buttons["y"][1].Active || !c.Buttons["x"][0].Active {
		t.Fatalf("buttons = %+v", c.Buttons)
	}
	y, x := c.Scales["y"], c.Scales["x"]
	if y.Kind != "linear" || y.Key != "avg" || fmt.Sprint(y.Domain) != "[0 0.3]" || y.Range != [2]float64{400, 0} {
		t.Fatalf("y scale = %+v", y)
	}
	if x.Kind != "linear" || fmt.Sprint(x.Domain) != "[68 74]" || x.Step != 0 {
		t.Fatalf("x scale = %+v", x)
	}
}

func TestAPISelect(t *testing.T) {
	_, ts := newTestServer(t, writeRoster(t))

	resp, err := http.PostForm(ts.URL+"/api/select", url.Values{"axis": {"x"}, "key": {"handedness"}})
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	c := decodeChart(t, string(body))
	if c.Y != "avg" || c.X != "handedness" {
		t.Fatalf("selection after form select = %s/%s", c.Y, c.X)
	}
	if x := c.Scales["x"]; x.Kind != "band" || fmt.Sprint(x.Domain) != "[R L B]" || x.Step <= 0 {
		t.Fatalf("x scale after form select = %+v", x)
	}

	resp, err = http.Post(ts.URL+"/api/select", "application/json", strings.NewReader(`{"axis":"y","key":"HR"}`))
	if err != nil {
		t.Fatal(err)
	}
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}

	_, body2 := get(t, ts.URL+"/api/chart")
	c = decodeChart(t, body2)
	if c.Y != "HR" || c.X != "handedness" {
		t.Fatalf("selection = %s/%s", c.Y, c.X)
	}
	if len(c.Groups) != 4 {
		t.Fatalf("every HR value differs, got %d groups", len(c.Groups))
	}
}

func TestAPISelect_RejectsUnknownKeys(t *testing.T) {
	_, ts := newTestServer(t, writeRoster(t))

	for _, body := range []string{
		`{"axis":"y","key":"weight"}`,
		`{"axis":"z","key":"avg"}`,
		`{"axis":"x","key":"shoe_size"}`,
		`not json`,
	} {
		resp, err := http.Post(ts.URL+"/api/select", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, resp.StatusCode)
		}
	}

	_, body := get(t, ts.URL+"/api/chart")
	if c := decodeChart(t, body); c.Y != "avg" || c.X != "height" {
		t.Fatalf("rejected selections changed state to %s/%s", c.Y, c.X)
	}
}

func TestWithoutDataset(t *testing.T) {
	_, ts := newTestServer(t, filepath.Join(t.TempDir(), "missing.csv"))

	for _, path := range []string{"/chart.svg", "/api/chart", "/ws"} {
		if resp, _ := get(t, ts.URL+path); resp.StatusCode != http.StatusServiceUnavailable {
			t.Errorf("GET %s: status = %d, want 503", path, resp.StatusCode)
		}
	}
	resp, err := http.PostForm(ts.URL+"/api/select", url.Values{"axis": {"x"}, "key": {"weight"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("POST /api/select: status = %d, want 503", resp.StatusCode)
	}

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("page status = %d", resp.StatusCode)
	}
	if strings.Contains(body, "chart-container") || strings.Contains(body, "<button") {
		t.Fatal("page rendered a chart without a dataset")
	}
	if !strings.Contains(body, "missing.csv") {
		t.Fatal("page does not explain the load failure")
	}

	_, body = get(t, ts.URL+"/health")
	var health map[string]interface{}
	if err := json.Unmarshal([]byte(body), &health); err != nil || health["status"] != "degraded" {
		t.Fatalf("health = %s", body)
	}
	if health["stored_players"] != float64(0) {
		t.Fatalf("stored players = %v, want 0", health["stored_players"])
	}
}

func TestHealth_ReportsStoredPlayers(t *testing.T) {
	_, ts := newTestServer(t, writeRoster(t))

	resp, body := get(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var health map[string]interface{}
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "healthy" || health["players"] != float64(4) || health["stored_players"] != float64(4) {
		t.Fatalf("health = %s", body)
	}
}

func TestWebSocket_SelectBroadcastsRedraw(t *testing.T) {
	_, ts := newTestServer(t, writeRoster(t))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	type message struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	nextRedraw := func() live.RedrawPayload {
		for {
			var msg message
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("read: %v", err)
			}
			if msg.Type != live.MessageTypeRedraw {
				continue
			}
			var p live.RedrawPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				t.Fatalf("decode redraw: %v", err)
			}
			return p
		}
	}

	first := nextRedraw()
	if first.Y != "avg" || first.X != "height" || !strings.HasPrefix(first.SVG, "<svg") {
		t.Fatalf("greeting = %s/%s", first.Y, first.X)
	}

	if err := conn.WriteJSON(map[string]interface{}{
		"type":    "select",
		"payload": map[string]string{"axis": "x", "key": "weight"},
	}); err != nil {
		t.Fatalf("write: %v", err)
	}
	next := nextRedraw()
	if next.X != "weight" || next.Y != "avg" || next.Generation <= first.Generation {
		t.Fatalf("redraw after select = %+v", next)
	}
	active := 0
	for _, b := range next.Buttons["x"] {
		if b.Active {
			active++
			if b.Key != "weight" {
				t.Fatalf("active x button = %s", b.Key)
			}
		}
	}
	if active != 1 {
		t.Fatalf("%d active x buttons", active)
	}
}
