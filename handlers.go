package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"sync"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"batter-scatter/chart"
	"batter-scatter/live"
	"batter-scatter/roster"
	"batter-scatter/scene"
	"batter-scatter/templates"
)

var errNoDataset = errors.New("no dataset loaded")

// server owns one shared chart. selector is nil when the roster failed to
// load; the page then renders without a chart and chart routes answer 503.
type server struct {
	ctx      context.Context
	hub      *live.Hub
	scene    *scene.Scene
	renderer *chart.Renderer
	selector *chart.Selector
	store    *PlayerStore
	players  int
	loadErr  error

	// mu orders a selection with the redraw broadcast it causes.
	mu sync.Mutex
}

func (s *server) routes(corsOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/", s.pageHandler)
	r.Get("/health", s.healthHandler)

	r.Group(func(cr chi.Router) {
		cr.Use(s.requireDataset)
		cr.Get("/chart.svg", s.svgHandler)
		cr.Get("/api/chart", s.chartHandler)
		cr.Post("/api/select", s.selectHandler)
		cr.Get("/ws", s.hub.Handler(s.ctx, s, s.greet))
	})
	return r
}

func (s *server) requireDataset(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.selector == nil {
			http.Error(w, errNoDataset.Error(), http.StatusServiceUnavailable)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) pageHandler(w http.ResponseWriter, r *http.Request) {
	data := templates.ChartPageData{Title: "Batter Scatter", Players: s.players}
	if s.selector == nil {
		data.LoadError = "The roster could not be loaded."
		if s.loadErr != nil {
			data.LoadError = s.loadErr.Error()
		}
	} else {
		s.mu.Lock()
		snap := s.scene.Snapshot()
		data.Generation = snap.Generation
		data.SVG = snap.Markup()
		data.YButtons = s.buttonGroup(chart.AxisY, "Choose Y-Axis Domain:")
		data.XButtons = s.buttonGroup(chart.AxisX, "Choose X-Axis Domain:")
		s.mu.Unlock()
	}
	templ.Handler(templates.ChartPage(data)).ServeHTTP(w, r)
}

func (s *server) svgHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := s.scene.Snapshot().WriteSVG(w); err != nil {
		fmt.Printf("❌ Failed to write chart: %v\n", err)
	}
}

func (s *server) chartHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	resp := s.chartResponse()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, resp)
}

func (s *server) selectHandler(w http.ResponseWriter, r *http.Request) {
	var req live.SelectRequest
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON body", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form body", http.StatusBadRequest)
			return
		}
		req.Axis, req.Key = r.FormValue("axis"), r.FormValue("key")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.selectLocked(req.Axis, req.Key); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chart.ErrUnknownKey) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	writeJSON(w, http.StatusOK, s.chartResponse())
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if s.selector == nil {
		status = "degraded"
	}
	stored, err := s.store.Count(r.Context())
	if err != nil {
		fmt.Printf("⚠️  Failed to count stored players: %v\n", err)
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":         status,
		"service":        "batter-scatter",
		"players":        s.players,
		"stored_players": stored,
		"active_clients": s.hub.ClientCount(),
	})
}

// Select applies a selection coming from a websocket client.
func (s *server) Select(axis, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectLocked(axis, key)
}

func (s *server) selectLocked(axisName, keyName string) error {
	if s.selector == nil {
		return errNoDataset
	}
	a, err := chart.ParseAxis(axisName)
	if err != nil {
		return err
	}
	key, err := roster.ParseKey(keyName)
	if err != nil {
		return fmt.Errorf("%w: %v", chart.ErrUnknownKey, err)
	}
	if _, err := s.selector.Select(a, key); err != nil {
		return err
	}
	s.hub.Broadcast(live.NewRedrawMessage(s.redrawPayload()))
	return nil
}

// greet hands a registered websocket client the current chart. Holding mu
// orders the greeting before any redraw a later selection broadcasts.
func (s *server) greet(c *live.Client) {
	if s.selector == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.TrySend(live.NewRedrawMessage(s.redrawPayload()))
}

func (s *server) redrawPayload() live.RedrawPayload {
	snap := s.scene.Snapshot()
	st := s.selector.State()
	return live.RedrawPayload{
		Generation: snap.Generation,
		Y:          string(st.Y),
		X:          string(st.X),
		SVG:        snap.Markup(),
		Buttons:    s.buttons(),
	}
}

func (s *server) buttons() map[string][]live.Button {
	out := make(map[string][]live.Button, 2)
	for _, a := range []chart.Axis{chart.AxisY, chart.AxisX} {
		for _, b := range s.selector.Buttons(a) {
			out[a.String()] = append(out[a.String()], live.Button{Key: string(b.Key), Active: b.Active})
		}
	}
	return out
}

func (s *server) buttonGroup(a chart.Axis, heading string) templates.ButtonGroup {
	g := templates.ButtonGroup{Axis: a.String(), Heading: heading}
	for _, b := range s.selector.Buttons(a) {
		g.Buttons = append(g.Buttons, templates.AxisButton{Key: string(b.Key), Active: b.Active})
	}
	return g
}

type groupJSON struct {
	Y     interface{} `json:"y"`
	X     interface{} `json:"x"`
	PX    live.Coord  `json:"px"`
	PY    live.Coord  `json:"py"`
	Names []string    `json:"names"`
}

// scaleJSON describes one axis scale; Step is only set for band scales.
type scaleJSON struct {
	Key    string      `json:"key"`
	Kind   string      `json:"kind"`
	Domain interface{} `json:"domain"`
	Range  [2]float64  `json:"range"`
	Step   float64     `json:"step,omitempty"`
}

type chartJSON struct {
	Generation uint64                   `json:"generation"`
	Y          string                   `json:"y"`
	X          string                   `json:"x"`
	Scales     map[string]scaleJSON     `json:"scales"`
	Groups     []groupJSON              `json:"groups"`
	Marks      []live.MarkPosition      `json:"marks"`
	Buttons    map[string][]live.Button `json:"buttons"`
}

func (s *server) chartResponse() chartJSON {
	st := s.selector.State()
	snap := s.scene.Snapshot()
	resp := chartJSON{
		Generation: snap.Generation,
		Y:          string(st.Y),
		X:          string(st.X),
		Scales:     make(map[string]scaleJSON, 2),
		Groups:     make([]groupJSON, len(st.Groups)),
		Marks:      make([]live.MarkPosition, len(snap.Marks)),
		Buttons:    s.buttons(),
	}
	resp.Scales[chart.AxisY.String()] = newScaleJSON(st.Y, st.YScale)
	resp.Scales[chart.AxisX.String()] = newScaleJSON(st.X, st.XScale)
	for i, g := range st.Groups {
		resp.Groups[i] = groupJSON{Y: valueJSON(g.Y), X: valueJSON(g.X), PX: live.Coord(g.PX), PY: live.Coord(g.PY), Names: g.Names}
	}
	for i, m := range snap.Marks {
		resp.Marks[i] = live.MarkPosition{ID: m.ID, X: live.Coord(m.X), Y: live.Coord(m.Y)}
	}
	return resp
}

func newScaleJSON(key roster.Key, sc chart.Scale) scaleJSON {
	out := scaleJSON{Key: string(key)}
	if sc == nil {
		return out
	}
	out.Range[0], out.Range[1] = sc.Range()
	switch v := sc.(type) {
	case *chart.Linear:
		lo, hi := v.Domain()
		out.Kind, out.Domain = "linear", []live.Coord{live.Coord(lo), live.Coord(hi)}
	case *chart.Band:
		out.Kind, out.Domain, out.Step = "band", v.Domain(), v.Step()
	}
	return out
}

func valueJSON(v roster.Value) interface{} {
	if v.IsLabel() {
		return v.String()
	}
	return live.Coord(v.Float())
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("❌ Failed to encode response: %v\n", err)
	}
}
