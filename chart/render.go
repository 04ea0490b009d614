package chart

import (
	"sync"

	"batter-scatter/force"
	"batter-scatter/roster"
)

// Mark is the drawn representation of one Group.
type Mark struct {
	ID    int
	X, Y  float64
	Group Group
}

// Position moves the mark with the given ID.
type Position struct {
	ID   int
	X, Y float64
}

// Surface is what the renderer draws on.
type Surface interface {
	RemoveMarks()
	RemoveAxisGuide(a Axis)
	DrawAxisGuide(a Axis, key roster.Key, s Scale)
	CreateMark(m Mark)
	MoveMarks(pos []Position)
}

// Layout starts a collision pass over freshly created marks. Start must not
// call tick before it returns.
type Layout interface {
	Start(nodes []force.Node, tick force.TickFunc) force.Handle
}

// State is the full result of a redraw. The zero State has nothing drawn.
type State struct {
	Y, X           roster.Key
	YScale, XScale Scale
	Groups         []Group
}

// Renderer redraws the chart on a Surface. It is safe for concurrent use;
// every Redraw supersedes the marks and layout of the previous one.
type Renderer struct {
	players []roster.Player
	dims    Dimensions
	surface Surface
	layout  Layout

	mu     sync.Mutex
	gen    uint64
	handle force.Handle
}

// NewRenderer returns a Renderer over players. layout may be nil, in which
// case marks stay where their groups put them.
func NewRenderer(players []roster.Player, dims Dimensions, surface Surface, layout Layout) *Renderer {
	return &Renderer{players: players, dims: dims, surface: surface, layout: layout}
}

// Redraw replaces the drawn chart with the one for (yKey, xKey). Axis guides
// are only rebuilt for axes whose key differs from prev.
func (r *Renderer) Redraw(prev State, yKey, xKey roster.Key) State {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gen++
	r.cancelLocked()
	r.surface.RemoveMarks()

	next := State{Y: yKey, X: xKey, YScale: prev.YScale, XScale: prev.XScale}
	if next.YScale == nil || yKey != prev.Y {
		r.surface.RemoveAxisGuide(AxisY)
		next.YScale = BuildScale(AxisY, yKey, r.players, r.dims)
		r.surface.DrawAxisGuide(AxisY, yKey, next.YScale)
	}
	if next.XScale == nil || xKey != prev.X {
		r.surface.RemoveAxisGuide(AxisX)
		next.XScale = BuildScale(AxisX, xKey, r.players, r.dims)
		r.surface.DrawAxisGuide(AxisX, xKey, next.XScale)
	}

	next.Groups = GroupPlayers(r.players, yKey, xKey, next.YScale, next.XScale)
	nodes := make([]force.Node, len(next.Groups))
	for i, g := range next.Groups {
		r.surface.CreateMark(Mark{ID: i, X: g.PX, Y: g.PY, Group: g})
		nodes[i] = force.Node{X: g.PX, Y: g.PY}
	}

	if r.layout != nil && len(nodes) > 0 {
		gen := r.gen
		r.handle = r.layout.Start(nodes, func(ns []force.Node) { r.tick(gen, ns) })
	}
	return next
}

// Stop cancels the running layout, if any.
func (r *Renderer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelLocked()
}

func (r *Renderer) cancelLocked() {
	if r.handle != nil {
		r.handle.Cancel()
		r.handle = nil
	}
}

func (r *Renderer) tick(gen uint64, nodes []force.Node) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		return
	}
	pos := make([]Position, len(nodes))
	for i, n := range nodes {
		pos[i] = Position{ID: i, X: n.X, Y: n.Y}
	}
	r.surface.MoveMarks(pos)
}
