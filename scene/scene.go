// Package scene is the in-memory drawing the chart renders onto. It keeps
// the current marks and axis guides, renders them as SVG and publishes mark
// movements as frames.
package scene

import (
	"math"
	"sync"

	"batter-scatter/chart"
	"batter-scatter/roster"
)

// Frame is one batch of mark movements. Generation identifies the redraw
// the marks belong to; it changes every time the marks are removed.
type Frame struct {
	Generation uint64
	Marks      []chart.Position
}

// Guide is a drawn axis: its key, pixel span and ticks.
type Guide struct {
	Key    roster.Key
	R0, R1 float64
	Ticks  []chart.Tick
}

// Snapshot is a copy of everything currently drawn.
type Snapshot struct {
	Generation uint64
	Dims       chart.Dimensions
	Y, X       *Guide
	Marks      []chart.Mark
}

// Scene implements chart.Surface. It is safe for concurrent use.
type Scene struct {
	dims chart.Dimensions

	mu      sync.RWMutex
	gen     uint64
	marks   []chart.Mark
	index   map[int]int
	guides  [2]*Guide
	onFrame func(Frame)
}

// New returns an empty scene of the given size.
func New(dims chart.Dimensions) *Scene {
	return &Scene{dims: dims, index: make(map[int]int)}
}

// OnFrame registers fn to receive every MoveMarks call as a Frame. fn is
// called synchronously and must not block or call back into the scene.
func (s *Scene) OnFrame(fn func(Frame)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onFrame = fn
}

func (s *Scene) RemoveMarks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.marks = nil
	s.index = make(map[int]int)
}

func (s *Scene) RemoveAxisGuide(a chart.Axis) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := guideIndex(a); i >= 0 {
		s.guides[i] = nil
	}
}

func (s *Scene) DrawAxisGuide(a chart.Axis, key roster.Key, sc chart.Scale) {
	r0, r1 := sc.Range()
	g := &Guide{Key: key, R0: r0, R1: r1, Ticks: sc.Ticks()}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := guideIndex(a); i >= 0 {
		s.guides[i] = g
	}
}

func (s *Scene) CreateMark(m chart.Mark) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.index[m.ID]; ok {
		s.marks[i] = m
		return
	}
	s.index[m.ID] = len(s.marks)
	s.marks = append(s.marks, m)
}

// MoveMarks updates known marks and publishes the moves. Unknown IDs belong
// to an older drawing and are ignored.
func (s *Scene) MoveMarks(pos []chart.Position) {
	s.mu.Lock()
	moved := make([]chart.Position, 0, len(pos))
	for _, p := range pos {
		i, ok := s.index[p.ID]
		if !ok {
			continue
		}
		s.marks[i].X, s.marks[i].Y = p.X, p.Y
		moved = append(moved, p)
	}
	f := Frame{Generation: s.gen, Marks: moved}
	fn := s.onFrame
	s.mu.Unlock()

	if fn != nil && len(moved) > 0 {
		fn(f)
	}
}

// Generation returns the id of the current drawing.
func (s *Scene) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Snapshot copies the current drawing.
func (s *Scene) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Generation: s.gen,
		Dims:       s.dims,
		Marks:      append([]chart.Mark(nil), s.marks...),
	}
	if g := s.guides[guideIndex(chart.AxisY)]; g != nil {
		c := *g
		snap.Y = &c
	}
	if g := s.guides[guideIndex(chart.AxisX)]; g != nil {
		c := *g
		snap.X = &c
	}
	return snap
}

func guideIndex(a chart.Axis) int {
	switch a {
	case chart.AxisY:
		return 0
	case chart.AxisX:
		return 1
	}
	return -1
}

func finite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
