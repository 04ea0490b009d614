package chart

import (
	"fmt"
	"sync"

	"batter-scatter/roster"
)

// Button is one axis option as shown to the user.
type Button struct {
	Key    roster.Key
	Active bool
}

// Selector holds the current axis selection and redraws on every change.
// Both axes start on their first option.
type Selector struct {
	r *Renderer

	mu    sync.Mutex
	state State
}

func NewSelector(r *Renderer) *Selector {
	return &Selector{r: r, state: State{Y: yOptions[0], X: xOptions[0]}}
}

// Paint draws the chart for the current selection from scratch.
func (s *Selector) Paint() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = s.r.Redraw(State{}, s.state.Y, s.state.X)
	return s.state
}

// Select switches axis a to key, keeps the other axis as it is and redraws.
func (s *Selector) Select(a Axis, key roster.Key) (State, error) {
	if !Offers(a, key) {
		return State{}, fmt.Errorf("%w: %q on %s axis", ErrUnknownKey, key, a)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	y, x := s.state.Y, s.state.X
	if a == AxisY {
		y = key
	} else {
		x = key
	}
	s.state = s.r.Redraw(s.state, y, x)
	return s.state, nil
}

// State returns the result of the latest redraw.
func (s *Selector) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Buttons lists the options of a with exactly the selected one active.
func (s *Selector) Buttons(a Axis) []Button {
	s.mu.Lock()
	current := s.state.X
	if a == AxisY {
		current = s.state.Y
	}
	s.mu.Unlock()

	opts := Options(a)
	buttons := make([]Button, len(opts))
	for i, k := range opts {
		buttons[i] = Button{Key: k, Active: k == current}
	}
	return buttons
}
