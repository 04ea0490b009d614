// Package chart holds the axis-selection and redraw logic of the scatter
// plot: scales per axis, grouping of players into points, and the renderer
// that drives a drawing Surface and the collision layout.
package chart

import (
	"errors"
	"fmt"

	"batter-scatter/roster"
)

// ErrUnknownKey is returned when a selection names an axis or column the
// chart does not offer.
var ErrUnknownKey = errors.New("unknown axis key")

// Axis identifies one of the two chart axes.
type Axis int

const (
	AxisY Axis = iota
	AxisX
)

func (a Axis) String() string {
	switch a {
	case AxisY:
		return "y"
	case AxisX:
		return "x"
	}
	return fmt.Sprintf("Axis(%d)", int(a))
}

// ParseAxis accepts "x" or "y".
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "y", "Y":
		return AxisY, nil
	case "x", "X":
		return AxisX, nil
	}
	return 0, fmt.Errorf("%w: axis %q", ErrUnknownKey, s)
}

var (
	yOptions = []roster.Key{roster.KeyAvg, roster.KeyHR}
	xOptions = []roster.Key{roster.KeyHeight, roster.KeyWeight, roster.KeyHandedness}
)

// Options lists the selectable keys of an axis in button order.
func Options(a Axis) []roster.Key {
	if a == AxisY {
		return append([]roster.Key(nil), yOptions...)
	}
	return append([]roster.Key(nil), xOptions...)
}

// Offers reports whether key is one of a's options.
func Offers(a Axis, key roster.Key) bool {
	for _, k := range Options(a) {
		if k == key {
			return true
		}
	}
	return false
}

// Dimensions are the canvas constants of the chart, in pixels.
type Dimensions struct {
	Margin int
	Width  int
	Height int
	Radius int
}

// DefaultDimensions matches a 500x500 canvas with a 50px margin.
func DefaultDimensions() Dimensions {
	return Dimensions{Margin: 50, Width: 450, Height: 450, Radius: 4}
}

// PlotWidth is the span of continuous X axes.
func (d Dimensions) PlotWidth() float64 { return float64(d.Width - d.Margin) }

// PlotHeight is the span of the Y axis; the X axis is drawn at this offset.
func (d Dimensions) PlotHeight() float64 { return float64(d.Height - d.Margin) }

// CanvasSize is the outer size of the drawing.
func (d Dimensions) CanvasSize() (w, h int) { return d.Width + d.Margin, d.Height + d.Margin }
