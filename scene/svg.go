package scene

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"batter-scatter/chart"
)

// tickSize is the length of axis tick lines.
const tickSize = 6

// WriteSVG renders the snapshot as a standalone SVG document.
func (snap Snapshot) WriteSVG(w io.Writer) error {
	var buf bytes.Buffer
	snap.render(&buf)
	_, err := w.Write(buf.Bytes())
	return err
}

// Markup renders the snapshot as an <svg> element for inlining into HTML.
func (snap Snapshot) Markup() string {
	var buf bytes.Buffer
	snap.render(&buf)
	out := buf.String()
	if i := strings.Index(out, "<svg"); i > 0 {
		out = out[i:]
	}
	return out
}

func (snap Snapshot) render(w io.Writer) {
	width, height := snap.Dims.CanvasSize()
	canvas := svg.New(w)
	canvas.Start(width, height, `id="chart"`, fmt.Sprintf(`data-generation="%d"`, snap.Generation))
	canvas.Translate(snap.Dims.Margin, snap.Dims.Margin)

	if snap.Y != nil {
		renderYGuide(canvas, snap.Y)
	}
	if snap.X != nil {
		renderXGuide(canvas, snap.X, snap.Dims.Height-snap.Dims.Margin, snap.Dims.Width-snap.Dims.Margin+25)
	}

	for _, m := range snap.Marks {
		canvas.Group(fmt.Sprintf(`id="mark-%d"`, m.ID), `class="mark"`)
		canvas.Title(markTitle(m))
		// Unknown categories and NaN cells have no position until the layout
		// places them; frames reveal the circle.
		if finite(m.X) && finite(m.Y) {
			canvas.Circle(px(m.X), px(m.Y), snap.Dims.Radius, `class="points"`)
		} else {
			canvas.Circle(0, 0, snap.Dims.Radius, `class="points"`, `visibility="hidden"`)
		}
		canvas.Gend()
	}

	canvas.Gend()
	canvas.End()
}

func renderYGuide(canvas *svg.SVG, g *Guide) {
	canvas.Group(`id="y-Axis"`, `class="axis"`, `fill="none"`, `font-size="10"`, `text-anchor="end"`)
	canvas.Path(fmt.Sprintf("M%d,%.6gH0V%.6gH%d", -tickSize, g.R0, g.R1, -tickSize), `class="domain"`, `stroke="currentColor"`)
	for _, t := range g.Ticks {
		if !finite(t.Pos) {
			continue
		}
		y := px(t.Pos)
		canvas.Group(`class="tick"`)
		canvas.Line(-tickSize, y, 0, y, `stroke="currentColor"`)
		canvas.Text(-tickSize-3, y, t.Label, `fill="currentColor"`, `dy="0.32em"`)
		canvas.Gend()
	}
	canvas.Text(-10, 0, string(g.Key), `class="axis-label"`, `fill="black"`)
	canvas.Gend()
}

func renderXGuide(canvas *svg.SVG, g *Guide, offset, labelX int) {
	canvas.Group(`id="x-Axis"`, `class="axis"`, fmt.Sprintf(`transform="translate(0,%d)"`, offset),
		`fill="none"`, `font-size="10"`, `text-anchor="middle"`)
	canvas.Path(fmt.Sprintf("M%.6g,%dV0H%.6gV%d", g.R0, tickSize, g.R1, tickSize), `class="domain"`, `stroke="currentColor"`)
	for _, t := range g.Ticks {
		if !finite(t.Pos) {
			continue
		}
		x := px(t.Pos)
		canvas.Group(`class="tick"`)
		canvas.Line(x, 0, x, tickSize, `stroke="currentColor"`)
		canvas.Text(x, tickSize+3, t.Label, `fill="currentColor"`, `dy="0.71em"`)
		canvas.Gend()
	}
	canvas.Text(labelX, 15, string(g.Key), `class="axis-label"`, `fill="black"`)
	canvas.Gend()
}

func markTitle(m chart.Mark) string {
	return fmt.Sprintf("%s (%s, %s)", strings.Join(m.Group.Names, ", "), m.Group.Y, m.Group.X)
}

func px(x float64) int { return int(math.Round(x)) }
