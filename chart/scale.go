package chart

import (
	"math"
	"strconv"

	mscale "github.com/aclements/go-moremath/scale"

	"batter-scatter/roster"
)

// maxTicks bounds the number of labelled ticks on a continuous axis.
const maxTicks = 10

// Scale maps roster values onto pixel coordinates along one axis.
type Scale interface {
	Map(v roster.Value) float64
	// Range returns the pixel coordinates the domain is stretched across.
	Range() (r0, r1 float64)
	// Ticks returns the labelled guide positions of the axis.
	Ticks() []Tick
}

// Tick is one labelled position on an axis guide.
type Tick struct {
	Pos   float64
	Label string
}

// Linear is a continuous scale from [Min, Max] onto [r0, r1].
type Linear struct {
	s      mscale.Linear
	r0, r1 float64
}

// NewLinear returns a linear scale. A zero-width domain maps every value to
// the middle of the range.
func NewLinear(min, max, r0, r1 float64) *Linear {
	return &Linear{s: mscale.Linear{Min: min, Max: max}, r0: r0, r1: r1}
}

func (l *Linear) Domain() (min, max float64) { return l.s.Min, l.s.Max }

func (l *Linear) Range() (r0, r1 float64) { return l.r0, l.r1 }

func (l *Linear) Map(v roster.Value) float64 {
	return l.mapFloat(v.Float())
}

func (l *Linear) mapFloat(x float64) float64 {
	var t float64
	if l.s.Min == l.s.Max {
		t = 0.5
		if math.IsInf(l.s.Min, 0) {
			t = math.NaN()
		}
	} else {
		t = l.s.Map(x)
	}
	return l.r0 + t*(l.r1-l.r0)
}

func (l *Linear) Ticks() []Tick {
	lo, hi := l.s.Min, l.s.Max
	if !finite(lo) || !finite(hi) {
		return nil
	}
	if lo == hi {
		return []Tick{{Pos: l.mapFloat(lo), Label: formatTick(lo, 0)}}
	}
	ls := l.s
	if lo > hi {
		ls.Min, ls.Max = hi, lo
	}
	major, _ := ls.Ticks(mscale.TickOptions{Max: maxTicks})
	step := 0.0
	if len(major) > 1 {
		step = major[1] - major[0]
	}
	ticks := make([]Tick, len(major))
	for i, v := range major {
		ticks[i] = Tick{Pos: l.mapFloat(v), Label: formatTick(v, step)}
	}
	return ticks
}

func formatTick(v, step float64) string {
	decimals := 0
	if step > 0 {
		if d := -int(math.Floor(math.Log10(step) + 1e-9)); d > 0 {
			decimals = d
		}
	} else if v != math.Trunc(v) {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}

// Band places categories at evenly spaced slots across [r0, r1].
type Band struct {
	domain []string
	index  map[string]int
	r0, r1 float64
	pos    []float64
	step   float64
	width  float64
}

// NewBand returns a band scale over domain, centred in its range. The
// paddings are fractions of one step.
func NewBand(domain []string, r0, r1, paddingInner, paddingOuter float64) *Band {
	paddingInner = math.Min(1, math.Max(0, paddingInner))
	b := &Band{
		domain: append([]string(nil), domain...),
		index:  make(map[string]int, len(domain)),
		r0:     r0,
		r1:     r1,
	}
	for i, c := range b.domain {
		b.index[c] = i
	}

	n := float64(len(b.domain))
	reverse := r1 < r0
	start, stop := r0, r1
	if reverse {
		start, stop = r1, r0
	}
	b.step = (stop - start) / math.Max(1, n-paddingInner+paddingOuter*2)
	start += (stop - start - b.step*(n-paddingInner)) * 0.5
	b.width = b.step * (1 - paddingInner)

	b.pos = make([]float64, len(b.domain))
	for i := range b.pos {
		b.pos[i] = start + b.step*float64(i)
	}
	if reverse {
		for i, j := 0, len(b.pos)-1; i < j; i, j = i+1, j-1 {
			b.pos[i], b.pos[j] = b.pos[j], b.pos[i]
		}
	}
	return b
}

func (b *Band) Domain() []string { return append([]string(nil), b.domain...) }

func (b *Band) Range() (r0, r1 float64) { return b.r0, b.r1 }

// Step is the distance between neighbouring categories.
func (b *Band) Step() float64 { return b.step }

// Bandwidth is the width of each category's band.
func (b *Band) Bandwidth() float64 { return b.width }

// Map returns NaN for categories outside the domain.
func (b *Band) Map(v roster.Value) float64 {
	i, ok := b.index[v.String()]
	if !ok {
		return math.NaN()
	}
	return b.pos[i]
}

func (b *Band) Ticks() []Tick {
	ticks := make([]Tick, len(b.domain))
	for i, c := range b.domain {
		ticks[i] = Tick{Pos: b.pos[i] + b.width/2, Label: c}
	}
	return ticks
}

// BuildScale derives the scale of one axis for key over the whole roster.
// Categorical keys get a band scale over the categories in first-seen order.
// Numeric keys get a linear scale: the X axis spans the true extent of the
// data, while the Y axis always starts at zero.
func BuildScale(axis Axis, key roster.Key, players []roster.Player, dims Dimensions) Scale {
	if key.Categorical() {
		r0, r1 := 0.0, float64(dims.Width)
		if axis == AxisY {
			r0, r1 = dims.PlotHeight(), 0
		}
		return NewBand(categories(players, key), r0, r1, 1, 1)
	}

	lo, hi := extent(players, key)
	if axis == AxisY {
		return NewLinear(0, hi, dims.PlotHeight(), 0)
	}
	return NewLinear(lo, hi, 0, dims.PlotWidth())
}

func categories(players []roster.Player, key roster.Key) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range players {
		c := p.Value(key).String()
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	return out
}

// extent returns the smallest and largest non-NaN values of key, or NaN
// for both if there are none.
func extent(players []roster.Player, key roster.Key) (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()
	for _, p := range players {
		v := p.Value(key).Float()
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(lo) || v < lo {
			lo = v
		}
		if math.IsNaN(hi) || v > hi {
			hi = v
		}
	}
	return lo, hi
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
