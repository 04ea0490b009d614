package roster

import (
	"fmt"
	"math"
	"strconv"
)

// Key names one column of the roster that can be mapped onto a chart axis.
type Key string

const (
	KeyHeight     Key = "height"
	KeyWeight     Key = "weight"
	KeyHandedness Key = "handedness"
	KeyAvg        Key = "avg"
	KeyHR         Key = "HR"
)

// Categorical reports whether values of k are labels rather than numbers.
func (k Key) Categorical() bool {
	return k == KeyHandedness
}

// ParseKey maps a column name onto a Key.
func ParseKey(s string) (Key, error) {
	switch k := Key(s); k {
	case KeyHeight, KeyWeight, KeyHandedness, KeyAvg, KeyHR:
		return k, nil
	}
	return "", fmt.Errorf("unknown column %q", s)
}

// Player is one row of the roster. Players are never mutated after loading.
type Player struct {
	Name       string  `json:"name"`
	Height     float64 `json:"height"`
	Weight     float64 `json:"weight"`
	Handedness string  `json:"handedness"`
	Avg        float64 `json:"avg"`
	HR         float64 `json:"HR"`
}

// Value returns the cell of p addressed by k.
func (p Player) Value(k Key) Value {
	switch k {
	case KeyHeight:
		return Num(p.Height)
	case KeyWeight:
		return Num(p.Weight)
	case KeyHandedness:
		return Label(p.Handedness)
	case KeyAvg:
		return Num(p.Avg)
	case KeyHR:
		return Num(p.HR)
	}
	return Num(math.NaN())
}

// Value is a single roster cell: a number for numeric columns, a label for
// categorical ones.
type Value struct {
	num   float64
	label string
	cat   bool
}

// Num wraps a numeric cell.
func Num(f float64) Value { return Value{num: f} }

// Label wraps a categorical cell.
func Label(s string) Value { return Value{label: s, cat: true} }

// IsLabel reports whether v came from a categorical column.
func (v Value) IsLabel() bool { return v.cat }

// Float returns the numeric value, or NaN for labels.
func (v Value) Float() float64 {
	if v.cat {
		return math.NaN()
	}
	return v.num
}

// String is the grouping key of v. Numbers use the shortest representation
// that round-trips, so every NaN cell shares the key "NaN" and both zeros
// share "0".
func (v Value) String() string {
	if v.cat {
		return v.label
	}
	switch {
	case math.IsNaN(v.num):
		return "NaN"
	case math.IsInf(v.num, 1):
		return "Infinity"
	case math.IsInf(v.num, -1):
		return "-Infinity"
	case v.num == 0:
		return "0"
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}
