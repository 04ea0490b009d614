package force

import "math"

// Collide treats every node as a circle of Radius and pushes overlapping
// circles apart. Strength scales the push; Iterations repeats it per tick.
type Collide struct {
	Radius     float64
	Strength   float64
	Iterations int
}

// NewCollide returns a collision force with full strength and one iteration.
func NewCollide(radius float64) *Collide {
	return &Collide{Radius: radius, Strength: 1, Iterations: 1}
}

type cell struct{ x, y int64 }

func (c *Collide) apply(nodes []Node, jiggle func() float64) {
	r := c.Radius
	if r <= 0 || len(nodes) < 2 {
		return
	}
	size := 2 * r
	cellOf := func(x, y float64) cell {
		return cell{int64(math.Floor(x / size)), int64(math.Floor(y / size))}
	}
	// Equal radii split every push evenly between the pair.
	const share = 0.5

	for k := 0; k < max(c.Iterations, 1); k++ {
		grid := make(map[cell][]int, len(nodes))
		for i := range nodes {
			n := &nodes[i]
			key := cellOf(n.X+n.VX, n.Y+n.VY)
			grid[key] = append(grid[key], i)
		}

		for i := range nodes {
			ni := &nodes[i]
			xi, yi := ni.X+ni.VX, ni.Y+ni.VY
			home := cellOf(xi, yi)
			for dx := int64(-1); dx <= 1; dx++ {
				for dy := int64(-1); dy <= 1; dy++ {
					for _, j := range grid[cell{home.x + dx, home.y + dy}] {
						if j <= i {
							continue
						}
						nj := &nodes[j]
						x := xi - nj.X - nj.VX
						y := yi - nj.Y - nj.VY
						l := x*x + y*y
						if l >= size*size {
							continue
						}
						if x == 0 {
							x = jiggle()
							l += x * x
						}
						if y == 0 {
							y = jiggle()
							l += y * y
						}
						l = math.Sqrt(l)
						l = (size - l) / l * c.Strength
						x *= l
						y *= l
						ni.VX += x * share
						ni.VY += y * share
						nj.VX -= x * (1 - share)
						nj.VY -= y * (1 - share)
					}
				}
			}
		}
	}
}
