// Package force runs a collision layout over chart points: overlapping
// points are pushed apart a little on every tick until the simulation
// cools down.
package force

import (
	"math"
	"math/rand/v2"
)

const (
	initialRadius = 10
	defaultDecay  = 0.4
	defaultMin    = 0.001
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Node is a point taking part in the layout.
type Node struct {
	X, Y   float64
	VX, VY float64
}

// Simulation advances nodes one tick at a time. Alpha starts at 1 and decays
// towards zero; the simulation has settled once alpha drops below AlphaMin.
// A Simulation is not safe for concurrent use.
type Simulation struct {
	nodes []Node

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	collide *Collide
	rng     *rand.Rand
}

// Option configures a Simulation.
type Option func(*Simulation)

// WithCollide adds a collision force.
func WithCollide(c *Collide) Option {
	return func(s *Simulation) { s.collide = c }
}

// WithSeed fixes the random source used to separate coincident nodes.
func WithSeed(seed uint64) Option {
	return func(s *Simulation) { s.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) }
}

// NewSimulation copies nodes and places any node without a finite position
// on a phyllotaxis spiral around the origin.
func NewSimulation(nodes []Node, opts ...Option) *Simulation {
	s := &Simulation{
		nodes:         append([]Node(nil), nodes...),
		alpha:         1,
		alphaMin:      defaultMin,
		alphaDecay:    1 - math.Pow(defaultMin, 1.0/300),
		velocityDecay: 1 - defaultDecay,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(1, 2))
	}
	for i := range s.nodes {
		n := &s.nodes[i]
		if math.IsNaN(n.X) || math.IsNaN(n.Y) {
			r := initialRadius * math.Sqrt(0.5+float64(i))
			a := float64(i) * initialAngle
			n.X, n.Y = r*math.Cos(a), r*math.Sin(a)
		}
		if math.IsNaN(n.VX) || math.IsNaN(n.VY) {
			n.VX, n.VY = 0, 0
		}
	}
	return s
}

// Tick advances the simulation by one step.
func (s *Simulation) Tick() {
	s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay
	if s.collide != nil {
		s.collide.apply(s.nodes, s.jiggle)
	}
	for i := range s.nodes {
		n := &s.nodes[i]
		n.VX *= s.velocityDecay
		n.VY *= s.velocityDecay
		n.X += n.VX
		n.Y += n.VY
	}
}

// Settled reports whether the simulation has cooled below AlphaMin.
func (s *Simulation) Settled() bool { return s.alpha < s.alphaMin }

// Nodes returns the live node slice. Callers must not retain it across ticks.
func (s *Simulation) Nodes() []Node { return s.nodes }

func (s *Simulation) jiggle() float64 {
	return (s.rng.Float64() - 0.5) * 1e-6
}
