package force

import (
	"context"
	"sync"
	"time"
)

// DefaultInterval paces ticks at roughly one per display frame.
const DefaultInterval = 16 * time.Millisecond

// Handle controls a running layout.
type Handle interface {
	// Cancel stops the layout. It never blocks, so it is safe to call while
	// holding a lock the tick callback also takes.
	Cancel()
	// Done is closed once the layout goroutine has exited.
	Done() <-chan struct{}
}

// TickFunc receives the node positions after every tick. The slice is only
// valid for the duration of the call.
type TickFunc func(nodes []Node)

// Runner starts collision layouts in their own goroutines.
type Runner struct {
	ctx      context.Context
	interval time.Duration
	radius   float64
	seed     uint64
}

// NewRunner returns a Runner whose layouts stop when ctx is cancelled.
// radius is the collision radius of every node.
func NewRunner(ctx context.Context, interval time.Duration, radius float64, seed uint64) *Runner {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Runner{ctx: ctx, interval: interval, radius: radius, seed: seed}
}

type run struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

func (r *run) Cancel()               { r.once.Do(r.cancel) }
func (r *run) Done() <-chan struct{} { return r.done }

// Start launches a layout over nodes. tick is called from the layout
// goroutine until the simulation settles or the handle is cancelled.
func (rn *Runner) Start(nodes []Node, tick TickFunc) Handle {
	ctx, cancel := context.WithCancel(rn.ctx)
	h := &run{cancel: cancel, done: make(chan struct{})}
	sim := NewSimulation(nodes, WithCollide(NewCollide(rn.radius)), WithSeed(rn.seed))

	go func() {
		defer close(h.done)
		defer cancel()

		ticker := time.NewTicker(rn.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			sim.Tick()
			if ctx.Err() != nil {
				return
			}
			tick(sim.Nodes())
			if sim.Settled() {
				return
			}
		}
	}()
	return h
}
