package lifecycle

import (
	"context"
	"sync"
)

// gate caps the number of in-flight workspace jobs at limit. The poller blocks
// in acquire while the gate is saturated; release frees a slot and signals the
// waiting poller exactly once. onRelease (when set) fires after every release
// so the idle sleeper can be woken early.
type gate struct {
	mu        sync.Mutex
	limit     int
	running   int
	busy      chan struct{} // non-nil while the poller waits for a slot
	onRelease func()
}

func newGate(limit int) *gate {
	return &gate{limit: limit}
}

// acquire blocks until a slot is free, then claims it. Returns the context
// error if cancelled while waiting.
func (g *gate) acquire(ctx context.Context) error {
	for {
		g.mu.Lock()
		if g.running < g.limit {
			g.running++
			g.mu.Unlock()
			return nil
		}
		ch := make(chan struct{})
		g.busy = ch
		g.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			g.mu.Lock()
			if g.busy == ch {
				g.busy = nil
			}
			g.mu.Unlock()
			return ctx.Err()
		}
	}
}

// release frees a slot and signals the waiting poller, if any.
func (g *gate) release() {
	g.mu.Lock()
	if g.running > 0 {
		g.running--
	}
	ch := g.busy
	g.busy = nil
	onRelease := g.onRelease
	g.mu.Unlock()

	if ch != nil {
		close(ch)
	}
	if onRelease != nil {
		onRelease()
	}
}

// inFlight returns the number of currently running jobs.
func (g *gate) inFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.running
}
