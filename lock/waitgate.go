package lock

import (
	"context"
	"sync"
)

// waitGate implements the "arrival queue + permission channel" fair
// wake-one/wake-all pattern for one contended key. Each waiter carries its
// own one-shot channel (its personal permission-channel slot); the FIFO
// slice of those channels is the arrival queue. This is the "condition
// variable with a FIFO wait list" alternative construction, equivalent to a
// single shared permission channel reused one token at a time but immune to
// the thundering-herd hazard of broadcasting on one shared channel.
type waitGate struct {
	mu      sync.Mutex
	waiters []chan struct{}
}

func newWaitGate() *waitGate {
	return &waitGate{}
}

// wait enqueues the caller onto the arrival queue and blocks until admitted
// by a matching admitOne/admitAll call, or until ctx is cancelled.
func (g *waitGate) wait(ctx context.Context) {
	ch := make(chan struct{})
	g.mu.Lock()
	g.waiters = append(g.waiters, ch)
	g.mu.Unlock()

	select {
	case <-ch:
	case <-ctx.Done():
	}
}

// admitOne hands the permission token to the longest-waiting caller, if any.
// Reports whether a waiter was admitted.
func (g *waitGate) admitOne() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.waiters) == 0 {
		return false
	}
	ch := g.waiters[0]
	g.waiters = g.waiters[1:]
	close(ch)
	return true
}

// admitAll hands the permission token to every waiting caller at once,
// draining the arrival queue. Returns the number admitted.
func (g *waitGate) admitAll() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.waiters)
	for _, ch := range g.waiters {
		close(ch)
	}
	g.waiters = nil
	return n
}

func (g *waitGate) isEmpty() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.waiters) == 0
}
