package client

import (
	"context"
	"sync"

	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// rendezvous is a one-shot completion handle: exactly one response (real or
// synthesized) is ever sent on ch.
type rendezvous struct {
	ch chan wire.Response
}

// correlator implements spec §4.2's client response correlator: it maps
// identity to a one-shot rendezvous slot, gates entry with an admission
// semaphore sized to the I/O worker count, and fabricates a uniform failure
// response when the connection pool cannot deliver a request.
type correlator struct {
	mu       sync.Mutex
	pending  map[types.Identity]*rendezvous
	freeList []*rendezvous

	sem chan struct{}
}

func newCorrelator(ioWorkers int) *correlator {
	return &correlator{
		pending: make(map[types.Identity]*rendezvous),
		sem:     make(chan struct{}, ioWorkers),
	}
}

// allocate pops a rendezvous from the free list or creates a fresh one.
func (c *correlator) allocate() *rendezvous {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.freeList)
	if n == 0 {
		return &rendezvous{ch: make(chan wire.Response, 1)}
	}
	r := c.freeList[n-1]
	c.freeList = c.freeList[:n-1]
	return r
}

// release returns r to the free list for reuse.
func (c *correlator) release(r *rendezvous) {
	c.mu.Lock()
	c.freeList = append(c.freeList, r)
	c.mu.Unlock()
}

// register installs r under identity, to be found by complete once the
// response (or a synthesized failure) arrives.
func (c *correlator) register(id types.Identity, r *rendezvous) {
	c.mu.Lock()
	c.pending[id] = r
	c.mu.Unlock()
}

// unregister removes identity's pending entry, if any.
func (c *correlator) unregister(id types.Identity) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// complete looks up identity's rendezvous and hands it the response. It is
// called from a connection's read loop (the real response) or from the pool
// when a connection dies mid-flight (a synthesized transport failure). A
// miss (no pending entry) is silently dropped — the waiter already gave up
// and unregistered.
func (c *correlator) complete(id types.Identity, resp wire.Response) {
	c.mu.Lock()
	r, ok := c.pending[id]
	c.mu.Unlock()
	if !ok {
		return
	}
	select {
	case r.ch <- resp:
	default:
	}
}

// pendingCount reports the number of requests awaiting a response.
func (c *correlator) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// send implements the full correlator protocol for one request: allocate a
// rendezvous, acquire an admission permit, write the request via pl,
// release the permit once the write completes, then block for the
// response.
func (c *correlator) send(ctx context.Context, pl *pool, req wire.Request) (wire.Response, error) {
	r := c.allocate()
	c.register(req.Identity, r)

	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		c.unregister(req.Identity)
		c.release(r)
		return wire.Response{}, ctx.Err()
	}

	pc, err := pl.acquire()
	if err != nil {
		<-c.sem
		c.unregister(req.Identity)
		c.release(r)
		return transportFailureResponse(req.Key, req.Identity), nil
	}

	writeErr := wire.WriteRequest(pc.conn, req)
	if writeErr == nil {
		pc.addInFlight(req.Identity)
	}
	pl.release(pc)
	<-c.sem

	if writeErr != nil {
		c.unregister(req.Identity)
		c.release(r)
		return transportFailureResponse(req.Key, req.Identity), nil
	}

	select {
	case resp := <-r.ch:
		c.unregister(req.Identity)
		c.release(r)
		return resp, nil
	case <-ctx.Done():
		c.unregister(req.Identity)
		c.release(r)
		return wire.Response{}, ctx.Err()
	}
}

// transportFailureResponse builds the uniform failure response the
// correlator returns when the pool cannot deliver a request, per spec
// §4.2's fail-path and §7's TransportFailure category.
func transportFailureResponse(key string, id types.Identity) wire.Response {
	return wire.Response{
		Key:      key,
		Identity: id,
		Success:  false,
		Cause:    types.CauseTransportFailurePfx + ", request cancelled",
	}
}
