package lock

import (
	"context"
	"sync"

	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// ReentrantResolver implements the exclusive, same-owner-reacquire lock
// flavor. Ownership for the blocking lock path and the fast path is
// determined by (application, thread) identity — the caller pair, not the
// wire Identity field, which is fresh on every call and therefore useless as
// an ownership key (see DESIGN.md open-question decision #1). ResolveTryLock
// preserves the narrower, literal identity-field comparison the original
// source used, which is why tryLock-based self-reentry does not reliably
// recognize the same caller: this is a documented, deliberately preserved
// quirk, not an oversight.
type ReentrantResolver struct {
	mu     sync.Mutex
	holds  map[string]wire.Request
	counts map[string]int
	gates  map[string]*waitGate
}

// NewReentrantResolver returns a ReentrantResolver with empty lock tables.
func NewReentrantResolver() *ReentrantResolver {
	return &ReentrantResolver{
		holds:  make(map[string]wire.Request),
		counts: make(map[string]int),
		gates:  make(map[string]*waitGate),
	}
}

func (r *ReentrantResolver) Type() types.LockType { return types.Reentrant }

func (r *ReentrantResolver) PipelineKey(req wire.Request) string { return req.Key }

func sameOwner(a, b wire.Request) bool {
	return a.Application == b.Application && a.Thread == b.Thread
}

func (r *ReentrantResolver) ResolveTryLock(req wire.Request) wire.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	holder, held := r.holds[req.Key]
	if !held {
		r.holds[req.Key] = req
		r.counts[req.Key] = 1
		return wire.ResponseFor(req, true, types.CauseSucceed)
	}
	if holder.Identity == req.Identity {
		r.holds[req.Key] = req
		r.counts[req.Key]++
		return wire.ResponseFor(req, true, types.CauseSucceed)
	}
	return wire.ResponseFor(req, false, types.CauseLockedAlready)
}

func (r *ReentrantResolver) FastPathLock(req wire.Request) (wire.Response, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	holder, held := r.holds[req.Key]
	if held && sameOwner(holder, req) {
		r.holds[req.Key] = req
		r.counts[req.Key]++
		return wire.ResponseFor(req, true, types.CauseSucceed), true
	}
	return wire.Response{}, false
}

func (r *ReentrantResolver) ResolveLock(ctx context.Context, req wire.Request) wire.Response {
	if resp, ok := r.FastPathLock(req); ok {
		return resp
	}

	r.mu.Lock()
	if _, held := r.holds[req.Key]; !held {
		r.holds[req.Key] = req
		r.counts[req.Key] = 1
		r.mu.Unlock()
		return wire.ResponseFor(req, true, types.CauseSucceed)
	}
	gate := r.gateFor(req.Key)
	r.mu.Unlock()

	gate.wait(ctx)

	r.mu.Lock()
	r.holds[req.Key] = req
	r.counts[req.Key] = 1
	r.mu.Unlock()
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

func (r *ReentrantResolver) ResolveUnlock(req wire.Request) wire.Response {
	r.mu.Lock()
	defer r.mu.Unlock()

	count, held := r.counts[req.Key]
	if !held || count <= 0 {
		return wire.ResponseFor(req, true, types.CauseSucceed)
	}
	count--
	if count > 0 {
		r.counts[req.Key] = count
		return wire.ResponseFor(req, true, types.CauseSucceed)
	}

	delete(r.counts, req.Key)
	delete(r.holds, req.Key)
	if gate, ok := r.gates[req.Key]; ok {
		gate.admitOne()
		if gate.isEmpty() {
			delete(r.gates, req.Key)
		}
	}
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

func (r *ReentrantResolver) gateFor(key string) *waitGate {
	g, ok := r.gates[key]
	if !ok {
		g = newWaitGate()
		r.gates[key] = g
	}
	return g
}
