package lock

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/jathurchan/lockd/clock"
	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// TimeoutResolver implements the exclusive, per-acquisition-expiring lock
// flavor: same lifecycle as SimpleResolver, plus a delay-ordered heap and a
// dedicated reaper goroutine that evicts locks whose deadline has passed.
type TimeoutResolver struct {
	mu    sync.Mutex
	holds map[string]wire.Request
	gates map[string]*waitGate
	heap  expirationHeap

	clock clock.Clock
	wake  chan struct{}
	stop  chan struct{}
	done  chan struct{}
}

// NewTimeoutResolver returns a TimeoutResolver and starts its reaper
// goroutine. Stop must be called to release the goroutine.
func NewTimeoutResolver(c clock.Clock) *TimeoutResolver {
	t := &TimeoutResolver{
		holds: make(map[string]wire.Request),
		gates: make(map[string]*waitGate),
		clock: c,
		wake:  make(chan struct{}, 1),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	go t.runReaper()
	return t
}

// Stop terminates the reaper goroutine and waits for it to exit.
func (t *TimeoutResolver) Stop() {
	close(t.stop)
	<-t.done
}

func (t *TimeoutResolver) Type() types.LockType { return types.Timeout }

func (t *TimeoutResolver) PipelineKey(req wire.Request) string { return req.Key }

func (t *TimeoutResolver) FastPathLock(wire.Request) (wire.Response, bool) {
	return wire.Response{}, false
}

func (t *TimeoutResolver) ResolveTryLock(req wire.Request) wire.Response {
	t.mu.Lock()
	if _, held := t.holds[req.Key]; held {
		t.mu.Unlock()
		return wire.ResponseFor(req, false, types.CauseLockedAlready)
	}
	t.holds[req.Key] = req
	t.scheduleExpiration(req)
	t.mu.Unlock()
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

func (t *TimeoutResolver) ResolveLock(ctx context.Context, req wire.Request) wire.Response {
	t.mu.Lock()
	if _, held := t.holds[req.Key]; !held {
		t.holds[req.Key] = req
		t.scheduleExpiration(req)
		t.mu.Unlock()
		return wire.ResponseFor(req, true, types.CauseSucceed)
	}
	gate := t.gateFor(req.Key)
	t.mu.Unlock()

	gate.wait(ctx)

	t.mu.Lock()
	t.holds[req.Key] = req
	t.scheduleExpiration(req)
	t.mu.Unlock()
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

func (t *TimeoutResolver) ResolveUnlock(req wire.Request) wire.Response {
	t.mu.Lock()
	holder, held := t.holds[req.Key]
	if !held || holder.Application != req.Application || holder.Thread != req.Thread {
		t.mu.Unlock()
		return wire.ResponseFor(req, true, types.CauseLockExpired)
	}
	delete(t.holds, req.Key)
	if gate, ok := t.gates[req.Key]; ok {
		gate.admitOne()
		if gate.isEmpty() {
			delete(t.gates, req.Key)
		}
	}
	t.mu.Unlock()
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

// scheduleExpiration pushes req's deadline onto the heap and wakes the
// reaper if this is now the earliest pending deadline. Callers must hold
// t.mu.
func (t *TimeoutResolver) scheduleExpiration(req wire.Request) {
	heap.Push(&t.heap, timeoutRecord{
		key:      req.Key,
		identity: req.Identity,
		deadline: t.clock.Now().Add(time.Duration(req.Time) * time.Millisecond),
	})
	select {
	case t.wake <- struct{}{}:
	default:
	}
}

func (t *TimeoutResolver) gateFor(key string) *waitGate {
	g, ok := t.gates[key]
	if !ok {
		g = newWaitGate()
		t.gates[key] = g
	}
	return g
}

func (t *TimeoutResolver) runReaper() {
	defer close(t.done)
	for {
		t.mu.Lock()
		var wait time.Duration
		if len(t.heap) == 0 {
			wait = time.Hour
		} else {
			wait = t.heap[0].deadline.Sub(t.clock.Now())
			if wait < 0 {
				wait = 0
			}
		}
		t.mu.Unlock()

		timer := t.clock.NewTimer(wait)
		select {
		case <-timer.Chan():
		case <-t.wake:
			timer.Stop()
		case <-t.stop:
			timer.Stop()
			return
		}
		t.reapExpired()
	}
}

// reapExpired drains every heap entry whose deadline has passed. A record is
// stale (discarded without side effects) if the holder for its key is no
// longer the same identity that scheduled it.
func (t *TimeoutResolver) reapExpired() {
	for {
		now := t.clock.Now()
		t.mu.Lock()
		if len(t.heap) == 0 || t.heap[0].deadline.After(now) {
			t.mu.Unlock()
			return
		}
		rec := heap.Pop(&t.heap).(timeoutRecord)

		holder, held := t.holds[rec.key]
		if !held || holder.Identity != rec.identity {
			t.mu.Unlock()
			continue
		}
		delete(t.holds, rec.key)
		gate, ok := t.gates[rec.key]
		t.mu.Unlock()

		if ok {
			gate.admitOne()
			t.mu.Lock()
			if gate.isEmpty() {
				delete(t.gates, rec.key)
			}
			t.mu.Unlock()
		}
	}
}
