package lock

import (
	"context"
	"sync"

	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// SimpleResolver implements the exclusive, non-reentrant, non-expiring lock
// flavor. Any caller may unlock any held key; there is no ownership check on
// unlock (matching spec §4.6.1's resolveUnlock, which removes the holder
// unconditionally).
type SimpleResolver struct {
	mu    sync.Mutex
	holds map[string]wire.Request
	gates map[string]*waitGate
}

// NewSimpleResolver returns a SimpleResolver with empty lock tables.
func NewSimpleResolver() *SimpleResolver {
	return &SimpleResolver{
		holds: make(map[string]wire.Request),
		gates: make(map[string]*waitGate),
	}
}

func (s *SimpleResolver) Type() types.LockType { return types.Simple }

func (s *SimpleResolver) PipelineKey(req wire.Request) string { return req.Key }

func (s *SimpleResolver) FastPathLock(wire.Request) (wire.Response, bool) {
	return wire.Response{}, false
}

func (s *SimpleResolver) ResolveTryLock(req wire.Request) wire.Response {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.holds[req.Key]; held {
		return wire.ResponseFor(req, false, types.CauseLockedAlready)
	}
	s.holds[req.Key] = req
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

func (s *SimpleResolver) ResolveLock(ctx context.Context, req wire.Request) wire.Response {
	s.mu.Lock()
	if _, held := s.holds[req.Key]; !held {
		s.holds[req.Key] = req
		s.mu.Unlock()
		return wire.ResponseFor(req, true, types.CauseSucceed)
	}
	gate := s.gateFor(req.Key)
	s.mu.Unlock()

	gate.wait(ctx)

	s.mu.Lock()
	s.holds[req.Key] = req
	s.mu.Unlock()
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

func (s *SimpleResolver) ResolveUnlock(req wire.Request) wire.Response {
	s.mu.Lock()
	delete(s.holds, req.Key)
	if gate, ok := s.gates[req.Key]; ok {
		gate.admitOne()
		if gate.isEmpty() {
			delete(s.gates, req.Key)
		}
	}
	s.mu.Unlock()
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

// gateFor returns the wait gate for key, creating it if absent. Callers must
// hold s.mu.
func (s *SimpleResolver) gateFor(key string) *waitGate {
	g, ok := s.gates[key]
	if !ok {
		g = newWaitGate()
		s.gates[key] = g
	}
	return g
}
