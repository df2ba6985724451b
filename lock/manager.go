package lock

import (
	"fmt"

	"github.com/jathurchan/lockd/clock"
	"github.com/jathurchan/lockd/logger"
	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// Manager is the server's dispatcher: it owns the four resolvers and routes
// every inbound request either straight to a worker-pool goroutine
// (non-blocking tryLock/unlock) or onto the appropriate pipeline (blocking
// lock), per spec §4.4.
type Manager struct {
	resolvers map[types.LockType]Resolver
	registry  *pipelineRegistry
	pool      *workerPool
	metrics   Metrics
	log       logger.Logger

	timeout *TimeoutResolver
}

// NewManager builds a Manager with one resolver per lock flavor, wiring cfg's
// tuning knobs into the pipeline registry and worker pool.
func NewManager(cfg Config, c clock.Clock, m Metrics, log logger.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if m == nil {
		m = NewNoOpMetrics()
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	timeoutResolver := NewTimeoutResolver(c)

	mgr := &Manager{
		resolvers: map[types.LockType]Resolver{
			types.Simple:    NewSimpleResolver(),
			types.Timeout:   timeoutResolver,
			types.Reentrant: NewReentrantResolver(),
			types.ReadWrite: NewReadWriteResolver(),
		},
		registry: newPipelineRegistry(cfg.PipelineIdleGrace, cfg.PipelineBufferSize),
		pool:     newWorkerPool(cfg.WorkerPoolSize, cfg.WorkerQueueSize),
		metrics:  m,
		log:      log.WithComponent("dispatcher"),
		timeout:  timeoutResolver,
	}
	return mgr, nil
}

// Close stops the worker pool and the timeout resolver's reaper goroutine.
// Pipeline worker goroutines retire on their own idle timers.
func (m *Manager) Close() {
	m.pool.Stop()
	m.timeout.Stop()
}

// Handle routes req and returns a channel that receives exactly one Response.
// The caller (the server's per-connection request loop) owns writing that
// response back to the wire.
func (m *Manager) Handle(req wire.Request) (<-chan wire.Response, error) {
	resolver, ok := m.resolvers[req.Type]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLockType, req.Type)
	}
	if req.Key == "" {
		return nil, ErrEmptyKey
	}

	respCh := make(chan wire.Response, 1)

	if !req.IsLock || req.TryLock {
		m.pool.Submit(func() {
			var resp wire.Response
			if !req.IsLock {
				resp = resolver.ResolveUnlock(req)
			} else {
				resp = resolver.ResolveTryLock(req)
			}
			respCh <- resp
		})
		return respCh, nil
	}

	if resp, ok := resolver.FastPathLock(req); ok {
		respCh <- resp
		return respCh, nil
	}

	m.registry.enqueue(resolver.PipelineKey(req), resolver, envelope{req: req, resp: respCh})
	return respCh, nil
}
