package lock

import (
	"context"
	"sync"
	"time"

	"github.com/jathurchan/lockd/wire"
)

// envelope pairs a blocking lock request with the channel its eventual
// response must be written to.
type envelope struct {
	req  wire.Request
	resp chan<- wire.Response
}

// pipeline is the per-(type, key) FIFO of blocking lock envelopes drained by
// exactly one worker goroutine at a time.
type pipeline struct {
	ch chan envelope
}

// pipelineRegistry lazily creates one pipeline and worker goroutine per
// registry key and retires the worker after idleGrace of inactivity. The
// registry mutex is held across both map mutation and channel sends so that
// a worker's idle-exit check and a concurrent enqueue can never race: either
// the enqueue observes the pipeline before deletion (and its send is
// serialized with the worker's empty-check), or it observes the pipeline
// already deleted and creates a fresh one.
type pipelineRegistry struct {
	mu        sync.Mutex
	lines     map[string]*pipeline
	idleGrace time.Duration
	bufSize   int
}

func newPipelineRegistry(idleGrace time.Duration, bufSize int) *pipelineRegistry {
	return &pipelineRegistry{
		lines:     make(map[string]*pipeline),
		idleGrace: idleGrace,
		bufSize:   bufSize,
	}
}

// enqueue appends env onto the pipeline for registryKey, starting a new
// worker if none is currently live for that key.
func (r *pipelineRegistry) enqueue(registryKey string, resolver Resolver, env envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.lines[registryKey]
	if !ok {
		p = &pipeline{ch: make(chan envelope, r.bufSize)}
		r.lines[registryKey] = p
		go r.runWorker(registryKey, p, resolver)
	}
	p.ch <- env
}

// runWorker drains p until it has been idle for idleGrace, at which point it
// removes p from the registry and exits. A fresh enqueue for the same key
// transparently starts a new worker.
func (r *pipelineRegistry) runWorker(key string, p *pipeline, resolver Resolver) {
	timer := time.NewTimer(r.idleGrace)
	defer timer.Stop()

	for {
		select {
		case env := <-p.ch:
			timer.Reset(r.idleGrace)
			resp := resolver.ResolveLock(context.Background(), env.req)
			env.resp <- resp
		case <-timer.C:
			r.mu.Lock()
			if len(p.ch) == 0 {
				delete(r.lines, key)
				r.mu.Unlock()
				return
			}
			r.mu.Unlock()
			timer.Reset(r.idleGrace)
		}
	}
}
