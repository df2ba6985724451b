package client

import (
	"sync/atomic"

	"github.com/jathurchan/lockd/types"
)

// identityGenerator is a monotonically increasing 64-bit counter; each
// Client owns one. Every outbound request carries a fresh value from next as its
// identity; the response correlator uses identity as the exclusive routing
// key, so values must never repeat while a request is in flight.
//
// Per spec.md §9's design note, identity must be a plain counter, never
// derived from (key, thread, op) hashes — collisions there would break
// per-response routing (P3) whenever an operation repeats on the same key.
type identityGenerator struct {
	counter int64
}

func newIdentityGenerator() *identityGenerator {
	return &identityGenerator{}
}

func (g *identityGenerator) next() types.Identity {
	return types.Identity(atomic.AddInt64(&g.counter, 1))
}
