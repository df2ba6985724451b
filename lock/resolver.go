// Package lock implements the four lock-type resolvers, the per-key
// serialization pipelines that feed them, and the dispatcher that routes
// inbound requests between the two, per the arbitration engine this module
// exists to provide.
package lock

import (
	"context"

	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// Resolver owns the authoritative lock table for one lock flavor and
// implements its try-lock, blocking-lock, and unlock semantics.
//
// ResolveLock is called only from a pipeline worker for the request's
// (type, key) pipeline, and may block until the key's wait gate admits the
// caller or ctx is cancelled. ResolveTryLock and ResolveUnlock never block
// beyond a short critical section and may be called concurrently from a
// worker pool for any key.
type Resolver interface {
	Type() types.LockType

	ResolveTryLock(req wire.Request) wire.Response
	ResolveLock(ctx context.Context, req wire.Request) wire.Response
	ResolveUnlock(req wire.Request) wire.Response

	// FastPathLock reports whether req can be resolved without enqueueing
	// onto the pipeline at all. The reentrant resolver takes this path for a
	// caller re-acquiring a key it already owns; the read/write resolver
	// takes it for any acquire its try-lock rules grant at once (an
	// uncontended key or a downgrade); the simple and timeout resolvers
	// never do. ok=false means the dispatcher must enqueue req normally.
	FastPathLock(req wire.Request) (resp wire.Response, ok bool)

	// PipelineKey returns the registry key used to select req's pipeline.
	// For most resolvers this is just req.Key; ReadWrite splits it into two
	// families (read/write) per key.
	PipelineKey(req wire.Request) string
}
