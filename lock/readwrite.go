package lock

import (
	"context"
	"sync"

	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// ReadWriteResolver implements inclusive reads, exclusive writes, and
// write-to-read downgrade. It keeps two wait-gate families per key (reads
// and writes) so a write-release can batch-admit every queued reader while a
// read-release admits at most one writer.
type ReadWriteResolver struct {
	mu         sync.Mutex
	writeHold  map[string]wire.Request
	readCount  map[string]int
	writeGates map[string]*waitGate
	readGates  map[string]*waitGate
}

// NewReadWriteResolver returns a ReadWriteResolver with empty lock tables.
func NewReadWriteResolver() *ReadWriteResolver {
	return &ReadWriteResolver{
		writeHold:  make(map[string]wire.Request),
		readCount:  make(map[string]int),
		writeGates: make(map[string]*waitGate),
		readGates:  make(map[string]*waitGate),
	}
}

func (rw *ReadWriteResolver) Type() types.LockType { return types.ReadWrite }

// PipelineKey splits each key into two pipeline families so blocking reads
// and blocking writes never serialize behind one another's worker.
func (rw *ReadWriteResolver) PipelineKey(req wire.Request) string {
	if req.ReadLock {
		return req.Key + "|R"
	}
	return req.Key + "|W"
}

func canDowngrade(writeHolder, req wire.Request) bool {
	return writeHolder.Application == req.Application && writeHolder.Thread == req.Thread
}

func (rw *ReadWriteResolver) ResolveTryLock(req wire.Request) wire.Response {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	return rw.tryAcquireLocked(req)
}

func (rw *ReadWriteResolver) FastPathLock(req wire.Request) (wire.Response, bool) {
	rw.mu.Lock()
	defer rw.mu.Unlock()
	resp := rw.tryAcquireLocked(req)
	return resp, resp.Success
}

// tryAcquireLocked implements the shared try-lock semantics for both the
// synchronous try-lock path and the fast-path check ahead of pipeline
// enqueue. Callers must hold rw.mu.
func (rw *ReadWriteResolver) tryAcquireLocked(req wire.Request) wire.Response {
	if req.ReadLock {
		wh, hasWriter := rw.writeHold[req.Key]
		if !hasWriter || canDowngrade(wh, req) {
			rw.readCount[req.Key]++
			return wire.ResponseFor(req, true, types.CauseSucceed)
		}
		return wire.ResponseFor(req, false, types.CauseReadLockedByWrite)
	}

	if rw.readCount[req.Key] > 0 {
		return wire.ResponseFor(req, false, types.CauseWriteLockedByRead)
	}
	if _, hasWriter := rw.writeHold[req.Key]; hasWriter {
		return wire.ResponseFor(req, false, types.CauseWriteLockedByWrite)
	}
	rw.writeHold[req.Key] = req
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

func (rw *ReadWriteResolver) ResolveLock(ctx context.Context, req wire.Request) wire.Response {
	if resp, ok := rw.FastPathLock(req); ok {
		return resp
	}

	rw.mu.Lock()
	var gate *waitGate
	if req.ReadLock {
		gate = rw.readGateFor(req.Key)
	} else {
		gate = rw.writeGateFor(req.Key)
	}
	rw.mu.Unlock()

	gate.wait(ctx)

	rw.mu.Lock()
	if req.ReadLock {
		rw.readCount[req.Key]++
	} else {
		rw.writeHold[req.Key] = req
	}
	rw.mu.Unlock()
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

func (rw *ReadWriteResolver) ResolveUnlock(req wire.Request) wire.Response {
	rw.mu.Lock()

	if req.ReadLock {
		n := rw.readCount[req.Key]
		if n > 0 {
			n--
		}
		if n > 0 {
			rw.readCount[req.Key] = n
			rw.mu.Unlock()
			return wire.ResponseFor(req, true, types.CauseSucceed)
		}
		delete(rw.readCount, req.Key)

		writeGate, hasWriters := rw.writeGates[req.Key]
		rw.mu.Unlock()
		if hasWriters {
			writeGate.admitOne()
			rw.mu.Lock()
			if writeGate.isEmpty() {
				delete(rw.writeGates, req.Key)
			}
			rw.mu.Unlock()
		}
		return wire.ResponseFor(req, true, types.CauseSucceed)
	}

	delete(rw.writeHold, req.Key)

	readGate, hasReaders := rw.readGates[req.Key]
	if hasReaders {
		delete(rw.readGates, req.Key)
		rw.mu.Unlock()
		readGate.admitAll()
		return wire.ResponseFor(req, true, types.CauseSucceed)
	}

	writeGate, hasWriters := rw.writeGates[req.Key]
	if hasWriters {
		writeGate.admitOne()
		if writeGate.isEmpty() {
			delete(rw.writeGates, req.Key)
		}
	}
	rw.mu.Unlock()
	return wire.ResponseFor(req, true, types.CauseSucceed)
}

func (rw *ReadWriteResolver) readGateFor(key string) *waitGate {
	g, ok := rw.readGates[key]
	if !ok {
		g = newWaitGate()
		rw.readGates[key] = g
	}
	return g
}

func (rw *ReadWriteResolver) writeGateFor(key string) *waitGate {
	g, ok := rw.writeGates[key]
	if !ok {
		g = newWaitGate()
		rw.writeGates[key] = g
	}
	return g
}
