package lock

import (
	"context"
	"testing"
	"time"

	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

func rwReq(key string, id int64, app, thread string, isLock, readLock bool) wire.Request {
	r := req(key, id, isLock, false)
	r.Type = types.ReadWrite
	r.Application = app
	r.Thread = thread
	r.ReadLock = readLock
	return r
}

// TestReadWrite_S4WriteToReadDowngrade reproduces spec scenario S4: the
// write holder acquires a read lock without releasing the write (a
// downgrade), releases the write while still holding the read, and the
// read remains inclusive for a second reader until both readers release,
// at which point a queued writer is finally admitted.
func TestReadWrite_S4WriteToReadDowngrade(t *testing.T) {
	rw := NewReadWriteResolver()
	ctx := context.Background()

	xWrite := rwReq("rw", 1, "app", "x", true, false)
	if resp := rw.ResolveTryLock(xWrite); !resp.Success {
		t.Fatalf("X write acquire should succeed: %+v", resp)
	}

	xRead := rwReq("rw", 2, "app", "x", true, true)
	if resp := rw.ResolveTryLock(xRead); !resp.Success {
		t.Fatalf("X read acquire (downgrade) should succeed: %+v", resp)
	}

	unlockXWrite := rwReq("rw", 3, "app", "x", false, false)
	if resp := rw.ResolveUnlock(unlockXWrite); !resp.Success {
		t.Fatalf("X write release should succeed: %+v", resp)
	}

	yWriteDone := make(chan struct{})
	go func() {
		rw.ResolveLock(ctx, rwReq("rw", 4, "app", "y", true, false))
		close(yWriteDone)
	}()
	time.Sleep(20 * time.Millisecond) // let Y's write enqueue and block

	zRead := rwReq("rw", 5, "app", "z", true, true)
	if resp := rw.ResolveTryLock(zRead); !resp.Success {
		t.Fatalf("Z read acquire should succeed while only a write waiter is queued: %+v", resp)
	}

	select {
	case <-yWriteDone:
		t.Fatalf("Y's write should still be blocked behind the two live readers")
	default:
	}

	unlockXRead := rwReq("rw", 6, "app", "x", false, true)
	if resp := rw.ResolveUnlock(unlockXRead); !resp.Success {
		t.Fatalf("X read release should succeed: %+v", resp)
	}

	select {
	case <-yWriteDone:
		t.Fatalf("Y's write should still be blocked behind Z's live read")
	default:
	}

	unlockZRead := rwReq("rw", 7, "app", "z", false, true)
	if resp := rw.ResolveUnlock(unlockZRead); !resp.Success {
		t.Fatalf("Z read release should succeed: %+v", resp)
	}

	select {
	case <-yWriteDone:
	case <-time.After(time.Second):
		t.Fatalf("Y's write should be admitted once both readers have released")
	}
}

// TestReadWrite_S5FIFOWriteWaiters reproduces spec scenario S5: two blocking
// writers queued behind a live writer are admitted one at a time, in
// enqueue order, as each predecessor releases.
func TestReadWrite_S5FIFOWriteWaiters(t *testing.T) {
	rw := NewReadWriteResolver()
	ctx := context.Background()

	if resp := rw.ResolveTryLock(rwReq("w", 1, "app", "x", true, false)); !resp.Success {
		t.Fatalf("X write acquire should succeed: %+v", resp)
	}

	order := make(chan int64, 2)
	go func() {
		resp := rw.ResolveLock(ctx, rwReq("w", 2, "app", "y", true, false))
		if resp.Success {
			order <- 2
		}
	}()
	time.Sleep(20 * time.Millisecond)

	go func() {
		resp := rw.ResolveLock(ctx, rwReq("w", 3, "app", "z", true, false))
		if resp.Success {
			order <- 3
		}
	}()
	time.Sleep(20 * time.Millisecond)

	rw.ResolveUnlock(rwReq("w", 4, "app", "x", false, false))
	first := <-order
	if first != 2 {
		t.Fatalf("expected Y admitted first, got %d", first)
	}

	rw.ResolveUnlock(rwReq("w", 5, "app", "y", false, false))
	second := <-order
	if second != 3 {
		t.Fatalf("expected Z admitted second, got %d", second)
	}
}

// TestReadWrite_P5ReadInclusivity covers P5: concurrently held reads never
// block one another.
func TestReadWrite_P5ReadInclusivity(t *testing.T) {
	rw := NewReadWriteResolver()
	for i := 0; i < 5; i++ {
		resp := rw.ResolveTryLock(rwReq("p5", int64(i), "app", "reader", true, true))
		if !resp.Success {
			t.Fatalf("reader %d should acquire concurrently: %+v", i, resp)
		}
	}
	rw.mu.Lock()
	n := rw.readCount["p5"]
	rw.mu.Unlock()
	if n != 5 {
		t.Fatalf("expected readCount=5, got %d", n)
	}
}

// TestReadWrite_P6WriteReleaseDrainsReadersBeforeWriters covers P6: a
// write-release must admit every queued reader before considering any
// queued writer, even when both are waiting.
func TestReadWrite_P6WriteReleaseDrainsReadersBeforeWriters(t *testing.T) {
	rw := NewReadWriteResolver()
	ctx := context.Background()

	if resp := rw.ResolveTryLock(rwReq("p6", 1, "app", "x", true, false)); !resp.Success {
		t.Fatalf("X write acquire should succeed: %+v", resp)
	}

	readDone := make(chan struct{})
	go func() {
		rw.ResolveLock(ctx, rwReq("p6", 2, "app", "y", true, true))
		close(readDone)
	}()
	time.Sleep(20 * time.Millisecond)

	writeDone := make(chan struct{})
	go func() {
		rw.ResolveLock(ctx, rwReq("p6", 3, "app", "z", true, false))
		close(writeDone)
	}()
	time.Sleep(20 * time.Millisecond)

	rw.ResolveUnlock(rwReq("p6", 4, "app", "x", false, false))

	select {
	case <-readDone:
	case <-time.After(time.Second):
		t.Fatalf("queued reader should be admitted by the write release")
	}

	select {
	case <-writeDone:
		t.Fatalf("queued writer must not be admitted while a drained reader is still live")
	default:
	}

	rw.ResolveUnlock(rwReq("p6", 5, "app", "y", false, true))
	select {
	case <-writeDone:
	case <-time.After(time.Second):
		t.Fatalf("queued writer should be admitted once the drained reader releases")
	}
}
