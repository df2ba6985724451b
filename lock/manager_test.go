package lock

import (
	"testing"
	"time"

	"github.com/jathurchan/lockd/clock"
	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(DefaultConfig(), clock.New(), nil, nil)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

func recvResponse(t *testing.T, ch <-chan wire.Response) wire.Response {
	t.Helper()
	select {
	case resp := <-ch:
		return resp
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for response")
		return wire.Response{}
	}
}

// TestManager_P3IdentityRoundTrip covers P3 for every lock flavor: the
// response returned for a request always carries that request's exact
// Identity, never another outstanding request's.
func TestManager_P3IdentityRoundTrip(t *testing.T) {
	m := newTestManager(t)

	cases := []wire.Request{
		{Key: "k-simple", Type: types.Simple, IsLock: true, TryLock: true, Identity: 101},
		{Key: "k-timeout", Type: types.Timeout, IsLock: true, TryLock: true, Time: 60000, Identity: 202},
		{Key: "k-reentrant", Type: types.Reentrant, IsLock: true, TryLock: true, Application: "a", Thread: "t", Identity: 303},
		{Key: "k-rw", Type: types.ReadWrite, IsLock: true, TryLock: true, ReadLock: true, Identity: 404},
	}

	for _, r := range cases {
		ch, err := m.Handle(r)
		if err != nil {
			t.Fatalf("Handle(%v) returned error: %v", r.Type, err)
		}
		resp := recvResponse(t, ch)
		if resp.Identity != r.Identity {
			t.Fatalf("identity mismatch for %v: want %d got %d", r.Type, r.Identity, resp.Identity)
		}
		if !resp.Success {
			t.Fatalf("expected %v acquire to succeed: %+v", r.Type, resp)
		}
	}
}

// TestManager_TryLockAndUnlockRouteThroughWorkerPool verifies non-blocking
// operations resolve without needing a pipeline worker.
func TestManager_TryLockAndUnlockRouteThroughWorkerPool(t *testing.T) {
	m := newTestManager(t)

	lockReq := wire.Request{Key: "wp", Type: types.Simple, IsLock: true, TryLock: true, Identity: 1}
	ch, err := m.Handle(lockReq)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp := recvResponse(t, ch); !resp.Success {
		t.Fatalf("tryLock should succeed: %+v", resp)
	}

	unlockReq := wire.Request{Key: "wp", Type: types.Simple, IsLock: false, Identity: 2}
	ch, err = m.Handle(unlockReq)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}
	if resp := recvResponse(t, ch); !resp.Success {
		t.Fatalf("unlock should succeed: %+v", resp)
	}
}

// TestManager_BlockingLockResolvesAfterUnlock verifies a blocking lock
// enqueued onto a pipeline only resolves once a matching unlock frees the
// key, exercising the pipeline-registry path end to end.
func TestManager_BlockingLockResolvesAfterUnlock(t *testing.T) {
	m := newTestManager(t)

	holdReq := wire.Request{Key: "bl", Type: types.Simple, IsLock: true, TryLock: true, Identity: 1}
	ch, _ := m.Handle(holdReq)
	if resp := recvResponse(t, ch); !resp.Success {
		t.Fatalf("initial acquire should succeed: %+v", resp)
	}

	waiterReq := wire.Request{Key: "bl", Type: types.Simple, IsLock: true, Identity: 2}
	waiterCh, err := m.Handle(waiterReq)
	if err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	select {
	case <-waiterCh:
		t.Fatalf("blocking lock should not resolve before the key is unlocked")
	case <-time.After(50 * time.Millisecond):
	}

	unlockReq := wire.Request{Key: "bl", Type: types.Simple, IsLock: false, Identity: 3}
	unlockCh, _ := m.Handle(unlockReq)
	if resp := recvResponse(t, unlockCh); !resp.Success {
		t.Fatalf("unlock should succeed: %+v", resp)
	}

	resp := recvResponse(t, waiterCh)
	if !resp.Success || resp.Identity != 2 {
		t.Fatalf("waiter should be admitted with its own identity: %+v", resp)
	}
}

// TestManager_UnknownLockTypeRejected verifies Handle refuses a request
// naming a LockType with no registered resolver.
func TestManager_UnknownLockTypeRejected(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Handle(wire.Request{Key: "x", Type: types.LockType(0), IsLock: true, TryLock: true})
	if err == nil {
		t.Fatalf("expected an error for an unknown lock type")
	}
}

// TestManager_EmptyKeyRejected verifies Handle refuses a request with an
// empty key without making a round trip through any resolver.
func TestManager_EmptyKeyRejected(t *testing.T) {
	m := newTestManager(t)
	_, err := m.Handle(wire.Request{Key: "", Type: types.Simple, IsLock: true, TryLock: true})
	if err != ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
