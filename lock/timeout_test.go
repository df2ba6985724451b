package lock

import (
	"testing"
	"time"

	"github.com/jathurchan/lockd/clock"
	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

func timeoutReq(key string, id int64, isLock, tryLock bool, ms int64) wire.Request {
	r := req(key, id, isLock, tryLock)
	r.Type = types.Timeout
	r.Time = ms
	return r
}

// TestTimeout_S2Expiration reproduces spec scenario S2 using a fake clock so
// the reaper's wake-up is driven deterministically instead of by a real
// sleep.
func TestTimeout_S2Expiration(t *testing.T) {
	fc := clock.NewFake(time.Now())
	tr := NewTimeoutResolver(fc)
	defer tr.Stop()

	x := timeoutReq("t", 10, true, false, 200)
	x.Application, x.Thread = "app", "x"
	respX := tr.ResolveTryLock(x)
	if !respX.Success {
		t.Fatalf("X should acquire: %+v", respX)
	}

	fc.Advance(300 * time.Millisecond)
	waitForReap(t, tr, "t")

	y := timeoutReq("t", 11, true, true, 1000)
	y.Application, y.Thread = "app", "y"
	respY := tr.ResolveTryLock(y)
	if !respY.Success {
		t.Fatalf("Y should acquire after X's lock was reaped: %+v", respY)
	}

	unlockX := timeoutReq("t", 12, false, false, 0)
	unlockX.Application, unlockX.Thread = x.Application, x.Thread
	respUnlock := tr.ResolveUnlock(unlockX)
	if !respUnlock.Success || respUnlock.Cause != types.CauseLockExpired {
		t.Fatalf("X's unlock should report expired: %+v", respUnlock)
	}
}

// waitForReap polls briefly for the reaper goroutine to process the fake
// clock advance; the reaper runs concurrently so the test must not assume
// synchronous reaping.
func waitForReap(t *testing.T, tr *TimeoutResolver, key string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		tr.mu.Lock()
		_, held := tr.holds[key]
		tr.mu.Unlock()
		if !held {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for key %q to be reaped", key)
}

// TestTimeout_StaleRecordDiscarded covers the reaper's identity check: a
// record whose lock was already released and re-acquired by someone else
// before its original deadline must not evict the new holder.
func TestTimeout_StaleRecordDiscarded(t *testing.T) {
	fc := clock.NewFake(time.Now())
	tr := NewTimeoutResolver(fc)
	defer tr.Stop()

	first := timeoutReq("s", 1, true, false, 100)
	tr.ResolveTryLock(first)

	unlockFirst := timeoutReq("s", 2, false, false, 0)
	unlockFirst.Application, unlockFirst.Thread = first.Application, first.Thread
	tr.ResolveUnlock(unlockFirst)

	second := timeoutReq("s", 3, true, false, 5000)
	tr.ResolveTryLock(second)

	fc.Advance(200 * time.Millisecond)
	time.Sleep(50 * time.Millisecond) // let the stale record (if wrongly acted on) take effect

	tr.mu.Lock()
	holder, held := tr.holds["s"]
	tr.mu.Unlock()
	if !held || holder.Identity != second.Identity {
		t.Fatalf("second holder should remain after first's stale deadline passes, got held=%v holder=%+v", held, holder)
	}
}
