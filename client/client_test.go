package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/jathurchan/lockd/server"
	"github.com/jathurchan/lockd/types"
)

func startTestServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	srv, err := server.NewBuilder().WithListenAddress("127.0.0.1:0").Build()
	if err != nil {
		t.Fatalf("server build failed: %v", err)
	}
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("server start failed: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Stop(ctx)
	})
	return srv, srv.Addr().String()
}

func newTestClient(t *testing.T, addr string) *Client {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split addr failed: %v", err)
	}
	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port = mustAtoi(t, portStr)
	cfg.PoolSize = 2
	cfg.Application = "test-app"

	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("client New failed: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClient_TryLockLockUnlockRoundTrip(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr)
	ctx := context.Background()

	resp, err := c.TryLock(ctx, types.Simple, "k1", "t1")
	if err != nil || !resp.Success {
		t.Fatalf("tryLock failed: resp=%+v err=%v", resp, err)
	}

	resp2, err := c.TryLock(ctx, types.Simple, "k1", "t2")
	if err != nil {
		t.Fatalf("second tryLock errored: %v", err)
	}
	if resp2.Success {
		t.Fatalf("expected second tryLock to fail while k1 is held")
	}
	if resp2.Cause != types.CauseLockedAlready {
		t.Fatalf("unexpected cause: %q", resp2.Cause)
	}

	resp3, err := c.Unlock(ctx, types.Simple, "k1", "t1")
	if err != nil || !resp3.Success {
		t.Fatalf("unlock failed: resp=%+v err=%v", resp3, err)
	}
}

func TestClient_BlockingLockWaitsForRelease(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr)
	ctx := context.Background()

	if resp, err := c.TryLock(ctx, types.Simple, "k2", "holder"); err != nil || !resp.Success {
		t.Fatalf("initial tryLock failed: resp=%+v err=%v", resp, err)
	}

	done := make(chan bool, 1)
	go func() {
		resp, err := c.Lock(ctx, types.Simple, "k2", "waiter", 0)
		done <- err == nil && resp.Success
	}()

	select {
	case <-done:
		t.Fatalf("blocking lock resolved before the holder released")
	case <-time.After(100 * time.Millisecond):
	}

	if resp, err := c.Unlock(ctx, types.Simple, "k2", "holder"); err != nil || !resp.Success {
		t.Fatalf("unlock failed: resp=%+v err=%v", resp, err)
	}

	select {
	case ok := <-done:
		if !ok {
			t.Fatalf("expected the waiter's blocking lock to succeed after release")
		}
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for the blocking lock to resolve")
	}
}

func TestClient_ReadWriteRoundTrip(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr)
	ctx := context.Background()

	if resp, err := c.TryLock(ctx, types.ReadWrite, "rw", "writer"); err != nil || !resp.Success {
		t.Fatalf("write tryLock failed: resp=%+v err=%v", resp, err)
	}
	if resp, err := c.TryReadLock(ctx, "rw", "writer"); err != nil || !resp.Success {
		t.Fatalf("downgrade read tryLock failed: resp=%+v err=%v", resp, err)
	}
	if resp, err := c.Unlock(ctx, types.ReadWrite, "rw", "writer"); err != nil || !resp.Success {
		t.Fatalf("write unlock failed: resp=%+v err=%v", resp, err)
	}
	if resp, err := c.ReadUnlock(ctx, "rw", "writer"); err != nil || !resp.Success {
		t.Fatalf("read unlock failed: resp=%+v err=%v", resp, err)
	}
}

// TestClient_TransportFailureAfterServerShutdown exercises scenario S6's
// client-side half: once the server is gone, an in-flight request must
// surface a bounded-time TransportFailure response carrying the original
// identity rather than hanging forever.
func TestClient_TransportFailureAfterServerShutdown(t *testing.T) {
	srv, addr := startTestServer(t)
	c := newTestClient(t, addr)
	ctx := context.Background()

	stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := srv.Stop(stopCtx); err != nil {
		t.Fatalf("server stop failed: %v", err)
	}

	resp, err := c.TryLock(ctx, types.Simple, "k3", "t1")
	if err != nil {
		t.Fatalf("expected a synthesized response rather than an error, got: %v", err)
	}
	if resp.Success {
		t.Fatalf("expected failure after server shutdown, got success")
	}
	wantPrefix := types.CauseTransportFailurePfx
	if len(resp.Cause) < len(wantPrefix) || resp.Cause[:len(wantPrefix)] != wantPrefix {
		t.Fatalf("expected cause to start with %q, got %q", wantPrefix, resp.Cause)
	}
}

func TestClient_ClosedClientRejectsRequests(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr)
	c.Close()

	if _, err := c.TryLock(context.Background(), types.Simple, "k4", "t1"); err != ErrClientClosed {
		t.Fatalf("expected ErrClientClosed, got %v", err)
	}
}

func TestClient_EmptyKeyRejectedLocally(t *testing.T) {
	_, addr := startTestServer(t)
	c := newTestClient(t, addr)

	if _, err := c.TryLock(context.Background(), types.Simple, "", "t1"); err != ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
