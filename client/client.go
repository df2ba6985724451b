package client

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/jathurchan/lockd/logger"
	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// Client is the lock service's aggregate root on the client side: it owns
// the identity generator, the response correlator, and the connection
// pool, replacing the original design's singletons with one explicitly
// constructed object per spec §9.
type Client struct {
	config     Config
	log        logger.Logger
	metrics    Metrics
	ids        *identityGenerator
	correlator *correlator
	pool       *pool

	closed atomic.Bool
}

// New constructs and connects a Client. The returned Client owns PoolSize
// long-lived connections to cfg.Address(); callers must call Close to
// release them.
func New(ctx context.Context, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = NewNoOpMetrics()
	}

	c := &Client{
		config:     cfg,
		log:        log.WithComponent("client"),
		metrics:    metrics,
		ids:        newIdentityGenerator(),
		correlator: newCorrelator(cfg.IOWorkers),
	}
	c.pool = newPool(cfg, c.log, c.correlator)
	if err := c.pool.dial(ctx); err != nil {
		return nil, err
	}
	c.metrics.SetActiveConnections(c.pool.activeConnections())
	return c, nil
}

// requestContext returns ctx unchanged if it already carries a deadline,
// else wraps it with the client's configured RequestTimeout.
func (c *Client) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.config.RequestTimeout)
}

func (c *Client) do(ctx context.Context, op string, req wire.Request) (wire.Response, error) {
	if c.closed.Load() {
		return wire.Response{}, ErrClientClosed
	}
	if req.Key == "" {
		return wire.Response{}, ErrEmptyKey
	}

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	c.metrics.IncrRequest(op)
	start := time.Now()
	resp, err := c.correlator.send(ctx, c.pool, req)
	c.metrics.ObserveLatency(op, time.Since(start))
	if err != nil || !resp.Success {
		c.metrics.IncrFailure(op)
	} else {
		c.metrics.IncrSuccess(op)
	}
	return resp, err
}

// TryLock issues a non-blocking acquire for lockType on key, returning
// immediately with the server's success/failure verdict.
func (c *Client) TryLock(ctx context.Context, lockType types.LockType, key, thread string) (wire.Response, error) {
	req := wire.Request{
		Key:         key,
		Application: c.config.Application,
		Thread:      thread,
		Type:        lockType,
		IsLock:      true,
		TryLock:     true,
		Identity:    c.ids.next(),
	}
	return c.do(ctx, "trylock", req)
}

// Lock issues a blocking acquire for lockType on key. timeout is only
// meaningful for types.Timeout and is ignored by every other flavor; it is
// the lock's own expiration window (sent to the server as whole
// milliseconds), not the client's
// RequestTimeout (which bounds how long the caller is willing to wait for
// a response at all, and should generally exceed timeout for the Timeout
// flavor since the server itself never bounds a blocking lock's wait).
func (c *Client) Lock(ctx context.Context, lockType types.LockType, key, thread string, timeout time.Duration) (wire.Response, error) {
	req := wire.Request{
		Key:         key,
		Application: c.config.Application,
		Thread:      thread,
		Type:        lockType,
		IsLock:      true,
		TryLock:     false,
		Time:        timeout.Milliseconds(),
		Identity:    c.ids.next(),
	}
	return c.do(ctx, "lock", req)
}

// Unlock releases a previously acquired lock for lockType on key.
func (c *Client) Unlock(ctx context.Context, lockType types.LockType, key, thread string) (wire.Response, error) {
	req := wire.Request{
		Key:         key,
		Application: c.config.Application,
		Thread:      thread,
		Type:        lockType,
		IsLock:      false,
		Identity:    c.ids.next(),
	}
	return c.do(ctx, "unlock", req)
}

// TryReadLock issues a non-blocking read-lock acquire. Only meaningful for
// types.ReadWrite.
func (c *Client) TryReadLock(ctx context.Context, key, thread string) (wire.Response, error) {
	req := wire.Request{
		Key:         key,
		Application: c.config.Application,
		Thread:      thread,
		Type:        types.ReadWrite,
		IsLock:      true,
		TryLock:     true,
		ReadLock:    true,
		Identity:    c.ids.next(),
	}
	return c.do(ctx, "tryreadlock", req)
}

// ReadLock issues a blocking read-lock acquire. Only meaningful for
// types.ReadWrite.
func (c *Client) ReadLock(ctx context.Context, key, thread string) (wire.Response, error) {
	req := wire.Request{
		Key:         key,
		Application: c.config.Application,
		Thread:      thread,
		Type:        types.ReadWrite,
		IsLock:      true,
		TryLock:     false,
		ReadLock:    true,
		Identity:    c.ids.next(),
	}
	return c.do(ctx, "readlock", req)
}

// ReadUnlock releases a previously acquired read lock. Only meaningful for
// types.ReadWrite.
func (c *Client) ReadUnlock(ctx context.Context, key, thread string) (wire.Response, error) {
	req := wire.Request{
		Key:         key,
		Application: c.config.Application,
		Thread:      thread,
		Type:        types.ReadWrite,
		IsLock:      false,
		ReadLock:    true,
		Identity:    c.ids.next(),
	}
	return c.do(ctx, "readunlock", req)
}

// PendingRequests reports how many requests are currently awaiting a
// response, for diagnostics.
func (c *Client) PendingRequests() int {
	return c.correlator.pendingCount()
}

// Close releases the client's pooled connections. It is safe to call
// multiple times.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.pool.close()
	return nil
}
