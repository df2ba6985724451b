package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// Handle is a convenient, stateful wrapper for managing the lifecycle of a
// single named lock, generalized from the teacher's LockHandle. Unlike the
// teacher's handle, Handle has no Renew: the Timeout flavor's deadline is
// fixed at acquire time and the other three flavors have no expiration at
// all, so there is nothing to renew (see SPEC_FULL.md §11).
type Handle interface {
	// TryLock attempts a non-blocking acquire. timeout is only used by the
	// Timeout flavor.
	TryLock(ctx context.Context, timeout time.Duration) (bool, error)

	// Lock blocks until the lock is granted or ctx is done.
	Lock(ctx context.Context, timeout time.Duration) error

	// Unlock releases the lock if held by this handle.
	Unlock(ctx context.Context) error

	// IsHeld reports whether this handle believes it currently holds the
	// lock (a purely local, best-effort view; the server is authoritative).
	IsHeld() bool
}

// handle implements Handle for Simple, Timeout, and Reentrant flavors.
type handle struct {
	client   *Client
	lockType types.LockType
	key      string
	thread   string

	mu   sync.Mutex
	held bool
}

// NewHandle returns a Handle for the given exclusive lock flavor
// (types.Simple, types.Timeout, or types.Reentrant). Use NewReadHandle /
// NewWriteHandle for types.ReadWrite.
func NewHandle(c *Client, lockType types.LockType, key, thread string) (Handle, error) {
	if c == nil {
		return nil, fmt.Errorf("client: handle requires a non-nil Client")
	}
	if lockType == types.ReadWrite {
		return nil, fmt.Errorf("client: use NewReadHandle/NewWriteHandle for read/write locks")
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &handle{client: c, lockType: lockType, key: key, thread: thread}, nil
}

func (h *handle) TryLock(ctx context.Context, timeout time.Duration) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	req := wire.Request{
		Key:         h.key,
		Application: h.client.config.Application,
		Thread:      h.thread,
		Type:        h.lockType,
		IsLock:      true,
		TryLock:     true,
		Time:        timeout.Milliseconds(),
		Identity:    h.client.ids.next(),
	}
	resp, err := h.client.do(ctx, "trylock", req)
	if err != nil {
		return false, err
	}
	if resp.Success {
		h.held = true
	}
	return resp.Success, nil
}

func (h *handle) Lock(ctx context.Context, timeout time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	resp, err := h.client.Lock(ctx, h.lockType, h.key, h.thread, timeout)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("client: lock %q failed: %s", h.key, resp.Cause)
	}
	h.held = true
	return nil
}

func (h *handle) Unlock(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	resp, err := h.client.Unlock(ctx, h.lockType, h.key, h.thread)
	if err != nil {
		return err
	}
	h.held = false
	if !resp.Success {
		return fmt.Errorf("client: unlock %q failed: %s", h.key, resp.Cause)
	}
	return nil
}

func (h *handle) IsHeld() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.held
}

// readWriteHandle implements Handle for one side (read or write) of a
// types.ReadWrite lock.
type readWriteHandle struct {
	client *Client
	key    string
	thread string
	isRead bool

	mu   sync.Mutex
	held bool
}

// NewReadHandle returns a Handle for the read side of a read/write lock on
// key.
func NewReadHandle(c *Client, key, thread string) (Handle, error) {
	if c == nil {
		return nil, fmt.Errorf("client: handle requires a non-nil Client")
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &readWriteHandle{client: c, key: key, thread: thread, isRead: true}, nil
}

// NewWriteHandle returns a Handle for the write side of a read/write lock
// on key.
func NewWriteHandle(c *Client, key, thread string) (Handle, error) {
	if c == nil {
		return nil, fmt.Errorf("client: handle requires a non-nil Client")
	}
	if key == "" {
		return nil, ErrEmptyKey
	}
	return &readWriteHandle{client: c, key: key, thread: thread, isRead: false}, nil
}

func (h *readWriteHandle) TryLock(ctx context.Context, _ time.Duration) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	resp, err := h.rawTryLock(ctx)
	if err != nil {
		return false, err
	}
	if resp {
		h.held = true
	}
	return resp, nil
}

func (h *readWriteHandle) rawTryLock(ctx context.Context) (bool, error) {
	if h.isRead {
		resp, err := h.client.TryReadLock(ctx, h.key, h.thread)
		return resp.Success, err
	}
	resp, err := h.client.TryLock(ctx, types.ReadWrite, h.key, h.thread)
	return resp.Success, err
}

func (h *readWriteHandle) Lock(ctx context.Context, _ time.Duration) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var resp struct {
		Success bool
		Cause   string
	}
	if h.isRead {
		r, err := h.client.ReadLock(ctx, h.key, h.thread)
		if err != nil {
			return err
		}
		resp.Success, resp.Cause = r.Success, r.Cause
	} else {
		r, err := h.client.Lock(ctx, types.ReadWrite, h.key, h.thread, 0)
		if err != nil {
			return err
		}
		resp.Success, resp.Cause = r.Success, r.Cause
	}
	if !resp.Success {
		return fmt.Errorf("client: lock %q failed: %s", h.key, resp.Cause)
	}
	h.held = true
	return nil
}

func (h *readWriteHandle) Unlock(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	var success bool
	var cause string
	if h.isRead {
		r, err := h.client.ReadUnlock(ctx, h.key, h.thread)
		if err != nil {
			return err
		}
		success, cause = r.Success, r.Cause
	} else {
		r, err := h.client.Unlock(ctx, types.ReadWrite, h.key, h.thread)
		if err != nil {
			return err
		}
		success, cause = r.Success, r.Cause
	}
	h.held = false
	if !success {
		return fmt.Errorf("client: unlock %q failed: %s", h.key, cause)
	}
	return nil
}

func (h *readWriteHandle) IsHeld() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.held
}
