package lock

import "errors"

// ErrEmptyKey is returned by Manager.Handle, before any resolver or pipeline
// is involved, when a request's key is empty, per spec §7's ValidationError
// category.
var ErrEmptyKey = errors.New("lock: key must not be empty")

// ErrUnknownLockType is returned when a request names a LockType the server
// has no resolver for.
var ErrUnknownLockType = errors.New("lock: unknown lock type")
