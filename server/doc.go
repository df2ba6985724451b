// Package server implements the lock service's TCP listener, connection
// lifecycle tracking, and dispatch onto a lock.Manager.
//
// Known limitation: a client disconnecting, or the server shutting down
// mid-flight, does not release any lock already granted to that
// connection's requests. Locks are released only by an explicit unlock (or,
// for the Timeout flavor, by expiration). This is a deliberate simplicity
// tradeoff, not an oversight: tracking which connection owns which lock
// acquisition to auto-release on disconnect would require cross-referencing
// connection identity with resolver state, which the four resolvers
// currently have no notion of.
package server
