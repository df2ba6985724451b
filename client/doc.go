// Package client implements the lock service's client half: a per-Client
// identity generator, a response correlator that routes replies back to
// their waiting caller by identity, a fixed-size pool of long-lived
// connections, and typed Handle wrappers for each lock flavor.
//
// A Client's pool connections are never auto-reconnected; a connection that
// drops (including the case in scenario S6, where the server shuts down
// mid-flight) is retired for good, and every request still waiting on it
// observes a synthesized TransportFailure response. Callers that need
// resilience across a server restart should build a new Client.
package client
