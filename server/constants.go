package server

import "time"

const (
	// DefaultListenAddress is the default TCP bind address.
	DefaultListenAddress = "0.0.0.0:40417"

	// DefaultBacklog is the default pending-connection backlog, matching the
	// CLI's --backlog default.
	DefaultBacklog = 1024

	// DefaultShutdownTimeout bounds how long Stop waits for in-flight
	// connections to drain before returning.
	DefaultShutdownTimeout = 10 * time.Second

	// DefaultMaxConnections is the default ceiling on concurrently accepted
	// connections. Zero would mean unbounded; the default is a deliberately
	// generous finite value instead.
	DefaultMaxConnections = 10000

	// DefaultRateLimit is the rate, per DefaultRateLimitWindow, of the single
	// server-wide token bucket that admits new connections when rate
	// limiting is enabled.
	DefaultRateLimit = 500

	// DefaultRateLimitBurst is the token bucket burst size.
	DefaultRateLimitBurst = 1000

	// DefaultRateLimitWindow is the window over which DefaultRateLimit is
	// expressed.
	DefaultRateLimitWindow = time.Second
)
