package server

import (
	"fmt"
	"time"

	"github.com/jathurchan/lockd/lock"
	"github.com/jathurchan/lockd/logger"
)

// Config holds the configuration settings for a lock server instance.
type Config struct {
	// ListenAddress is the TCP bind address, e.g. "0.0.0.0:40417".
	ListenAddress string

	// Backlog is the requested pending-connection backlog. It is validated
	// and stored but not applied: Start opens its listener with the
	// operating system's default backlog.
	Backlog int

	// ShutdownTimeout bounds how long Stop waits for in-flight connections
	// to finish before returning.
	ShutdownTimeout time.Duration

	// MaxConnections caps concurrently accepted connections. Connections
	// beyond this limit are refused at accept time.
	MaxConnections int

	EnableRateLimit bool
	RateLimit       int
	RateLimitBurst  int
	RateLimitWindow time.Duration

	// Lock carries the pipeline/worker-pool tuning knobs forwarded to
	// lock.NewManager.
	Lock lock.Config

	Logger  logger.Logger
	Metrics Metrics
}

// DefaultConfig returns a Config pre-populated with safe defaults.
func DefaultConfig() Config {
	return Config{
		ListenAddress:   DefaultListenAddress,
		Backlog:         DefaultBacklog,
		ShutdownTimeout: DefaultShutdownTimeout,
		MaxConnections:  DefaultMaxConnections,
		EnableRateLimit: false,
		RateLimit:       DefaultRateLimit,
		RateLimitBurst:  DefaultRateLimitBurst,
		RateLimitWindow: DefaultRateLimitWindow,
		Lock:            lock.DefaultConfig(),
		Logger:          logger.NewNoOpLogger(),
		Metrics:         NewNoOpMetrics(),
	}
}

// Validate reports whether c's fields are all usable.
func (c *Config) Validate() error {
	if c.ListenAddress == "" {
		return NewConfigError("ListenAddress cannot be empty")
	}
	if c.Backlog <= 0 {
		return NewConfigError("Backlog must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return NewConfigError("ShutdownTimeout must be positive")
	}
	if c.MaxConnections <= 0 {
		return NewConfigError("MaxConnections must be positive")
	}
	if c.EnableRateLimit {
		if c.RateLimit <= 0 {
			return NewConfigError("RateLimit must be positive when rate limiting is enabled")
		}
		if c.RateLimitBurst <= 0 {
			return NewConfigError("RateLimitBurst must be positive when rate limiting is enabled")
		}
		if c.RateLimitWindow <= 0 {
			return NewConfigError("RateLimitWindow must be positive when rate limiting is enabled")
		}
	}
	if err := c.Lock.Validate(); err != nil {
		return fmt.Errorf("server config error: lock config: %w", err)
	}
	return nil
}
