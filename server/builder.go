package server

import (
	"fmt"
	"time"

	"github.com/jathurchan/lockd/lock"
	"github.com/jathurchan/lockd/logger"
)

// Builder helps construct a Server with validated configuration and sane
// defaults, mirroring the teacher's RaftLockServerBuilder field-tracking
// pattern even though this server has far fewer required fields.
type Builder struct {
	config Config
}

// NewBuilder returns a Builder preloaded with default configuration values.
func NewBuilder() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithListenAddress sets the TCP bind address.
func (b *Builder) WithListenAddress(addr string) *Builder {
	b.config.ListenAddress = addr
	return b
}

// WithBacklog sets the pending-connection backlog.
func (b *Builder) WithBacklog(backlog int) *Builder {
	if backlog > 0 {
		b.config.Backlog = backlog
	}
	return b
}

// WithShutdownTimeout sets how long Stop waits for in-flight connections.
func (b *Builder) WithShutdownTimeout(d time.Duration) *Builder {
	if d > 0 {
		b.config.ShutdownTimeout = d
	}
	return b
}

// WithMaxConnections caps concurrently accepted connections.
func (b *Builder) WithMaxConnections(n int) *Builder {
	if n > 0 {
		b.config.MaxConnections = n
	}
	return b
}

// WithRateLimit configures rate limiting. Values <= 0 keep the existing
// default when enabled is true.
func (b *Builder) WithRateLimit(enabled bool, rps, burst int, window time.Duration) *Builder {
	b.config.EnableRateLimit = enabled
	if enabled {
		if rps > 0 {
			b.config.RateLimit = rps
		}
		if burst > 0 {
			b.config.RateLimitBurst = burst
		}
		if window > 0 {
			b.config.RateLimitWindow = window
		}
	}
	return b
}

// WithLockConfig overrides the lock manager's pipeline/worker-pool tuning.
func (b *Builder) WithLockConfig(cfg lock.Config) *Builder {
	b.config.Lock = cfg
	return b
}

// WithLogger sets the server logger. If nil, a no-op logger is used at
// Build time.
func (b *Builder) WithLogger(l logger.Logger) *Builder {
	b.config.Logger = l
	return b
}

// WithMetrics sets the server metrics sink. If nil, a no-op implementation
// is used at Build time.
func (b *Builder) WithMetrics(m Metrics) *Builder {
	b.config.Metrics = m
	return b
}

// Build validates the accumulated configuration and constructs a Server.
func (b *Builder) Build() (*Server, error) {
	if b.config.Logger == nil {
		b.config.Logger = logger.NewNoOpLogger()
	}
	if b.config.Metrics == nil {
		b.config.Metrics = NewNoOpMetrics()
	}
	if err := b.config.Validate(); err != nil {
		return nil, fmt.Errorf("server builder: configuration validation failed: %w", err)
	}
	return New(b.config)
}
