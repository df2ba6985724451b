package client

import (
	"context"
	"time"

	"github.com/jathurchan/lockd/logger"
)

// Builder provides a fluent API for constructing a Client, mirroring the
// teacher's RaftLockClientBuilder / RaftLockServerBuilder pattern.
//
// Example:
//
//	c, err := client.NewBuilder("localhost", 40417).
//	    WithPoolSize(8).
//	    WithApplication("billing-worker").
//	    Build(ctx)
type Builder struct {
	config  Config
	hasHost bool
}

// NewBuilder returns a Builder initialized with defaults and the given
// server address.
func NewBuilder(host string, port int) *Builder {
	cfg := DefaultConfig()
	cfg.Host = host
	cfg.Port = port
	return &Builder{config: cfg, hasHost: host != ""}
}

// WithAddress overrides the server address.
func (b *Builder) WithAddress(host string, port int) *Builder {
	b.config.Host = host
	b.config.Port = port
	b.hasHost = host != ""
	return b
}

// WithPoolSize overrides the number of pooled connections.
func (b *Builder) WithPoolSize(n int) *Builder {
	if n > 0 {
		b.config.PoolSize = n
	}
	return b
}

// WithIOWorkers overrides the admission semaphore's capacity.
func (b *Builder) WithIOWorkers(n int) *Builder {
	if n > 0 {
		b.config.IOWorkers = n
	}
	return b
}

// WithApplication sets the application label attached to every request.
func (b *Builder) WithApplication(app string) *Builder {
	if app != "" {
		b.config.Application = app
	}
	return b
}

// WithTimeouts overrides the dial and per-request timeouts.
func (b *Builder) WithTimeouts(dial, request time.Duration) *Builder {
	if dial > 0 {
		b.config.DialTimeout = dial
	}
	if request > 0 {
		b.config.RequestTimeout = request
	}
	return b
}

// WithLogger injects a Logger.
func (b *Builder) WithLogger(log logger.Logger) *Builder {
	b.config.Logger = log
	return b
}

// WithMetrics injects a Metrics implementation.
func (b *Builder) WithMetrics(m Metrics) *Builder {
	b.config.Metrics = m
	return b
}

// Build validates the configuration and dials the server, returning a
// ready-to-use Client.
func (b *Builder) Build(ctx context.Context) (*Client, error) {
	if !b.hasHost {
		return nil, ErrNoAddress
	}
	return New(ctx, b.config)
}
