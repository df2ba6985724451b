package server

import "time"

// Metrics collects connection- and dispatch-level observability data, kept
// separate from lock.Metrics because it covers transport concerns (active
// connections, rate limiting, request latency) rather than lock-table state.
type Metrics interface {
	SetActiveConnections(n int)
	IncrConnectionAccepted()
	IncrConnectionClosed()
	IncrRateLimited()
	ObserveRequestLatency(d time.Duration)
}

// NoOpMetrics discards every observation.
type NoOpMetrics struct{}

// NewNoOpMetrics returns a Metrics that discards everything.
func NewNoOpMetrics() Metrics { return NoOpMetrics{} }

func (NoOpMetrics) SetActiveConnections(int)             {}
func (NoOpMetrics) IncrConnectionAccepted()               {}
func (NoOpMetrics) IncrConnectionClosed()                 {}
func (NoOpMetrics) IncrRateLimited()                       {}
func (NoOpMetrics) ObserveRequestLatency(time.Duration) {}
