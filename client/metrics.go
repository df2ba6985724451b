package client

import "time"

// Metrics collects client-side observability data: request outcomes, pool
// pressure, and latency. Trimmed from the teacher's ClientMetrics interface
// down to counters this client can actually observe without a leader/Raft
// concept.
type Metrics interface {
	IncrRequest(op string)
	IncrSuccess(op string)
	IncrFailure(op string)
	ObserveLatency(op string, d time.Duration)
	SetActiveConnections(n int)
	SetPendingRequests(n int)
}

// NoOpMetrics discards every observation. It is the default when a Client is
// built without an explicit Metrics implementation.
type NoOpMetrics struct{}

// NewNoOpMetrics returns a Metrics that discards everything.
func NewNoOpMetrics() Metrics { return NoOpMetrics{} }

func (NoOpMetrics) IncrRequest(string)                 {}
func (NoOpMetrics) IncrSuccess(string)                 {}
func (NoOpMetrics) IncrFailure(string)                 {}
func (NoOpMetrics) ObserveLatency(string, time.Duration) {}
func (NoOpMetrics) SetActiveConnections(int)             {}
func (NoOpMetrics) SetPendingRequests(int)               {}
