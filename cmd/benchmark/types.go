package main

import (
	"time"

	"github.com/jathurchan/lockd/types"
)

var lockTypeNames = map[string]types.LockType{
	"simple":    types.Simple,
	"timeout":   types.Timeout,
	"reentrant": types.Reentrant,
	"readwrite": types.ReadWrite,
}

// OperationResult tracks detailed metrics for a single acquire/release cycle.
type OperationResult struct {
	Key            string        `json:"key" yaml:"key"`
	WorkerID       int           `json:"worker_id" yaml:"worker_id"`
	AcquireLatency time.Duration `json:"acquire_latency" yaml:"acquire_latency"`
	ReleaseLatency time.Duration `json:"release_latency" yaml:"release_latency"`
	Success        bool          `json:"success" yaml:"success"`
	Cause          string        `json:"cause,omitempty" yaml:"cause,omitempty"`
	Retries        int           `json:"retries" yaml:"retries"`
}

// LatencyStats reports distribution metrics for a set of latency measurements.
type LatencyStats struct {
	Description         string  `json:"description" yaml:"description"`
	Count               int64   `json:"count" yaml:"count"`
	SuccessfulCount     int64   `json:"successful_count" yaml:"successful_count"`
	FailedCount         int64   `json:"failed_count" yaml:"failed_count"`
	SuccessRate         float64 `json:"success_rate_percent" yaml:"success_rate_percent"`
	Mean                string  `json:"mean" yaml:"mean"`
	Median              string  `json:"median_p50" yaml:"median_p50"`
	P90                 string  `json:"p90" yaml:"p90"`
	P95                 string  `json:"p95" yaml:"p95"`
	P99                 string  `json:"p99" yaml:"p99"`
	Min                 string  `json:"min" yaml:"min"`
	Max                 string  `json:"max" yaml:"max"`
	StdDev              string  `json:"std_dev" yaml:"std_dev"`
	ThroughputOpsPerSec float64 `json:"throughput_ops_per_sec" yaml:"throughput_ops_per_sec"`
	AverageRetries      float64 `json:"average_retries" yaml:"average_retries"`
}

// BenchmarkResults is the top-level report produced by a benchmark run.
type BenchmarkResults struct {
	Config           *Config      `json:"config" yaml:"config"`
	StartTime        time.Time    `json:"start_time" yaml:"start_time"`
	EndTime          time.Time    `json:"end_time" yaml:"end_time"`
	TotalDuration    string       `json:"total_duration" yaml:"total_duration"`
	AcquireLatency   LatencyStats `json:"acquire_latency" yaml:"acquire_latency"`
	ReleaseLatency   LatencyStats `json:"release_latency" yaml:"release_latency"`
	TotalOperations  int64        `json:"total_operations" yaml:"total_operations"`
	ContentionLevel  string       `json:"contention_level" yaml:"contention_level"`
	BenchmarkVersion string       `json:"benchmark_version" yaml:"benchmark_version"`
}

// contentionLevel classifies a run by its workers-per-key ratio.
func contentionLevel(workers, keySpace int) string {
	ratio := float64(workers) / float64(keySpace)
	switch {
	case ratio >= 4:
		return "high"
	case ratio >= 1.5:
		return "medium"
	default:
		return "low"
	}
}
