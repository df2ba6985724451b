package lock

import (
	"fmt"
	"time"
)

// Config controls the pipeline and worker-pool tuning knobs for a Manager.
// Defaults follow spec.md's stated ~1s pipeline idle-retire grace period.
type Config struct {
	// PipelineIdleGrace is how long a per-key pipeline worker waits for a
	// new envelope before retiring and removing itself from the registry.
	PipelineIdleGrace time.Duration

	// PipelineBufferSize bounds how many blocking lock envelopes may be
	// queued for one (type, key) pipeline before enqueue blocks.
	PipelineBufferSize int

	// WorkerPoolSize is the number of goroutines servicing non-blocking
	// (tryLock/unlock) resolver calls.
	WorkerPoolSize int

	// WorkerQueueSize bounds how many non-blocking jobs may be queued
	// before Submit blocks.
	WorkerQueueSize int
}

// DefaultConfig returns the tuning defaults used when no Config is supplied.
func DefaultConfig() Config {
	return Config{
		PipelineIdleGrace:  time.Second,
		PipelineBufferSize: 64,
		WorkerPoolSize:     32,
		WorkerQueueSize:    1024,
	}
}

func checkPositiveDuration(name string, d time.Duration) error {
	if d <= 0 {
		return fmt.Errorf("lock: %s must be positive, got %s", name, d)
	}
	return nil
}

func checkPositiveInt(name string, n int) error {
	if n <= 0 {
		return fmt.Errorf("lock: %s must be positive, got %d", name, n)
	}
	return nil
}

// Validate reports whether c's fields are all usable.
func (c Config) Validate() error {
	if err := checkPositiveDuration("PipelineIdleGrace", c.PipelineIdleGrace); err != nil {
		return err
	}
	if err := checkPositiveInt("PipelineBufferSize", c.PipelineBufferSize); err != nil {
		return err
	}
	if err := checkPositiveInt("WorkerPoolSize", c.WorkerPoolSize); err != nil {
		return err
	}
	if err := checkPositiveInt("WorkerQueueSize", c.WorkerQueueSize); err != nil {
		return err
	}
	return nil
}
