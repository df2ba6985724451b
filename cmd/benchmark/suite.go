package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jathurchan/lockd/client"
	"github.com/jathurchan/lockd/logger"
	"github.com/jathurchan/lockd/types"
	"github.com/jathurchan/lockd/wire"
)

// BenchmarkSuite coordinates the execution of a benchmark run against a
// single lockd server using the client package's connection pool.
type BenchmarkSuite struct {
	config *Config
	client *client.Client
	log    logger.Logger

	resultsMu sync.Mutex
	results   []OperationResult
}

// newBenchmarkSuite builds a client for the configured server and returns a
// ready-to-run BenchmarkSuite.
func newBenchmarkSuite(ctx context.Context, cfg *Config, log logger.Logger) (*BenchmarkSuite, error) {
	c, err := client.NewBuilder(cfg.Host, cfg.Port).
		WithPoolSize(cfg.PoolSize).
		WithIOWorkers(cfg.PoolSize).
		WithApplication("lockd-benchmark").
		WithTimeouts(cfg.RequestTimeout, cfg.RequestTimeout).
		WithLogger(log).
		Build(ctx)
	if err != nil {
		return nil, NewConnectionError(cfg.Address(), "dial", err)
	}

	return &BenchmarkSuite{
		config: cfg,
		client: c,
		log:    log,
	}, nil
}

// Address formats the benchmark target as host:port, mirroring client.Config.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (s *BenchmarkSuite) cleanup() {
	_ = s.client.Close()
}

// run drives the configured number of workers, each performing OpsPerWorker
// acquire/release cycles over a shared key space, and returns the aggregate
// report.
func (s *BenchmarkSuite) run(ctx context.Context) (*BenchmarkResults, error) {
	lt := lockTypeNames[s.config.LockTypeName]

	keys := make([]string, s.config.KeySpace)
	for i := range keys {
		keys[i] = fmt.Sprintf("bench-key-%d", i)
	}

	start := time.Now()

	var wg sync.WaitGroup
	for w := 0; w < s.config.Workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.runWorker(ctx, workerID, lt, keys)
		}(w)
	}
	wg.Wait()

	end := time.Now()
	return s.buildResults(start, end), nil
}

func (s *BenchmarkSuite) runWorker(ctx context.Context, workerID int, lt types.LockType, keys []string) {
	thread := fmt.Sprintf("worker-%d", workerID)
	readSide := lt == types.ReadWrite && workerID%3 != 0 // most readers, some writers

	for i := 0; i < s.config.OpsPerWorker; i++ {
		if ctx.Err() != nil {
			return
		}
		key := keys[(workerID+i)%len(keys)]
		result := s.runCycle(ctx, workerID, lt, key, thread, readSide)

		s.resultsMu.Lock()
		s.results = append(s.results, result)
		s.resultsMu.Unlock()
	}
}

// runCycle performs one acquire, optional hold, and release, returning its
// timing and outcome.
func (s *BenchmarkSuite) runCycle(
	ctx context.Context,
	workerID int,
	lt types.LockType,
	key, thread string,
	readSide bool,
) OperationResult {
	acquireStart := time.Now()
	resp, retries, err := s.acquire(ctx, lt, key, thread, readSide)
	result := OperationResult{
		Key:            key,
		WorkerID:       workerID,
		AcquireLatency: time.Since(acquireStart),
		Retries:        retries,
	}

	if err != nil {
		result.Cause = err.Error()
		return result
	}
	if !resp.Success {
		result.Cause = resp.Cause
		return result
	}

	if s.config.HoldDuration > 0 {
		select {
		case <-time.After(s.config.HoldDuration):
		case <-ctx.Done():
		}
	}

	releaseStart := time.Now()
	relResp, relErr := s.release(ctx, lt, key, thread, readSide)
	result.ReleaseLatency = time.Since(releaseStart)

	if relErr != nil {
		result.Cause = relErr.Error()
		return result
	}
	result.Success = relResp.Success
	result.Cause = relResp.Cause
	return result
}

// acquire issues a single blocking Lock (or, when UseTryLock is set, a
// tryLock-with-backoff loop) for the configured flavor.
func (s *BenchmarkSuite) acquire(
	ctx context.Context,
	lt types.LockType,
	key, thread string,
	readSide bool,
) (wire.Response, int, error) {
	if s.config.UseTryLock {
		return s.acquireWithRetry(ctx, lt, key, thread, readSide)
	}

	if lt == types.ReadWrite && readSide {
		resp, err := s.client.ReadLock(ctx, key, thread)
		return resp, 0, err
	}
	resp, err := s.client.Lock(ctx, lt, key, thread, s.config.LockTimeout)
	return resp, 0, err
}

func (s *BenchmarkSuite) acquireWithRetry(
	ctx context.Context,
	lt types.LockType,
	key, thread string,
	readSide bool,
) (wire.Response, int, error) {
	backoff := 5 * time.Millisecond
	const maxBackoff = 200 * time.Millisecond

	retries := 0
	for {
		var resp wire.Response
		var err error
		if lt == types.ReadWrite && readSide {
			resp, err = s.client.TryReadLock(ctx, key, thread)
		} else {
			resp, err = s.client.TryLock(ctx, lt, key, thread)
		}
		if err != nil || resp.Success {
			return resp, retries, err
		}

		retries++
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return resp, retries, ctx.Err()
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (s *BenchmarkSuite) release(
	ctx context.Context,
	lt types.LockType,
	key, thread string,
	readSide bool,
) (wire.Response, error) {
	if lt == types.ReadWrite && readSide {
		return s.client.ReadUnlock(ctx, key, thread)
	}
	return s.client.Unlock(ctx, lt, key, thread)
}

func (s *BenchmarkSuite) buildResults(start, end time.Time) *BenchmarkResults {
	s.resultsMu.Lock()
	defer s.resultsMu.Unlock()

	var acquireLatencies, releaseLatencies []time.Duration
	var retries []int
	var successful int64

	for _, r := range s.results {
		acquireLatencies = append(acquireLatencies, r.AcquireLatency)
		retries = append(retries, r.Retries)
		if r.Success {
			successful++
			releaseLatencies = append(releaseLatencies, r.ReleaseLatency)
		}
	}

	total := int64(len(s.results))

	return &BenchmarkResults{
		Config:           s.config,
		StartTime:        start,
		EndTime:          end,
		TotalDuration:    end.Sub(start).String(),
		AcquireLatency:   calculateLatencyStats("lock acquisition", acquireLatencies, retries, successful, total),
		ReleaseLatency:   calculateLatencyStats("lock release", releaseLatencies, nil, successful, successful),
		TotalOperations:  total,
		ContentionLevel:  contentionLevel(s.config.Workers, s.config.KeySpace),
		BenchmarkVersion: benchmarkVersion,
	}
}
