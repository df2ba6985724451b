package main

import (
	"testing"
	"time"

	"github.com/jathurchan/lockd/testutil"
)

func TestCalculateLatencyStats_Empty(t *testing.T) {
	s := calculateLatencyStats("empty", nil, nil, 0, 0)
	testutil.AssertEqual(t, 100.0, s.SuccessRate)
}

func TestCalculateLatencyStats_Basic(t *testing.T) {
	latencies := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
		40 * time.Millisecond,
		50 * time.Millisecond,
	}
	s := calculateLatencyStats("basic", latencies, []int{0, 0, 1, 0, 2}, 5, 5)

	testutil.AssertEqual(t, int64(5), s.Count)
	testutil.AssertEqual(t, int64(5), s.SuccessfulCount)
	testutil.AssertEqual(t, int64(0), s.FailedCount)
	testutil.AssertEqual(t, 100.0, s.SuccessRate)
	testutil.AssertEqual(t, (10 * time.Millisecond).String(), s.Min)
	testutil.AssertEqual(t, (50 * time.Millisecond).String(), s.Max)
	testutil.AssertEqual(t, 0.6, s.AverageRetries)
}

func TestCalculateLatencyStats_PartialFailure(t *testing.T) {
	latencies := []time.Duration{10 * time.Millisecond}
	s := calculateLatencyStats("partial", latencies, nil, 3, 10)
	testutil.AssertEqual(t, int64(7), s.FailedCount)
	testutil.AssertEqual(t, 30.0, s.SuccessRate)
}

func TestPercentile_Boundaries(t *testing.T) {
	sorted := []time.Duration{
		1 * time.Millisecond,
		2 * time.Millisecond,
		3 * time.Millisecond,
		4 * time.Millisecond,
		5 * time.Millisecond,
	}
	testutil.AssertEqual(t, sorted[0], percentile(sorted, 0))
	testutil.AssertEqual(t, sorted[len(sorted)-1], percentile(sorted, 100))
	testutil.AssertEqual(t, time.Duration(0), percentile(nil, 50))
}

func TestCalculateThroughput(t *testing.T) {
	latencies := []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}
	got := calculateThroughput(latencies, 2)
	want := 10.0 // 1 / 0.1s
	testutil.AssertTrue(t, got >= want-0.001 && got <= want+0.001, "expected throughput ~%f, got %f", want, got)
	testutil.AssertEqual(t, 0.0, calculateThroughput(nil, 0))
}

func TestContentionLevel(t *testing.T) {
	tests := []struct {
		workers, keys int
		want          string
	}{
		{40, 1, "high"},
		{8, 4, "medium"},
		{2, 10, "low"},
	}
	for _, tt := range tests {
		testutil.AssertEqual(t, tt.want, contentionLevel(tt.workers, tt.keys))
	}
}
