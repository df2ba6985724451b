// Package clock abstracts time-related operations so the timeout reaper and
// the server's connection tracker can be driven by a fake clock in tests
// instead of the wall clock.
package clock

import "time"

// Clock defines an interface for time-related operations, allowing for testing.
// It abstracts away the standard `time` package.
type Clock interface {
	// Now returns the current local time.
	Now() time.Time

	// Since returns the time elapsed since t (equivalent to Now().Sub(t)).
	Since(t time.Time) time.Duration

	// After waits for the duration to elapse and then sends the current time
	// on the returned channel.
	After(d time.Duration) <-chan time.Time

	// NewTicker returns a new Ticker containing a channel that will send the
	// time with a period specified by the duration argument.
	NewTicker(d time.Duration) Ticker

	// NewTimer creates a new Timer that will send the current time on its
	// channel after at least duration d.
	NewTimer(d time.Duration) Timer

	// Sleep pauses the current goroutine for at least the duration d.
	Sleep(d time.Duration)
}

// Ticker is an interface wrapper around time.Ticker for mocking.
type Ticker interface {
	Chan() <-chan time.Time
	Stop()
	Reset(d time.Duration)
}

// Timer is an interface wrapper around time.Timer for mocking.
type Timer interface {
	Chan() <-chan time.Time
	Stop() bool
	Reset(d time.Duration) bool
}

// standardClock implements Clock using the standard library's time package.
type standardClock struct{}

// New returns a Clock implementation based on Go's standard time package.
func New() Clock {
	return &standardClock{}
}

func (standardClock) Now() time.Time                  { return time.Now() }
func (standardClock) Since(t time.Time) time.Duration { return time.Since(t) }
func (standardClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
func (standardClock) NewTicker(d time.Duration) Ticker {
	return &standardTicker{ticker: time.NewTicker(d)}
}
func (standardClock) NewTimer(d time.Duration) Timer {
	return &standardTimer{timer: time.NewTimer(d)}
}
func (standardClock) Sleep(d time.Duration) { time.Sleep(d) }

type standardTicker struct{ ticker *time.Ticker }

func (t *standardTicker) Chan() <-chan time.Time    { return t.ticker.C }
func (t *standardTicker) Stop()                     { t.ticker.Stop() }
func (t *standardTicker) Reset(d time.Duration)     { t.ticker.Reset(d) }

type standardTimer struct{ timer *time.Timer }

func (t *standardTimer) Chan() <-chan time.Time        { return t.timer.C }
func (t *standardTimer) Stop() bool                    { return t.timer.Stop() }
func (t *standardTimer) Reset(d time.Duration) bool    { return t.timer.Reset(d) }
