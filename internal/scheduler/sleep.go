package scheduler

import "time"

// Sleeper suspends the process for deep sleep. The suspension is not
// cancellable once initiated; a wake behaves like a fresh start of the
// measurement sequence.
type Sleeper interface {
	Sleep(d time.Duration)
}

// TimerSleeper blocks on a timer. On a board with SoC-level deep sleep this
// is where the platform suspend call would go; the state-loss semantics are
// the same either way.
type TimerSleeper struct{}

// Sleep blocks for the given duration.
func (TimerSleeper) Sleep(d time.Duration) {
	time.Sleep(d)
}

// FakeSleeper records sleep requests for test assertions without blocking.
type FakeSleeper struct {
	// Slept contains the durations of all Sleep calls.
	Slept []time.Duration
}

// Sleep records the request and returns immediately.
func (f *FakeSleeper) Sleep(d time.Duration) {
	f.Slept = append(f.Slept, d)
}
