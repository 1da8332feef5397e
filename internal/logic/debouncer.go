package logic

import "time"

// Debouncer converts a stream of filtered distances into a debounced
// occupancy state. A state commits only after debounceCount consecutive
// readings agree on the same side of the threshold; single noisy readings
// never flip the reported state.
type Debouncer struct {
	thresholdCM   float64
	debounceCount int

	state     State
	candidate State
	count     int

	transitions int
}

// NewDebouncer creates a debouncer in the UNKNOWN state.
func NewDebouncer(thresholdCM float64, debounceCount int) *Debouncer {
	return &Debouncer{
		thresholdCM:   thresholdCM,
		debounceCount: debounceCount,
		state:         StateUnknown,
	}
}

// Observe feeds one filtered distance and returns an Event when a commit
// worth publishing occurs: either the first commit after a reset (Initial)
// or a genuine occupancy change. Readings that merely re-confirm the
// committed state return nil. Cycles without a reading must simply not call
// Observe; counter and state are then untouched.
//
// Classification uses <= so a vehicle exactly at the threshold counts as
// occupied.
func (d *Debouncer) Observe(distanceCM float64, now time.Time) *Event {
	candidate := StateVacant
	if distanceCM <= d.thresholdCM {
		candidate = StateOccupied
	}

	if candidate == d.candidate {
		// Counter is capped at debounceCount so the 1..debounceCount
		// invariant holds under arbitrarily long agreement runs.
		if d.count < d.debounceCount {
			d.count++
		}
	} else {
		d.candidate = candidate
		d.count = 1
	}

	if d.count < d.debounceCount {
		return nil
	}

	if d.state == candidate {
		// Already committed; idempotent re-confirmation.
		return nil
	}

	prev := d.state
	d.state = candidate
	initial := prev == StateUnknown
	if !initial {
		d.transitions++
	}

	return &Event{
		Timestamp:  now,
		State:      candidate,
		Previous:   prev,
		DistanceCM: distanceCM,
		Initial:    initial,
	}
}

// CurrentState returns the committed occupancy state.
func (d *Debouncer) CurrentState() State {
	return d.state
}

// Initialized reports whether a first state has been committed.
func (d *Debouncer) Initialized() bool {
	return d.state != StateUnknown
}

// Transitions returns the number of committed occupancy changes, excluding
// initialization reports.
func (d *Debouncer) Transitions() int {
	return d.transitions
}

// Reset discards all debounce state, as deep sleep does to volatile memory.
// The next Observe starts a fresh UNKNOWN-origin sequence with the counter
// back at 1.
func (d *Debouncer) Reset() {
	d.state = StateUnknown
	d.candidate = ""
	d.count = 0
}
