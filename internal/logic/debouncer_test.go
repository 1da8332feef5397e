package logic

import (
	"testing"
	"time"
)

var testTime = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestWireForm(t *testing.T) {
	if StateUnknown.Wire() != "unknown" {
		t.Errorf("expected unknown, got %s", StateUnknown.Wire())
	}
	if StateVacant.Wire() != "vacant" {
		t.Errorf("expected vacant, got %s", StateVacant.Wire())
	}
	if StateOccupied.Wire() != "occupied" {
		t.Errorf("expected occupied, got %s", StateOccupied.Wire())
	}
}

func TestInitialCommitIsNotChangeEvent(t *testing.T) {
	// Vacant reading with debounce 1: commits immediately, but as an
	// initialization report rather than a change.
	d := NewDebouncer(200, 1)

	evt := d.Observe(240, testTime)
	if evt == nil {
		t.Fatal("expected an initialization event")
	}
	if !evt.Initial {
		t.Error("first commit should be marked Initial")
	}
	if evt.State != StateVacant {
		t.Errorf("expected VACANT, got %s", evt.State)
	}
	if evt.Previous != StateUnknown {
		t.Errorf("expected previous UNKNOWN, got %s", evt.Previous)
	}
	if d.Transitions() != 0 {
		t.Errorf("initialization must not count as a transition, got %d", d.Transitions())
	}
}

func TestCommitRequiresExactlyDebounceCount(t *testing.T) {
	d := NewDebouncer(200, 3)

	if evt := d.Observe(150, testTime); evt != nil {
		t.Fatalf("cycle 1: expected no commit, got %+v", evt)
	}
	if d.CurrentState() != StateUnknown {
		t.Errorf("cycle 1: state should stay UNKNOWN, got %s", d.CurrentState())
	}

	if evt := d.Observe(155, testTime); evt != nil {
		t.Fatalf("cycle 2: expected no commit, got %+v", evt)
	}
	if d.CurrentState() != StateUnknown {
		t.Errorf("cycle 2: state should stay UNKNOWN, got %s", d.CurrentState())
	}

	evt := d.Observe(152, testTime)
	if evt == nil {
		t.Fatal("cycle 3: expected a commit")
	}
	if evt.State != StateOccupied {
		t.Errorf("expected OCCUPIED, got %s", evt.State)
	}
	if !d.Initialized() {
		t.Error("debouncer should be initialized after first commit")
	}
}

func TestDisagreementResetsCounter(t *testing.T) {
	d := NewDebouncer(200, 3)

	d.Observe(150, testTime) // occupied, count 1
	d.Observe(150, testTime) // occupied, count 2
	d.Observe(250, testTime) // vacant, count resets to 1

	// Two more occupied readings must not commit: the run restarted.
	if evt := d.Observe(150, testTime); evt != nil {
		t.Fatalf("expected no commit after counter reset, got %+v", evt)
	}
	if evt := d.Observe(150, testTime); evt != nil {
		t.Fatalf("expected no commit on second reading of new run, got %+v", evt)
	}

	if evt := d.Observe(150, testTime); evt == nil {
		t.Fatal("expected commit on third consecutive occupied reading")
	}
}

func TestIdempotentAfterCommit(t *testing.T) {
	d := NewDebouncer(200, 2)

	d.Observe(150, testTime)
	if evt := d.Observe(150, testTime); evt == nil {
		t.Fatal("expected initial commit")
	}

	// Arbitrarily many re-confirmations never re-emit.
	for i := 0; i < 20; i++ {
		if evt := d.Observe(150, testTime); evt != nil {
			t.Fatalf("reading %d: expected no event for re-confirmation, got %+v", i, evt)
		}
	}
	if d.CurrentState() != StateOccupied {
		t.Errorf("expected OCCUPIED, got %s", d.CurrentState())
	}
}

func TestOccupancyChangeEmitsChangeEvent(t *testing.T) {
	d := NewDebouncer(200, 2)

	d.Observe(150, testTime)
	d.Observe(150, testTime) // initial commit: OCCUPIED

	d.Observe(300, testTime)
	evt := d.Observe(300, testTime)
	if evt == nil {
		t.Fatal("expected a change event after debounced vacancy")
	}
	if evt.Initial {
		t.Error("occupancy change must not be marked Initial")
	}
	if evt.State != StateVacant || evt.Previous != StateOccupied {
		t.Errorf("expected OCCUPIED->VACANT, got %s->%s", evt.Previous, evt.State)
	}
	if d.Transitions() != 1 {
		t.Errorf("expected 1 transition, got %d", d.Transitions())
	}
}

func TestThresholdBoundaryIsOccupied(t *testing.T) {
	d := NewDebouncer(200, 1)

	evt := d.Observe(200, testTime)
	if evt == nil {
		t.Fatal("expected a commit")
	}
	if evt.State != StateOccupied {
		t.Errorf("distance exactly at threshold must classify OCCUPIED, got %s", evt.State)
	}
}

func TestJustAboveThresholdIsVacant(t *testing.T) {
	d := NewDebouncer(200, 1)

	evt := d.Observe(200.1, testTime)
	if evt == nil {
		t.Fatal("expected a commit")
	}
	if evt.State != StateVacant {
		t.Errorf("distance above threshold must classify VACANT, got %s", evt.State)
	}
}

func TestResetDiscardsDebounceState(t *testing.T) {
	d := NewDebouncer(200, 2)

	d.Observe(150, testTime)
	d.Observe(150, testTime) // committed OCCUPIED

	d.Reset()

	if d.CurrentState() != StateUnknown {
		t.Errorf("expected UNKNOWN after reset, got %s", d.CurrentState())
	}
	if d.Initialized() {
		t.Error("debouncer should not be initialized after reset")
	}

	// First post-reset reading starts a fresh run at count 1, so the
	// commit needs the full debounce count again.
	if evt := d.Observe(150, testTime); evt != nil {
		t.Fatalf("expected no commit on first post-reset reading, got %+v", evt)
	}
	evt := d.Observe(150, testTime)
	if evt == nil {
		t.Fatal("expected commit on second post-reset reading")
	}
	if !evt.Initial {
		t.Error("first post-reset commit should be an initialization report")
	}
}

func TestEventCarriesTimestampAndDistance(t *testing.T) {
	d := NewDebouncer(200, 1)

	evt := d.Observe(152.5, testTime)
	if evt == nil {
		t.Fatal("expected a commit")
	}
	if !evt.Timestamp.Equal(testTime) {
		t.Errorf("expected timestamp %v, got %v", testTime, evt.Timestamp)
	}
	if evt.DistanceCM != 152.5 {
		t.Errorf("expected distance 152.5, got %v", evt.DistanceCM)
	}
}
