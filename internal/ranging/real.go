//go:build linux

package ranging

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// RealRanger measures distance with an HC-SR04 connected to GPIO via the
// Linux character device.
type RealRanger struct {
	chip    *gpiocdev.Chip
	trigger *gpiocdev.Line
	echo    *gpiocdev.Line
	limits  Limits
	events  chan gpiocdev.LineEvent
}

// NewRealRanger opens the trigger and echo lines on gpiochip0.
// The echo line is requested with both-edge event detection so the pulse
// width can be taken from kernel event timestamps rather than userspace
// polling.
func NewRealRanger(triggerPin, echoPin int, limits Limits) (*RealRanger, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	trigger, err := chip.RequestLine(triggerPin, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request trigger pin %d: %w", triggerPin, err)
	}

	r := &RealRanger{
		chip:    chip,
		trigger: trigger,
		limits:  limits,
		// Room for a stray edge pair left over from a previous cycle.
		events: make(chan gpiocdev.LineEvent, 4),
	}

	echo, err := chip.RequestLine(echoPin,
		gpiocdev.AsInput,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(r.handleEdge))
	if err != nil {
		trigger.Close()
		chip.Close()
		return nil, fmt.Errorf("request echo pin %d: %w", echoPin, err)
	}
	r.echo = echo

	return r, nil
}

func (r *RealRanger) handleEdge(evt gpiocdev.LineEvent) {
	select {
	case r.events <- evt:
	default:
		// Channel full: a cycle is being abandoned, drop the edge.
	}
}

// MeasureOnce fires a 10 µs trigger pulse and times the echo pulse.
// A missing or over-long echo yields an invalid sample.
func (r *RealRanger) MeasureOnce() (Sample, error) {
	// Discard edges left over from an abandoned cycle.
	for {
		select {
		case <-r.events:
			continue
		default:
		}
		break
	}

	if err := r.trigger.SetValue(1); err != nil {
		return Sample{}, fmt.Errorf("set trigger: %w", err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := r.trigger.SetValue(0); err != nil {
		return Sample{}, fmt.Errorf("clear trigger: %w", err)
	}

	rise, ok := r.waitEdge(gpiocdev.LineEventRisingEdge, r.limits.Timeout)
	if !ok {
		return Sample{}, nil
	}
	fall, ok := r.waitEdge(gpiocdev.LineEventFallingEdge, r.limits.Timeout)
	if !ok {
		return Sample{}, nil
	}

	return newSample(echoToCM(fall.Timestamp-rise.Timestamp), r.limits), nil
}

// waitEdge blocks for the next edge of the wanted type, skipping edges of
// the other polarity (seen when a previous echo was still in flight).
func (r *RealRanger) waitEdge(want gpiocdev.LineEventType, timeout time.Duration) (gpiocdev.LineEvent, bool) {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case evt := <-r.events:
			if evt.Type == want {
				return evt, true
			}
		case <-deadline.C:
			return gpiocdev.LineEvent{}, false
		}
	}
}

// Close releases the GPIO lines and the chip.
func (r *RealRanger) Close() error {
	var errs []error
	if r.echo != nil {
		if err := r.echo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close echo: %w", err))
		}
	}
	if r.trigger != nil {
		// Leave the trigger low so the transducer is quiescent after exit.
		if err := r.trigger.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("quiesce trigger: %w", err))
		}
		if err := r.trigger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trigger: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
