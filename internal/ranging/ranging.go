// Package ranging acquires distance readings from an ultrasonic ranger with
// hardware abstraction. The real implementation drives an HC-SR04 style
// trigger/echo pair through the Linux GPIO character device. The fake
// implementation allows testing without hardware.
package ranging

import "time"

// Sample is one raw distance reading.
type Sample struct {
	// DistanceCM is the measured distance in centimeters.
	// Meaningless when Valid is false.
	DistanceCM float64

	// Valid is false when the echo timed out or the reading fell outside
	// the sensor's usable range.
	Valid bool
}

// Ranger performs single distance measurements.
// The underlying transducer is a shared, non-reentrant resource: callers
// must not overlap MeasureOnce invocations.
type Ranger interface {
	// MeasureOnce triggers one ranging cycle and returns the sample.
	// Echo timeouts and out-of-range readings yield an invalid sample,
	// not an error; errors are reserved for hardware faults.
	MeasureOnce() (Sample, error)

	// Close releases hardware resources.
	Close() error
}

// Limits bounds the usable measurement range of the transducer.
type Limits struct {
	MinCM   float64
	MaxCM   float64
	Timeout time.Duration
}

// echoToCM converts a round-trip echo pulse width to centimeters.
// Sound travels ~343 m/s at 20°C; the echo covers the distance twice,
// giving the conventional 58 µs/cm divisor.
const microsecondsPerCM = 58.0

func echoToCM(pulse time.Duration) float64 {
	return float64(pulse.Microseconds()) / microsecondsPerCM
}

// newSample validates a converted distance against the limits.
func newSample(cm float64, lim Limits) Sample {
	if cm < lim.MinCM || cm > lim.MaxCM {
		return Sample{DistanceCM: cm, Valid: false}
	}
	return Sample{DistanceCM: cm, Valid: true}
}
