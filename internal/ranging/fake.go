package ranging

import "errors"

// FakeRanger is a test double that returns scripted samples.
type FakeRanger struct {
	// Samples contains scripted readings. Each call to MeasureOnce
	// consumes the next one; the last sample repeats once exhausted.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// MeasureError, if set, will be returned by MeasureOnce.
	MeasureError error

	// Calls counts MeasureOnce invocations.
	Calls int
}

// NewFakeRanger creates a FakeRanger with the given samples.
func NewFakeRanger(samples []Sample) *FakeRanger {
	return &FakeRanger{Samples: samples}
}

// MeasureOnce returns the next scripted sample.
func (f *FakeRanger) MeasureOnce() (Sample, error) {
	f.Calls++

	if f.MeasureError != nil {
		return Sample{}, f.MeasureError
	}

	if len(f.Samples) == 0 {
		return Sample{}, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}
	return s, nil
}

// Close marks the ranger as closed.
func (f *FakeRanger) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds the ranger to the beginning of its samples.
func (f *FakeRanger) Reset() {
	f.index = 0
	f.Calls = 0
	f.Closed = false
}

// Valid is a convenience constructor for a valid sample.
func Valid(cm float64) Sample {
	return Sample{DistanceCM: cm, Valid: true}
}

// Invalid is a convenience constructor for a timed-out or out-of-range sample.
func Invalid() Sample {
	return Sample{}
}
