package battery

// FakeMonitor is a test double returning a scripted charge level.
type FakeMonitor struct {
	// Percent is returned by ReadPercent.
	Percent int

	// ReadError, if set, will be returned by ReadPercent.
	ReadError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeMonitor creates a FakeMonitor reporting the given level.
func NewFakeMonitor(percent int) *FakeMonitor {
	return &FakeMonitor{Percent: percent}
}

// ReadPercent returns the scripted level.
func (f *FakeMonitor) ReadPercent() (int, error) {
	if f.ReadError != nil {
		return 0, f.ReadError
	}
	return clampPercent(f.Percent), nil
}

// Close marks the monitor as closed.
func (f *FakeMonitor) Close() error {
	f.Closed = true
	return nil
}
