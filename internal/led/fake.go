package led

// FakeDriver records LED state changes for test assertions.
type FakeDriver struct {
	// On is the current LED state.
	On bool

	// History records every value passed to Set.
	History []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeDriver creates a FakeDriver, initially off.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// Set records the LED state.
func (f *FakeDriver) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.On = on
	f.History = append(f.History, on)
	return nil
}

// Close marks the driver as closed and the LED as off.
func (f *FakeDriver) Close() error {
	f.On = false
	f.Closed = true
	return nil
}
