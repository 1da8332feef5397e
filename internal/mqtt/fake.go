package mqtt

import "errors"

// FakePublisher records published reports for test assertions.
type FakePublisher struct {
	// Statuses contains all status payloads that were published.
	Statuses []StatusPayload

	// Heartbeats contains all heartbeat payloads that were published.
	Heartbeats []HeartbeatPayload

	// Errors contains all error payloads that were published.
	Errors []ErrorPayload

	// StatusJSON contains the serialized status payloads.
	StatusJSON [][]byte

	// FailStatusTimes makes the next N PublishStatus calls fail.
	FailStatusTimes int

	// PublishStatusError is returned while FailStatusTimes > 0.
	PublishStatusError error

	// PublishHeartbeatError, if set, will be returned by PublishHeartbeat.
	PublishHeartbeatError error

	// PublishErrorError, if set, will be returned by PublishError.
	PublishErrorError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Connected: true}
}

// PublishStatus records the status report.
func (f *FakePublisher) PublishStatus(p StatusPayload) error {
	if f.FailStatusTimes > 0 {
		f.FailStatusTimes--
		if f.PublishStatusError != nil {
			return f.PublishStatusError
		}
		return errors.New("publish failed")
	}

	f.Statuses = append(f.Statuses, p)

	data, err := FormatStatus(p)
	if err != nil {
		return err
	}
	f.StatusJSON = append(f.StatusJSON, data)
	return nil
}

// PublishHeartbeat records the heartbeat report.
func (f *FakePublisher) PublishHeartbeat(p HeartbeatPayload) error {
	if f.PublishHeartbeatError != nil {
		return f.PublishHeartbeatError
	}
	f.Heartbeats = append(f.Heartbeats, p)
	return nil
}

// PublishError records the fault report.
func (f *FakePublisher) PublishError(p ErrorPayload) error {
	if f.PublishErrorError != nil {
		return f.PublishErrorError
	}
	f.Errors = append(f.Errors, p)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded reports.
func (f *FakePublisher) Reset() {
	f.Statuses = nil
	f.Heartbeats = nil
	f.Errors = nil
	f.StatusJSON = nil
	f.FailStatusTimes = 0
	f.PublishStatusError = nil
	f.PublishHeartbeatError = nil
	f.PublishErrorError = nil
	f.Closed = false
	f.Connected = true
}
