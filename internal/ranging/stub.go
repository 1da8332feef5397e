//go:build !linux

package ranging

import "errors"

// RealRanger is not available on non-Linux platforms.
type RealRanger struct{}

// NewRealRanger returns an error on non-Linux platforms.
func NewRealRanger(triggerPin, echoPin int, limits Limits) (*RealRanger, error) {
	return nil, errors.New("ranging: not supported on this platform (requires Linux)")
}

// MeasureOnce is not implemented on non-Linux platforms.
func (r *RealRanger) MeasureOnce() (Sample, error) {
	return Sample{}, errors.New("ranging: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealRanger) Close() error {
	return nil
}
