// Package battery reads the battery charge level with hardware abstraction.
// The real implementation samples an ADC channel exposed through the Linux
// IIO subsystem; the fake returns scripted values for tests.
package battery

// Monitor reports the battery charge level.
type Monitor interface {
	// ReadPercent returns the charge level as a percentage, clamped to 0-100.
	ReadPercent() (int, error)

	// Close releases resources.
	Close() error
}

// clampPercent bounds a computed percentage to the reportable range.
func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
