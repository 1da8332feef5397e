// Package led drives the occupancy indicator LED with hardware abstraction.
package led

// Driver controls the indicator LED.
type Driver interface {
	// Set turns the LED on or off.
	Set(on bool) error

	// Close releases GPIO resources, leaving the LED off.
	Close() error
}
