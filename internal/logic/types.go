// Package logic contains pure business logic for occupancy detection.
// This package has NO hardware or network dependencies (no GPIO, MQTT, OS,
// or time.Sleep). Time is always injectable via time.Time parameters.
package logic

import "time"

// State represents the debounced occupancy state of the parking spot.
type State string

const (
	StateUnknown  State = "UNKNOWN"
	StateVacant   State = "VACANT"
	StateOccupied State = "OCCUPIED"
)

// Wire returns the lowercase form used in MQTT payloads.
func (s State) Wire() string {
	switch s {
	case StateVacant:
		return "vacant"
	case StateOccupied:
		return "occupied"
	default:
		return "unknown"
	}
}

// Event represents a committed occupancy decision to be published.
type Event struct {
	Timestamp time.Time
	State     State
	Previous  State
	// DistanceCM is the filtered distance that completed the debounce.
	DistanceCM float64
	// Initial marks the first commit after startup or deep-sleep wake.
	// It is an initialization report, not an occupancy change.
	Initial bool
}
