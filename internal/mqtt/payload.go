package mqtt

import (
	"encoding/json"
	"time"
)

// StatusPayload is the wire form of an occupancy status report.
// Field names match what the backend subscriber requires: sensor_id,
// occupied, distance_cm and timestamp must be present once a state is known.
type StatusPayload struct {
	SensorID       string `json:"sensor_id"`
	Location       string `json:"location"`
	OccupancyState string `json:"occupancy_state"` // vacant | occupied | unknown
	// Occupied is omitted while the state is still unknown.
	Occupied *bool `json:"occupied,omitempty"`
	// DistanceCM is null when the cycle produced no reliable reading.
	DistanceCM      *float64 `json:"distance_cm"`
	BatteryPercent  int      `json:"battery_percent"`
	LowBattery      bool     `json:"low_battery"`
	FirmwareVersion string   `json:"firmware_version"`
	// Event marks lifecycle reports (STARTUP, SHUTDOWN); empty for the
	// regular per-cycle status.
	Event     string    `json:"event,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"-"`
}

// HeartbeatPayload is the wire form of a liveness report.
type HeartbeatPayload struct {
	SensorID        string    `json:"sensor_id"`
	Location        string    `json:"location"`
	FirmwareVersion string    `json:"firmware_version"`
	UptimeSeconds   int64     `json:"uptime_seconds"`
	Cycles          int       `json:"cycles"`
	Transitions     int       `json:"transitions"`
	PublishFailures int       `json:"publish_failures"`
	BatteryPercent  int       `json:"battery_percent"`
	Timestamp       time.Time `json:"-"`
}

// ErrorPayload is the wire form of a fault report.
type ErrorPayload struct {
	SensorID  string    `json:"sensor_id"`
	Location  string    `json:"location"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"-"`
}

// wireTimestamp formats timestamps the way the backend expects.
func wireTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// FormatStatus creates the JSON payload for a status report.
func FormatStatus(p StatusPayload) ([]byte, error) {
	type wire struct {
		StatusPayload
		Timestamp string `json:"timestamp"`
	}
	return json.Marshal(wire{StatusPayload: p, Timestamp: wireTimestamp(p.Timestamp)})
}

// FormatHeartbeat creates the JSON payload for a heartbeat report.
func FormatHeartbeat(p HeartbeatPayload) ([]byte, error) {
	type wire struct {
		HeartbeatPayload
		Timestamp string `json:"timestamp"`
	}
	return json.Marshal(wire{HeartbeatPayload: p, Timestamp: wireTimestamp(p.Timestamp)})
}

// FormatError creates the JSON payload for a fault report.
func FormatError(p ErrorPayload) ([]byte, error) {
	type wire struct {
		ErrorPayload
		Timestamp string `json:"timestamp"`
	}
	return json.Marshal(wire{ErrorPayload: p, Timestamp: wireTimestamp(p.Timestamp)})
}
