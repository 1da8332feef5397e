package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	OccupancyState string     `json:"occupancy_state"`
	DistanceCM     *float64   `json:"distance_cm"`
	BatteryPercent int        `json:"battery_percent"`
	LowBattery     bool       `json:"low_battery"`
	Ready          bool       `json:"ready"`
	UptimeSeconds  int64      `json:"uptime_seconds"`
	StartTime      string     `json:"start_time"`
	Timestamp      string     `json:"timestamp"`
	MQTT           MQTTStatus `json:"mqtt"`
	Counts         CountsJSON `json:"counts"`
	Config         ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of cycle counters.
type CountsJSON struct {
	Cycles          int `json:"cycles"`
	NoQuorum        int `json:"no_quorum"`
	Transitions     int `json:"transitions"`
	PublishFailures int `json:"publish_failures"`
	Heartbeats      int `json:"heartbeats"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	SensorID            string  `json:"sensor_id"`
	Location            string  `json:"location"`
	FirmwareVersion     string  `json:"firmware_version"`
	HardwareVersion     string  `json:"hardware_version"`
	Broker              string  `json:"broker"`
	HTTPAddr            string  `json:"http_addr"`
	IntervalMs          int64   `json:"interval_ms"`
	Samples             int     `json:"samples"`
	DebounceCount       int     `json:"debounce_count"`
	OccupiedThresholdCM float64 `json:"occupied_threshold_cm"`
	DeepSleepEnabled    bool    `json:"deep_sleep_enabled"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		OccupancyState: snap.State.Wire(),
		DistanceCM:     snap.DistanceCM,
		BatteryPercent: snap.BatteryPercent,
		LowBattery:     snap.LowBattery,
		Ready:          snap.State.Wire() != "unknown",
		UptimeSeconds:  int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:      snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:      snap.Now.UTC().Format(time.RFC3339),
		MQTT:           MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Cycles:          snap.Counts.Cycles,
			NoQuorum:        snap.Counts.NoQuorum,
			Transitions:     snap.Counts.Transitions,
			PublishFailures: snap.Counts.PublishFailures,
			Heartbeats:      snap.Counts.Heartbeats,
		},
		Config: ConfigJSON{
			SensorID:            snap.Config.SensorID,
			Location:            snap.Config.Location,
			FirmwareVersion:     snap.Config.FirmwareVersion,
			HardwareVersion:     snap.Config.HardwareVersion,
			Broker:              snap.Config.Broker,
			HTTPAddr:            snap.Config.HTTPAddr,
			IntervalMs:          snap.Config.IntervalMs,
			Samples:             snap.Config.Samples,
			DebounceCount:       snap.Config.DebounceCount,
			OccupiedThresholdCM: snap.Config.OccupiedThresholdCM,
			DeepSleepEnabled:    snap.Config.DeepSleepEnabled,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint.
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}
