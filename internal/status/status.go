// Package status provides a thread-safe status tracker for the
// parking-sensor daemon. It is read by the HTTP status handlers.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/parking-sensor/internal/logic"
)

// Config contains daemon configuration for display.
type Config struct {
	SensorID            string
	Location            string
	FirmwareVersion     string
	HardwareVersion     string
	Broker              string
	HTTPAddr            string
	IntervalMs          int64
	Samples             int
	DebounceCount       int
	OccupiedThresholdCM float64
	DeepSleepEnabled    bool
}

// Counts tracks cycle activity since startup.
type Counts struct {
	Cycles          int
	NoQuorum        int
	Transitions     int
	PublishFailures int
	Heartbeats      int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	State          logic.State
	DistanceCM     *float64
	BatteryPercent int
	LowBattery     bool
	Counts         Counts
	StartTime      time.Time
	Now            time.Time
	MQTTConnected  bool
	Config         Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			State:     logic.StateUnknown,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the occupancy state, last filtered distance, battery level and
// counters. Called from the scheduler on every cycle. distanceCM is nil on
// cycles without a reliable reading.
func (t *Tracker) Update(state logic.State, distanceCM *float64, batteryPercent int, lowBattery bool, counts Counts) {
	t.mu.Lock()
	t.snap.State = state
	t.snap.DistanceCM = distanceCM
	t.snap.BatteryPercent = batteryPercent
	t.snap.LowBattery = lowBattery
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
