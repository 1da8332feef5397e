// Package scheduler drives the measure→decide→publish cycle. One cycle runs
// to completion before the next begins; the ranging transducer is a shared,
// non-reentrant resource, so exclusive access is enforced by sequencing
// rather than locking.
package scheduler

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/parking-sensor/internal/battery"
	"github.com/sweeney/parking-sensor/internal/config"
	"github.com/sweeney/parking-sensor/internal/led"
	"github.com/sweeney/parking-sensor/internal/logic"
	"github.com/sweeney/parking-sensor/internal/mqtt"
	"github.com/sweeney/parking-sensor/internal/ranging"
	"github.com/sweeney/parking-sensor/internal/status"
)

// Deps bundles the scheduler's collaborators. Ranger, Battery, Publisher and
// Log are required; the rest are optional.
type Deps struct {
	Ranger    ranging.Ranger
	Battery   battery.Monitor
	Publisher mqtt.Publisher
	Log       *zap.SugaredLogger

	// ConnStatus, if set, feeds MQTT connectivity into the tracker.
	ConnStatus mqtt.ConnectionStatus

	// LED, if set, mirrors the committed occupancy state.
	LED led.Driver

	// Tracker, if set, receives a state snapshot after every cycle.
	Tracker *status.Tracker

	// Now defaults to time.Now.
	Now func() time.Time

	// Sleeper defaults to TimerSleeper. Only used when deep sleep is
	// enabled.
	Sleeper Sleeper
}

// Scheduler owns the per-cycle control flow and all cross-cycle state: the
// debouncer, the cycle counters and the low-battery latch. It is driven from
// a single goroutine and is not safe for concurrent use.
type Scheduler struct {
	cfg  config.Config
	deps Deps
	deb  *logic.Debouncer

	startTime    time.Time
	counts       status.Counts
	lastBattery  int
	batteryKnown bool
	lowBattery   bool

	// degradedRun counts consecutive cycles without quorum; one degraded
	// report is emitted per run.
	degradedRun      int
	degradedReported bool
}

// New creates a Scheduler. The debouncer starts in the UNKNOWN state.
func New(cfg config.Config, deps Deps) *Scheduler {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Sleeper == nil {
		deps.Sleeper = TimerSleeper{}
	}
	return &Scheduler{
		cfg:       cfg,
		deps:      deps,
		deb:       logic.NewDebouncer(cfg.Measurement.OccupiedThresholdCM, cfg.Measurement.DebounceCount),
		startTime: deps.Now(),
	}
}

// RunCycle executes one measurement cycle: sample, aggregate, debounce, read
// battery, publish. It never returns an error — every failure mode inside a
// cycle is recoverable and must not stop the loop.
func (s *Scheduler) RunCycle() {
	now := s.deps.Now()
	s.counts.Cycles++

	samples := make([]ranging.Sample, 0, s.cfg.Measurement.Samples)
	for i := 0; i < s.cfg.Measurement.Samples; i++ {
		sample, err := s.deps.Ranger.MeasureOnce()
		if err != nil {
			// A hardware fault on one sample is treated like a
			// timeout; the quorum rule decides whether the cycle
			// still counts.
			s.deps.Log.Errorw("ranging fault", "sample", i, "error", err)
			sample = ranging.Sample{}
		}
		samples = append(samples, sample)
	}

	var distPtr *float64
	distance, ok := logic.Aggregate(samples, s.cfg.Measurement.Quorum())
	if ok {
		d := distance
		distPtr = &d
		s.degradedRun = 0
		s.degradedReported = false

		if event := s.deb.Observe(distance, now); event != nil {
			if event.Initial {
				s.deps.Log.Infow("occupancy initialized",
					"state", event.State, "distance_cm", event.DistanceCM)
			} else {
				s.deps.Log.Infow("occupancy changed",
					"from", event.Previous, "to", event.State, "distance_cm", event.DistanceCM)
			}
			s.setLED(event.State)
		}
	} else {
		s.counts.NoQuorum++
		s.degradedRun++
		s.deps.Log.Warnw("no quorum of valid samples",
			"run", s.degradedRun, "samples", s.cfg.Measurement.Samples)

		if s.degradedRun >= s.cfg.Measurement.DegradedCycleLimit && !s.degradedReported {
			s.reportError(mqtt.CodeSensorDegraded,
				fmt.Sprintf("%d consecutive cycles without a quorum of valid samples", s.degradedRun), now)
			s.degradedReported = true
		}
	}

	pct, err := s.deps.Battery.ReadPercent()
	if err != nil {
		// Fall back to the last good reading. Until one exists the level
		// is simply unknown and must not trip the latch: a transient ADC
		// fault on the first cycle would otherwise report 0% and stretch
		// the interval for the rest of the run.
		s.deps.Log.Errorw("battery read failed", "error", err)
		pct = s.lastBattery
	} else {
		s.lastBattery = pct
		s.batteryKnown = true
	}
	if s.batteryKnown && pct < s.cfg.Power.LowBatteryThreshold {
		// Latched: only a battery swap (process restart) clears it, so
		// a reading hovering around the threshold cannot flap the flag.
		s.lowBattery = true
	}

	if err := s.deps.Publisher.PublishStatus(s.statusPayload(now, distPtr, pct, "", "")); err != nil {
		s.counts.PublishFailures++
		s.deps.Log.Errorw("status publish failed", "error", err)
	}

	k := s.cfg.Measurement.HeartbeatEveryCycles
	if k > 0 && s.counts.Cycles%k == 0 {
		hb := mqtt.HeartbeatPayload{
			SensorID:        s.cfg.Identity.SensorID,
			Location:        s.cfg.Identity.Location,
			FirmwareVersion: s.cfg.Identity.FirmwareVersion,
			UptimeSeconds:   int64(now.Sub(s.startTime).Seconds()),
			Cycles:          s.counts.Cycles,
			Transitions:     s.deb.Transitions(),
			PublishFailures: s.counts.PublishFailures,
			BatteryPercent:  pct,
			Timestamp:       now,
		}
		if err := s.deps.Publisher.PublishHeartbeat(hb); err != nil {
			s.counts.PublishFailures++
			s.deps.Log.Errorw("heartbeat publish failed", "error", err)
		} else {
			s.counts.Heartbeats++
		}
	}

	s.counts.Transitions = s.deb.Transitions()
	s.updateTracker(distPtr, pct)
}

// NextInterval returns the pause before the next cycle. Once the battery is
// low the interval doubles to stretch the remaining charge.
func (s *Scheduler) NextInterval() time.Duration {
	if s.lowBattery {
		return 2 * s.cfg.Measurement.Interval
	}
	return s.cfg.Measurement.Interval
}

// DeepSleepEnabled reports whether the loop should suspend between cycles.
func (s *Scheduler) DeepSleepEnabled() bool {
	return s.cfg.Power.DeepSleepEnabled
}

// DeepSleep suspends the process for the configured duration and then
// discards the debounce state, mirroring what real deep sleep does to
// volatile memory. The first post-wake reading starts a fresh
// UNKNOWN-origin sequence. Power savings are bought with a momentary loss
// of state continuity; that is the intended trade-off.
func (s *Scheduler) DeepSleep() {
	s.deps.Log.Infow("entering deep sleep", "duration", s.cfg.Power.DeepSleepTime)
	s.deps.Sleeper.Sleep(s.cfg.Power.DeepSleepTime)
	s.deb.Reset()
	s.deps.Log.Infow("woke from deep sleep, debounce state discarded")
}

// PublishLifecycle emits a status report marked with a lifecycle event
// (STARTUP, SHUTDOWN) carrying the current state.
func (s *Scheduler) PublishLifecycle(event, reason string) error {
	now := s.deps.Now()
	return s.deps.Publisher.PublishStatus(s.statusPayload(now, nil, s.lastBattery, event, reason))
}

// CurrentState returns the committed occupancy state.
func (s *Scheduler) CurrentState() logic.State {
	return s.deb.CurrentState()
}

func (s *Scheduler) statusPayload(now time.Time, distPtr *float64, pct int, event, reason string) mqtt.StatusPayload {
	state := s.deb.CurrentState()
	p := mqtt.StatusPayload{
		SensorID:        s.cfg.Identity.SensorID,
		Location:        s.cfg.Identity.Location,
		OccupancyState:  state.Wire(),
		DistanceCM:      distPtr,
		BatteryPercent:  pct,
		LowBattery:      s.lowBattery,
		FirmwareVersion: s.cfg.Identity.FirmwareVersion,
		Event:           event,
		Reason:          reason,
		Timestamp:       now,
	}
	if state != logic.StateUnknown {
		occ := state == logic.StateOccupied
		p.Occupied = &occ
	}
	return p
}

func (s *Scheduler) reportError(code, message string, now time.Time) {
	err := s.deps.Publisher.PublishError(mqtt.ErrorPayload{
		SensorID:  s.cfg.Identity.SensorID,
		Location:  s.cfg.Identity.Location,
		Code:      code,
		Message:   message,
		Timestamp: now,
	})
	if err != nil {
		s.counts.PublishFailures++
		s.deps.Log.Errorw("error report publish failed", "code", code, "error", err)
	}
}

func (s *Scheduler) setLED(state logic.State) {
	if s.deps.LED == nil {
		return
	}
	if err := s.deps.LED.Set(state == logic.StateOccupied); err != nil {
		s.deps.Log.Errorw("led update failed", "error", err)
	}
}

func (s *Scheduler) updateTracker(distPtr *float64, pct int) {
	if s.deps.Tracker == nil {
		return
	}
	s.deps.Tracker.Update(s.deb.CurrentState(), distPtr, pct, s.lowBattery, s.counts)
	if s.deps.ConnStatus != nil {
		s.deps.Tracker.SetMQTTConnected(s.deps.ConnStatus.IsConnected())
	}
}
