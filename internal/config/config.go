// Package config defines the immutable runtime configuration for the
// parking-sensor daemon. Every option corresponds to a deployment-time
// constant; nothing here is mutable after startup.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Identity identifies this sensor in outgoing messages.
type Identity struct {
	SensorID        string `yaml:"sensor_id"`
	Location        string `yaml:"location"`
	FirmwareVersion string `yaml:"firmware_version"`
	HardwareVersion string `yaml:"hardware_version"`
}

// MQTT holds broker connection settings and topic templates.
// Topic templates contain a single %s placeholder for the sensor ID.
type MQTT struct {
	Broker         string `yaml:"broker"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	ClientIDPrefix string `yaml:"client_id_prefix"`

	TopicStatus    string `yaml:"topic_status"`
	TopicHeartbeat string `yaml:"topic_heartbeat"`
	TopicError     string `yaml:"topic_error"`
	TopicConfig    string `yaml:"topic_config"`

	// PublishAttempts caps retries for a single message. Backoff between
	// attempts starts at PublishBackoff and doubles.
	PublishAttempts int           `yaml:"publish_attempts"`
	PublishBackoff  time.Duration `yaml:"publish_backoff"`
}

// Measurement holds ranging and debounce parameters.
type Measurement struct {
	OccupiedThresholdCM float64       `yaml:"occupied_threshold_cm"`
	Samples             int           `yaml:"samples"`
	Interval            time.Duration `yaml:"interval"`
	DebounceCount       int           `yaml:"debounce_count"`

	MinDistanceCM float64       `yaml:"min_distance_cm"`
	MaxDistanceCM float64       `yaml:"max_distance_cm"`
	SensorTimeout time.Duration `yaml:"sensor_timeout"`

	// HeartbeatEveryCycles publishes a heartbeat on every K-th cycle.
	// 0 disables heartbeats.
	HeartbeatEveryCycles int `yaml:"heartbeat_every_cycles"`

	// DegradedCycleLimit is the number of consecutive cycles without a
	// quorum of valid samples before a degraded-sensor error is reported.
	DegradedCycleLimit int `yaml:"degraded_cycle_limit"`
}

// Pins holds GPIO pin assignments (BCM numbering) and the ADC channel.
type Pins struct {
	Trigger        int `yaml:"trigger"`
	Echo           int `yaml:"echo"`
	LED            int `yaml:"led"`
	BatteryChannel int `yaml:"battery_channel"`
}

// Power holds power-management settings.
type Power struct {
	DeepSleepEnabled bool          `yaml:"deep_sleep_enabled"`
	DeepSleepTime    time.Duration `yaml:"deep_sleep_time"`

	// LowBatteryThreshold is a percentage; below it every payload carries
	// the low-battery flag and the scheduler stretches its interval.
	LowBatteryThreshold int `yaml:"low_battery_threshold"`
}

// Config is the full daemon configuration. Construct with Default or Load,
// then Validate once before the scheduler loop starts.
type Config struct {
	Identity    Identity    `yaml:"identity"`
	MQTT        MQTT        `yaml:"mqtt"`
	Measurement Measurement `yaml:"measurement"`
	Pins        Pins        `yaml:"pins"`
	Power       Power       `yaml:"power"`

	HTTPAddr string `yaml:"http_addr"`
}

// Default returns the configuration matching the reference deployment.
func Default() Config {
	return Config{
		Identity: Identity{
			SensorID:        "PARK_001",
			Location:        "Level_1_Spot_A1",
			FirmwareVersion: "1.0.0",
			HardwareVersion: "PI_HC-SR04_v1",
		},
		MQTT: MQTT{
			Broker:          "tcp://localhost:1883",
			Username:        "parking_sensor",
			ClientIDPrefix:  "ParkingSensor_",
			TopicStatus:     "parking/sensor/%s/status",
			TopicHeartbeat:  "parking/sensor/%s/heartbeat",
			TopicError:      "parking/sensor/%s/error",
			TopicConfig:     "parking/config/%s",
			PublishAttempts: 3,
			PublishBackoff:  500 * time.Millisecond,
		},
		Measurement: Measurement{
			OccupiedThresholdCM:  200,
			Samples:              5,
			Interval:             30 * time.Second,
			DebounceCount:        3,
			MinDistanceCM:        2,
			MaxDistanceCM:        400,
			SensorTimeout:        30 * time.Millisecond,
			HeartbeatEveryCycles: 10,
			DegradedCycleLimit:   5,
		},
		Pins: Pins{
			Trigger:        5,
			Echo:           18,
			LED:            2,
			BatteryChannel: 0,
		},
		Power: Power{
			DeepSleepEnabled:    false,
			DeepSleepTime:       5 * time.Minute,
			LowBatteryThreshold: 20,
		},
		HTTPAddr: ":8080",
	}
}

// Load reads a YAML config file over the defaults. Unknown keys are rejected
// so a typo in a deployed file fails at startup rather than silently using a
// default.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the configuration for values the daemon cannot run with.
// This is the only fatal error path: once Validate passes, no component
// re-validates configuration per cycle.
func (c Config) Validate() error {
	if c.Identity.SensorID == "" {
		return fmt.Errorf("identity: sensor_id must not be empty")
	}
	if c.MQTT.Broker == "" {
		return fmt.Errorf("mqtt: broker must not be empty")
	}
	for name, tmpl := range map[string]string{
		"topic_status":    c.MQTT.TopicStatus,
		"topic_heartbeat": c.MQTT.TopicHeartbeat,
		"topic_error":     c.MQTT.TopicError,
		"topic_config":    c.MQTT.TopicConfig,
	} {
		if strings.Count(tmpl, "%s") != 1 {
			return fmt.Errorf("mqtt: %s must contain exactly one %%s placeholder, got %q", name, tmpl)
		}
	}
	if c.MQTT.PublishAttempts < 1 {
		return fmt.Errorf("mqtt: publish_attempts must be >= 1, got %d", c.MQTT.PublishAttempts)
	}

	m := c.Measurement
	if m.Samples < 1 {
		return fmt.Errorf("measurement: samples must be >= 1, got %d", m.Samples)
	}
	if m.DebounceCount < 1 {
		return fmt.Errorf("measurement: debounce_count must be >= 1, got %d", m.DebounceCount)
	}
	if m.Interval <= 0 {
		return fmt.Errorf("measurement: interval must be positive, got %v", m.Interval)
	}
	if m.MinDistanceCM >= m.MaxDistanceCM {
		return fmt.Errorf("measurement: min_distance_cm %v must be below max_distance_cm %v", m.MinDistanceCM, m.MaxDistanceCM)
	}
	if m.OccupiedThresholdCM < m.MinDistanceCM || m.OccupiedThresholdCM > m.MaxDistanceCM {
		return fmt.Errorf("measurement: occupied_threshold_cm %v outside sensor limits [%v, %v]",
			m.OccupiedThresholdCM, m.MinDistanceCM, m.MaxDistanceCM)
	}
	if m.SensorTimeout <= 0 {
		return fmt.Errorf("measurement: sensor_timeout must be positive, got %v", m.SensorTimeout)
	}

	if c.Pins.Trigger == c.Pins.Echo {
		return fmt.Errorf("pins: trigger and echo both assigned to pin %d", c.Pins.Trigger)
	}
	if c.Pins.LED == c.Pins.Trigger || c.Pins.LED == c.Pins.Echo {
		return fmt.Errorf("pins: led pin %d conflicts with ranging pins", c.Pins.LED)
	}

	if c.Power.LowBatteryThreshold < 0 || c.Power.LowBatteryThreshold > 100 {
		return fmt.Errorf("power: low_battery_threshold must be 0-100, got %d", c.Power.LowBatteryThreshold)
	}
	if c.Power.DeepSleepEnabled && c.Power.DeepSleepTime <= 0 {
		return fmt.Errorf("power: deep_sleep_time must be positive when deep sleep is enabled")
	}

	return nil
}

// Quorum returns the minimum number of valid samples required to trust an
// aggregate: strictly more than half of the configured sample count.
func (m Measurement) Quorum() int {
	return m.Samples/2 + 1
}
