// Package mqtt publishes sensor reports to an MQTT broker with abstraction
// for testing. Topic names are formed by substituting the sensor ID into
// configured templates.
package mqtt

import (
	"fmt"
	"strings"
)

// Error codes carried on the error topic.
const (
	CodeSensorDegraded = "SENSOR_DEGRADED"
	CodePublishFailed  = "PUBLISH_FAILED"
)

// Publisher publishes sensor reports.
// Implementations must never block unboundedly: a stalled broker results in
// an error, not a hung measurement cycle.
type Publisher interface {
	// PublishStatus sends an occupancy status report (QoS 1, retained).
	PublishStatus(p StatusPayload) error

	// PublishHeartbeat sends a liveness report (QoS 0).
	PublishHeartbeat(p HeartbeatPayload) error

	// PublishError sends a fault report (QoS 1). Implementations may
	// defer delivery until connectivity returns.
	PublishError(p ErrorPayload) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Topic substitutes the sensor ID into a topic template. Templates without
// a placeholder are returned unchanged, so a literal topic in config still
// works.
func Topic(template, sensorID string) string {
	if !strings.Contains(template, "%s") {
		return template
	}
	return fmt.Sprintf(template, sensorID)
}
