// Package mqtt carries street-light telemetry and commands over MQTT,
// with an abstraction for testing.
package mqtt

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/smartcity/streetlight/internal/logic"
	"github.com/smartcity/streetlight/internal/telemetry"
)

// TopicPrefix is the root of the street-light topic tree.
const TopicPrefix = "smartcity/streetlight"

// DataWildcard matches the data topic of every device.
const DataWildcard = TopicPrefix + "/+/data"

// DataTopic returns the telemetry topic for a device.
func DataTopic(device string) string {
	return TopicPrefix + "/" + device + "/data"
}

// CommandTopic returns the command topic for a device.
func CommandTopic(device string) string {
	return TopicPrefix + "/" + device + "/command"
}

// SystemTopic returns the lifecycle topic for a device.
func SystemTopic(device string) string {
	return TopicPrefix + "/" + device + "/system"
}

// DeviceFromTopic extracts the device id from a street-light topic.
// Returns "" if the topic does not follow the prefix/<device>/... layout.
func DeviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[0]+"/"+parts[1] != TopicPrefix {
		return ""
	}
	return parts[2]
}

// Publisher publishes readings and lifecycle events to MQTT. The
// control loop calls both publish methods from its tick handler, so
// implementations must never wait on the network: hand the message to
// the transport, report an already-known failure, and return.
type Publisher interface {
	// Publish sends a telemetry reading to the broker.
	// Best-effort: an error must not crash the caller.
	Publish(reading telemetry.Reading) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// Commander delivers brightness commands addressed to this device.
type Commander interface {
	// SubscribeCommands registers the handler for incoming commands.
	// The handler runs on the transport's goroutine and must not block.
	SubscribeCommands(handler func(Command)) error
}

// Subscriber receives telemetry from the whole fleet.
type Subscriber interface {
	// SubscribeData registers the handler for every device's data topic.
	SubscribeData(handler func(device string, payload []byte)) error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Command is a control message addressed to a single device. The override
// key doubles as the command name, so {"brightness_override":80} forces
// the duty and {"clear_override":true} cancels it.
type Command struct {
	Override   *int `json:"brightness_override,omitempty"`
	TTLSeconds int  `json:"ttl_s,omitempty"`
	Clear      bool `json:"clear_override,omitempty"`
}

// ParseCommand decodes a command payload.
func ParseCommand(data []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return Command{}, fmt.Errorf("parse command: %w", err)
	}
	return cmd, nil
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Light LightPayload `json:"light"`
}

// LightPayload contains one telemetry reading.
type LightPayload struct {
	DeviceID   string  `json:"device_id"`
	Timestamp  string  `json:"timestamp"`
	Raw        int     `json:"raw"`
	Smoothed   int     `json:"smoothed"`
	Night      bool    `json:"night"`
	Motion     bool    `json:"motion"`
	CountdownS int     `json:"countdown_s"`
	Duty       int     `json:"duty"`
	PowerW     float64 `json:"power_w"`
	Anomaly    string  `json:"anomaly,omitempty"`
	Simulated  bool    `json:"simulated,omitempty"`
	Reason     string  `json:"reason"`
}

// FormatPayload creates the JSON payload for a telemetry reading.
func FormatPayload(reading telemetry.Reading) ([]byte, error) {
	payload := Payload{
		Light: LightPayload{
			DeviceID:   reading.DeviceID,
			Timestamp:  reading.Timestamp.UTC().Format(time.RFC3339),
			Raw:        reading.Raw,
			Smoothed:   reading.Smoothed,
			Night:      reading.Night,
			Motion:     reading.Motion,
			CountdownS: reading.CountdownS,
			Duty:       reading.Duty,
			PowerW:     reading.PowerW,
			Anomaly:    string(reading.Anomaly),
			Simulated:  reading.Simulated,
			Reason:     string(reading.Reason),
		},
	}
	return json.Marshal(payload)
}

// ParsePayload decodes a telemetry payload back into a reading.
// TrafficPct is not carried on the wire; it comes back -1 (not derived).
func ParsePayload(data []byte) (telemetry.Reading, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return telemetry.Reading{}, fmt.Errorf("parse payload: %w", err)
	}

	ts, err := time.Parse(time.RFC3339, payload.Light.Timestamp)
	if err != nil {
		return telemetry.Reading{}, fmt.Errorf("parse timestamp: %w", err)
	}

	return telemetry.Reading{
		DeviceID:   payload.Light.DeviceID,
		Timestamp:  ts,
		Raw:        payload.Light.Raw,
		Smoothed:   payload.Light.Smoothed,
		Night:      payload.Light.Night,
		Motion:     payload.Light.Motion,
		CountdownS: payload.Light.CountdownS,
		Duty:       payload.Light.Duty,
		PowerW:     payload.Light.PowerW,
		Anomaly:    logic.Anomaly(payload.Light.Anomaly),
		TrafficPct: -1,
		Simulated:  payload.Light.Simulated,
		Reason:     telemetry.Reason(payload.Light.Reason),
	}, nil
}

// SystemPayload represents the MQTT message payload for system events.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full
// config snapshots on STARTUP).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
