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
	Event         string     `json:"event,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Phase         string     `json:"phase"`
	Night         bool       `json:"night"`
	Motion        bool       `json:"motion"`
	CountdownS    int        `json:"countdown_s"`
	Duty          int        `json:"duty"`
	PowerW        float64    `json:"power_w"`
	Raw           int        `json:"raw"`
	Smoothed      int        `json:"smoothed"`
	Anomaly       string     `json:"anomaly,omitempty"`
	Override      bool       `json:"override"`
	Color         string     `json:"color"`
	UptimeSeconds int64      `json:"uptime_seconds"`
	StartTime     string     `json:"start_time"`
	Timestamp     string     `json:"timestamp"`
	MQTT          MQTTStatus `json:"mqtt"`
	Config        ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	DeviceID   string `json:"device_id"`
	PollMs     int64  `json:"poll_ms"`
	HeartbeatS int64  `json:"heartbeat_s"`
	RetryS     int64  `json:"retry_s"`
	DurationS  int64  `json:"duration_s"`
	NightEnter int    `json:"night_enter"`
	DayExit    int    `json:"day_exit"`
	Policy     string `json:"policy"`
	Broker     string `json:"broker"`
	HTTPAddr   string `json:"http_addr"`
	Simulate   bool   `json:"simulate,omitempty"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Phase:         string(snap.Phase),
		Night:         snap.Tick.Night,
		Motion:        snap.Tick.Motion,
		CountdownS:    snap.Tick.CountdownS,
		Duty:          snap.Tick.Duty,
		PowerW:        snap.Tick.PowerW,
		Raw:           snap.Tick.Raw,
		Smoothed:      snap.Tick.Smoothed,
		Anomaly:       string(snap.Tick.Anomaly),
		Override:      snap.Tick.Override,
		Color:         string(ColorFor(snap)),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Config: ConfigJSON{
			DeviceID:   snap.Config.DeviceID,
			PollMs:     snap.Config.PollMs,
			HeartbeatS: snap.Config.HeartbeatS,
			RetryS:     snap.Config.RetryS,
			DurationS:  snap.Config.DurationS,
			NightEnter: snap.Config.NightEnter,
			DayExit:    snap.Config.DayExit,
			Policy:     snap.Config.Policy,
			Broker:     snap.Config.Broker,
			HTTPAddr:   snap.Config.HTTPAddr,
			Simulate:   snap.Config.Simulate,
		},
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
