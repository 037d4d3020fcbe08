package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/smartcity/streetlight/internal/hardware"
	"github.com/smartcity/streetlight/internal/logic"
)

func TestNewTracker(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cfg := Config{DeviceID: "lamp-07", PollMs: 1000, Broker: "tcp://localhost:1883", HTTPAddr: ":8089"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Phase != PhaseInit {
		t.Errorf("Phase: got %q, want initializing", snap.Phase)
	}
	if snap.Config.DeviceID != "lamp-07" {
		t.Errorf("Config.DeviceID: got %q, want lamp-07", snap.Config.DeviceID)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.Update(TickState{
		Night:      true,
		Motion:     true,
		CountdownS: 25,
		Duty:       100,
		PowerW:     4.98,
		Raw:        2800,
		Smoothed:   2710,
	})

	snap := tr.Snapshot()
	if !snap.Tick.Night || !snap.Tick.Motion {
		t.Errorf("flags: night=%v motion=%v, want true/true", snap.Tick.Night, snap.Tick.Motion)
	}
	if snap.Tick.CountdownS != 25 {
		t.Errorf("CountdownS: got %d, want 25", snap.Tick.CountdownS)
	}
	if snap.Tick.Duty != 100 {
		t.Errorf("Duty: got %d, want 100", snap.Tick.Duty)
	}
	if snap.Tick.Smoothed != 2710 {
		t.Errorf("Smoothed: got %d, want 2710", snap.Tick.Smoothed)
	}
}

func TestSetPhase(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetPhase(PhaseReady)
	if tr.Snapshot().Phase != PhaseReady {
		t.Error("expected ready phase")
	}

	tr.SetPhase(PhaseError)
	if tr.Snapshot().Phase != PhaseError {
		t.Error("expected error phase")
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSnapshotUptime(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(TickState{Night: true, Duty: 30})

	snap1 := tr.Snapshot()

	tr.Update(TickState{Night: false, Duty: 0})

	// snap1 should still reflect old state
	if !snap1.Tick.Night {
		t.Error("snapshot should be a copy; Night was modified")
	}
	if snap1.Tick.Duty != 30 {
		t.Error("snapshot should be a copy; Duty was modified")
	}
}

func TestColorFor(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want hardware.Color
	}{
		{"initializing", Snapshot{Phase: PhaseInit}, hardware.ColorOrange},
		{"error", Snapshot{Phase: PhaseError, MQTTConnected: true}, hardware.ColorRed},
		{"disconnected", Snapshot{Phase: PhaseReady}, hardware.ColorBlue},
		{"day", Snapshot{Phase: PhaseReady, MQTTConnected: true}, hardware.ColorGreen},
		{"night motion", Snapshot{Phase: PhaseReady, MQTTConnected: true, Tick: TickState{Night: true, Motion: true}}, hardware.ColorCyan},
		{"night idle", Snapshot{Phase: PhaseReady, MQTTConnected: true, Tick: TickState{Night: true}}, hardware.ColorPurple},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ColorFor(tt.snap); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestFormatJSON(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Phase: PhaseReady,
		Tick: TickState{
			Night:      true,
			Motion:     false,
			CountdownS: 0,
			Duty:       30,
			PowerW:     1.5,
			Raw:        2800,
			Smoothed:   2710,
		},
		MQTTConnected: true,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		Config: Config{
			DeviceID:   "lamp-07",
			PollMs:     1000,
			HeartbeatS: 60,
			NightEnter: 2500,
			DayExit:    1500,
			Policy:     "smoothed",
			Broker:     "tcp://localhost:1883",
			HTTPAddr:   ":8089",
		},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Phase != "ready" {
		t.Errorf("Phase: got %q, want ready", parsed.Status.Phase)
	}
	if !parsed.Status.Night {
		t.Error("expected Night=true")
	}
	if parsed.Status.Duty != 30 {
		t.Errorf("Duty: got %d, want 30", parsed.Status.Duty)
	}
	if parsed.Status.Color != "purple" {
		t.Errorf("Color: got %q, want purple", parsed.Status.Color)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Config.NightEnter != 2500 {
		t.Errorf("Config.NightEnter: got %d, want 2500", parsed.Status.Config.NightEnter)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONOmitsEmptyAnomaly(t *testing.T) {
	snap := Snapshot{
		Phase:     PhaseReady,
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatJSON(snap)

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	inner := raw["status"].(map[string]interface{})
	if _, exists := inner["anomaly"]; exists {
		t.Error("anomaly should be omitted when none")
	}
}

func TestFormatJSONWithAnomaly(t *testing.T) {
	snap := Snapshot{
		Phase:     PhaseReady,
		Tick:      TickState{Duty: 100, PowerW: 0.02, Anomaly: logic.AnomalyLampFailure},
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Anomaly != "lamp_failure" {
		t.Errorf("Anomaly: got %q, want lamp_failure", parsed.Status.Anomaly)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Phase:         PhaseReady,
		Tick:          TickState{Night: true, Duty: 30},
		MQTTConnected: true,
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		Config:        Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "STARTUP" {
		t.Errorf("Event: got %q, want STARTUP", parsed.Status.Event)
	}
	if parsed.Status.Duty != 30 {
		t.Errorf("Duty: got %d, want 30", parsed.Status.Duty)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		Phase:     PhaseReady,
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{
		StartTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Now:       time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC),
	}

	data := FormatStatusEvent(snap, "STARTUP", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	inner := raw["status"].(map[string]interface{})
	if _, exists := inner["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if inner["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", inner["event"])
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(TickState{Night: i%2 == 0, Duty: i % 101})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetPhase(PhaseReady)
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
			_ = ColorFor(snap)
		}
	}()

	wg.Wait()
}
