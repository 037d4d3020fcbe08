// Package store persists fleet telemetry: Redis for the live per-device
// state the dashboards poll, Postgres for the reading history the
// analytics queries aggregate.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/smartcity/streetlight/internal/logic"
	"github.com/smartcity/streetlight/internal/telemetry"
)

// RecentCap bounds the Redis recent-readings list per device.
const RecentCap = 100

// liveTTL expires live keys for devices that stop reporting.
const liveTTL = 24 * time.Hour

// LastKey returns the Redis hash key holding a device's latest state.
func LastKey(device string) string {
	return "light:last:" + device
}

// RecentKey returns the Redis list key holding a device's recent
// readings, newest first.
func RecentKey(device string) string {
	return "light:recent:" + device
}

// Live holds the latest state per device for low-latency reads.
type Live interface {
	// SetLast replaces the device's latest state.
	SetLast(ctx context.Context, r telemetry.Reading) error

	// Last returns the device's latest state. The bool reports whether
	// any state exists for the device.
	Last(ctx context.Context, device string) (telemetry.Reading, bool, error)

	// PushRecent prepends a reading to the device's recent list,
	// trimmed to RecentCap.
	PushRecent(ctx context.Context, r telemetry.Reading) error

	// Recent returns up to n recent readings, newest first.
	Recent(ctx context.Context, device string, n int) ([]telemetry.Reading, error)

	Ping(ctx context.Context) error
	Close() error
}

// ReadingJSON is the flat JSON shape of a stored reading. It backs the
// Redis recent list and the HTTP surfaces that serve or accept
// readings. Unlike the wire payload it carries the derived traffic
// percentage.
type ReadingJSON struct {
	DeviceID   string  `json:"device_id"`
	Timestamp  string  `json:"timestamp"`
	Raw        int     `json:"raw"`
	Smoothed   int     `json:"smoothed"`
	Night      bool    `json:"night"`
	Motion     bool    `json:"motion"`
	CountdownS int     `json:"countdown_s"`
	Duty       int     `json:"duty"`
	PowerW     float64 `json:"power_w"`
	TrafficPct int     `json:"traffic_pct"`
	Anomaly    string  `json:"anomaly,omitempty"`
	Simulated  bool    `json:"simulated,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// NewReadingJSON converts a reading to its stored JSON shape.
func NewReadingJSON(r telemetry.Reading) ReadingJSON {
	return ReadingJSON{
		DeviceID:   r.DeviceID,
		Timestamp:  r.Timestamp.UTC().Format(time.RFC3339),
		Raw:        r.Raw,
		Smoothed:   r.Smoothed,
		Night:      r.Night,
		Motion:     r.Motion,
		CountdownS: r.CountdownS,
		Duty:       r.Duty,
		PowerW:     r.PowerW,
		TrafficPct: r.TrafficPct,
		Anomaly:    string(r.Anomaly),
		Simulated:  r.Simulated,
		Reason:     string(r.Reason),
	}
}

// Reading converts back to the domain type.
func (j ReadingJSON) Reading() (telemetry.Reading, error) {
	ts, err := time.Parse(time.RFC3339, j.Timestamp)
	if err != nil {
		return telemetry.Reading{}, fmt.Errorf("parse timestamp %q: %w", j.Timestamp, err)
	}
	return telemetry.Reading{
		DeviceID:   j.DeviceID,
		Timestamp:  ts,
		Raw:        j.Raw,
		Smoothed:   j.Smoothed,
		Night:      j.Night,
		Motion:     j.Motion,
		CountdownS: j.CountdownS,
		Duty:       j.Duty,
		PowerW:     j.PowerW,
		TrafficPct: j.TrafficPct,
		Anomaly:    logic.Anomaly(j.Anomaly),
		Simulated:  j.Simulated,
		Reason:     telemetry.Reason(j.Reason),
	}, nil
}

// DeviceSummary describes one device in the archive.
type DeviceSummary struct {
	DeviceID string    `json:"device_id"`
	LastSeen time.Time `json:"last_seen"`
	Readings int64     `json:"readings"`
}

// EnergyStats aggregates duty and draw over a query window.
type EnergyStats struct {
	Samples   int64   `json:"samples"`
	AvgDuty   float64 `json:"avg_duty"`
	AvgPowerW float64 `json:"avg_power_w"`
}

// TrafficBucket is one hour of traffic aggregation.
type TrafficBucket struct {
	Hour          time.Time `json:"hour"`
	AvgTrafficPct float64   `json:"avg_traffic_pct"`
	MotionCount   int64     `json:"motion_count"`
	Samples       int64     `json:"samples"`
}

// ModeSplit counts readings by operating mode: OFF is duty zero, ECO is
// below half drive, ACTIVE is half drive and up.
type ModeSplit struct {
	Samples int64 `json:"samples"`
	Off     int64 `json:"off"`
	Eco     int64 `json:"eco"`
	Active  int64 `json:"active"`
}

// Archive stores the full reading history and serves the aggregations
// behind the analytics endpoints.
type Archive interface {
	// InsertReading appends one reading to the history.
	InsertReading(ctx context.Context, r telemetry.Reading) error

	// Devices lists every device with readings, with last-seen times.
	Devices(ctx context.Context) ([]DeviceSummary, error)

	// Energy aggregates duty and draw over the past hours window.
	// Empty device aggregates the whole fleet.
	Energy(ctx context.Context, device string, hours int) (EnergyStats, error)

	// Traffic returns hourly traffic buckets over the past hours window.
	Traffic(ctx context.Context, device string, hours int) ([]TrafficBucket, error)

	// Modes splits readings by operating mode over the past hours window.
	Modes(ctx context.Context, device string, hours int) (ModeSplit, error)

	Ping(ctx context.Context) error
	Close() error
}
