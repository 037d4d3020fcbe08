package store

import (
	"context"

	"github.com/smartcity/streetlight/internal/telemetry"
)

// FakeLive is an in-memory Live for tests. It mirrors the Redis
// semantics: one latest state per device, a recent list capped at
// RecentCap, newest first.
type FakeLive struct {
	last   map[string]telemetry.Reading
	recent map[string][]telemetry.Reading

	SetLastError    error
	PushRecentError error
	LastError       error
	RecentError     error
	PingError       error
	Closed          bool
}

// NewFakeLive creates an empty fake live store.
func NewFakeLive() *FakeLive {
	return &FakeLive{
		last:   make(map[string]telemetry.Reading),
		recent: make(map[string][]telemetry.Reading),
	}
}

func (f *FakeLive) SetLast(ctx context.Context, r telemetry.Reading) error {
	if f.SetLastError != nil {
		return f.SetLastError
	}
	f.last[r.DeviceID] = r
	return nil
}

func (f *FakeLive) Last(ctx context.Context, device string) (telemetry.Reading, bool, error) {
	if f.LastError != nil {
		return telemetry.Reading{}, false, f.LastError
	}
	r, ok := f.last[device]
	return r, ok, nil
}

func (f *FakeLive) PushRecent(ctx context.Context, r telemetry.Reading) error {
	if f.PushRecentError != nil {
		return f.PushRecentError
	}
	list := append([]telemetry.Reading{r}, f.recent[r.DeviceID]...)
	if len(list) > RecentCap {
		list = list[:RecentCap]
	}
	f.recent[r.DeviceID] = list
	return nil
}

func (f *FakeLive) Recent(ctx context.Context, device string, n int) ([]telemetry.Reading, error) {
	if f.RecentError != nil {
		return nil, f.RecentError
	}
	list := f.recent[device]
	if n <= 0 || n > len(list) {
		n = len(list)
	}
	out := make([]telemetry.Reading, n)
	copy(out, list[:n])
	return out, nil
}

func (f *FakeLive) Ping(ctx context.Context) error {
	return f.PingError
}

func (f *FakeLive) Close() error {
	f.Closed = true
	return nil
}

// Reset clears all stored state and errors.
func (f *FakeLive) Reset() {
	f.last = make(map[string]telemetry.Reading)
	f.recent = make(map[string][]telemetry.Reading)
	f.SetLastError = nil
	f.PushRecentError = nil
	f.LastError = nil
	f.RecentError = nil
	f.PingError = nil
	f.Closed = false
}

// FakeArchive is an in-memory Archive for tests. Inserts are recorded;
// the aggregation methods return canned results and record the filter
// they were called with.
type FakeArchive struct {
	Inserted []telemetry.Reading

	DevicesResult []DeviceSummary
	EnergyResult  EnergyStats
	TrafficResult []TrafficBucket
	ModesResult   ModeSplit

	LastDevice string
	LastHours  int

	InsertError error
	QueryError  error
	PingError   error
	Closed      bool
}

func (f *FakeArchive) InsertReading(ctx context.Context, r telemetry.Reading) error {
	if f.InsertError != nil {
		return f.InsertError
	}
	f.Inserted = append(f.Inserted, r)
	return nil
}

func (f *FakeArchive) Devices(ctx context.Context) ([]DeviceSummary, error) {
	if f.QueryError != nil {
		return nil, f.QueryError
	}
	return f.DevicesResult, nil
}

func (f *FakeArchive) Energy(ctx context.Context, device string, hours int) (EnergyStats, error) {
	f.LastDevice, f.LastHours = device, hours
	if f.QueryError != nil {
		return EnergyStats{}, f.QueryError
	}
	return f.EnergyResult, nil
}

func (f *FakeArchive) Traffic(ctx context.Context, device string, hours int) ([]TrafficBucket, error) {
	f.LastDevice, f.LastHours = device, hours
	if f.QueryError != nil {
		return nil, f.QueryError
	}
	return f.TrafficResult, nil
}

func (f *FakeArchive) Modes(ctx context.Context, device string, hours int) (ModeSplit, error) {
	f.LastDevice, f.LastHours = device, hours
	if f.QueryError != nil {
		return ModeSplit{}, f.QueryError
	}
	return f.ModesResult, nil
}

func (f *FakeArchive) Ping(ctx context.Context) error {
	return f.PingError
}

func (f *FakeArchive) Close() error {
	f.Closed = true
	return nil
}

// Reset clears all recorded state, canned results, and errors.
func (f *FakeArchive) Reset() {
	f.Inserted = nil
	f.DevicesResult = nil
	f.EnergyResult = EnergyStats{}
	f.TrafficResult = nil
	f.ModesResult = ModeSplit{}
	f.LastDevice = ""
	f.LastHours = 0
	f.InsertError = nil
	f.QueryError = nil
	f.PingError = nil
	f.Closed = false
}
