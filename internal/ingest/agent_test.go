package ingest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/smartcity/streetlight/internal/logic"
	"github.com/smartcity/streetlight/internal/mqtt"
	"github.com/smartcity/streetlight/internal/store"
	"github.com/smartcity/streetlight/internal/telemetry"
)

var _ Broker = (*mqtt.FakePublisher)(nil)
var _ Broker = (*mqtt.Client)(nil)

func newTestAgent() (*Agent, *mqtt.FakePublisher, *store.FakeLive, *store.FakeArchive) {
	broker := mqtt.NewFakePublisher()
	live := store.NewFakeLive()
	archive := &store.FakeArchive{}
	agent := NewAgent(broker, live, archive, 5.0, nil)
	return agent, broker, live, archive
}

func wirePayload(t *testing.T, r telemetry.Reading) []byte {
	t.Helper()
	payload, err := mqtt.FormatPayload(r)
	require.NoError(t, err)
	return payload
}

func TestHandleDataStoresEnrichedReading(t *testing.T) {
	agent, _, live, archive := newTestAgent()

	r := telemetry.Reading{
		DeviceID:  "stale-id",
		Timestamp: time.Date(2026, 3, 1, 19, 42, 10, 0, time.UTC),
		Raw:       910,
		Smoothed:  875,
		Night:     true,
		Motion:    true,
		Duty:      100,
		PowerW:    4.98,
		Reason:    telemetry.ReasonChange,
	}
	agent.handleData("lamp-07", wirePayload(t, r))

	// The topic device id wins over the payload's.
	got, found, err := live.Last(context.Background(), "lamp-07")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "lamp-07", got.DeviceID)

	// One motion slot of sixty.
	require.Equal(t, 1, got.TrafficPct)
	require.Equal(t, logic.AnomalyNone, got.Anomaly)

	recent, err := live.Recent(context.Background(), "lamp-07", 0)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.Equal(t, got, recent[0])

	require.Len(t, archive.Inserted, 1)
	require.Equal(t, got, archive.Inserted[0])
}

func TestHandleDataBadPayload(t *testing.T) {
	agent, _, live, archive := newTestAgent()

	agent.handleData("lamp-07", []byte("not json"))

	_, found, err := live.Last(context.Background(), "lamp-07")
	require.NoError(t, err)
	require.False(t, found)
	require.Empty(t, archive.Inserted)
}

func TestHandleDataStorageErrorsDoNotStopPipeline(t *testing.T) {
	agent, _, live, archive := newTestAgent()
	live.SetLastError = fmt.Errorf("redis down")
	live.PushRecentError = fmt.Errorf("redis down")

	r := telemetry.Reading{DeviceID: "lamp-07", Timestamp: time.Now(), Night: true, Duty: 30, PowerW: 1.5}
	agent.handleData("lamp-07", wirePayload(t, r))

	// The archive insert still happens after the live store failed.
	require.Len(t, archive.Inserted, 1)
}

func TestHandleDataFlagsPowerDeviation(t *testing.T) {
	agent, _, live, _ := newTestAgent()

	r := telemetry.Reading{DeviceID: "lamp-07", Timestamp: time.Now(), Night: true, Duty: 100, PowerW: 2.0}
	agent.handleData("lamp-07", wirePayload(t, r))

	got, _, err := live.Last(context.Background(), "lamp-07")
	require.NoError(t, err)
	require.Equal(t, logic.AnomalyPowerDeviation, got.Anomaly)
}

func TestHandleDataPipelinePerDevice(t *testing.T) {
	agent, _, live, _ := newTestAgent()
	ctx := context.Background()

	motion := telemetry.Reading{Timestamp: time.Now(), Night: true, Motion: true, Duty: 100, PowerW: 5.0}
	idle := telemetry.Reading{Timestamp: time.Now(), Night: true, Motion: false, Duty: 30, PowerW: 1.5}

	agent.handleData("lamp-01", wirePayload(t, motion))
	agent.handleData("lamp-02", wirePayload(t, idle))

	a, _, err := live.Last(ctx, "lamp-01")
	require.NoError(t, err)
	require.Equal(t, 1, a.TrafficPct)

	b, _, err := live.Last(ctx, "lamp-02")
	require.NoError(t, err)
	require.Equal(t, 0, b.TrafficPct)
}

func TestStartConnectsAndStopsOnCancel(t *testing.T) {
	agent, broker, _, _ := newTestAgent()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- agent.Start(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after cancel")
	}

	require.True(t, broker.Connected)
}

func TestStartFailsWhenStoreUnreachable(t *testing.T) {
	agent, _, live, _ := newTestAgent()
	live.PingError = fmt.Errorf("redis down")

	err := agent.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "live store")
}

func TestStartFailsWhenBrokerUnreachable(t *testing.T) {
	agent, broker, _, _ := newTestAgent()
	broker.ConnectError = fmt.Errorf("no broker")

	err := agent.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "connect mqtt")
}

func TestStopClosesEverything(t *testing.T) {
	agent, broker, live, archive := newTestAgent()

	require.NoError(t, agent.Stop())
	require.True(t, broker.Closed)
	require.True(t, live.Closed)
	require.True(t, archive.Closed)
}
