package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/smartcity/streetlight/internal/logic"
	"github.com/smartcity/streetlight/internal/mqtt"
	"github.com/smartcity/streetlight/internal/store"
)

// Broker is the slice of the MQTT client the ingest service uses.
type Broker interface {
	Connect() error
	mqtt.Subscriber
	Close() error
}

// Agent subscribes to every device's data topic and runs each reading
// through its device's pipeline into the stores. Devices appear as they
// first publish; nothing is provisioned up front.
type Agent struct {
	broker  Broker
	live    store.Live
	archive store.Archive
	rated   float64
	log     *slog.Logger

	// Guards pipeline creation. paho dispatches messages one at a
	// time, so pipeline state itself is touched from one goroutine.
	mu        sync.Mutex
	pipelines map[string]*Pipeline
}

// NewAgent creates an ingest agent over the given broker and stores.
func NewAgent(broker Broker, live store.Live, archive store.Archive, ratedWatts float64, log *slog.Logger) *Agent {
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		broker:    broker,
		live:      live,
		archive:   archive,
		rated:     ratedWatts,
		log:       log,
		pipelines: make(map[string]*Pipeline),
	}
}

// Start verifies the stores, connects to the broker, subscribes to the
// fleet data topics, and blocks until the context is cancelled.
func (a *Agent) Start(ctx context.Context) error {
	if err := a.live.Ping(ctx); err != nil {
		return fmt.Errorf("ping live store: %w", err)
	}
	if err := a.archive.Ping(ctx); err != nil {
		return fmt.Errorf("ping archive: %w", err)
	}

	if err := a.broker.Connect(); err != nil {
		return fmt.Errorf("connect mqtt: %w", err)
	}
	if err := a.broker.SubscribeData(a.handleData); err != nil {
		return fmt.Errorf("subscribe data: %w", err)
	}

	a.log.Info("ingest started", "topic", mqtt.DataWildcard)

	<-ctx.Done()
	a.log.Info("ingest stopping")
	return nil
}

// Stop closes the broker connection and both stores.
func (a *Agent) Stop() error {
	var errs []error

	if err := a.broker.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close broker: %w", err))
	}
	if err := a.live.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close live store: %w", err))
	}
	if err := a.archive.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close archive: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("stop errors: %v", errs)
	}
	return nil
}

// handleData processes one raw telemetry payload. Storage errors are
// logged and do not stop the pipeline; the next reading replaces the
// lost state soon enough.
func (a *Agent) handleData(device string, payload []byte) {
	reading, err := mqtt.ParsePayload(payload)
	if err != nil {
		a.log.Warn("bad telemetry payload", "device", device, "error", err)
		return
	}
	// The topic segment is authoritative for identity; a stale or
	// misflashed payload id must not cross devices.
	reading.DeviceID = device

	enriched := a.pipeline(device).Enrich(reading)

	if enriched.Anomaly != logic.AnomalyNone {
		a.log.Warn("anomaly reported",
			"device", device,
			"anomaly", string(enriched.Anomaly),
			"duty", enriched.Duty,
			"power_w", enriched.PowerW)
	}

	ctx := context.Background()
	if err := a.live.SetLast(ctx, enriched); err != nil {
		a.log.Error("store last state", "device", device, "error", err)
	}
	if err := a.live.PushRecent(ctx, enriched); err != nil {
		a.log.Error("store recent reading", "device", device, "error", err)
	}
	if err := a.archive.InsertReading(ctx, enriched); err != nil {
		a.log.Error("archive reading", "device", device, "error", err)
	}

	a.log.Debug("reading stored",
		"device", device,
		"night", enriched.Night,
		"duty", enriched.Duty,
		"traffic_pct", enriched.TrafficPct)
}

func (a *Agent) pipeline(device string) *Pipeline {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.pipelines[device]
	if !ok {
		p = NewPipeline(a.rated)
		a.pipelines[device] = p
		a.log.Info("tracking new device", "device", device)
	}
	return p
}
