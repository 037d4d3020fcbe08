// Command streetlight-node runs the control loop for one street light:
// sample, smooth, classify, decide, actuate, report.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/smartcity/streetlight/internal/config"
	"github.com/smartcity/streetlight/internal/hardware"
	"github.com/smartcity/streetlight/internal/logic"
	"github.com/smartcity/streetlight/internal/mqtt"
	"github.com/smartcity/streetlight/internal/session"
	smoothing "github.com/smartcity/streetlight/internal/signal"
	"github.com/smartcity/streetlight/internal/status"
	"github.com/smartcity/streetlight/internal/telemetry"
	"github.com/smartcity/streetlight/internal/web"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("node failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting streetlight-node",
		"device", cfg.DeviceID,
		"broker", cfg.Broker,
		"policy", cfg.Policy,
		"simulate", cfg.Simulate)

	devices, err := openHardware(cfg, log)
	if err != nil {
		return err
	}
	defer devices.Close()

	client := mqtt.NewClient(cfg.Broker, cfg.DeviceID, log)
	defer client.Close()

	tracker := status.NewTracker(time.Now(), status.Config{
		DeviceID:   cfg.DeviceID,
		PollMs:     int64(cfg.PollMs),
		HeartbeatS: int64(cfg.HeartbeatS),
		RetryS:     int64(cfg.RetryS),
		DurationS:  int64(cfg.DurationS),
		NightEnter: cfg.NightEnter,
		DayExit:    cfg.DayExit,
		Policy:     cfg.Policy,
		Broker:     cfg.Broker,
		HTTPAddr:   cfg.HTTPAddr,
		Simulate:   cfg.Simulate,
	})

	override := &logic.Override{}
	mailbox := &logic.Mailbox{}

	if err := client.SubscribeCommands(func(cmd mqtt.Command) {
		handleCommand(cmd, override, cfg.OverrideTTLS, time.Now, log)
	}); err != nil {
		log.Warn("command subscribe failed", "error", err)
	}

	// The PIR callback runs in event context: set the flag, nothing else.
	if err := devices.Motion.Watch(mailbox.Set); err != nil {
		return fmt.Errorf("watch motion: %w", err)
	}

	if cfg.HTTPAddr != "" {
		srv := web.New(cfg.HTTPAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("status server", "error", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Info("status server listening", "addr", cfg.HTTPAddr)
	}

	ticker := time.NewTicker(time.Duration(cfg.PollMs) * time.Millisecond)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l := &loop{
		device:     cfg.DeviceID,
		instant:    cfg.Policy == config.PolicyInstant,
		simulated:  cfg.Simulate,
		light:      devices.Light,
		lamp:       devices.Lamp,
		indicator:  devices.Indicator,
		publisher:  client,
		scheduler:  session.NewScheduler(client, time.Duration(cfg.RetryS)*time.Second, log),
		reporter:   telemetry.NewReporter(time.Duration(cfg.HeartbeatS) * time.Second),
		window:     smoothing.NewWindow(cfg.WindowSize),
		classifier: logic.NewClassifier(cfg.NightEnter, cfg.DayExit),
		timer:      logic.NewMotionTimer(time.Duration(cfg.DurationS) * time.Second),
		mailbox:    mailbox,
		override:   override,
		tracker:    tracker,
		log:        log,
	}
	tracker.SetPhase(status.PhaseReady)

	return runLoop(l, time.Now, ticker.C, sigCh)
}

// loop bundles the control loop's collaborators. Everything except the
// mailbox and override is owned by the loop goroutine alone.
type loop struct {
	device    string
	instant   bool
	simulated bool

	light     hardware.LightSensor
	lamp      hardware.Lamp
	indicator hardware.Indicator
	publisher mqtt.Publisher

	scheduler  *session.Scheduler
	reporter   *telemetry.Reporter
	window     *smoothing.Window
	classifier *logic.Classifier
	timer      *logic.MotionTimer
	mailbox    *logic.Mailbox
	override   *logic.Override
	tracker    *status.Tracker
	log        *slog.Logger
}

// runLoop drives the node until a signal arrives. The iteration order
// is fixed: sample, smooth, classify, decide, actuate, maybe-report,
// service network. Reports consult the session state left by the
// previous iteration, so a slow broker can never stretch a tick.
func runLoop(l *loop, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	announced := false

	// Classification state survives a failed sample, so only the
	// smoothing step depends on the light sensor being healthy.
	var (
		raw      int
		smoothed int
		night    bool
	)

	for {
		select {
		case s := <-sig:
			l.shutdown(s, now())
			return nil

		case <-tick:
			t := now()

			if r, err := l.light.Read(); err != nil {
				// Hold the last classification. The latch, lamp,
				// reporter, and session all still run this tick; a
				// broken ADC must not take the node off the fleet.
				l.log.Error("light sensor read", "error", err)
				l.tracker.SetPhase(status.PhaseError)
			} else {
				l.tracker.SetPhase(status.PhaseReady)
				raw = r
				smoothed = l.window.Insert(raw)
				if l.instant {
					// The digital dark line drives the state directly.
					night = raw != 0
				} else {
					night = l.classifier.Classify(smoothed)
				}
			}

			if l.mailbox.TakeAndClear() {
				l.timer.Trigger(t)
				if night {
					if err := l.indicator.Chirp(); err != nil {
						l.log.Warn("chirp failed", "error", err)
					}
				}
			}
			motion := l.timer.Active(night, t)
			countdown := 0
			if motion {
				countdown = int(l.timer.Countdown(t).Seconds())
			}

			duty := logic.Decide(night, motion)
			duty = l.override.Apply(duty, t)

			if err := l.lamp.SetDuty(duty); err != nil {
				l.log.Error("set lamp duty", "error", err)
			}
			watts, powerErr := l.lamp.PowerW()
			if powerErr != nil {
				l.log.Error("read lamp power", "error", powerErr)
			}
			anomaly := logic.AnomalyNone
			if powerErr == nil {
				anomaly = logic.ClassifyPower(duty, watts)
				if anomaly != logic.AnomalyNone {
					l.log.Warn("power anomaly", "anomaly", anomaly, "duty", duty, "watts", watts)
				}
			}

			connected := l.scheduler.Connected()
			if reason := l.reporter.Due(night, motion, connected, t); reason != "" {
				reading := telemetry.Reading{
					DeviceID:   l.device,
					Timestamp:  t,
					Raw:        raw,
					Smoothed:   smoothed,
					Night:      night,
					Motion:     motion,
					CountdownS: countdown,
					Duty:       duty,
					PowerW:     watts,
					Anomaly:    anomaly,
					TrafficPct: -1,
					Simulated:  l.simulated,
					Reason:     reason,
				}
				err := l.publisher.Publish(reading)
				if err != nil {
					l.log.Warn("publish failed", "reason", reason, "error", err)
				} else {
					l.log.Debug("reported", "reason", reason, "night", night, "motion", motion, "duty", duty)
				}
				l.reporter.Attempted(night, motion, t, err == nil)
			}

			connected = l.scheduler.Service(t)

			l.tracker.Update(status.TickState{
				Night:      night,
				Motion:     motion,
				CountdownS: countdown,
				Duty:       duty,
				PowerW:     watts,
				Raw:        raw,
				Smoothed:   smoothed,
				Anomaly:    anomaly,
				Override:   l.override.Active(t),
			})
			l.tracker.SetMQTTConnected(connected)
			l.setIndicator()

			if connected && !announced {
				announced = l.announceStartup(t)
			}
		}
	}
}

func (l *loop) setIndicator() {
	if err := l.indicator.SetColor(status.ColorFor(l.tracker.Snapshot())); err != nil {
		l.log.Warn("indicator update failed", "error", err)
	}
}

// announceStartup publishes the retained STARTUP event with a full
// status snapshot. Returns false so the caller retries next tick if the
// publish did not land.
func (l *loop) announceStartup(t time.Time) bool {
	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.log.Warn("startup event failed", "error", err)
		return false
	}
	l.log.Info("announced startup")
	return true
}

// shutdown publishes the retained SHUTDOWN event with the signal name.
func (l *loop) shutdown(s os.Signal, t time.Time) {
	name := "UNKNOWN"
	switch s {
	case syscall.SIGINT:
		name = "SIGINT"
	case syscall.SIGTERM:
		name = "SIGTERM"
	}
	l.log.Info("shutting down", "signal", name)

	snap := l.tracker.Snapshot()
	event := mqtt.SystemEvent{
		Timestamp:  t,
		Event:      "SHUTDOWN",
		Reason:     name,
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "SHUTDOWN", name),
	}
	if err := l.publisher.PublishSystem(event); err != nil {
		l.log.Warn("shutdown event failed", "error", err)
	}
}

// handleCommand applies an operator command. It runs on the transport
// goroutine and only touches the guarded override.
func handleCommand(cmd mqtt.Command, override *logic.Override, defaultTTLS int, now func() time.Time, log *slog.Logger) {
	switch {
	case cmd.Clear:
		override.Clear()
		log.Info("override cleared")
	case cmd.Override != nil:
		duty := *cmd.Override
		if duty < 0 {
			duty = 0
		}
		if duty > 100 {
			duty = 100
		}
		ttl := cmd.TTLSeconds
		if ttl <= 0 {
			ttl = defaultTTLS
		}
		override.Set(duty, now().Add(time.Duration(ttl)*time.Second))
		log.Info("override set", "duty", duty, "ttl_s", ttl)
	default:
		log.Warn("command carries no action")
	}
}

// devices bundles the four hardware collaborators behind one Close.
type devices struct {
	Light     hardware.LightSensor
	Motion    hardware.MotionSensor
	Lamp      hardware.Lamp
	Indicator hardware.Indicator

	closers []io.Closer
}

// Close releases the devices in reverse open order.
func (d *devices) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func openHardware(cfg *config.Config, log *slog.Logger) (*devices, error) {
	if cfg.Simulate {
		sim := hardware.NewSimulator(cfg.Latitude, cfg.Longitude, cfg.RatedWatts, time.Now().UnixNano())
		log.Info("hardware simulated", "lat", cfg.Latitude, "lon", cfg.Longitude)
		return &devices{
			Light:     sim,
			Motion:    sim,
			Lamp:      sim,
			Indicator: sim,
			closers:   []io.Closer{sim},
		}, nil
	}

	d := &devices{}

	motion, err := hardware.NewRealMotion(cfg.GPIOChip, cfg.MotionPin)
	if err != nil {
		return nil, fmt.Errorf("init motion sensor: %w", err)
	}
	d.Motion = motion
	d.closers = append(d.closers, motion)

	var light hardware.LightSensor
	if cfg.Policy == config.PolicyInstant {
		light, err = hardware.NewRealLightLine(cfg.GPIOChip, cfg.LightPin)
	} else {
		light, err = hardware.NewRealADC(cfg.ADCPath)
	}
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init light sensor: %w", err)
	}
	d.Light = light
	d.closers = append(d.closers, light)

	lamp, err := hardware.NewRealLamp(cfg.PWMChip, cfg.PWMChannel, cfg.RatedWatts)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init lamp: %w", err)
	}
	d.Lamp = lamp
	d.closers = append(d.closers, lamp)

	indicator, err := hardware.NewRealIndicator(cfg.GPIOChip, hardware.PinRed, hardware.PinGreen, hardware.PinBlue, hardware.PinBuzzer)
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("init indicator: %w", err)
	}
	d.Indicator = indicator
	d.closers = append(d.closers, indicator)

	return d, nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
