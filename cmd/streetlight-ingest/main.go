// Command streetlight-ingest consumes the fleet's telemetry from MQTT,
// enriches each reading with traffic intensity and power-deviation
// checks, and writes the result to Redis and Postgres.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"

	"github.com/smartcity/streetlight/internal/config"
	"github.com/smartcity/streetlight/internal/ingest"
	"github.com/smartcity/streetlight/internal/mqtt"
	"github.com/smartcity/streetlight/internal/store"
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
		logger.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting streetlight-ingest",
		"broker", cfg.Broker,
		"redis", cfg.RedisAddr)

	live := store.NewRedisLive(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)

	archive, err := store.NewPostgresArchive(cfg.PostgresDSN, log)
	if err != nil {
		live.Close()
		return fmt.Errorf("open archive: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := archive.EnsureSchema(ctx); err != nil {
		live.Close()
		archive.Close()
		return err
	}

	listener := mqtt.NewListener(cfg.Broker, log)
	agent := ingest.NewAgent(listener, live, archive, cfg.RatedWatts, log)

	agentErr := make(chan error, 1)
	go func() {
		agentErr <- agent.Start(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case s := <-sigCh:
		log.Info("shutting down", "signal", s.String())
		cancel()
		<-agentErr
	case err := <-agentErr:
		runErr = err
	}

	if err := agent.Stop(); err != nil {
		if runErr == nil {
			runErr = err
		} else {
			log.Warn("shutdown incomplete", "error", err)
		}
	}

	log.Info("ingest stopped")
	return runErr
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
