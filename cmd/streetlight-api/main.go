// Command streetlight-api serves the fleet HTTP API over the stores the
// ingest service fills: live state from Redis, history and analytics
// from Postgres.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/smartcity/streetlight/internal/api"
	"github.com/smartcity/streetlight/internal/config"
	"github.com/smartcity/streetlight/internal/store"
)

const shutdownTimeout = 5 * time.Second

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
		logger.Error("api failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting streetlight-api",
		"addr", cfg.APIAddr,
		"redis", cfg.RedisAddr)

	live := store.NewRedisLive(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, log)
	defer live.Close()

	archive, err := store.NewPostgresArchive(cfg.PostgresDSN, log)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer archive.Close()

	// The schema statements are idempotent, so the API can come up
	// before the ingest service has ever run.
	if err := archive.EnsureSchema(context.Background()); err != nil {
		return err
	}

	server := api.New(cfg.APIAddr, live, archive, log)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.ListenAndServe()
	}()
	log.Info("api listening", "addr", cfg.APIAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sigCh:
		log.Info("shutting down", "signal", s.String())
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("api stopped")
	return nil
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
