// Package api serves the fleet HTTP API: live device state out of
// Redis, history and analytics out of Postgres.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/smartcity/streetlight/internal/store"
)

// staleAfter marks a device offline once its last reading is older.
const staleAfter = 5 * time.Minute

// Server serves the fleet API over the telemetry stores.
type Server struct {
	live    store.Live
	archive store.Archive
	log     *slog.Logger
	now     func() time.Time

	httpServer *http.Server
}

// New creates a Server on the given stores.
func New(addr string, live store.Live, archive store.Archive, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		live:    live,
		archive: archive,
		log:     log,
		now:     time.Now,
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.router(),
	}
	return s
}

func (s *Server) router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/devices", s.handleDevices)
		r.Get("/latest", s.handleLatest)
		r.Get("/recent", s.handleRecent)
		r.Get("/status", s.handleStatus)
		r.Route("/analytics", func(r chi.Router) {
			r.Get("/energy", s.handleEnergy)
			r.Get("/traffic", s.handleTraffic)
			r.Get("/modes", s.handleModes)
		})
		r.Post("/inject", s.handleInject)
	})
	return r
}

// Handler returns the route tree. Useful for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
