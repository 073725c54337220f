// Package server exposes health and Prometheus endpoints over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Health is the body of /healthz.
type Health struct {
	Status      string    `json:"status"`
	Connected   bool      `json:"connected"`
	LastPoll    time.Time `json:"lastPoll,omitzero"`
	LastOutcome string    `json:"lastOutcome,omitempty"`
	Uptime      string    `json:"uptime"`
}

type HealthFunc func() Health

type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

func New(addr string, health HealthFunc, log *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(health),
			ReadHeaderTimeout: readHeaderTimeout,
		},
		log: log,
	}
}

func NewRouter(health HealthFunc) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", handleHealthz(health))
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start serves in the background until Shutdown.
func (s *Server) Start(ctx context.Context) {
	go func() {
		s.log.InfoContext(ctx, "HTTP server is listening",
			"addr", s.httpServer.Addr)

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.ErrorContext(ctx, "HTTP server stopped",
				"error", err,
				"addr", s.httpServer.Addr)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	return nil
}

func handleHealthz(health HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		h := health()

		status := http.StatusOK
		if !h.Connected {
			status = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(h)
	}
}
