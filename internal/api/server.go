// Package api provides the read-only HTTP server for gpuinfo.
// It exposes live device reports, health statuses and Prometheus metrics.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/tutu-network/gpuinfo/internal/domain"
	"github.com/tutu-network/gpuinfo/internal/health"
	"github.com/tutu-network/gpuinfo/internal/infra/resource"
)

// Server is the gpuinfo HTTP API server.
type Server struct {
	lister           domain.DeviceLister
	discoveryTimeout time.Duration
	metricsEnabled   bool
	health           *health.Checker   // nil if not set
	monitor          *resource.Monitor // nil if not set
	log              zerolog.Logger
}

// NewServer creates a new API server over lister.
func NewServer(lister domain.DeviceLister, log zerolog.Logger) *Server {
	return &Server{
		lister:           lister,
		discoveryTimeout: 10 * time.Second,
		log:              log,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetDiscoveryTimeout bounds how long a request waits for discovery.
func (s *Server) SetDiscoveryTimeout(d time.Duration) {
	if d > 0 {
		s.discoveryTimeout = d
	}
}

// SetHealth exposes checker results at /api/health.
func (s *Server) SetHealth(c *health.Checker) { s.health = c }

// SetMonitor exposes thermal levels at /api/thermal.
func (s *Server) SetMonitor(m *resource.Monitor) { s.monitor = m }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Minute))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/devices", s.handleListDevices)
		r.Route("/devices/{index}", func(r chi.Router) {
			r.Get("/", s.handleGetDevice)
			r.Get("/memory", s.handleDeviceMemory)
			r.Get("/thermal", s.handleDeviceThermal)
		})
		r.Get("/health", s.handleHealth)
		r.Get("/thermal", s.handleThermalLevels)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// discoveryContext bounds a request's wait for discovery.
func (s *Server) discoveryContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.discoveryTimeout)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps domain errors to HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrDiscoveryUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, domain.ErrQueryFailed):
		writeError(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timed out waiting for device discovery")
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// corsMiddleware adds CORS headers for local dashboards.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
