// Package http serves the dashboard: the map page, the layer/series/stats
// API, the chart PNG, and the operational endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/ricelens/paddy-ndvi-dashboard/internal/dashboard"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/domain"
	"github.com/ricelens/paddy-ndvi-dashboard/internal/observability"
)

// Server exposes the dashboard over HTTP.
type Server struct {
	httpServer *http.Server
	service    *dashboard.Service
	area       domain.StudyArea
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates the dashboard HTTP server. corsOrigins lists the allowed
// cross-origin callers of the JSON API; "*" opens it up.
func NewServer(addr string, service *dashboard.Service, area domain.StudyArea, corsOrigins []string, metrics *observability.Metrics, logger *slog.Logger) *Server {
	s := &Server{
		service: service,
		area:    area,
		metrics: metrics,
		logger:  logger,
	}

	r := mux.NewRouter()
	r.Use(s.requestID, s.instrument)

	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/api/layers", s.handleLayers).Methods(http.MethodGet)
	r.HandleFunc("/api/timeseries", s.handleTimeSeries).Methods(http.MethodGet)
	r.HandleFunc("/api/timeseries.csv", s.handleTimeSeriesCSV).Methods(http.MethodGet)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/chart.png", s.handleChart).Methods(http.MethodGet)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	})

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      corsHandler.Handler(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.service.CheckReadiness(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "not ready",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
