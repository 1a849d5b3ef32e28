package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/model"
	"github.com/ogulcanaydogan/deadline-cloud-notifier/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CycleSource reports the most recent poll cycle.
type CycleSource interface {
	LastCycle() (model.CycleReport, bool)
}

// Server provides health, status and metrics endpoints for the poller.
type Server struct {
	cycles   CycleSource
	store    storage.Storage
	gatherer prometheus.Gatherer
	mux      *http.ServeMux
	logger   *slog.Logger
}

// NewServer creates a status server.
func NewServer(cycles CycleSource, store storage.Storage, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	s := &Server{
		cycles:   cycles,
		store:    store,
		gatherer: gatherer,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/alerts", s.handleAlerts)
	s.mux.HandleFunc("GET /api/v1/cycles/last", s.handleLastCycle)
	s.mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	records, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("list alert records", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleLastCycle(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.cycles.LastCycle()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no cycle has run yet"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
