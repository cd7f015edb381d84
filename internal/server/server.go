// Package server exposes the engine's control surface over HTTP:
// sample ingestion, recording control, and timeline snapshots.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/hferris/waypoints/internal/engine"
	"github.com/hferris/waypoints/internal/store"
)

// Server is the waypoints HTTP API server.
type Server struct {
	eng     *engine.Engine
	db      *store.DB
	router  chi.Router
	version string
	started time.Time
}

// New creates a Server around an engine. db may be nil when running
// without a durable archive.
func New(eng *engine.Engine, db *store.DB, version string) *Server {
	s := &Server{
		eng:     eng,
		db:      db,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Post("/samples", s.handleSubmitSample)

		r.Get("/recording", s.handleRecordingStatus)
		r.Post("/recording/start", s.handleStartRecording)
		r.Post("/recording/stop", s.handleStopRecording)

		r.Get("/segments/current", s.handleCurrentSegment)
		r.Get("/segments/active", s.handleActiveSegments)
		r.Get("/segments/finalized", s.handleFinalizedSegments)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	archived := 0
	if s.db != nil {
		if err := s.db.Ping(); err != nil {
			dbOK = false
		} else if n, err := s.db.CountSegments(); err == nil {
			archived = n
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"version":   s.version,
		"uptime":    time.Since(s.started).Seconds(),
		"recording": s.eng.Recording(),
		"db":        dbOK,
		"archived":  archived,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
