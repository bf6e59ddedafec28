// Package api serves the local read-only web view of tracked jobs and
// bridges lifecycle events to browsers over SSE.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/lehrwerk/ai-authoring-sync/internal/jobstore"
	"github.com/lehrwerk/ai-authoring-sync/internal/lifecycle"
	"github.com/lehrwerk/ai-authoring-sync/internal/stream"
)

// StreamStatus reports the event-stream connection state.
type StreamStatus interface {
	Status() stream.Status
}

// Server is the local HTTP API server
type Server struct {
	store      *jobstore.Store
	controller *lifecycle.Controller
	streamer   StreamStatus
	addr       string
	mux        *http.ServeMux
	sseHub     *sseHub
	log        zerolog.Logger
}

// NewServer creates a new API server
func NewServer(store *jobstore.Store, controller *lifecycle.Controller, streamer StreamStatus, addr string, log zerolog.Logger) *Server {
	s := &Server{
		store:      store,
		controller: controller,
		streamer:   streamer,
		addr:       addr,
		mux:        http.NewServeMux(),
		sseHub:     newSSEHub(),
		log:        log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/status", s.statusHandler())
	s.mux.HandleFunc("/api/jobs", s.listJobsHandler())
	s.mux.HandleFunc("/api/jobs/", s.getJobHandler())
	s.mux.HandleFunc("/api/events", s.sseHandler())
}

// Start starts the HTTP server and the lifecycle-to-SSE bridge.
func (s *Server) Start() error {
	if s.controller != nil {
		go s.bridgeEvents()
	}
	s.log.Info().Str("addr", s.addr).Msg("web api listening")
	return http.ListenAndServe(s.addr, s.mux)
}

// bridgeEvents forwards lifecycle events to connected browsers.
func (s *Server) bridgeEvents() {
	events, cancel := s.controller.SubscribeAll()
	defer cancel()

	for ev := range events {
		s.sseHub.broadcast(toSSE(ev))
	}
}

func toSSE(ev lifecycle.Event) sseEvent {
	switch ev.Kind {
	case lifecycle.EventProgress:
		return sseEvent{Type: "job_progress", Payload: progressToResponse(ev)}
	case lifecycle.EventSuggestions:
		return sseEvent{Type: "suggestions", Payload: suggestionsToResponse(ev)}
	default:
		return sseEvent{Type: "job_update", Payload: jobToResponse(ev.Job, nil)}
	}
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
