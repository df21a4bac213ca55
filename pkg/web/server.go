// Package web serves the topology viewer: embedded static assets, a
// JSON API for viewer interactions, and SSE streams pushing render
// frames and status events.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/depscope/depscope/pkg/logging"
	"github.com/depscope/depscope/pkg/pubsub"
	"github.com/depscope/depscope/pkg/session"
	"github.com/depscope/depscope/pkg/view"
)

//go:embed static/*
var staticFiles embed.FS

// Event is one viewer interaction posted to /api/event.
type Event struct {
	Type        string  `json:"type"`
	Mode        string  `json:"mode,omitempty"`
	Granularity string  `json:"granularity,omitempty"`
	Term        string  `json:"term"`
	NodeID      string  `json:"nodeId,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
}

// Server exposes one session over HTTP.
type Server struct {
	router    *mux.Router
	session   *session.Session
	publisher pubsub.Publisher
	http      *http.Server
}

// NewServer wires the routes for a session and its publisher.
func NewServer(s *session.Session, publisher pubsub.Publisher) *Server {
	srv := &Server{
		router:    mux.NewRouter(),
		session:   s,
		publisher: publisher,
	}
	srv.setupRoutes()
	return srv
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	s.router.HandleFunc("/api/frame", s.handleFrame).Methods("GET")
	s.router.HandleFunc("/api/graph", s.handleGraph).Methods("GET")
	s.router.HandleFunc("/api/selection", s.handleSelection).Methods("GET")
	s.router.HandleFunc("/api/event", s.handleEvent).Methods("POST")

	s.router.HandleFunc("/events/frames", s.handleSubscribe(pubsub.TopicFrames)).Methods("GET")
	s.router.HandleFunc("/events/status", s.handleSubscribe(pubsub.TopicStatus)).Methods("GET")

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The embed directive guarantees the subtree exists.
		panic(err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// Handler returns the configured router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logging.Info("viewer serving", "addr", fmt.Sprintf("http://%s/", addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Frame())
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.DisplayedGraph())
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Selection())
}

// handleEvent applies one viewer interaction to the session. Unknown
// event types and malformed payloads are client errors.
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var event Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid event body: %v", err))
		return
	}

	switch event.Type {
	case "set-view":
		mode, err := view.ParseMode(event.Mode)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.session.SetMode(mode)
	case "set-granularity":
		granularity, err := view.ParseGranularity(event.Granularity)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.session.SetGranularity(granularity)
	case "toggle-isolated":
		s.session.ToggleIsolated()
	case "toggle-expanded":
		s.session.ToggleExpanded()
	case "search":
		s.session.Search(event.Term)
	case "select":
		if event.NodeID == "" {
			writeError(w, http.StatusBadRequest, "select event requires nodeId")
			return
		}
		s.session.Select(event.NodeID)
	case "resize":
		if event.Width <= 0 || event.Height <= 0 {
			writeError(w, http.StatusBadRequest, "resize event requires positive width and height")
			return
		}
		s.session.Resize(event.Width, event.Height)
	case "escape":
		s.session.Escape()
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown event type %q", event.Type))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSubscribe streams a pubsub topic as Server-Sent Events until
// the client disconnects.
func (s *Server) handleSubscribe(topic string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")

		// Initial comment establishes the stream (Safari compatibility).
		fmt.Fprintf(w, ": connected\n\n")
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}

		sub, err := s.publisher.Subscribe(r.Context(), topic)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		defer sub.Close()

		for event := range sub.Events() {
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.DebugContext(r.Context(), "SSE client gone", "topic", topic, "error", err)
				return
			}
			if flusher, ok := w.(http.Flusher); ok {
				flusher.Flush()
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logging.Warn("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
