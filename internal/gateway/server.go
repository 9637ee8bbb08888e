// Package gateway exposes the local HTTP/WebSocket surface: project,
// session, and run listings, the event history, and a live event stream
// for dashboards. It also maintains the heartbeat file while running.
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pai-sh/pai/internal/events"
	"github.com/pai-sh/pai/internal/gateway/ws"
	"github.com/pai-sh/pai/internal/heartbeat"
	"github.com/pai-sh/pai/internal/registry"
	"github.com/pai-sh/pai/internal/sessions"
	"github.com/pai-sh/pai/internal/worker"
)

// Server is the pai gateway HTTP server.
type Server struct {
	httpServer *http.Server
	hub        *ws.Hub
	bus        *events.Bus
	projects   *registry.Store
	sessions   sessions.Store
	runs       *worker.RunStore
	hb         *heartbeat.Writer
	started    time.Time
}

// Options configures a gateway server. Projects, Sessions, and Runs may
// be nil; the matching endpoints then return 503.
type Options struct {
	Bus           *events.Bus
	Projects      *registry.Store
	Sessions      sessions.Store
	Runs          *worker.RunStore
	Host          string
	Port          int
	HeartbeatPath string
	SkillInvoker  ws.SkillInvoker
}

// NewServer builds the router and hub; nothing listens until Start.
func NewServer(opts Options) *Server {
	s := &Server{
		hub:      ws.NewHub(opts.Bus, opts.SkillInvoker),
		bus:      opts.Bus,
		projects: opts.Projects,
		sessions: opts.Sessions,
		runs:     opts.Runs,
	}

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	if opts.HeartbeatPath != "" {
		s.hb = heartbeat.NewWriter(opts.HeartbeatPath, addr)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Get("/api/health", s.handleHealth)
	r.Get("/api/ws", s.hub.ServeWS)
	r.Get("/api/events", s.handleEvents)
	r.Get("/api/projects", s.handleProjects)
	r.Get("/api/sessions", s.handleSessions)
	r.Get("/api/runs", s.handleRuns)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: r,
	}

	return s
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening and blocks until the server is stopped.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}

	s.started = time.Now()
	if s.hb != nil {
		s.hb.Start()
	}

	slog.Info("pai gateway listening", "addr", ln.Addr().String())
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully stops the server and removes the heartbeat file.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.hb != nil {
		s.hb.Stop()
	}
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
		"uptime":  time.Since(s.started).Truncate(time.Second).String(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	history := s.bus.History(limit)

	type eventJSON struct {
		ID        string             `json:"id"`
		Project   string             `json:"project,omitempty"`
		Type      string             `json:"type"`
		Timestamp string             `json:"timestamp"`
		Source    events.EventSource `json:"source"`
		Payload   map[string]any     `json:"payload"`
	}

	result := make([]eventJSON, len(history))
	for i, e := range history {
		result[i] = eventJSON{
			ID:        e.ID,
			Project:   e.Project,
			Type:      string(e.Type),
			Timestamp: e.Timestamp.Format(time.RFC3339Nano),
			Source:    e.Source,
			Payload:   e.Payload,
		}
	}

	writeJSON(w, result)
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	if s.projects == nil {
		http.Error(w, "project registry not available", http.StatusServiceUnavailable)
		return
	}

	type projectJSON struct {
		Name string `json:"name"`
		registry.Entry
	}

	names := s.projects.List()
	result := make([]projectJSON, 0, len(names))
	for _, name := range names {
		entry, err := s.projects.Get(name)
		if err != nil {
			continue
		}
		result = append(result, projectJSON{Name: name, Entry: entry})
	}

	writeJSON(w, result)
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "session store not available", http.StatusServiceUnavailable)
		return
	}

	var (
		list []*sessions.Session
		err  error
	)
	if project := r.URL.Query().Get("project"); project != "" {
		list, err = s.sessions.ListByProject(project)
	} else {
		list, err = s.sessions.List()
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, list)
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		http.Error(w, "run store not available", http.StatusServiceUnavailable)
		return
	}

	list, err := s.runs.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, list)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
