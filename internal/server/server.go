// Package server exposes the camera pose, scene and recordings over HTTP.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/orrery/internal/app"
	"github.com/ayusman/orrery/internal/scene"
	"github.com/ayusman/orrery/internal/server/api"
	"github.com/ayusman/orrery/internal/store"
)

// Source is the running application as the server sees it. *app.App
// implements it.
type Source interface {
	Latest() app.Snapshot
	Subscribe() (<-chan app.Snapshot, func())
	Preview() ([]byte, uint64)
	Scene() *scene.Scene
	HandControl() bool
	SetHandControl(enabled bool)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Source    Source

	// LogRequests enables chi's request logger.
	LogRequests bool
}

// Server represents the HTTP server for the orrery.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	if s.config.LogRequests {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	if s.config.Source != nil {
		r.Get("/api/scene", s.handleScene)
		r.Get("/api/state", s.handleState)
		r.Get("/api/control", s.handleGetControl)
		r.Put("/api/control", s.handlePutControl)
		r.Method(http.MethodGet, "/api/pose", NewPoseHandler(s.config.Source, s.setHandControl))
		r.Method(http.MethodGet, "/api/stream", NewStreamHandler(s.config.Source, 0))
	}

	if s.config.Store != nil {
		r.Route("/api/recordings", api.NewRecordingHandler(s.config.Store).Routes)
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Source != nil {
		response["handControl"] = s.config.Source.HandControl()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

type sceneResponse struct {
	Bodies []scene.Body           `json:"bodies"`
	Orbits []scene.OrbitLine      `json:"orbits"`
	Styles map[string]scene.Style `json:"styles"`
}

// handleScene returns the body table, orbit polylines and current styles.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	sc := s.config.Source.Scene()
	api.WriteJSON(w, http.StatusOK, sceneResponse{
		Bodies: sc.Bodies,
		Orbits: sc.OrbitLines(),
		Styles: s.config.Source.Latest().Styles,
	})
}

// handleState returns the snapshot of the most recent tick.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, s.config.Source.Latest())
}

type controlRequest struct {
	HandControl *bool `json:"handControl"`
}

type controlResponse struct {
	HandControl bool `json:"handControl"`
}

func (s *Server) handleGetControl(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, controlResponse{HandControl: s.config.Source.HandControl()})
}

// handlePutControl turns hand input on or off.
func (s *Server) handlePutControl(w http.ResponseWriter, r *http.Request) {
	var req controlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.HandControl == nil {
		api.WriteError(w, http.StatusBadRequest, "handControl is required")
		return
	}
	if err := s.setHandControl(*req.HandControl); err != nil {
		api.WriteError(w, http.StatusInternalServerError, "Failed to save setting")
		return
	}
	api.WriteJSON(w, http.StatusOK, controlResponse{HandControl: *req.HandControl})
}

// setHandControl applies the toggle and persists it when a store is set.
func (s *Server) setHandControl(enabled bool) error {
	s.config.Source.SetHandControl(enabled)
	if s.config.Store == nil {
		return nil
	}
	return s.config.Store.Settings().SetBool(store.SettingHandControl, enabled)
}

// Handler returns an http.Server for addr serving s.
func (s *Server) Handler(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return s.Handler(addr).ListenAndServe()
}
