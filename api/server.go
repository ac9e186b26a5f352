package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wricardo/mazeplay/game/config"
	"github.com/wricardo/mazeplay/game/editor"
	"github.com/wricardo/mazeplay/game/playback"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/game/service"
	"github.com/wricardo/mazeplay/game/session"
	"github.com/wricardo/mazeplay/transport/websocket"
)

// Server represents the REST API server
type Server struct {
	catalog  *service.Catalog
	sessions *session.Manager
	profiles *config.Manager
	hub      *websocket.Hub
	router   *mux.Router

	// baseCtx parents background replays so shutdown can cancel them.
	baseCtx context.Context
}

// NewServer creates a new API server. profiles and hub may be nil.
func NewServer(catalog *service.Catalog, sessions *session.Manager, profiles *config.Manager, hub *websocket.Hub) *Server {
	if profiles == nil {
		profiles = config.NewStaticManager()
	}
	s := &Server{
		catalog:  catalog,
		sessions: sessions,
		profiles: profiles,
		hub:      hub,
		router:   mux.NewRouter(),
		baseCtx:  context.Background(),
	}

	s.setupRoutes()
	return s
}

// SetBaseContext sets the context background replays run under.
func (s *Server) SetBaseContext(ctx context.Context) {
	s.baseCtx = ctx
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()

	// Editor sessions
	api.HandleFunc("/editor/intents", s.handleListIntents).Methods("GET")
	api.HandleFunc("/editor/sessions", s.handleCreateEditor).Methods("POST")
	api.HandleFunc("/editor/sessions", s.handleListEditors).Methods("GET")
	api.HandleFunc("/editor/sessions/{id}", s.handleGetEditor).Methods("GET")
	api.HandleFunc("/editor/sessions/{id}", s.handleDeleteEditor).Methods("DELETE")
	api.HandleFunc("/editor/sessions/{id}/intents", s.handleEditorIntent).Methods("POST")
	api.HandleFunc("/editor/sessions/{id}/canvas.png", s.handleEditorCanvas).Methods("GET")

	// Gallery
	api.HandleFunc("/gallery", s.handleGallery).Methods("GET")
	api.HandleFunc("/gallery/upload", s.handleUpload).Methods("POST")
	api.HandleFunc("/gallery/{name}/preview.png", s.handlePreview).Methods("GET")
	api.HandleFunc("/gallery/{name}/delete", s.handleDeleteMaze).Methods("POST")

	// Comparison
	api.HandleFunc("/compare/{name}", s.handleCompare).Methods("GET")
	api.HandleFunc("/compare/{name}/{algo}.png", s.handleCompareImage).Methods("GET")

	// Replay
	api.HandleFunc("/replay/{name}/{algo}", s.handleReplay).Methods("POST")
	api.HandleFunc("/replay/{name}/{algo}/canvas.png", s.handleReplayCanvas).Methods("GET")

	// Profiles
	api.HandleFunc("/profiles", s.handleListProfiles).Methods("GET")
	api.HandleFunc("/profiles/{name}", s.handleGetProfile).Methods("GET")

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	// WebSocket
	s.router.HandleFunc("/ws", s.handleWebSocket)
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondErr maps err onto a status code and writes it.
func respondErr(w http.ResponseWriter, err error) {
	respondError(w, statusFor(err), err.Error())
}

func respondPNG(w http.ResponseWriter, img image.Image) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, img); err != nil {
		log.Printf("Failed to encode PNG: %v", err)
	}
}

// statusFor maps errors onto HTTP status codes: bad input is 400, missing
// things are 404, and anything else came from a collaborator and is 502.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrSessionNotFound),
		errors.Is(err, config.ErrConfigNotFound),
		errors.Is(err, service.ErrMazeNotFound):
		return http.StatusNotFound
	case service.IsInputError(err),
		errors.Is(err, session.ErrInvalidSessionID),
		errors.Is(err, editor.ErrInvalidMode),
		errors.Is(err, editor.ErrUnknownIntent),
		errors.Is(err, editor.ErrMissingArgument),
		errors.Is(err, render.ErrLayoutOutOfRange),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, playback.ErrSuperseded):
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}

var errBadRequest = errors.New("bad request")

// queryInt reads a non-negative integer query parameter, returning def when
// it is absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", errBadRequest, key)
	}
	return v, nil
}

func queryFloat(r *http.Request, key string, def float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative number", errBadRequest, key)
	}
	return v, nil
}

// profileFor resolves the "profile" query parameter, falling back to the
// default profile.
func (s *Server) profileFor(r *http.Request) (*config.Profile, error) {
	return s.profiles.Resolve(r.URL.Query().Get("profile"))
}

func (s *Server) broadcast(channel, event string, data interface{}) {
	if s.hub != nil {
		s.hub.Broadcast(channel, event, data)
	}
}

// Profile Handlers

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.profiles.ListProfiles()
	if err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"default":  s.profiles.GetDefault().Name,
		"profiles": profiles,
	})
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(mux.Vars(r)["name"], ".json")

	profile, err := s.profiles.LoadProfile(name)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, profile)
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		http.Error(w, "live updates are disabled", http.StatusServiceUnavailable)
		return
	}

	channel := r.URL.Query().Get("channel")
	switch {
	case strings.HasPrefix(channel, "editor/"):
		if _, err := s.sessions.Get(strings.TrimPrefix(channel, "editor/")); err != nil {
			http.Error(w, "Invalid session", http.StatusNotFound)
			return
		}
	case strings.HasPrefix(channel, "replay/"):
	default:
		http.Error(w, "channel must start with editor/ or replay/", http.StatusBadRequest)
		return
	}

	s.hub.HandleWS(w, r)
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	clients := 0
	if s.hub != nil {
		clients = s.hub.Clients()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "healthy",
		"editors":    s.sessions.Count(),
		"replays":    s.sessions.ReplayCount(),
		"ws_clients": clients,
		"intents":    editor.Intents(),
		"algorithms": service.Algorithms(),
	})
}

// layoutFor reads width and dpr query parameters over a default layout.
func layoutFor(r *http.Request, def render.Layout) (render.Layout, error) {
	width, err := queryFloat(r, "width", def.Width)
	if err != nil {
		return def, err
	}
	dpr, err := queryFloat(r, "dpr", def.DPR)
	if err != nil {
		return def, err
	}
	layout := render.Layout{Width: width, DPR: dpr}
	if err := layout.Validate(); err != nil {
		return def, err
	}
	return layout, nil
}
