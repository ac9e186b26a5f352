package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/mazeplay/game/editor"
	"github.com/wricardo/mazeplay/game/grid"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/game/session"
	"github.com/wricardo/mazeplay/transport/websocket"
)

// EditorInfo is the JSON view of an editor session.
type EditorInfo struct {
	ID             string        `json:"id"`
	Profile        string        `json:"profile"`
	Seed           int64         `json:"seed"`
	Mode           editor.Mode   `json:"mode"`
	Rows           int           `json:"rows"`
	Cols           int           `json:"cols"`
	Grid           *grid.Grid    `json:"grid"`
	Layout         render.Layout `json:"layout"`
	BackingSize    int           `json:"backing_size"`
	Channel        string        `json:"channel"`
	CreatedAt      time.Time     `json:"created_at"`
	LastAccessedAt time.Time     `json:"last_accessed_at"`
}

func editorInfo(e *session.Editor) *EditorInfo {
	es := e.Controller.Session()
	g := es.Grid()
	return &EditorInfo{
		ID:             e.ID,
		Profile:        e.Profile,
		Seed:           e.Seed,
		Mode:           es.Mode(),
		Rows:           g.Rows(),
		Cols:           g.Cols(),
		Grid:           g,
		Layout:         e.Surface.Layout(),
		BackingSize:    e.Surface.BackingSize(),
		Channel:        websocket.EditorChannel(e.ID),
		CreatedAt:      e.CreatedAt,
		LastAccessedAt: e.LastAccessedAt(),
	}
}

func (s *Server) handleListIntents(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"intents": editor.Intents(),
	})
}

func (s *Server) handleCreateEditor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Profile  string         `json:"profile,omitempty"`
		Rows     int            `json:"rows,omitempty"`
		Cols     int            `json:"cols,omitempty"`
		Seed     int64          `json:"seed,omitempty"`
		Layout   *render.Layout `json:"layout,omitempty"`
		Generate bool           `json:"generate,omitempty"`
		Load     string         `json:"load,omitempty"`
	}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	profile, err := s.profiles.Resolve(req.Profile)
	if err != nil {
		respondErr(w, err)
		return
	}

	opts := profile.EditorOptions()
	if req.Rows > 0 {
		opts.Rows = req.Rows
	}
	if req.Cols > 0 {
		opts.Cols = req.Cols
	}
	if req.Seed > 0 {
		opts.Seed = req.Seed
	}
	if req.Layout != nil {
		if err := req.Layout.Validate(); err != nil {
			respondErr(w, err)
			return
		}
		opts.Layout = *req.Layout
	}
	if opts.Rows > editor.MaxDimension || opts.Cols > editor.MaxDimension {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("rows and cols must be at most %d", editor.MaxDimension))
		return
	}

	e, err := s.sessions.Create(opts)
	if err != nil {
		respondErr(w, err)
		return
	}
	channel := websocket.EditorChannel(e.ID)
	e.Controller.OnRedraw(func() {
		g := e.Controller.Session().Grid()
		s.broadcast(channel, websocket.EventRedraw, map[string]interface{}{
			"rows": g.Rows(),
			"cols": g.Cols(),
			"grid": g,
		})
	})

	if req.Load != "" {
		if err := e.Controller.Load(r.Context(), req.Load); err != nil {
			s.sessions.Delete(e.ID)
			respondErr(w, err)
			return
		}
	} else if req.Generate {
		e.Controller.Regenerate()
	}

	respondJSON(w, http.StatusCreated, editorInfo(e))
}

func (s *Server) handleListEditors(w http.ResponseWriter, r *http.Request) {
	editors := s.sessions.List()

	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy == "" {
		sortBy = "accessed"
	}
	if order == "" {
		order = "desc"
	}

	// Sort snapshots: access times keep moving while the list is built.
	infos := make([]*EditorInfo, 0, len(editors))
	for _, e := range editors {
		infos = append(infos, editorInfo(e))
	}

	sort.Slice(infos, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = infos[i].CreatedAt, infos[j].CreatedAt
		} else {
			ti, tj = infos[i].LastAccessedAt, infos[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(infos)
	limit := total
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < total {
			limit = l
		}
	}
	infos = infos[:limit]

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(infos),
		"total":    total,
		"sessions": infos,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetEditor(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, editorInfo(e))
}

func (s *Server) handleDeleteEditor(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.sessions.Delete(sessionID); err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

func (s *Server) handleEditorIntent(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}

	var in editor.Intent
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	outcome, err := e.Controller.Dispatch(r.Context(), in)
	if err != nil {
		log.Printf("[EDIT] session=%s intent=%s err=%v", e.ID, in.Name, err)
		respondErr(w, err)
		return
	}

	log.Printf("[EDIT] session=%s intent=%s changed=%v", e.ID, outcome.Intent, outcome.Changed)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"outcome": outcome,
		"state":   editorInfo(e),
	})
}

func (s *Server) handleEditorCanvas(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		respondErr(w, err)
		return
	}

	respondPNG(w, e.Surface.Image())
}
