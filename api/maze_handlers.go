package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wricardo/mazeplay/game/playback"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/game/service"
	"github.com/wricardo/mazeplay/game/session"
	"github.com/wricardo/mazeplay/transport/websocket"
)

// Gallery Handlers

func (s *Server) handleGallery(w http.ResponseWriter, r *http.Request) {
	entries, err := s.catalog.Gallery(r.Context())
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count": len(entries),
		"mazes": entries,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
		Contents string `json:"contents"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := s.catalog.Upload(r.Context(), req.Filename, req.Contents); err != nil {
		respondErr(w, err)
		return
	}

	log.Printf("[GALLERY] uploaded name=%s", req.Filename)
	respondJSON(w, http.StatusCreated, map[string]string{
		"message":  "Maze uploaded",
		"filename": req.Filename,
	})
}

func (s *Server) handleDeleteMaze(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := s.catalog.Delete(r.Context(), name); err != nil {
		respondErr(w, err)
		return
	}

	log.Printf("[GALLERY] deleted name=%s", name)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": "Maze deleted",
	})
}

// previewSize reads w and h query parameters over the profile's preview size.
func (s *Server) previewSize(r *http.Request) (int, int, error) {
	profile, err := s.profileFor(r)
	if err != nil {
		return 0, 0, err
	}
	defW, defH := profile.PreviewSize()
	width, err := queryInt(r, "w", defW)
	if err != nil {
		return 0, 0, err
	}
	height, err := queryInt(r, "h", defH)
	if err != nil {
		return 0, 0, err
	}
	if err := render.ValidatePreviewSize(width, height); err != nil {
		return 0, 0, err
	}
	return max(width, 1), max(height, 1), nil
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	width, height, err := s.previewSize(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	g, err := s.catalog.Maze(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		respondErr(w, err)
		return
	}

	respondPNG(w, render.Preview(g, width, height, render.PreviewPalette()))
}

// Comparison Handlers

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	comparisons, err := s.catalog.Compare(r.Context(), name)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"maze":       name,
		"algorithms": comparisons,
	})
}

func (s *Server) handleCompareImage(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	algo, err := service.ParseAlgorithm(vars["algo"])
	if err != nil {
		respondErr(w, err)
		return
	}
	width, height, err := s.previewSize(r)
	if err != nil {
		respondErr(w, err)
		return
	}

	result, err := s.catalog.Solve(r.Context(), algo, vars["name"])
	if err != nil {
		respondErr(w, err)
		return
	}

	respondPNG(w, render.Trace(result.Grid, result.Visited, result.Path, width, height, render.PreviewPalette()))
}

// Replay Handlers

// ReplayInfo describes a started or finished replay.
type ReplayInfo struct {
	Key        string            `json:"key"`
	Maze       string            `json:"maze"`
	Algorithm  service.Algorithm `json:"algorithm"`
	Channel    string            `json:"channel"`
	Status     string            `json:"status"`
	SpeedMS    int64             `json:"speed_ms"`
	Layout     render.Layout     `json:"layout"`
	Visited    int               `json:"visited,omitempty"`
	PathLength int               `json:"path_length,omitempty"`
}

func (s *Server) handleReplay(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	name := vars["name"]

	algo, err := service.ParseAlgorithm(vars["algo"])
	if err != nil {
		respondErr(w, err)
		return
	}
	if err := service.ValidateMazeName(name); err != nil {
		respondErr(w, err)
		return
	}
	profile, err := s.profileFor(r)
	if err != nil {
		respondErr(w, err)
		return
	}
	speedMS, err := queryInt(r, "speed", profile.Playback.SpeedMS)
	if err != nil {
		respondErr(w, err)
		return
	}
	layout, err := layoutFor(r, profile.Layout())
	if err != nil {
		respondErr(w, err)
		return
	}
	speed := time.Duration(speedMS) * time.Millisecond

	replay := s.sessions.Replay(name, algo, layout, profile.SurfaceOptions())
	channel := websocket.ReplayChannel(replay.Key)
	replay.Player.SetObserver(func(f playback.Frame) {
		s.broadcast(channel, websocket.EventFrame, f)
	})

	info := &ReplayInfo{
		Key:       replay.Key,
		Maze:      name,
		Algorithm: algo,
		Channel:   channel,
		SpeedMS:   int64(speedMS),
	}

	// A changed layout re-renders the last trace through the player's
	// layout observer before the new run supersedes it.
	if replay.Surface.Layout() != layout {
		replay.Surface.SetLayout(layout)
	}
	info.Layout = replay.Surface.Layout()

	if r.URL.Query().Get("wait") == "true" {
		err := s.runReplay(r.Context(), replay, speed)
		if err != nil {
			respondErr(w, err)
			return
		}
		info.Status = "done"
		if last := replay.Player.Last(); last != nil {
			info.Visited = len(last.Visited)
			info.PathLength = len(last.Path)
		}
		respondJSON(w, http.StatusOK, info)
		return
	}

	go s.runReplay(s.baseCtx, replay, speed)

	info.Status = "started"
	respondJSON(w, http.StatusAccepted, info)
}

// runReplay plays one trace and announces the outcome on the replay channel.
func (s *Server) runReplay(ctx context.Context, replay *session.Replay, speed time.Duration) error {
	start := time.Now()
	err := replay.Player.Replay(ctx, s.catalog.Solver(), replay.Maze, replay.Algorithm, speed)

	channel := websocket.ReplayChannel(replay.Key)
	switch {
	case errors.Is(err, playback.ErrSuperseded):
		log.Printf("[REPLAY] superseded key=%s", replay.Key)
		return err
	case err != nil:
		log.Printf("[REPLAY] failed key=%s err=%v", replay.Key, err)
		s.broadcast(channel, websocket.EventReplayDone, map[string]string{"error": err.Error()})
		return err
	}

	last := replay.Player.Last()
	log.Printf("[REPLAY] done key=%s visited=%d path=%d took=%s",
		replay.Key, len(last.Visited), len(last.Path), time.Since(start).Round(time.Millisecond))
	s.broadcast(channel, websocket.EventReplayDone, map[string]int{
		"visited":     len(last.Visited),
		"path_length": len(last.Path),
	})
	return nil
}

func (s *Server) handleReplayCanvas(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	algo, err := service.ParseAlgorithm(vars["algo"])
	if err != nil {
		respondErr(w, err)
		return
	}

	replay, err := s.sessions.FindReplay(vars["name"], algo)
	if err != nil {
		respondErr(w, err)
		return
	}

	respondPNG(w, replay.Surface.Image())
}
