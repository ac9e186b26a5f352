package session

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mazeplay/game/editor"
	"github.com/wricardo/mazeplay/game/generator"
	"github.com/wricardo/mazeplay/game/playback"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/game/service"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSessionID = errors.New("invalid session ID")
)

// EditorOptions configure a new editor session. Zero values take defaults.
type EditorOptions struct {
	Rows    int
	Cols    int
	Seed    int64
	Profile string
	Layout  render.Layout
	Surface render.Options
}

// Editor is one authoring session: an editor controller and the surface it
// draws on.
type Editor struct {
	ID             string
	Profile        string
	Seed           int64
	Controller     *editor.Controller
	Surface        *render.Surface
	CreatedAt      time.Time
	accessTime
}

// accessTime records the last access. It is written under the manager lock
// but read by handlers without it.
type accessTime struct {
	nanos atomic.Int64
}

func (a *accessTime) touch(t time.Time) { a.nanos.Store(t.UnixNano()) }

// LastAccessedAt returns when the session was last looked up.
func (a *accessTime) LastAccessedAt() time.Time {
	return time.Unix(0, a.nanos.Load())
}

// Replay is the playback state for one maze and algorithm pair.
type Replay struct {
	Key            string
	Maze           string
	Algorithm      service.Algorithm
	Player         *playback.Player
	Surface        *render.Surface
	CreatedAt      time.Time
	accessTime
}

// ReplayKey identifies the replay of algorithm on maze.
func ReplayKey(maze string, algorithm service.Algorithm) string {
	return strings.ToLower(maze) + "/" + string(algorithm)
}

// Manager tracks editor sessions and replays in memory. Nothing survives a
// restart.
type Manager struct {
	store    service.MazeStore
	clock    playback.Clock
	defaults EditorOptions
	editors  map[string]*Editor
	replays  map[string]*Replay
	mu       sync.RWMutex
}

// NewManager creates a manager. store backs editor save and load and may be
// nil.
func NewManager(store service.MazeStore) *Manager {
	return &Manager{
		store:    store,
		clock:    playback.RealClock{},
		defaults: EditorOptions{Rows: 15, Cols: 15, Layout: render.Layout{Width: 620, DPR: 1}},
		editors:  make(map[string]*Editor),
		replays:  make(map[string]*Replay),
	}
}

// SetDefaults sets the options used for fields left zero in Create.
func (m *Manager) SetDefaults(opts EditorOptions) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaults = opts
}

// SetClock sets the clock given to new replays.
func (m *Manager) SetClock(clock playback.Clock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clock = clock
}

func (m *Manager) fill(opts EditorOptions) EditorOptions {
	m.mu.RLock()
	d := m.defaults
	m.mu.RUnlock()

	if opts.Rows == 0 {
		opts.Rows = d.Rows
	}
	if opts.Cols == 0 {
		opts.Cols = d.Cols
	}
	if opts.Seed == 0 {
		opts.Seed = d.Seed
	}
	if opts.Profile == "" {
		opts.Profile = d.Profile
	}
	if opts.Layout.Width == 0 {
		opts.Layout = d.Layout
	}
	if opts.Surface.Padding == 0 {
		opts.Surface.Padding = d.Surface.Padding
	}
	if opts.Surface.MaxSize == 0 {
		opts.Surface.MaxSize = d.Surface.MaxSize
	}
	if opts.Surface.Palette == nil {
		opts.Surface.Palette = d.Surface.Palette
	}
	return opts
}

// Create starts a new editor session with an empty grid.
func (m *Manager) Create(opts EditorOptions) (*Editor, error) {
	opts = m.fill(opts)

	es, err := editor.NewSession(opts.Rows, opts.Cols)
	if err != nil {
		return nil, fmt.Errorf("failed to create editor: %w", err)
	}
	gen := generator.New(opts.Seed)
	surface := render.NewSurface(opts.Surface, opts.Layout)

	now := time.Now()
	e := &Editor{
		ID:             uuid.NewString(),
		Profile:        opts.Profile,
		Seed:           gen.Seed(),
		Controller:     editor.NewController(es, surface, gen, m.store),
		Surface:        surface,
		CreatedAt:      now,
	}
	e.touch(now)
	e.Controller.Redraw()

	m.mu.Lock()
	m.editors[e.ID] = e
	m.mu.Unlock()

	log.Printf("[EDIT] session created id=%s size=%dx%d seed=%d", e.ID, opts.Rows, opts.Cols, e.Seed)
	return e, nil
}

// Get returns an editor session and marks it accessed. IDs are matched
// case-insensitively.
func (m *Manager) Get(id string) (*Editor, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.editors[strings.ToLower(id)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	e.touch(time.Now())
	return e, nil
}

// List returns every editor session.
func (m *Manager) List() []*Editor {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Editor, 0, len(m.editors))
	for _, e := range m.editors {
		result = append(result, e)
	}
	return result
}

// Delete removes an editor session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(id)
	if _, ok := m.editors[key]; !ok {
		return ErrSessionNotFound
	}
	delete(m.editors, key)
	return nil
}

// Replay returns the replay for maze and algorithm, creating it on first
// use. A newly created replay's player re-renders on layout changes.
func (m *Manager) Replay(maze string, algorithm service.Algorithm, layout render.Layout, opts render.Options) *Replay {
	key := ReplayKey(maze, algorithm)
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if r, ok := m.replays[key]; ok {
		r.touch(now)
		return r
	}

	surface := render.NewSurface(opts, layout)
	player := playback.NewPlayer(surface, m.clock)
	player.WatchLayout(surface)
	r := &Replay{
		Key:            key,
		Maze:           maze,
		Algorithm:      algorithm,
		Player:         player,
		Surface:        surface,
		CreatedAt:      now,
	}
	r.touch(now)
	m.replays[key] = r
	return r
}

// FindReplay returns an existing replay without creating one.
func (m *Manager) FindReplay(maze string, algorithm service.Algorithm) (*Replay, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.replays[ReplayKey(maze, algorithm)]
	if !ok {
		return nil, ErrSessionNotFound
	}
	r.touch(time.Now())
	return r, nil
}

// CleanupExpiredSessions removes editors and replays that haven't been
// accessed in maxAge and stops their players.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for id, e := range m.editors {
		if e.LastAccessedAt().Before(cutoff) {
			delete(m.editors, id)
			removed++
		}
	}
	for key, r := range m.replays {
		if r.LastAccessedAt().Before(cutoff) {
			r.Player.Stop()
			delete(m.replays, key)
			removed++
		}
	}

	return removed
}

// Count returns the number of editor sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.editors)
}

// ReplayCount returns the number of tracked replays.
func (m *Manager) ReplayCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.replays)
}
