// Package editor turns pointer input and named intents into grid mutations
// that keep the single start and single goal invariant.
package editor

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/wricardo/mazeplay/game/grid"
)

var (
	ErrInvalidMode     = errors.New("invalid edit mode")
	ErrUnknownIntent   = errors.New("unknown intent")
	ErrNoStore         = errors.New("no maze store configured")
	ErrMissingArgument = errors.New("missing intent argument")
)

// MaxDimension bounds rows and cols accepted by Resize.
const MaxDimension = 256

// Mode selects what a click on a cell does.
type Mode string

const (
	ModeWall  Mode = "wall"
	ModeStart Mode = "start"
	ModeGoal  Mode = "goal"
)

// ParseMode accepts a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case ModeWall, ModeStart, ModeGoal:
		return m, nil
	}
	return "", fmt.Errorf("%w: %q (valid: wall, start, goal)", ErrInvalidMode, s)
}

// Session is the state of one editor: the grid being authored, the active
// mode and whether the grid is being regenerated. It implements
// render.Scene.
type Session struct {
	mu         sync.Mutex
	grid       *grid.Grid
	mode       Mode
	generating atomic.Bool
}

// NewSession creates a session with an empty rows × cols grid in wall mode.
func NewSession(rows, cols int) (*Session, error) {
	g, err := newGrid(rows, cols)
	if err != nil {
		return nil, err
	}
	return &Session{grid: g, mode: ModeWall}, nil
}

func newGrid(rows, cols int) (*grid.Grid, error) {
	if rows > MaxDimension || cols > MaxDimension {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", grid.ErrInvalidSize, rows, cols, MaxDimension)
	}
	return grid.New(rows, cols)
}

// Mode returns the active mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) setMode(m Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = m
}

// Grid returns a snapshot of the grid.
func (s *Session) Grid() *grid.Grid {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Clone()
}

// Size returns the grid dimensions.
func (s *Session) Size() (rows, cols int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grid.Rows(), s.grid.Cols()
}

// Generating reports whether the grid is mid-regeneration. It never blocks,
// so a renderer can skip the frame instead of waiting.
func (s *Session) Generating() bool {
	return s.generating.Load()
}

// edit applies fn to the live grid and the current mode under the lock.
func (s *Session) edit(fn func(g *grid.Grid, mode Mode) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.grid, s.mode)
}

func (s *Session) replace(g *grid.Grid) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.grid = g
}

// regenerate runs carve on the live grid with the generating flag raised.
func (s *Session) regenerate(carve func(*grid.Grid)) {
	s.generating.Store(true)
	defer s.generating.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()
	carve(s.grid)
}
