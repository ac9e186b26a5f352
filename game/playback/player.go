package playback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/wricardo/mazeplay/game/grid"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/game/service"
)

var (
	ErrSuperseded = errors.New("playback superseded by a newer run")
	ErrNoResult   = errors.New("nothing has been played yet")
)

// Canvas is the surface a Player paints on.
type Canvas interface {
	DrawScene(scene render.Scene) bool
	PaintCell(c grid.Coordinate, layer render.Layer) bool
	PaintMarkers() bool
}

// Observer is told about every frame after it is painted.
type Observer func(Frame)

// Player animates solver results onto a canvas. The latest call wins: each
// Play, Replay or Rerender cancels the run in progress, and the cancelled run
// returns ErrSuperseded at its next suspension point without painting again.
type Player struct {
	canvas Canvas
	clock  Clock

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	last     *service.SolverResult
	observer Observer
}

// NewPlayer creates a player. A nil clock means RealClock.
func NewPlayer(canvas Canvas, clock Clock) *Player {
	if clock == nil {
		clock = RealClock{}
	}
	return &Player{canvas: canvas, clock: clock}
}

// SetObserver replaces the frame observer.
func (p *Player) SetObserver(fn Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observer = fn
}

// Last returns the most recently started result, or nil.
func (p *Player) Last() *service.SolverResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// Stop cancels the run in progress, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Play draws result's grid, then animates the visited and path overlays at
// the given speed and finally repaints the start and goal markers.
func (p *Player) Play(ctx context.Context, result *service.SolverResult, speed time.Duration) error {
	gen, ctx, done := p.begin(ctx)
	defer done()
	return p.play(ctx, gen, result, speed)
}

// Replay fetches a trace from the solver and plays it. Solver failures are
// returned to the caller and nothing is painted.
func (p *Player) Replay(ctx context.Context, solver service.Solver, maze string, algorithm service.Algorithm, speed time.Duration) error {
	gen, ctx, done := p.begin(ctx)
	defer done()

	result, err := solver.Run(ctx, algorithm, maze)
	if err != nil {
		if p.superseded(gen) {
			return ErrSuperseded
		}
		return fmt.Errorf("failed to fetch %s trace for %s: %w", algorithm, maze, err)
	}
	return p.play(ctx, gen, result, speed)
}

// Rerender plays the last result again without animation.
func (p *Player) Rerender(ctx context.Context) error {
	last := p.Last()
	if last == nil {
		return ErrNoResult
	}
	return p.Play(ctx, last, 0)
}

// WatchLayout re-renders the last result whenever the surface layout
// changes.
func (p *Player) WatchLayout(s interface{ OnLayout(func(render.Layout)) }) {
	s.OnLayout(func(render.Layout) {
		err := p.Rerender(context.Background())
		if err != nil && !errors.Is(err, ErrNoResult) && !errors.Is(err, ErrSuperseded) {
			log.Printf("[REPLAY] rerender failed: %v", err)
		}
	})
}

func (p *Player) begin(ctx context.Context) (uint64, context.Context, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	return gen, ctx, func() {
		cancel()
		p.mu.Lock()
		if p.gen == gen {
			p.cancel = nil
		}
		p.mu.Unlock()
	}
}

func (p *Player) superseded(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen != gen
}

// paint runs fn only if gen is still current. The check and the paint happen
// under one lock so a superseded run can never paint over a newer one.
func (p *Player) paint(gen uint64, fn func()) (Observer, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.gen != gen {
		return nil, false
	}
	fn()
	return p.observer, true
}

func (p *Player) play(ctx context.Context, gen uint64, result *service.SolverResult, speed time.Duration) error {
	if err := result.Validate(); err != nil {
		return err
	}

	_, ok := p.paint(gen, func() {
		p.last = result
		p.canvas.DrawScene(render.Static(result.Grid))
	})
	if !ok {
		return ErrSuperseded
	}

	for f := range Frames(result, speed) {
		if err := p.clock.Sleep(ctx, f.Delay); err != nil {
			if p.superseded(gen) {
				return ErrSuperseded
			}
			return err
		}
		observer, ok := p.paint(gen, func() {
			if f.Layer == render.LayerMarker {
				p.canvas.PaintMarkers()
				return
			}
			p.canvas.PaintCell(f.Cell, f.Layer)
		})
		if !ok {
			return ErrSuperseded
		}
		if observer != nil {
			observer(f)
		}
	}
	return nil
}
