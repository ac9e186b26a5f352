package playback

import (
	"context"
	"errors"
	"image/color"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wricardo/mazeplay/game/grid"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/game/service"
)

// MockSolver is a mock implementation of service.Solver
type MockSolver struct {
	RunFunc func(ctx context.Context, algorithm service.Algorithm, maze string) (*service.SolverResult, error)
}

func (m *MockSolver) Run(ctx context.Context, algorithm service.Algorithm, maze string) (*service.SolverResult, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, algorithm, maze)
	}
	return nil, errors.New("not implemented")
}

// blockingClock parks the first sleeps until their context is cancelled.
type blockingClock struct {
	block   atomic.Bool
	started chan struct{}
	once    sync.Once
}

func newBlockingClock() *blockingClock {
	c := &blockingClock{started: make(chan struct{})}
	c.block.Store(true)
	return c
}

func (c *blockingClock) Sleep(ctx context.Context, d time.Duration) error {
	if c.block.Load() {
		c.once.Do(func() { close(c.started) })
		<-ctx.Done()
	}
	return ctx.Err()
}

func result(t *testing.T, layout string, visited, path []grid.Coordinate) *service.SolverResult {
	t.Helper()
	g, err := grid.Parse(layout)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return &service.SolverResult{Grid: g, Visited: visited, Path: path}
}

// newSurface returns a surface with 100px cells for a two-column grid.
func newSurface() *render.Surface {
	return render.NewSurface(render.Options{}, render.Layout{Width: 220, DPR: 1})
}

func near(got color.RGBA, r, g, b uint8) bool {
	diff := func(a, b uint8) int {
		if a > b {
			return int(a - b)
		}
		return int(b - a)
	}
	return diff(got.R, r) <= 3 && diff(got.G, g) <= 3 && diff(got.B, b) <= 3
}

func TestFramesOrderAndDelays(t *testing.T) {
	res := result(t, "...\n", []grid.Coordinate{{C: 0}, {C: 1}}, []grid.Coordinate{{C: 1}})

	tests := []struct {
		name   string
		speed  time.Duration
		delays []time.Duration
	}{
		{"slow", 20 * time.Millisecond, []time.Duration{20 * time.Millisecond, 20 * time.Millisecond, 20 * time.Millisecond, 0}},
		{"fast path floor", 2 * time.Millisecond, []time.Duration{2 * time.Millisecond, 2 * time.Millisecond, MinPathDelay, 0}},
		{"instant", 0, []time.Duration{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var frames []Frame
			for f := range Frames(res, tt.speed) {
				frames = append(frames, f)
			}
			if len(frames) != 4 {
				t.Fatalf("Expected 4 frames, got %d", len(frames))
			}
			layers := []render.Layer{render.LayerVisited, render.LayerVisited, render.LayerPath, render.LayerMarker}
			for i, f := range frames {
				if f.Layer != layers[i] || f.Delay != tt.delays[i] || f.Index != i {
					t.Errorf("frame %d = %+v, want layer %v delay %v", i, f, layers[i], tt.delays[i])
				}
			}
			if frames[1].Cell != (grid.Coordinate{C: 1}) {
				t.Errorf("Expected visited order preserved, got %s", frames[1].Cell)
			}
		})
	}
}

func TestFramesStopEarly(t *testing.T) {
	res := result(t, "...\n", []grid.Coordinate{{C: 0}, {C: 1}, {C: 2}}, nil)
	n := 0
	for range Frames(res, 0) {
		n++
		if n == 2 {
			break
		}
	}
	if n != 2 {
		t.Errorf("Expected to stop after 2 frames, got %d", n)
	}
}

func TestPlayTintsVisitedAndPath(t *testing.T) {
	surface := newSurface()
	player := NewPlayer(surface, InstantClock{})
	res := result(t, "..\n",
		[]grid.Coordinate{{R: 0, C: 0}, {R: 0, C: 1}},
		[]grid.Coordinate{{R: 0, C: 1}})

	var frames []Frame
	player.SetObserver(func(f Frame) { frames = append(frames, f) })

	if err := player.Play(context.Background(), res, 10*time.Millisecond); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	img := surface.Image()
	visitedOnly := img.RGBAAt(50, 50)
	pathOverVisited := img.RGBAAt(150, 50)

	// rgba(68,68,255,0.6) over white.
	if !near(visitedOnly, 143, 143, 255) {
		t.Errorf("Expected visited tint at (0,0), got %v", visitedOnly)
	}
	// rgba(255,215,0,0.95) over the visited tint.
	if !near(pathOverVisited, 249, 211, 13) {
		t.Errorf("Expected path-over-visited tint at (0,1), got %v", pathOverVisited)
	}
	if len(frames) != 4 {
		t.Errorf("Expected observer to see 4 frames, got %d", len(frames))
	}
}

func TestPlayRepaintsMarkersOnTop(t *testing.T) {
	surface := newSurface()
	player := NewPlayer(surface, InstantClock{})
	res := result(t, "SG\n",
		[]grid.Coordinate{{C: 0}, {C: 1}},
		[]grid.Coordinate{{C: 0}, {C: 1}})

	if err := player.Play(context.Background(), res, 0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	p := render.DefaultPalette()
	img := surface.Image()
	if got := img.RGBAAt(50, 50); !near(got, p.Start.R, p.Start.G, p.Start.B) {
		t.Errorf("Expected start colour on top, got %v", got)
	}
	if got := img.RGBAAt(150, 50); !near(got, p.Goal.R, p.Goal.G, p.Goal.B) {
		t.Errorf("Expected goal colour on top, got %v", got)
	}
}

func TestPlayRejectsMalformedResult(t *testing.T) {
	player := NewPlayer(newSurface(), InstantClock{})

	tests := []struct {
		name string
		res  *service.SolverResult
	}{
		{"nil result", nil},
		{"missing grid", &service.SolverResult{}},
		{"visited out of range", result(t, "..\n", []grid.Coordinate{{R: 1, C: 0}}, nil)},
		{"path out of range", result(t, "..\n", nil, []grid.Coordinate{{C: -1}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := player.Play(context.Background(), tt.res, 0)
			if !errors.Is(err, service.ErrMalformedResult) {
				t.Errorf("Expected ErrMalformedResult, got %v", err)
			}
		})
	}
	if player.Last() != nil {
		t.Error("Malformed results should not be remembered")
	}
}

func TestLatestPlayWins(t *testing.T) {
	surface := newSurface()
	clock := newBlockingClock()
	player := NewPlayer(surface, clock)

	first := result(t, "..\n", []grid.Coordinate{{C: 0}, {C: 1}}, nil)
	second := result(t, "#.\n", nil, nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- player.Play(context.Background(), first, 50*time.Millisecond)
	}()
	<-clock.started
	clock.block.Store(false)

	if err := player.Play(context.Background(), second, 0); err != nil {
		t.Fatalf("Second Play failed: %v", err)
	}
	if err := <-errCh; !errors.Is(err, ErrSuperseded) {
		t.Errorf("Expected first run to be superseded, got %v", err)
	}

	p := render.DefaultPalette()
	img := surface.Image()
	if got := img.RGBAAt(50, 50); !near(got, p.Wall.R, p.Wall.G, p.Wall.B) {
		t.Errorf("Expected the second grid's wall at (0,0), got %v", got)
	}
	if got := img.RGBAAt(150, 50); !near(got, 255, 255, 255) {
		t.Errorf("Expected no stale tint at (0,1), got %v", got)
	}
	if player.Last() != second {
		t.Error("Expected the second result to be current")
	}
}

func TestPlayHonoursCallerCancel(t *testing.T) {
	player := NewPlayer(newSurface(), InstantClock{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := player.Play(ctx, result(t, "..\n", []grid.Coordinate{{C: 0}}, nil), 0)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestReplay(t *testing.T) {
	surface := newSurface()
	player := NewPlayer(surface, InstantClock{})
	boom := errors.New("solver down")

	solver := &MockSolver{
		RunFunc: func(ctx context.Context, algorithm service.Algorithm, maze string) (*service.SolverResult, error) {
			if maze == "broken.txt" {
				return nil, boom
			}
			return result(t, "S.\n", []grid.Coordinate{{C: 1}}, []grid.Coordinate{{C: 1}}), nil
		},
	}

	err := player.Replay(context.Background(), solver, "broken.txt", service.BFS, 0)
	if !errors.Is(err, boom) {
		t.Errorf("Expected solver error to propagate, got %v", err)
	}
	if player.Last() != nil {
		t.Error("Nothing should be played after a solver failure")
	}

	if err := player.Replay(context.Background(), solver, "ok.txt", service.AStar, 0); err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if got := surface.Image().RGBAAt(150, 50); !near(got, 249, 211, 13) {
		t.Errorf("Expected path tint after replay, got %v", got)
	}
}

func TestRerenderFollowsLayout(t *testing.T) {
	surface := newSurface()
	player := NewPlayer(surface, InstantClock{})

	if err := player.Rerender(context.Background()); !errors.Is(err, ErrNoResult) {
		t.Errorf("Expected ErrNoResult, got %v", err)
	}

	player.WatchLayout(surface)
	res := result(t, "..\n", []grid.Coordinate{{C: 0}}, nil)
	if err := player.Play(context.Background(), res, 0); err != nil {
		t.Fatalf("Play failed: %v", err)
	}

	surface.SetLayout(render.Layout{Width: 420, DPR: 1})

	img := surface.Image()
	if img.Bounds().Dx() != 400 {
		t.Fatalf("Expected 400px raster after layout change, got %v", img.Bounds())
	}
	// 200px cells now.
	if got := img.RGBAAt(100, 100); !near(got, 143, 143, 255) {
		t.Errorf("Expected visited tint re-rendered at the new size, got %v", got)
	}
}

func TestRealClock(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	if err := (RealClock{}).Sleep(ctx, time.Millisecond); err != nil {
		t.Errorf("Expected sleep to complete, got %v", err)
	}
	cancel()
	start := time.Now()
	if err := (RealClock{}).Sleep(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("Cancelled sleep did not return promptly")
	}
}
