package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/wricardo/mazeplay/game/grid"
	"github.com/wricardo/mazeplay/game/service"
)

// MockStore implements service.MazeStore for testing
type MockStore struct {
	ListFunc   func(ctx context.Context) ([]string, error)
	GetFunc    func(ctx context.Context, name string) (string, error)
	UploadFunc func(ctx context.Context, filename, contents string) error
	DeleteFunc func(ctx context.Context, name string) error
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *MockStore) Get(ctx context.Context, name string) (string, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, name)
	}
	return "", service.ErrMazeNotFound
}

func (m *MockStore) Upload(ctx context.Context, filename, contents string) error {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, filename, contents)
	}
	return nil
}

func (m *MockStore) Delete(ctx context.Context, name string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, name)
	}
	return nil
}

// MockSolver implements service.Solver for testing
type MockSolver struct {
	RunFunc func(ctx context.Context, algorithm service.Algorithm, maze string) (*service.SolverResult, error)
}

func (m *MockSolver) Run(ctx context.Context, algorithm service.Algorithm, maze string) (*service.SolverResult, error) {
	if m.RunFunc != nil {
		return m.RunFunc(ctx, algorithm, maze)
	}
	return nil, errors.New("not implemented")
}

const smallMaze = "#####\n#S..#\n###.#\n#G..#\n#####\n"

func TestParseAlgorithm(t *testing.T) {
	tests := []struct {
		input string
		want  service.Algorithm
		ok    bool
	}{
		{"bfs", service.BFS, true},
		{"DFS", service.DFS, true},
		{" Greedy ", service.Greedy, true},
		{"astar", service.AStar, true},
		{"dijkstra", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := service.ParseAlgorithm(tt.input)
			if tt.ok {
				if err != nil || got != tt.want {
					t.Errorf("ParseAlgorithm(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
				}
				return
			}
			if !errors.Is(err, service.ErrUnknownAlgorithm) {
				t.Errorf("Expected ErrUnknownAlgorithm, got %v", err)
			}
		})
	}
}

func TestValidateFilename(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"maze.txt", true},
		{"maze_01.txt", true},
		{"maze", false},
		{".txt", false},
		{"", false},
		{"../maze.txt", false},
		{"dir/maze.txt", false},
		{`dir\maze.txt`, false},
		{"maze.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateFilename(tt.name)
			if tt.valid && err != nil {
				t.Errorf("Expected %q to be valid, got %v", tt.name, err)
			}
			if !tt.valid && !errors.Is(err, service.ErrInvalidFilename) {
				t.Errorf("Expected ErrInvalidFilename for %q, got %v", tt.name, err)
			}
		})
	}
}

func TestSolverResultValidate(t *testing.T) {
	g, _ := grid.Parse(smallMaze)

	var nilResult *service.SolverResult
	if err := nilResult.Validate(); !errors.Is(err, service.ErrMalformedResult) {
		t.Errorf("Expected ErrMalformedResult for nil result, got %v", err)
	}

	ok := &service.SolverResult{Grid: g, Visited: []grid.Coordinate{{R: 1, C: 1}}, Path: []grid.Coordinate{{R: 1, C: 2}}}
	if err := ok.Validate(); err != nil {
		t.Errorf("Expected valid result, got %v", err)
	}

	outside := &service.SolverResult{Grid: g, Path: []grid.Coordinate{{R: 9, C: 0}}}
	if err := outside.Validate(); !errors.Is(err, service.ErrMalformedResult) {
		t.Errorf("Expected ErrMalformedResult for out-of-range path, got %v", err)
	}
}

func TestCatalog_Upload(t *testing.T) {
	var uploaded string
	store := &MockStore{
		UploadFunc: func(ctx context.Context, filename, contents string) error {
			uploaded = filename + ":" + contents
			return nil
		},
	}
	catalog := service.NewCatalog(store, &MockSolver{})
	ctx := context.Background()

	if err := catalog.Upload(ctx, "small.txt", strings.ReplaceAll(smallMaze, "\n", "\r\n")); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if uploaded != "small.txt:"+smallMaze {
		t.Errorf("Expected normalized contents to be uploaded, got %q", uploaded)
	}

	tests := []struct {
		name     string
		filename string
		contents string
		want     error
	}{
		{"bad filename", "small", smallMaze, service.ErrInvalidFilename},
		{"bad symbol", "bad.txt", "#x#\n", grid.ErrInvalidSymbol},
		{"ragged", "ragged.txt", "###\n##\n", grid.ErrRaggedRows},
		{"two starts", "two.txt", "SS\nG.\n", grid.ErrDuplicateMarker},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := catalog.Upload(ctx, tt.filename, tt.contents)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
			if !service.IsInputError(err) {
				t.Errorf("Expected input error, got %v", err)
			}
		})
	}
}

func TestCatalog_MazeMalformed(t *testing.T) {
	store := &MockStore{
		GetFunc: func(ctx context.Context, name string) (string, error) {
			return "#?#\n", nil
		},
	}
	catalog := service.NewCatalog(store, &MockSolver{})

	_, err := catalog.Maze(context.Background(), "odd.txt")
	if !errors.Is(err, service.ErrMalformedResult) {
		t.Errorf("Expected ErrMalformedResult, got %v", err)
	}
	if service.IsInputError(err) {
		t.Error("Stored maze parse failure should not be an input error")
	}
}

func TestCatalog_GalleryPartialFailure(t *testing.T) {
	store := &MockStore{
		ListFunc: func(ctx context.Context) ([]string, error) {
			return []string{"c.txt", "a.txt", "b.txt"}, nil
		},
		GetFunc: func(ctx context.Context, name string) (string, error) {
			if name == "b.txt" {
				return "", errors.New("storage offline")
			}
			return smallMaze, nil
		},
	}
	catalog := service.NewCatalog(store, &MockSolver{})

	entries, err := catalog.Gallery(context.Background())
	if err != nil {
		t.Fatalf("Gallery failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Name != "a.txt" || entries[2].Name != "c.txt" {
		t.Errorf("Expected sorted entries, got %s..%s", entries[0].Name, entries[2].Name)
	}
	if entries[1].Error == "" || entries[1].Grid != nil {
		t.Errorf("Expected b.txt to carry its error, got %+v", entries[1])
	}
	if entries[0].Grid == nil || entries[0].Rows != 5 || entries[0].Cols != 5 {
		t.Errorf("Expected a.txt to load as 5x5, got %+v", entries[0])
	}
}

func TestCatalog_GalleryListFailure(t *testing.T) {
	store := &MockStore{
		ListFunc: func(ctx context.Context) ([]string, error) {
			return nil, errors.New("boom")
		},
	}
	catalog := service.NewCatalog(store, &MockSolver{})
	if _, err := catalog.Gallery(context.Background()); err == nil {
		t.Error("Expected list failure to fail the gallery")
	}
}

func TestCatalog_CompareFanOut(t *testing.T) {
	g, _ := grid.Parse(smallMaze)
	var (
		mu      sync.Mutex
		running int32
		peak    int32
	)
	solver := &MockSolver{
		RunFunc: func(ctx context.Context, algorithm service.Algorithm, maze string) (*service.SolverResult, error) {
			n := atomic.AddInt32(&running, 1)
			defer atomic.AddInt32(&running, -1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()

			switch algorithm {
			case service.DFS:
				return nil, errors.New("solver crashed")
			case service.Greedy:
				return &service.SolverResult{Grid: g, Path: []grid.Coordinate{{R: 40, C: 40}}}, nil
			}
			return &service.SolverResult{
				Grid:    g,
				Visited: []grid.Coordinate{{R: 1, C: 1}, {R: 1, C: 2}},
				Path:    []grid.Coordinate{{R: 1, C: 1}},
			}, nil
		},
	}
	catalog := service.NewCatalog(&MockStore{}, solver)
	catalog.SetFanOut(2)

	out, err := catalog.Compare(context.Background(), "small.txt")
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("Expected 4 comparisons, got %d", len(out))
	}
	for i, algo := range service.Algorithms() {
		if out[i].Algorithm != algo {
			t.Errorf("Expected %s at %d, got %s", algo, i, out[i].Algorithm)
		}
	}
	if out[0].Error != "" || out[0].Visited != 2 || out[0].PathLen != 1 {
		t.Errorf("Unexpected bfs comparison %+v", out[0])
	}
	if out[1].Error == "" {
		t.Error("Expected dfs to report its failure")
	}
	if !strings.Contains(out[2].Error, "malformed") {
		t.Errorf("Expected greedy to report a malformed result, got %q", out[2].Error)
	}
	if peak > 2 {
		t.Errorf("Expected at most 2 concurrent solver calls, got %d", peak)
	}
}

func TestCatalog_CompareRejectsBadName(t *testing.T) {
	catalog := service.NewCatalog(&MockStore{}, &MockSolver{})
	if _, err := catalog.Compare(context.Background(), "../etc"); !errors.Is(err, service.ErrInvalidFilename) {
		t.Errorf("Expected ErrInvalidFilename, got %v", err)
	}
}
