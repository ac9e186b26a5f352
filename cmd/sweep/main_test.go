package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/wricardo/mazeplay/api"
	"github.com/wricardo/mazeplay/game/grid"
	"github.com/wricardo/mazeplay/game/service"
	"github.com/wricardo/mazeplay/game/session"
)

// memStore is an in-memory service.MazeStore.
type memStore struct {
	mu    sync.Mutex
	mazes map[string]string
}

func (s *memStore) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for name := range s.mazes {
		names = append(names, name)
	}
	return names, nil
}

func (s *memStore) Get(ctx context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	contents, ok := s.mazes[name]
	if !ok {
		return "", service.ErrMazeNotFound
	}
	return contents, nil
}

func (s *memStore) Upload(ctx context.Context, filename, contents string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mazes[filename] = contents
	return nil
}

func (s *memStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.mazes, name)
	return nil
}

// fakeSolver answers from the stored maze: visited is every open cell and
// the path is the start cell. dfs always fails.
type fakeSolver struct {
	store *memStore
}

func (f *fakeSolver) Run(ctx context.Context, algorithm service.Algorithm, maze string) (*service.SolverResult, error) {
	if algorithm == service.DFS {
		return nil, errors.New("solver crashed")
	}
	contents, err := f.store.Get(ctx, maze)
	if err != nil {
		return nil, err
	}
	g, err := grid.Parse(contents)
	if err != nil {
		return nil, err
	}
	result := &service.SolverResult{Grid: g}
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			pos := grid.Coordinate{R: r, C: c}
			if g.Get(pos).Open() {
				result.Visited = append(result.Visited, pos)
			}
		}
	}
	start, _ := g.Find(grid.Start)
	result.Path = []grid.Coordinate{start}
	return result, nil
}

func setupServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	store := &memStore{mazes: map[string]string{}}
	catalog := service.NewCatalog(store, &fakeSolver{store: store})
	server := httptest.NewServer(api.NewServer(catalog, session.NewManager(store), nil, nil))
	t.Cleanup(server.Close)
	return server, store
}

func TestSweep(t *testing.T) {
	server, store := setupServer(t)

	var out bytes.Buffer
	summaries, err := sweep(context.Background(), NewClient(server.URL), options{
		rows: 7, cols: 7, from: 1, to: 3, prefix: "t-",
	}, &out)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}

	if len(summaries) != 4 {
		t.Fatalf("Expected 4 algorithms, got %d", len(summaries))
	}
	if summaries[0].Algorithm != "astar" || summaries[3].Algorithm != "greedy" {
		t.Errorf("Expected summaries sorted by name, got %s..%s", summaries[0].Algorithm, summaries[3].Algorithm)
	}

	for _, s := range summaries {
		if s.Algorithm == "dfs" {
			if s.Failures != 3 || s.Runs != 0 {
				t.Errorf("Expected dfs to fail 3 times, got %+v", s)
			}
			continue
		}
		if s.Runs != 3 || s.Failures != 0 {
			t.Errorf("Expected 3 runs for %s, got %+v", s.Algorithm, s)
		}
		if s.MeanPath() != 1 {
			t.Errorf("Expected mean path 1 for %s, got %f", s.Algorithm, s.MeanPath())
		}
		if s.MeanVisited() <= 1 {
			t.Errorf("Expected visited cells for %s, got %f", s.Algorithm, s.MeanVisited())
		}
	}

	for _, name := range []string{"t-1.txt:", "t-2.txt:", "t-3.txt:", "dfs=error"} {
		if !strings.Contains(out.String(), name) {
			t.Errorf("Expected %q in output:\n%s", name, out.String())
		}
	}

	if len(store.mazes) != 0 {
		t.Errorf("Expected generated mazes to be deleted, got %d", len(store.mazes))
	}
}

func TestSweepKeep(t *testing.T) {
	server, store := setupServer(t)

	_, err := sweep(context.Background(), NewClient(server.URL), options{
		rows: 5, cols: 5, from: 10, to: 11, prefix: "k-", keep: true,
	}, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if _, ok := store.mazes["k-10.txt"]; !ok {
		t.Error("Expected k-10.txt to be kept")
	}
	if len(store.mazes) != 2 {
		t.Errorf("Expected 2 kept mazes, got %d", len(store.mazes))
	}
}

func TestSweepErrors(t *testing.T) {
	server, _ := setupServer(t)
	client := NewClient(server.URL)

	if _, err := sweep(context.Background(), client, options{rows: 5, cols: 5, from: 3, to: 1}, &bytes.Buffer{}); err == nil {
		t.Error("Expected error for an empty seed range")
	}

	// 1000 rows is rejected by the server for every seed.
	_, err := sweep(context.Background(), client, options{rows: 1000, cols: 5, from: 1, to: 2, prefix: "x-"}, &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "all 2 seeds failed") {
		t.Errorf("Expected all seeds to fail, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sweep(ctx, client, options{rows: 5, cols: 5, from: 1, to: 1}, &bytes.Buffer{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestClientErrorMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/json" {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"invalid mode"}`))
			return
		}
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	err := client.do(context.Background(), "GET", "/json", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "invalid mode") {
		t.Errorf("Expected JSON error message, got %v", err)
	}
	err = client.do(context.Background(), "GET", "/text", nil, nil)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("Expected text error body, got %v", err)
	}
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, []*Summary{
		{Algorithm: "bfs", Runs: 2, Visited: 30, PathLen: 10},
		{Algorithm: "dfs", Runs: 2, NoPath: 2, Visited: 8},
	})

	for _, want := range []string{"bfs           2      0        0       15.0      5.0", "dfs           2      0        2        4.0      0.0"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("Expected %q in:\n%s", want, out.String())
		}
	}
}
