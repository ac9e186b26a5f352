package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wricardo/mazeplay/game/grid"
)

var (
	ErrInvalidFilename  = errors.New("invalid maze filename")
	ErrUnknownAlgorithm = errors.New("unknown algorithm")
	ErrMalformedResult  = errors.New("malformed collaborator response")
	ErrMazeNotFound     = errors.New("maze not found")
)

// MazeExtension is the suffix every stored maze name carries.
const MazeExtension = ".txt"

// Algorithm identifies a search strategy run by the solver collaborator.
type Algorithm string

const (
	BFS    Algorithm = "bfs"
	DFS    Algorithm = "dfs"
	Greedy Algorithm = "greedy"
	AStar  Algorithm = "astar"
)

// Algorithms returns every algorithm the solver understands, in display order.
func Algorithms() []Algorithm {
	return []Algorithm{BFS, DFS, Greedy, AStar}
}

// ParseAlgorithm accepts an algorithm identifier case-insensitively.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Algorithms() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q (valid: bfs, dfs, greedy, astar)", ErrUnknownAlgorithm, s)
}

// SolverResult is the trace returned by the solver for one maze and
// algorithm. Visited lists cells in the order the search examined them;
// Path is the final route and is empty when no route was found.
type SolverResult struct {
	Grid    *grid.Grid        `json:"grid"`
	Visited []grid.Coordinate `json:"visited"`
	Path    []grid.Coordinate `json:"path"`
}

// Validate checks shape only: a grid is present and every coordinate lies
// inside it. The contents are trusted.
func (r *SolverResult) Validate() error {
	if r == nil || r.Grid == nil {
		return fmt.Errorf("%w: missing grid", ErrMalformedResult)
	}
	for i, c := range r.Visited {
		if !r.Grid.In(c) {
			return fmt.Errorf("%w: visited[%d] %s outside %dx%d", ErrMalformedResult, i, c, r.Grid.Rows(), r.Grid.Cols())
		}
	}
	for i, c := range r.Path {
		if !r.Grid.In(c) {
			return fmt.Errorf("%w: path[%d] %s outside %dx%d", ErrMalformedResult, i, c, r.Grid.Rows(), r.Grid.Cols())
		}
	}
	return nil
}

// MazeStore is the storage collaborator holding named maze files.
type MazeStore interface {
	List(ctx context.Context) ([]string, error)
	Get(ctx context.Context, name string) (string, error)
	Upload(ctx context.Context, filename, contents string) error
	Delete(ctx context.Context, name string) error
}

// Solver is the search collaborator.
type Solver interface {
	Run(ctx context.Context, algorithm Algorithm, maze string) (*SolverResult, error)
}

// ValidateMazeName rejects names that could escape the store directory.
func ValidateMazeName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidFilename)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: %q contains '..'", ErrInvalidFilename, name)
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidFilename, name)
	}
	return nil
}

// ValidateFilename checks a name for upload: a plain name ending in
// MazeExtension.
func ValidateFilename(name string) error {
	if err := ValidateMazeName(name); err != nil {
		return err
	}
	if !strings.HasSuffix(name, MazeExtension) || len(name) == len(MazeExtension) {
		return fmt.Errorf("%w: %q must end with %s", ErrInvalidFilename, name, MazeExtension)
	}
	return nil
}
