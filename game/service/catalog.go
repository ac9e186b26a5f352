package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/wricardo/mazeplay/game/grid"
)

// DefaultFanOut bounds concurrent collaborator calls made for one gallery or
// comparison request.
const DefaultFanOut = 4

// GalleryEntry is one stored maze. Grid is nil and Error is set when the maze
// could not be fetched or parsed.
type GalleryEntry struct {
	Name  string     `json:"name"`
	Grid  *grid.Grid `json:"grid,omitempty"`
	Rows  int        `json:"rows,omitempty"`
	Cols  int        `json:"cols,omitempty"`
	Error string     `json:"error,omitempty"`
}

// Comparison is one algorithm's trace for a maze.
type Comparison struct {
	Algorithm Algorithm     `json:"algorithm"`
	Result    *SolverResult `json:"result,omitempty"`
	Visited   int           `json:"visited"`
	PathLen   int           `json:"path_length"`
	Error     string        `json:"error,omitempty"`
}

// Catalog sits between the transports and the storage and solver
// collaborators. It validates names before they leave the process and fans
// batch requests out so that one failing item never blocks the rest.
type Catalog struct {
	store  MazeStore
	solver Solver
	fanOut int
}

// NewCatalog creates a catalog over the given collaborators.
func NewCatalog(store MazeStore, solver Solver) *Catalog {
	return &Catalog{
		store:  store,
		solver: solver,
		fanOut: DefaultFanOut,
	}
}

// SetFanOut changes the concurrency bound. Values below 1 are ignored.
func (c *Catalog) SetFanOut(n int) {
	if n >= 1 {
		c.fanOut = n
	}
}

// Store returns the storage collaborator.
func (c *Catalog) Store() MazeStore { return c.store }

// Solver returns the solver collaborator.
func (c *Catalog) Solver() Solver { return c.solver }

// Names lists stored mazes sorted by name.
func (c *Catalog) Names(ctx context.Context) ([]string, error) {
	names, err := c.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list mazes: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// Maze fetches and parses one stored maze.
func (c *Catalog) Maze(ctx context.Context, name string) (*grid.Grid, error) {
	if err := ValidateMazeName(name); err != nil {
		return nil, err
	}
	contents, err := c.store.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch maze %s: %w", name, err)
	}
	g, err := grid.Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("%w: maze %s: %v", ErrMalformedResult, name, err)
	}
	return g, nil
}

// Upload checks the filename and contents, then stores the maze.
func (c *Catalog) Upload(ctx context.Context, filename, contents string) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	g, err := grid.Parse(contents)
	if err != nil {
		return fmt.Errorf("maze %s: %w", filename, err)
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("maze %s: %w", filename, err)
	}
	if err := c.store.Upload(ctx, filename, g.String()); err != nil {
		return fmt.Errorf("failed to upload maze %s: %w", filename, err)
	}
	return nil
}

// Delete removes a stored maze.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	if err := ValidateMazeName(name); err != nil {
		return err
	}
	if err := c.store.Delete(ctx, name); err != nil {
		return fmt.Errorf("failed to delete maze %s: %w", name, err)
	}
	return nil
}

// Solve runs one algorithm against a stored maze and checks the result shape.
func (c *Catalog) Solve(ctx context.Context, algorithm Algorithm, name string) (*SolverResult, error) {
	if err := ValidateMazeName(name); err != nil {
		return nil, err
	}
	result, err := c.solver.Run(ctx, algorithm, name)
	if err != nil {
		return nil, fmt.Errorf("solver %s on %s: %w", algorithm, name, err)
	}
	if err := result.Validate(); err != nil {
		return nil, fmt.Errorf("solver %s on %s: %w", algorithm, name, err)
	}
	return result, nil
}

// Gallery lists every stored maze and fetches them concurrently. A maze that
// fails to load is reported on its entry and logged; only a failure to list
// fails the whole call.
func (c *Catalog) Gallery(ctx context.Context) ([]GalleryEntry, error) {
	names, err := c.Names(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]GalleryEntry, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fanOut)
	for i, name := range names {
		entries[i].Name = name
		g.Go(func() error {
			m, err := c.Maze(gctx, name)
			if err != nil {
				log.Printf("[GALLERY] skip name=%s err=%v", name, err)
				entries[i].Error = err.Error()
				return nil
			}
			entries[i].Grid = m
			entries[i].Rows = m.Rows()
			entries[i].Cols = m.Cols()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Compare runs every algorithm against one maze concurrently. Each
// algorithm succeeds or fails on its own.
func (c *Catalog) Compare(ctx context.Context, name string) ([]Comparison, error) {
	if err := ValidateMazeName(name); err != nil {
		return nil, err
	}

	algos := Algorithms()
	out := make([]Comparison, len(algos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.fanOut)
	for i, algo := range algos {
		out[i].Algorithm = algo
		g.Go(func() error {
			result, err := c.Solve(gctx, algo, name)
			if err != nil {
				log.Printf("[COMPARE] skip maze=%s algo=%s err=%v", name, algo, err)
				out[i].Error = err.Error()
				return nil
			}
			out[i].Result = result
			out[i].Visited = len(result.Visited)
			out[i].PathLen = len(result.Path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if allFailed(out) && ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return out, nil
}

func allFailed(out []Comparison) bool {
	for _, c := range out {
		if c.Error == "" {
			return false
		}
	}
	return true
}

// IsInputError reports whether err was caused by caller input rather than a
// collaborator.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidFilename) ||
		errors.Is(err, ErrUnknownAlgorithm) ||
		errors.Is(err, grid.ErrInvalidSymbol) ||
		errors.Is(err, grid.ErrRaggedRows) ||
		errors.Is(err, grid.ErrEmptyGrid) ||
		errors.Is(err, grid.ErrDuplicateMarker) ||
		errors.Is(err, grid.ErrInvalidSize)
}
