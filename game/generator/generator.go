// Package generator carves perfect mazes into a grid with a randomized
// recursive backtracker on the odd-parity lattice, then places the start and
// goal markers near opposite corners.
package generator

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/wricardo/mazeplay/game/grid"
)

// Generator produces mazes from a seeded random source. Reusing a Generator
// continues its random sequence; two Generators created with the same seed
// produce the same mazes in the same order.
type Generator struct {
	seed int64
	rng  *rand.Rand
}

// New returns a Generator. If seed is not positive, a seed is chosen from the
// current time in nanoseconds.
func New(seed int64) *Generator {
	if seed <= 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Seed returns the seed the Generator was created with.
func (g *Generator) Seed() int64 { return g.seed }

// Generate replaces the contents of m with a freshly carved maze and places
// the start and goal markers.
func (g *Generator) Generate(m *grid.Grid) {
	Carve(m, g.rng)
	PlaceEndpoints(m)
}

// NewMaze allocates a rows × cols grid and generates a maze in it.
func (g *Generator) NewMaze(rows, cols int) (*grid.Grid, error) {
	m, err := grid.New(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate maze: %w", err)
	}
	g.Generate(m)
	return m, nil
}

// 2-step moves on the lattice: up, down, left, right.
var latticeSteps = [4]grid.Coordinate{{R: -2}, {R: 2}, {C: -2}, {C: 2}}

// Carve fills m with walls and carves a perfect maze with a depth-first
// backtracker. Corridors run between lattice cells two steps apart, so the
// outer border is never opened.
func Carve(m *grid.Grid, rng *rand.Rand) {
	rows, cols := m.Rows(), m.Cols()
	m.Fill(grid.Wall)

	interior := func(c grid.Coordinate) bool {
		return c.R > 0 && c.R < rows-1 && c.C > 0 && c.C < cols-1
	}

	first := grid.Coordinate{
		R: latticePick(rng, rows),
		C: latticePick(rng, cols),
	}
	m.Set(first, grid.Empty)
	stack := []grid.Coordinate{first}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]

		dirs := latticeSteps
		rng.Shuffle(len(dirs), func(i, j int) { dirs[i], dirs[j] = dirs[j], dirs[i] })

		carved := false
		for _, d := range dirs {
			next := cur.Add(d.R, d.C)
			if !interior(next) || m.Get(next) != grid.Wall {
				continue
			}
			m.Set(cur.Add(d.R/2, d.C/2), grid.Empty)
			m.Set(next, grid.Empty)
			stack = append(stack, next)
			carved = true
			break
		}

		if !carved {
			stack = stack[:len(stack)-1]
		}
	}
}

// latticePick returns a random odd index below n-1. A pick on or past the
// last row/column falls back to the largest odd index before it, so carving
// stays on the odd lattice for even sizes and the border stays closed. Grids
// too small to have an interior get 0.
func latticePick(rng *rand.Rand, n int) int {
	v := int(rng.Float64()*float64(n)/2)*2 + 1
	if v > n-2 {
		v = n - 2
		if v%2 == 0 {
			v--
		}
	}
	if v < 0 {
		v = 0
	}
	return v
}

// PlaceEndpoints clears existing markers and puts the start on the empty
// cell nearest (1,1) and the goal on the empty cell nearest
// (rows-2, cols-2). When the goal search lands on the start, the grid is
// scanned from the bottom-right for any other empty cell; if none exists the
// goal goes on a neighbour of the start. A 1×1 grid gets no goal.
func PlaceEndpoints(m *grid.Grid) {
	m.Replace(grid.Start, grid.Empty)
	m.Replace(grid.Goal, grid.Empty)

	start, _ := nearestEmpty(m, clampInto(m, grid.Coordinate{R: 1, C: 1}))
	m.Set(start, grid.Start)

	goal, ok := nearestEmpty(m, clampInto(m, grid.Coordinate{R: m.Rows() - 2, C: m.Cols() - 2}))
	if !ok || goal == start {
		goal, ok = reverseScan(m, start)
	}
	if !ok {
		goal, ok = neighborOf(m, start)
	}
	if !ok {
		return
	}
	m.Set(goal, grid.Goal)
}

// nearestEmpty runs a breadth-first search over every cell from anchor and
// returns the first Empty cell found. If none is reachable the anchor is
// returned with ok reporting whether it is itself Empty.
func nearestEmpty(m *grid.Grid, anchor grid.Coordinate) (grid.Coordinate, bool) {
	if m.Get(anchor) == grid.Empty {
		return anchor, true
	}

	seen := make(map[grid.Coordinate]bool, m.Rows()*m.Cols())
	seen[anchor] = true
	queue := []grid.Coordinate{anchor}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, step := range grid.Neighbors4 {
			next := cur.Add(step.R, step.C)
			if !m.In(next) || seen[next] {
				continue
			}
			if m.Get(next) == grid.Empty {
				return next, true
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return anchor, false
}

// reverseScan walks bottom-right to top-left for an Empty cell other than skip.
func reverseScan(m *grid.Grid, skip grid.Coordinate) (grid.Coordinate, bool) {
	for r := m.Rows() - 1; r >= 0; r-- {
		for c := m.Cols() - 1; c >= 0; c-- {
			pos := grid.Coordinate{R: r, C: c}
			if pos != skip && m.Get(pos) == grid.Empty {
				return pos, true
			}
		}
	}
	return grid.Coordinate{}, false
}

// neighborOf returns the first in-bounds 4-neighbour of c.
func neighborOf(m *grid.Grid, c grid.Coordinate) (grid.Coordinate, bool) {
	for _, step := range grid.Neighbors4 {
		next := c.Add(step.R, step.C)
		if m.In(next) {
			return next, true
		}
	}
	return grid.Coordinate{}, false
}

func clampInto(m *grid.Grid, c grid.Coordinate) grid.Coordinate {
	c.R = max(0, min(c.R, m.Rows()-1))
	c.C = max(0, min(c.C, m.Cols()-1))
	return c
}
