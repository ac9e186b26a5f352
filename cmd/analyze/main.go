// Command analyze prints quick, human-readable statistics about maze files:
// dimensions, wall density, dead ends and junctions, the shortest route from
// start to goal, and open cells no route can reach.
//
// With no arguments it analyzes every *.txt file in ./mazes.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wricardo/mazeplay/game/grid"
)

// Analysis holds the statistics for one maze.
type Analysis struct {
	Name        string
	Rows, Cols  int
	Walls       int
	Open        int
	DeadEnds    int
	Junctions   int
	HasStart    bool
	HasGoal     bool
	PathLength  int // grid.Unreachable when the goal cannot be reached
	Farthest    int // largest distance from the start
	Unreachable []grid.Coordinate
}

// WallDensity is the fraction of cells that are walls.
func (a *Analysis) WallDensity() float64 {
	total := a.Rows * a.Cols
	if total == 0 {
		return 0
	}
	return float64(a.Walls) / float64(total)
}

func main() {
	paths := os.Args[1:]
	if len(paths) == 0 {
		matches, err := filepath.Glob(filepath.Join("mazes", "*.txt"))
		if err != nil {
			fmt.Printf("Error finding mazes: %v\n", err)
			os.Exit(1)
		}
		paths = matches
	}

	for _, path := range paths {
		fmt.Printf("\n=== Analyzing %s ===\n", filepath.Base(path))
		a, err := analyzeFile(path)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printAnalysis(os.Stdout, a)
	}
}

func analyzeFile(path string) (*Analysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}
	m, err := grid.Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("error parsing maze: %w", err)
	}
	a := analyzeMaze(m)
	a.Name = filepath.Base(path)
	return a, nil
}

func analyzeMaze(m *grid.Grid) *Analysis {
	a := &Analysis{
		Rows:       m.Rows(),
		Cols:       m.Cols(),
		PathLength: grid.Unreachable,
	}

	var open []grid.Coordinate
	for r := 0; r < m.Rows(); r++ {
		for c := 0; c < m.Cols(); c++ {
			pos := grid.Coordinate{R: r, C: c}
			if m.Get(pos) == grid.Wall {
				a.Walls++
				continue
			}
			open = append(open, pos)
			switch degree := m.OpenDegree(pos); {
			case degree <= 1:
				a.DeadEnds++
			case degree >= 3:
				a.Junctions++
			}
		}
	}
	a.Open = len(open)

	start, hasStart := m.Find(grid.Start)
	goal, hasGoal := m.Find(grid.Goal)
	a.HasStart, a.HasGoal = hasStart, hasGoal
	if !hasStart {
		return a
	}

	dist := m.Distances(start)
	for _, pos := range open {
		d := m.DistanceAt(dist, pos)
		if d == grid.Unreachable {
			a.Unreachable = append(a.Unreachable, pos)
			continue
		}
		if d > a.Farthest {
			a.Farthest = d
		}
	}
	if hasGoal {
		a.PathLength = m.DistanceAt(dist, goal)
	}
	return a
}

func printAnalysis(w io.Writer, a *Analysis) {
	fmt.Fprintf(w, "Name: %s\n", a.Name)
	fmt.Fprintf(w, "Grid Size: %d x %d\n", a.Rows, a.Cols)
	fmt.Fprintf(w, "Walls: %d (%.1f%%)\n", a.Walls, a.WallDensity()*100)
	fmt.Fprintf(w, "Open Cells: %d\n", a.Open)
	fmt.Fprintf(w, "Dead Ends: %d\n", a.DeadEnds)
	fmt.Fprintf(w, "Junctions: %d\n", a.Junctions)

	if !a.HasStart {
		fmt.Fprintf(w, "⚠️  WARNING: maze has no start, routes not analyzed\n")
		return
	}
	fmt.Fprintf(w, "Farthest Cell From Start: %d steps\n", a.Farthest)

	switch {
	case !a.HasGoal:
		fmt.Fprintf(w, "⚠️  WARNING: maze has no goal\n")
	case a.PathLength == grid.Unreachable:
		fmt.Fprintf(w, "⚠️  CRITICAL: goal is unreachable from start!\n")
	default:
		fmt.Fprintf(w, "✅ Shortest path: %d steps\n", a.PathLength)
	}

	if len(a.Unreachable) > 0 {
		fmt.Fprintf(w, "⚠️  WARNING: %d open cells are unreachable from start!\n", len(a.Unreachable))
		for i, p := range a.Unreachable {
			if i < 5 { // Show first 5 unreachable cells
				fmt.Fprintf(w, "   Unreachable: %s\n", p)
			}
		}
		if len(a.Unreachable) > 5 {
			fmt.Fprintf(w, "   ... and %d more\n", len(a.Unreachable)-5)
		}
	} else {
		fmt.Fprintf(w, "✅ All open cells are reachable from start\n")
	}
}
