package grid

import "fmt"

// Symbol is the state of a single cell.
type Symbol byte

const (
	Empty Symbol = '.'
	Wall  Symbol = '#'
	Start Symbol = 'S'
	Goal  Symbol = 'G'
)

// Valid reports whether s is one of the four cell symbols.
func (s Symbol) Valid() bool {
	switch s {
	case Empty, Wall, Start, Goal:
		return true
	}
	return false
}

// Open reports whether the cell can be walked through.
func (s Symbol) Open() bool {
	return s.Valid() && s != Wall
}

func (s Symbol) String() string {
	switch s {
	case Empty:
		return "empty"
	case Wall:
		return "wall"
	case Start:
		return "start"
	case Goal:
		return "goal"
	}
	return fmt.Sprintf("Unknown symbol: %q", byte(s))
}

// Coordinate identifies a cell by row and column.
type Coordinate struct {
	R int `json:"r"`
	C int `json:"c"`
}

// Add returns the coordinate offset by dr rows and dc columns.
func (c Coordinate) Add(dr, dc int) Coordinate {
	return Coordinate{R: c.R + dr, C: c.C + dc}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.R, c.C)
}

// Neighbors4 are the unit offsets for 4-directional movement: down, up,
// right, left.
var Neighbors4 = [4]Coordinate{{R: 1}, {R: -1}, {C: 1}, {C: -1}}
