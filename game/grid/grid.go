package grid

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSize     = errors.New("rows and cols must be at least 1")
	ErrInvalidSymbol   = errors.New("invalid cell symbol")
	ErrRaggedRows      = errors.New("rows have different lengths")
	ErrEmptyGrid       = errors.New("grid has no rows")
	ErrDuplicateMarker = errors.New("more than one start or goal cell")
)

// Grid is a rows × cols matrix of cell symbols stored row-major.
type Grid struct {
	rows  int
	cols  int
	cells []Symbol
}

// New creates a grid with every cell set to Empty.
func New(rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidSize, rows, cols)
	}
	count := rows * cols
	// Check for overflow.
	if count <= 0 || count/cols != rows {
		return nil, fmt.Errorf("%w: %dx%d is too big", ErrInvalidSize, rows, cols)
	}
	g := &Grid{
		rows:  rows,
		cols:  cols,
		cells: make([]Symbol, count),
	}
	g.Fill(Empty)
	return g, nil
}

// MustNew is New for sizes known to be valid.
func MustNew(rows, cols int) *Grid {
	g, err := New(rows, cols)
	if err != nil {
		panic(err)
	}
	return g
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// In reports whether c lies inside the grid.
func (g *Grid) In(c Coordinate) bool {
	return c.R >= 0 && c.R < g.rows && c.C >= 0 && c.C < g.cols
}

func (g *Grid) index(c Coordinate) int {
	if !g.In(c) {
		panic(fmt.Sprintf("grid: coordinate %s outside %dx%d", c, g.rows, g.cols))
	}
	return c.R*g.cols + c.C
}

// Get returns the symbol at c. Panics if c is out of range.
func (g *Grid) Get(c Coordinate) Symbol {
	return g.cells[g.index(c)]
}

// Set stores s at c. Panics if c is out of range or s is not a valid symbol.
func (g *Grid) Set(c Coordinate, s Symbol) {
	if !s.Valid() {
		panic(fmt.Sprintf("grid: %v", s))
	}
	g.cells[g.index(c)] = s
}

// Fill sets every cell to s.
func (g *Grid) Fill(s Symbol) {
	if !s.Valid() {
		panic(fmt.Sprintf("grid: %v", s))
	}
	for i := range g.cells {
		g.cells[i] = s
	}
}

// Replace rewrites every cell holding from to hold to, returning how many
// cells changed.
func (g *Grid) Replace(from, to Symbol) int {
	if !to.Valid() {
		panic(fmt.Sprintf("grid: %v", to))
	}
	n := 0
	for i, s := range g.cells {
		if s == from {
			g.cells[i] = to
			n++
		}
	}
	return n
}

// Place clears any other cell holding s, then sets c to s. Used for the
// start and goal markers so at most one of each exists.
func (g *Grid) Place(s Symbol, c Coordinate) {
	if !g.In(c) {
		panic(fmt.Sprintf("grid: coordinate %s outside %dx%d", c, g.rows, g.cols))
	}
	g.Replace(s, Empty)
	g.Set(c, s)
}

// Count returns the number of cells holding s.
func (g *Grid) Count(s Symbol) int {
	n := 0
	for _, v := range g.cells {
		if v == s {
			n++
		}
	}
	return n
}

// Find returns the first cell in row-major order holding s.
func (g *Grid) Find(s Symbol) (Coordinate, bool) {
	for i, v := range g.cells {
		if v == s {
			return Coordinate{R: i / g.cols, C: i % g.cols}, true
		}
	}
	return Coordinate{}, false
}

// Row returns a copy of row r.
func (g *Grid) Row(r int) []Symbol {
	g.index(Coordinate{R: r})
	out := make([]Symbol, g.cols)
	copy(out, g.cells[r*g.cols:(r+1)*g.cols])
	return out
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	cells := make([]Symbol, len(g.cells))
	copy(cells, g.cells)
	return &Grid{rows: g.rows, cols: g.cols, cells: cells}
}

// CopyFrom replaces g's size and contents with other's.
func (g *Grid) CopyFrom(other *Grid) {
	g.rows = other.rows
	g.cols = other.cols
	g.cells = make([]Symbol, len(other.cells))
	copy(g.cells, other.cells)
}

// Equal reports whether both grids have the same size and contents.
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.rows != other.rows || g.cols != other.cols {
		return false
	}
	for i := range g.cells {
		if g.cells[i] != other.cells[i] {
			return false
		}
	}
	return true
}

// Validate checks the marker invariant: at most one start and one goal.
func (g *Grid) Validate() error {
	if n := g.Count(Start); n > 1 {
		return fmt.Errorf("%w: %d start cells", ErrDuplicateMarker, n)
	}
	if n := g.Count(Goal); n > 1 {
		return fmt.Errorf("%w: %d goal cells", ErrDuplicateMarker, n)
	}
	return nil
}
