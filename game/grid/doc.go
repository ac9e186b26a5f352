// Package grid provides the cell-state container shared by every part of the
// maze client.
//
// The grid package implements:
//   - The four cell symbols (empty, wall, start, goal)
//   - Bounds-checked cell access by Coordinate
//   - Start/goal placement that keeps at most one of each marker
//   - The newline-separated text format used by the maze store
//   - The JSON forms emitted by the solver
//
// Core Types:
//
// Grid is a rows × cols matrix of Symbol values. Coordinate identifies a cell
// by row and column and is used uniformly for grid indices, visited cells and
// path cells.
//
// Usage:
//
//	g, err := grid.New(15, 15)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	g.Set(grid.Coordinate{R: 0, C: 0}, grid.Wall)
//	g.Place(grid.Start, grid.Coordinate{R: 1, C: 1})
//
//	text := g.String()
//	parsed, err := grid.Parse(text)
//
// Errors:
//
// Out-of-range access and unknown symbols passed to Set are programming
// errors and panic. Parse and JSON decoding report malformed input through
// ErrRaggedRows, ErrInvalidSymbol and ErrEmptyGrid.
package grid
