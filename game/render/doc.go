// Package render rasterizes a maze grid onto a square 2D surface.
//
// The render package implements:
//   - Fitting the surface to its container, capped at a maximum edge
//   - Device pixel ratio scaling of the backing raster
//   - Per-cell layering: base fill, start/goal marker, visited tint, path
//     tint, border stroke
//   - The pointer-to-cell inverse mapping used by the editor
//   - Layout observers that re-render when the container changes
//   - Fixed-size gallery thumbnails and static comparison traces
//
// Geometry:
//
// The logical edge of the surface is min(container width - padding, max
// size). The backing raster is that edge times the device pixel ratio, and
// the drawing transform is scaled by the same ratio so cells are addressed
// in logical pixels. A cell's logical edge is backing width ÷ ratio ÷
// columns; CellAt uses exactly this value so hit-testing never drifts from
// what is drawn.
//
// Usage:
//
//	s := render.NewSurface(render.Options{}, render.Layout{Width: 640, DPR: 2})
//	s.Draw(g)
//	s.PaintCell(grid.Coordinate{R: 1, C: 1}, render.LayerVisited)
//	s.PaintMarkers()
//	err := s.EncodePNG(w)
//
// Drawing is done with github.com/fogleman/gg. All Surface methods are safe
// for concurrent use.
package render
