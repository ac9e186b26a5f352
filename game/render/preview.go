package render

import (
	"image"
	"math"

	"github.com/fogleman/gg"

	"github.com/wricardo/mazeplay/game/grid"
)

// Preview renders g into a fixed width × height thumbnail. Cells are square,
// sized to the largest whole pixel count that fits both dimensions. Each side
// is clamped to 1..MaxPreviewSize.
func Preview(g *grid.Grid, width, height int, p Palette) *image.RGBA {
	dc, _ := previewContext(g, width, height, p)
	return cloneRGBA(dc.Image())
}

// Trace renders g with every visited cell tinted and the path tinted on top,
// without animation.
func Trace(g *grid.Grid, visited, path []grid.Coordinate, width, height int, p Palette) *image.RGBA {
	dc, cell := previewContext(g, width, height, p)
	for _, c := range visited {
		if g.In(c) {
			fillCell(dc, c, cell, p.Visited)
		}
	}
	for _, c := range path {
		if g.In(c) {
			fillCell(dc, c, cell, p.Path)
		}
	}
	return cloneRGBA(dc.Image())
}

func previewContext(g *grid.Grid, width, height int, p Palette) (*gg.Context, float64) {
	width = min(max(1, width), MaxPreviewSize)
	height = min(max(1, height), MaxPreviewSize)
	cell := math.Floor(math.Min(float64(width)/float64(g.Cols()), float64(height)/float64(g.Rows())))
	if cell < 1 {
		cell = 1
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(p.Background)
	dc.Clear()
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			pos := grid.Coordinate{R: r, C: c}
			sym := g.Get(pos)
			col := p.base(sym)
			if marker, ok := p.marker(sym); ok {
				col = marker
			}
			fillCell(dc, pos, cell, col)
		}
	}
	return dc, cell
}
