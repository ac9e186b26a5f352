package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"sync"

	"github.com/fogleman/gg"

	"github.com/wricardo/mazeplay/game/grid"
)

const (
	// DefaultPadding is subtracted from the container width.
	DefaultPadding = 20.0
	// DefaultMaxSize caps the logical edge of the surface.
	DefaultMaxSize = 600.0

	// MaxDPR bounds the device pixel ratio, so a backing raster is never
	// larger than MaxSurfaceSize × MaxDPR on a side.
	MaxDPR = 4.0
	// MaxSurfaceSize bounds the configurable logical edge.
	MaxSurfaceSize = 2048.0
	// MaxPreviewSize bounds each side of a thumbnail in pixels.
	MaxPreviewSize = 2048
)

// ErrLayoutOutOfRange reports a layout or image size the rasterizer refuses.
var ErrLayoutOutOfRange = errors.New("layout out of range")

// Layout describes the container the surface is fitted into.
type Layout struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	DPR    float64 `json:"dpr"`
}

func (l Layout) dpr() float64 {
	if l.DPR <= 0 || math.IsNaN(l.DPR) {
		return 1
	}
	return math.Min(l.DPR, MaxDPR)
}

// Validate rejects layouts with negative or NaN values and device pixel
// ratios above MaxDPR. A zero DPR means 1.
func (l Layout) Validate() error {
	for _, v := range []float64{l.Width, l.Height, l.DPR} {
		if v < 0 || math.IsNaN(v) {
			return fmt.Errorf("%w: width, height and dpr must be non-negative numbers", ErrLayoutOutOfRange)
		}
	}
	if l.DPR > MaxDPR {
		return fmt.Errorf("%w: dpr %g exceeds %g", ErrLayoutOutOfRange, l.DPR, MaxDPR)
	}
	return nil
}

// ValidatePreviewSize rejects thumbnail sizes above MaxPreviewSize.
func ValidatePreviewSize(width, height int) error {
	if width > MaxPreviewSize || height > MaxPreviewSize {
		return fmt.Errorf("%w: preview %dx%d exceeds %d", ErrLayoutOutOfRange, width, height, MaxPreviewSize)
	}
	return nil
}

// Scene is what the surface draws: a grid plus the flag that suspends
// drawing while the grid is being regenerated.
type Scene interface {
	Grid() *grid.Grid
	Generating() bool
}

type staticScene struct{ g *grid.Grid }

func (s staticScene) Grid() *grid.Grid  { return s.g }
func (s staticScene) Generating() bool { return false }

// Static wraps a grid that is never regenerated, such as a solver result.
func Static(g *grid.Grid) Scene { return staticScene{g: g} }

// Layer is an overlay painted on top of a single cell.
type Layer int

const (
	LayerMarker Layer = iota
	LayerVisited
	LayerPath
)

func (l Layer) String() string {
	switch l {
	case LayerMarker:
		return "marker"
	case LayerVisited:
		return "visited"
	case LayerPath:
		return "path"
	}
	return "unknown"
}

func (l Layer) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Options configure a Surface. Zero fields take the defaults.
type Options struct {
	Padding float64
	MaxSize float64
	Palette *Palette
}

// Surface is a square raster sized to its container and scaled by the
// device pixel ratio. Every drawing method is safe for concurrent use.
type Surface struct {
	mu        sync.Mutex
	padding   float64
	maxSize   float64
	palette   Palette
	layout    Layout
	dc        *gg.Context
	grid      *grid.Grid
	observers []func(Layout)
}

// NewSurface creates a surface for the given container.
func NewSurface(opts Options, layout Layout) *Surface {
	s := &Surface{
		padding: DefaultPadding,
		maxSize: DefaultMaxSize,
		palette: DefaultPalette(),
		layout:  layout,
	}
	if opts.Padding > 0 {
		s.padding = opts.Padding
	}
	if opts.MaxSize > 0 {
		s.maxSize = math.Min(opts.MaxSize, MaxSurfaceSize)
	}
	if opts.Palette != nil {
		s.palette = *opts.Palette
	}
	return s
}

// Palette returns the colours in use.
func (s *Surface) Palette() Palette {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.palette
}

// Layout returns the current container layout.
func (s *Surface) Layout() Layout {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.layout
}

// OnLayout registers fn to run after every SetLayout.
func (s *Surface) OnLayout(fn func(Layout)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// SetLayout records a new container layout and notifies observers. The
// observers run on the caller's goroutine without the surface lock held, so
// they may redraw.
func (s *Surface) SetLayout(l Layout) {
	s.mu.Lock()
	s.layout = l
	observers := append([]func(Layout){}, s.observers...)
	s.mu.Unlock()

	for _, fn := range observers {
		fn(l)
	}
}

// backing returns the edge of the backing raster in device pixels.
func (s *Surface) backing() int {
	size := math.Min(s.layout.Width-s.padding, s.maxSize)
	if size < 1 || math.IsNaN(size) {
		size = 1
	}
	return max(1, int(math.Round(size*s.layout.dpr())))
}

// Resize rebuilds the backing raster from the current layout and resets the
// transform to the device pixel ratio. The raster is cleared.
func (s *Surface) Resize() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resize()
}

func (s *Surface) resize() {
	n := s.backing()
	dpr := s.layout.dpr()
	s.dc = gg.NewContext(n, n)
	s.dc.Scale(dpr, dpr)
}

// BackingSize returns the edge of the backing raster in device pixels.
func (s *Surface) BackingSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backing()
}

// CellSize returns the logical edge of a cell for a grid with cols columns.
func (s *Surface) CellSize(cols int) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cellSize(cols)
}

func (s *Surface) cellSize(cols int) float64 {
	if cols < 1 {
		return 0
	}
	return float64(s.backing()) / s.layout.dpr() / float64(cols)
}

// CellAt maps a logical point to a cell of a rows × cols grid. It is the
// exact inverse of the geometry used for drawing.
func (s *Surface) CellAt(x, y float64, rows, cols int) (grid.Coordinate, bool) {
	cell := s.CellSize(cols)
	if cell <= 0 || x < 0 || y < 0 {
		return grid.Coordinate{}, false
	}
	c := grid.Coordinate{R: int(math.Floor(y / cell)), C: int(math.Floor(x / cell))}
	if c.R >= rows || c.C >= cols {
		return grid.Coordinate{}, false
	}
	return c, true
}

// DrawScene resizes and redraws the whole grid. It does nothing and returns
// false while the scene is generating.
func (s *Surface) DrawScene(scene Scene) bool {
	if scene.Generating() {
		return false
	}
	g := scene.Grid()
	if g == nil {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.resize()
	s.grid = g.Clone()
	cell := s.cellSize(g.Cols())
	s.dc.SetColor(s.palette.Background)
	s.dc.Clear()
	for r := 0; r < g.Rows(); r++ {
		for c := 0; c < g.Cols(); c++ {
			pos := grid.Coordinate{R: r, C: c}
			sym := g.Get(pos)
			fillCell(s.dc, pos, cell, s.palette.base(sym))
			if marker, ok := s.palette.marker(sym); ok {
				fillCell(s.dc, pos, cell, marker)
			}
			s.strokeCell(pos, cell)
		}
	}
	return true
}

// Draw redraws g without a generating flag.
func (s *Surface) Draw(g *grid.Grid) bool {
	return s.DrawScene(Static(g))
}

// PaintCell paints one overlay over a cell of the last drawn grid and
// re-strokes its border. It returns false if nothing has been drawn yet or c
// is outside that grid.
func (s *Surface) PaintCell(c grid.Coordinate, layer Layer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dc == nil || s.grid == nil || !s.grid.In(c) {
		return false
	}
	cell := s.cellSize(s.grid.Cols())
	switch layer {
	case LayerVisited:
		fillCell(s.dc, c, cell, s.palette.Visited)
	case LayerPath:
		fillCell(s.dc, c, cell, s.palette.Path)
	case LayerMarker:
		marker, ok := s.palette.marker(s.grid.Get(c))
		if !ok {
			return false
		}
		fillCell(s.dc, c, cell, marker)
	default:
		return false
	}
	s.strokeCell(c, cell)
	return true
}

// PaintMarkers repaints the start and goal cells of the last drawn grid on
// top of any overlays.
func (s *Surface) PaintMarkers() bool {
	s.mu.Lock()
	g := s.grid
	s.mu.Unlock()
	if g == nil {
		return false
	}

	painted := false
	for _, sym := range []grid.Symbol{grid.Start, grid.Goal} {
		if pos, ok := g.Find(sym); ok {
			painted = s.PaintCell(pos, LayerMarker) || painted
		}
	}
	return painted
}

func (s *Surface) strokeCell(c grid.Coordinate, cell float64) {
	if s.palette.BorderWidth <= 0 {
		return
	}
	s.dc.SetColor(s.palette.Border)
	s.dc.SetLineWidth(s.palette.BorderWidth * s.layout.dpr())
	s.dc.DrawRectangle(float64(c.C)*cell, float64(c.R)*cell, cell, cell)
	s.dc.Stroke()
}

// Image returns a copy of the backing raster.
func (s *Surface) Image() *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		s.resize()
	}
	return cloneRGBA(s.dc.Image())
}

// EncodePNG writes the backing raster as PNG.
func (s *Surface) EncodePNG(w io.Writer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dc == nil {
		s.resize()
	}
	return s.dc.EncodePNG(w)
}

func (p Palette) base(sym grid.Symbol) color.NRGBA {
	if sym == grid.Wall {
		return p.Wall
	}
	return p.Open
}

func (p Palette) marker(sym grid.Symbol) (color.NRGBA, bool) {
	switch sym {
	case grid.Start:
		return p.Start, true
	case grid.Goal:
		return p.Goal, true
	}
	return color.NRGBA{}, false
}

func fillCell(dc *gg.Context, c grid.Coordinate, cell float64, col color.Color) {
	dc.SetColor(col)
	dc.DrawRectangle(float64(c.C)*cell, float64(c.R)*cell, cell, cell)
	dc.Fill()
}

func cloneRGBA(src image.Image) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		return &image.RGBA{
			Pix:    append([]uint8(nil), rgba.Pix...),
			Stride: rgba.Stride,
			Rect:   rgba.Rect,
		}
	}
	b := src.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, src.At(x, y))
		}
	}
	return out
}
