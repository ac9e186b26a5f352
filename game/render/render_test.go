package render

import (
	"bytes"
	"errors"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/wricardo/mazeplay/game/grid"
)

type fakeScene struct {
	g          *grid.Grid
	generating bool
	gridCalls  int
}

func (f *fakeScene) Grid() *grid.Grid {
	f.gridCalls++
	return f.g
}

func (f *fakeScene) Generating() bool { return f.generating }

func mustParse(t *testing.T, text string) *grid.Grid {
	t.Helper()
	g, err := grid.Parse(text)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	return g
}

func sameColor(got color.RGBA, want color.NRGBA) bool {
	return got.R == want.R && got.G == want.G && got.B == want.B && got.A == want.A
}

func TestBackingSize(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		want   int
	}{
		{"fits container", Layout{Width: 420, DPR: 1}, 400},
		{"capped", Layout{Width: 1200, DPR: 1}, 600},
		{"scaled by dpr", Layout{Width: 420, DPR: 2}, 800},
		{"capped then scaled", Layout{Width: 1200, DPR: 1.5}, 900},
		{"tiny container", Layout{Width: 5, DPR: 1}, 1},
		{"missing dpr", Layout{Width: 120}, 100},
		{"dpr clamped", Layout{Width: 620, DPR: 1e9}, 2400},
		{"infinite width", Layout{Width: math.Inf(1), DPR: 1}, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSurface(Options{}, tt.layout)
			if got := s.BackingSize(); got != tt.want {
				t.Errorf("Expected backing %d, got %d", tt.want, got)
			}
			s.Resize()
			if b := s.Image().Bounds(); b.Dx() != tt.want || b.Dy() != tt.want {
				t.Errorf("Expected %dx%d raster, got %v", tt.want, tt.want, b)
			}
		})
	}
}

func TestCellAtMatchesDrawing(t *testing.T) {
	s := NewSurface(Options{}, Layout{Width: 320, DPR: 2})
	if cell := s.CellSize(10); cell != 30 {
		t.Fatalf("Expected 30px cells, got %v", cell)
	}

	tests := []struct {
		x, y float64
		want grid.Coordinate
		ok   bool
	}{
		{0, 0, grid.Coordinate{}, true},
		{45, 15, grid.Coordinate{R: 0, C: 1}, true},
		{299.9, 269.9, grid.Coordinate{R: 8, C: 9}, true},
		{300, 10, grid.Coordinate{}, false},
		{-1, 10, grid.Coordinate{}, false},
		{10, 275, grid.Coordinate{}, false}, // only 9 rows
	}
	for _, tt := range tests {
		got, ok := s.CellAt(tt.x, tt.y, 9, 10)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("CellAt(%v, %v) = %s, %v; want %s, %v", tt.x, tt.y, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDrawSceneColors(t *testing.T) {
	g := mustParse(t, "#S\nG.\n")
	p := DefaultPalette()

	for _, dpr := range []float64{1, 2} {
		s := NewSurface(Options{}, Layout{Width: 220, DPR: dpr})
		if !s.Draw(g) {
			t.Fatal("Draw returned false")
		}
		img := s.Image()
		at := func(x, y int) color.RGBA {
			return img.RGBAAt(int(float64(x)*dpr), int(float64(y)*dpr))
		}

		checks := []struct {
			x, y int
			want color.NRGBA
		}{
			{50, 50, p.Wall},
			{150, 50, p.Start},
			{50, 150, p.Goal},
			{150, 150, p.Open},
		}
		for _, c := range checks {
			if got := at(c.x, c.y); !sameColor(got, c.want) {
				t.Errorf("dpr %v: pixel (%d,%d) = %v, want %v", dpr, c.x, c.y, got, c.want)
			}
		}
	}
}

func TestRedrawIsPixelIdentical(t *testing.T) {
	g := mustParse(t, "#####\n#S..#\n#.#.#\n#..G#\n#####\n")
	s := NewSurface(Options{}, Layout{Width: 233, DPR: 1.25})

	s.Draw(g)
	first := s.Image()
	s.Draw(g)
	second := s.Image()

	if !bytes.Equal(first.Pix, second.Pix) {
		t.Error("Redrawing the same grid produced different pixels")
	}
}

func TestDrawSceneSkipsWhileGenerating(t *testing.T) {
	g := mustParse(t, "S.\n.G\n")
	s := NewSurface(Options{}, Layout{Width: 120, DPR: 1})
	s.Draw(g)
	before := s.Image()

	scene := &fakeScene{g: mustParse(t, "##\n##\n"), generating: true}
	if s.DrawScene(scene) {
		t.Error("Expected DrawScene to report no draw while generating")
	}
	if scene.gridCalls != 0 {
		t.Error("Grid should not be read while generating")
	}
	if !bytes.Equal(before.Pix, s.Image().Pix) {
		t.Error("Surface changed while generating")
	}

	scene.generating = false
	if !s.DrawScene(scene) {
		t.Error("Expected DrawScene to draw once generation finished")
	}
}

func TestPaintCellRequiresDrawnGrid(t *testing.T) {
	s := NewSurface(Options{}, Layout{Width: 120, DPR: 1})
	if s.PaintCell(grid.Coordinate{}, LayerVisited) {
		t.Error("Expected PaintCell to fail before any draw")
	}

	s.Draw(mustParse(t, "..\n..\n"))
	if s.PaintCell(grid.Coordinate{R: 2}, LayerVisited) {
		t.Error("Expected PaintCell to reject out-of-range cells")
	}
	if s.PaintCell(grid.Coordinate{}, LayerMarker) {
		t.Error("Expected marker layer to skip cells without a marker")
	}
	if !s.PaintCell(grid.Coordinate{R: 1, C: 1}, LayerPath) {
		t.Error("Expected path tint to paint")
	}
	if s.PaintMarkers() {
		t.Error("Expected no markers to paint on a grid without start or goal")
	}
}

func TestSetLayoutNotifiesObservers(t *testing.T) {
	s := NewSurface(Options{}, Layout{Width: 120, DPR: 1})
	g := mustParse(t, "S.\n.G\n")

	var seen []Layout
	s.OnLayout(func(l Layout) {
		seen = append(seen, l)
		s.Draw(g)
	})

	s.SetLayout(Layout{Width: 220, DPR: 2})
	if len(seen) != 1 || seen[0].Width != 220 {
		t.Fatalf("Expected one notification with the new layout, got %v", seen)
	}
	if b := s.Image().Bounds(); b.Dx() != 400 {
		t.Errorf("Expected observer redraw at the new size, got %v", b)
	}
}

func TestEncodePNG(t *testing.T) {
	s := NewSurface(Options{}, Layout{Width: 60, DPR: 1})
	s.Draw(mustParse(t, "S#\n#G\n"))

	var buf bytes.Buffer
	if err := s.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("Output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 40 || b.Dy() != 40 {
		t.Errorf("Expected 40x40 image, got %v", b)
	}
}

func TestPreview(t *testing.T) {
	g := mustParse(t, "S.\n..\n#.\n.G\n")
	p := PreviewPalette()
	img := Preview(g, 100, 100, p)

	if b := img.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("Expected 100x100 preview, got %v", b)
	}
	// 4 rows in 100px: 25px cells, leaving the right half as background.
	checks := []struct {
		x, y int
		want color.NRGBA
	}{
		{10, 10, p.Start},
		{35, 10, p.Open},
		{10, 60, p.Wall},
		{35, 85, p.Goal},
		{80, 10, p.Background},
	}
	for _, c := range checks {
		if got := img.RGBAAt(c.x, c.y); !sameColor(got, c.want) {
			t.Errorf("pixel (%d,%d) = %v, want %v", c.x, c.y, got, c.want)
		}
	}
}

func TestMaxSizeOptionIsBounded(t *testing.T) {
	s := NewSurface(Options{MaxSize: 1e9}, Layout{Width: 1e9, DPR: MaxDPR})
	want := int(MaxSurfaceSize * MaxDPR)
	if got := s.BackingSize(); got != want {
		t.Errorf("Expected backing %d, got %d", want, got)
	}
}

func TestPreviewSizeIsBounded(t *testing.T) {
	g := mustParse(t, "SG\n")
	img := Preview(g, 1<<30, 0, PreviewPalette())
	if b := img.Bounds(); b.Dx() != MaxPreviewSize || b.Dy() != 1 {
		t.Errorf("Expected %dx1 preview, got %v", MaxPreviewSize, b)
	}
}

func TestLayoutValidate(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		valid  bool
	}{
		{"zero", Layout{}, true},
		{"typical", Layout{Width: 620, DPR: 2}, true},
		{"max dpr", Layout{Width: 620, DPR: MaxDPR}, true},
		{"huge dpr", Layout{Width: 620, DPR: 1e9}, false},
		{"infinite dpr", Layout{Width: 620, DPR: math.Inf(1)}, false},
		{"nan dpr", Layout{Width: 620, DPR: math.NaN()}, false},
		{"negative width", Layout{Width: -1, DPR: 1}, false},
		{"nan height", Layout{Width: 620, Height: math.NaN()}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.layout.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid layout, got %v", err)
			}
			if !tt.valid && !errors.Is(err, ErrLayoutOutOfRange) {
				t.Errorf("Expected ErrLayoutOutOfRange, got %v", err)
			}
		})
	}

	if err := ValidatePreviewSize(MaxPreviewSize, MaxPreviewSize); err != nil {
		t.Errorf("Expected max preview size to be valid, got %v", err)
	}
	if err := ValidatePreviewSize(MaxPreviewSize+1, 10); !errors.Is(err, ErrLayoutOutOfRange) {
		t.Errorf("Expected ErrLayoutOutOfRange, got %v", err)
	}
}

func TestTraceTintsPathOverVisited(t *testing.T) {
	g := mustParse(t, "...\n")
	p := PreviewPalette()
	visited := []grid.Coordinate{{C: 0}, {C: 1}}
	path := []grid.Coordinate{{C: 1}, {R: 5, C: 5}}

	img := Trace(g, visited, path, 90, 30, p)
	untouched := img.RGBAAt(75, 15)
	visitedOnly := img.RGBAAt(15, 15)
	both := img.RGBAAt(45, 15)

	if !sameColor(untouched, p.Open) {
		t.Errorf("Expected open cell untouched, got %v", untouched)
	}
	if visitedOnly.B <= visitedOnly.R {
		t.Errorf("Expected blue visited tint, got %v", visitedOnly)
	}
	if both.R <= both.B {
		t.Errorf("Expected yellow path tint over visited, got %v", both)
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in   string
		want color.NRGBA
		err  bool
	}{
		{"#111", color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff}, false},
		{"#2ecc71", color.NRGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff}, false},
		{"4444ff99", color.NRGBA{R: 0x44, G: 0x44, B: 0xff, A: 0x99}, false},
		{"#12", color.NRGBA{}, true},
		{"#zzzzzz", color.NRGBA{}, true},
	}
	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.err {
			if !errors.Is(err, ErrInvalidColor) {
				t.Errorf("ParseColor(%q): expected ErrInvalidColor, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseColor(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
		if back, _ := ParseColor(HexColor(got)); back != got {
			t.Errorf("HexColor round trip failed for %q", tt.in)
		}
	}
}
