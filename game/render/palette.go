package render

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var ErrInvalidColor = errors.New("invalid color")

// Palette holds the colours used for each layer of a cell.
type Palette struct {
	Background  color.NRGBA
	Wall        color.NRGBA
	Open        color.NRGBA
	Start       color.NRGBA
	Goal        color.NRGBA
	Visited     color.NRGBA
	Path        color.NRGBA
	Border      color.NRGBA
	BorderWidth float64
}

// DefaultPalette is used by the editor and the single-algorithm replay.
func DefaultPalette() Palette {
	return Palette{
		Background:  color.NRGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff},
		Wall:        color.NRGBA{A: 0xff},
		Open:        color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		Start:       color.NRGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff},
		Goal:        color.NRGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff},
		Visited:     color.NRGBA{R: 68, G: 68, B: 255, A: 153},
		Path:        color.NRGBA{R: 255, G: 215, A: 242},
		Border:      color.NRGBA{R: 0x2e, G: 0x2e, B: 0x2e, A: 0xff},
		BorderWidth: 0.7,
	}
}

// PreviewPalette is the flatter scheme used for gallery thumbnails and the
// comparison view. It has no border.
func PreviewPalette() Palette {
	p := DefaultPalette()
	p.Start = color.NRGBA{G: 0xff, A: 0xff}
	p.Goal = color.NRGBA{R: 0xff, A: 0xff}
	p.Visited = color.NRGBA{R: 68, G: 68, B: 255, A: 115}
	p.Path = color.NRGBA{R: 255, G: 255, A: 230}
	p.BorderWidth = 0
	return p
}

// ParseColor reads "#rgb", "#rrggbb" or "#rrggbbaa".
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// HexColor formats c as "#rrggbbaa".
func HexColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
