package config

import (
	"fmt"
	"image/color"
	"time"

	"github.com/wricardo/mazeplay/game/editor"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/game/session"
)

// Profile is a named set of client settings.
type Profile struct {
	Name        string `json:"name"`
	Description string `json:"description"`

	Editor struct {
		Rows int   `json:"rows"`
		Cols int   `json:"cols"`
		Seed int64 `json:"seed,omitempty"`
	} `json:"editor"`

	Canvas struct {
		Width   float64 `json:"width"`
		DPR     float64 `json:"dpr"`
		Padding float64 `json:"padding,omitempty"`
		MaxSize float64 `json:"max_size,omitempty"`
	} `json:"canvas"`

	Playback struct {
		SpeedMS       int `json:"speed_ms"`
		PreviewWidth  int `json:"preview_width,omitempty"`
		PreviewHeight int `json:"preview_height,omitempty"`
	} `json:"playback"`

	// Palette overrides individual colours as "#rrggbb" or "#rrggbbaa".
	Palette map[string]string `json:"palette,omitempty"`
}

// ProfileInfo describes a profile file for listings.
type ProfileInfo struct {
	Filename    string `json:"filename"`
	ProfileID   string `json:"profile_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Rows        int    `json:"rows"`
	Cols        int    `json:"cols"`
}

// Validate checks the profile for values the client cannot use.
func (p *Profile) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if p.Editor.Rows < 1 || p.Editor.Cols < 1 {
		return fmt.Errorf("%w: editor size %dx%d must be at least 1x1", ErrInvalidConfig, p.Editor.Rows, p.Editor.Cols)
	}
	if p.Editor.Rows > editor.MaxDimension || p.Editor.Cols > editor.MaxDimension {
		return fmt.Errorf("%w: editor size %dx%d exceeds %d", ErrInvalidConfig, p.Editor.Rows, p.Editor.Cols, editor.MaxDimension)
	}
	if p.Canvas.Width <= 0 {
		return fmt.Errorf("%w: canvas width must be positive", ErrInvalidConfig)
	}
	if p.Canvas.DPR < 0 || p.Canvas.Padding < 0 || p.Canvas.MaxSize < 0 {
		return fmt.Errorf("%w: canvas values must not be negative", ErrInvalidConfig)
	}
	if p.Canvas.DPR > render.MaxDPR || p.Canvas.MaxSize > render.MaxSurfaceSize {
		return fmt.Errorf("%w: canvas dpr must be at most %g and max_size at most %g",
			ErrInvalidConfig, render.MaxDPR, render.MaxSurfaceSize)
	}
	if err := render.ValidatePreviewSize(p.Playback.PreviewWidth, p.Playback.PreviewHeight); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if p.Playback.SpeedMS < 0 {
		return fmt.Errorf("%w: playback speed must not be negative", ErrInvalidConfig)
	}
	if _, err := p.palette(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

func (p *Profile) palette() (render.Palette, error) {
	pal := render.DefaultPalette()
	slots := map[string]*color.NRGBA{
		"background": &pal.Background,
		"wall":       &pal.Wall,
		"open":       &pal.Open,
		"start":      &pal.Start,
		"goal":       &pal.Goal,
		"visited":    &pal.Visited,
		"path":       &pal.Path,
		"border":     &pal.Border,
	}
	for key, value := range p.Palette {
		slot, ok := slots[key]
		if !ok {
			return pal, fmt.Errorf("unknown palette entry %q", key)
		}
		c, err := render.ParseColor(value)
		if err != nil {
			return pal, fmt.Errorf("palette %s: %w", key, err)
		}
		*slot = c
	}
	return pal, nil
}

// Layout returns the canvas layout.
func (p *Profile) Layout() render.Layout {
	return render.Layout{Width: p.Canvas.Width, DPR: p.Canvas.DPR}
}

// SurfaceOptions returns the render options. The profile must be valid.
func (p *Profile) SurfaceOptions() render.Options {
	pal, err := p.palette()
	if err != nil {
		pal = render.DefaultPalette()
	}
	return render.Options{
		Padding: p.Canvas.Padding,
		MaxSize: p.Canvas.MaxSize,
		Palette: &pal,
	}
}

// EditorOptions returns the options for new editor sessions.
func (p *Profile) EditorOptions() session.EditorOptions {
	return session.EditorOptions{
		Rows:    p.Editor.Rows,
		Cols:    p.Editor.Cols,
		Seed:    p.Editor.Seed,
		Profile: p.Name,
		Layout:  p.Layout(),
		Surface: p.SurfaceOptions(),
	}
}

// Speed returns the default playback delay.
func (p *Profile) Speed() time.Duration {
	return time.Duration(p.Playback.SpeedMS) * time.Millisecond
}

// PreviewSize returns the gallery thumbnail size.
func (p *Profile) PreviewSize() (int, int) {
	w, h := p.Playback.PreviewWidth, p.Playback.PreviewHeight
	if w <= 0 {
		w = 200
	}
	if h <= 0 {
		h = 200
	}
	return w, h
}
