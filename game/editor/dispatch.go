package editor

import (
	"context"
	"fmt"
	"sort"

	"github.com/wricardo/mazeplay/game/grid"
	"github.com/wricardo/mazeplay/game/render"
)

// Intent is a named user action with its arguments. Only the fields the
// named intent uses are read.
type Intent struct {
	Name     string           `json:"intent"`
	Mode     string           `json:"mode,omitempty"`
	Rows     int              `json:"rows,omitempty"`
	Cols     int              `json:"cols,omitempty"`
	X        float64          `json:"x,omitempty"`
	Y        float64          `json:"y,omitempty"`
	Cell     *grid.Coordinate `json:"cell,omitempty"`
	Filename string           `json:"filename,omitempty"`
	Layout   *render.Layout   `json:"layout,omitempty"`
}

// Outcome reports what an intent did.
type Outcome struct {
	Intent  string `json:"intent"`
	Changed bool   `json:"changed"`
}

type intentHandler func(ctx context.Context, c *Controller, in Intent) (bool, error)

var intentHandlers = map[string]intentHandler{
	"setMode": func(_ context.Context, c *Controller, in Intent) (bool, error) {
		m, err := ParseMode(in.Mode)
		if err != nil {
			return false, err
		}
		return false, c.SetMode(m)
	},
	"regenerate": func(_ context.Context, c *Controller, _ Intent) (bool, error) {
		c.Regenerate()
		return true, nil
	},
	"resize": func(_ context.Context, c *Controller, in Intent) (bool, error) {
		if err := c.Resize(in.Rows, in.Cols); err != nil {
			return false, err
		}
		return true, nil
	},
	"pointerDown": func(_ context.Context, c *Controller, in Intent) (bool, error) {
		return c.PointerDown(in.X, in.Y), nil
	},
	"clickCell": func(_ context.Context, c *Controller, in Intent) (bool, error) {
		if in.Cell == nil {
			return false, fmt.Errorf("%w: clickCell needs cell", ErrMissingArgument)
		}
		return c.ClickCell(*in.Cell), nil
	},
	"save": func(ctx context.Context, c *Controller, in Intent) (bool, error) {
		return false, c.Save(ctx, in.Filename)
	},
	"load": func(ctx context.Context, c *Controller, in Intent) (bool, error) {
		if err := c.Load(ctx, in.Filename); err != nil {
			return false, err
		}
		return true, nil
	},
	"layout": func(_ context.Context, c *Controller, in Intent) (bool, error) {
		if in.Layout == nil {
			return false, fmt.Errorf("%w: layout needs layout", ErrMissingArgument)
		}
		if err := in.Layout.Validate(); err != nil {
			return false, err
		}
		c.Layout(*in.Layout)
		return false, nil
	},
}

// Intents lists the intent names Dispatch understands.
func Intents() []string {
	names := make([]string, 0, len(intentHandlers))
	for name := range intentHandlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch routes a named intent to the matching controller method.
func (c *Controller) Dispatch(ctx context.Context, in Intent) (Outcome, error) {
	h, ok := intentHandlers[in.Name]
	if !ok {
		return Outcome{Intent: in.Name}, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Name)
	}
	changed, err := h(ctx, c, in)
	return Outcome{Intent: in.Name, Changed: changed}, err
}
