package editor

import (
	"context"
	"fmt"
	"log"

	"github.com/wricardo/mazeplay/game/grid"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/game/service"
)

// Canvas is the drawing surface the controller renders to.
type Canvas interface {
	DrawScene(scene render.Scene) bool
	CellAt(x, y float64, rows, cols int) (grid.Coordinate, bool)
	SetLayout(l render.Layout)
	OnLayout(fn func(render.Layout))
}

// Carver replaces a grid's contents with a new maze.
type Carver interface {
	Generate(m *grid.Grid)
}

// Controller drives a Session from user intents and redraws the canvas after
// every successful mutation.
type Controller struct {
	session  *Session
	canvas   Canvas
	carver   Carver
	store    service.MazeStore
	onRedraw func()
}

// NewController wires a session to its canvas. The controller registers
// itself as a layout observer so the grid is redrawn whenever the container
// changes. store may be nil, in which case Save and Load fail with
// ErrNoStore.
func NewController(session *Session, canvas Canvas, carver Carver, store service.MazeStore) *Controller {
	c := &Controller{
		session: session,
		canvas:  canvas,
		carver:  carver,
		store:   store,
	}
	canvas.OnLayout(func(render.Layout) { c.Redraw() })
	return c
}

// Session returns the controlled session.
func (c *Controller) Session() *Session { return c.session }

// OnRedraw sets a callback run after every completed redraw.
func (c *Controller) OnRedraw(fn func()) { c.onRedraw = fn }

// Redraw renders the session. It returns false while the session is
// regenerating.
func (c *Controller) Redraw() bool {
	if !c.canvas.DrawScene(c.session) {
		return false
	}
	if c.onRedraw != nil {
		c.onRedraw()
	}
	return true
}

// SetMode changes what a click does. The grid is not touched.
func (c *Controller) SetMode(m Mode) error {
	if _, err := ParseMode(string(m)); err != nil {
		return err
	}
	c.session.setMode(m)
	return nil
}

// Regenerate carves a new maze into the grid and redraws once.
func (c *Controller) Regenerate() {
	c.session.regenerate(c.carver.Generate)
	c.Redraw()
}

// Resize replaces the grid with an empty rows × cols grid.
func (c *Controller) Resize(rows, cols int) error {
	g, err := newGrid(rows, cols)
	if err != nil {
		return err
	}
	c.session.replace(g)
	c.Redraw()
	return nil
}

// PointerDown handles a click at logical surface coordinates. Clicks outside
// the grid are ignored.
func (c *Controller) PointerDown(x, y float64) bool {
	rows, cols := c.session.Size()
	cell, ok := c.canvas.CellAt(x, y, rows, cols)
	if !ok {
		return false
	}
	return c.ClickCell(cell)
}

// ClickCell applies the active mode to one cell. In wall mode the cell
// toggles between wall and empty; a start or goal cell becomes a wall. In
// start and goal mode the existing marker moves to the cell.
func (c *Controller) ClickCell(pos grid.Coordinate) bool {
	changed := c.session.edit(func(g *grid.Grid, mode Mode) bool {
		if !g.In(pos) {
			return false
		}
		switch mode {
		case ModeWall:
			if g.Get(pos) == grid.Wall {
				g.Set(pos, grid.Empty)
			} else {
				g.Set(pos, grid.Wall)
			}
		case ModeStart:
			g.Place(grid.Start, pos)
		case ModeGoal:
			g.Place(grid.Goal, pos)
		default:
			return false
		}
		return true
	})
	if changed {
		c.Redraw()
	}
	return changed
}

// Save uploads the grid under filename. The grid is never modified.
func (c *Controller) Save(ctx context.Context, filename string) error {
	if err := service.ValidateFilename(filename); err != nil {
		return err
	}
	if c.store == nil {
		return ErrNoStore
	}
	g := c.session.Grid()
	if err := g.Validate(); err != nil {
		return err
	}
	if err := c.store.Upload(ctx, filename, g.String()); err != nil {
		return fmt.Errorf("failed to save %s: %w", filename, err)
	}
	log.Printf("[EDIT] saved name=%s size=%dx%d", filename, g.Rows(), g.Cols())
	return nil
}

// Load replaces the grid with a stored maze. On any failure the grid is left
// as it was.
func (c *Controller) Load(ctx context.Context, name string) error {
	if err := service.ValidateMazeName(name); err != nil {
		return err
	}
	if c.store == nil {
		return ErrNoStore
	}
	contents, err := c.store.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	g, err := grid.Parse(contents)
	if err != nil {
		return fmt.Errorf("%w: maze %s: %v", service.ErrMalformedResult, name, err)
	}
	if g.Rows() > MaxDimension || g.Cols() > MaxDimension {
		return fmt.Errorf("%w: maze %s is %dx%d", grid.ErrInvalidSize, name, g.Rows(), g.Cols())
	}
	if err := g.Validate(); err != nil {
		return fmt.Errorf("%w: maze %s: %v", service.ErrMalformedResult, name, err)
	}
	c.session.replace(g)
	c.Redraw()
	return nil
}

// Layout reports a container change. The redraw happens through the layout
// observer registered in NewController.
func (c *Controller) Layout(l render.Layout) {
	c.canvas.SetLayout(l)
}
