package playback

import (
	"iter"
	"time"

	"github.com/wricardo/mazeplay/game/grid"
	"github.com/wricardo/mazeplay/game/render"
	"github.com/wricardo/mazeplay/game/service"
)

// MinPathDelay keeps the path trace visible when replaying at full speed.
const MinPathDelay = 6 * time.Millisecond

// Frame is one paint instruction. Delay is how long to wait before painting
// it. A Frame with Layer render.LayerMarker repaints the start and goal
// cells and has no Cell.
type Frame struct {
	Cell  grid.Coordinate `json:"cell"`
	Layer render.Layer    `json:"layer"`
	Delay time.Duration   `json:"-"`
	Index int             `json:"index"`
}

// Frames yields the overlay frames for result: every visited cell in order,
// then every path cell, then a final marker frame. Visited frames wait speed
// and path frames wait max(speed, MinPathDelay). A speed of zero yields every
// frame without delay.
func Frames(result *service.SolverResult, speed time.Duration) iter.Seq[Frame] {
	visitDelay, pathDelay := speed, max(speed, MinPathDelay)
	if speed <= 0 {
		visitDelay, pathDelay = 0, 0
	}

	return func(yield func(Frame) bool) {
		i := 0
		for _, c := range result.Visited {
			if !yield(Frame{Cell: c, Layer: render.LayerVisited, Delay: visitDelay, Index: i}) {
				return
			}
			i++
		}
		for _, c := range result.Path {
			if !yield(Frame{Cell: c, Layer: render.LayerPath, Delay: pathDelay, Index: i}) {
				return
			}
			i++
		}
		yield(Frame{Layer: render.LayerMarker, Index: i})
	}
}
