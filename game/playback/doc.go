// Package playback replays a solver trace onto a render surface.
//
// A trace is turned into a sequence of Frames (one per visited cell, one per
// path cell, then a marker repaint) by Frames. A Player consumes that
// sequence, sleeping on an injectable Clock between frames so tests can drive
// it with InstantClock and production with RealClock.
//
// Concurrent calls follow a latest-wins policy. Starting a new run cancels
// the previous one, which then returns ErrSuperseded without painting again.
package playback
