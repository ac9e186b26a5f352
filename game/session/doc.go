// Package session keeps the in-memory state of the maze client.
//
// The session package implements:
//   - Editor sessions, each with its own grid, edit controller and surface
//   - Replays keyed by maze name and algorithm, each with its own player
//   - Random session IDs (UUIDs) matched case-insensitively
//   - Cleanup of sessions and replays that have gone idle
//
// Core Types:
//
// Manager owns every Editor and Replay. Editor bundles an editor.Controller
// with the render.Surface it draws on. Replay bundles a playback.Player with
// its surface; the player re-renders whenever the surface layout changes.
//
// Concurrency:
//
// The manager is safe for concurrent use. Each editor and player guards its
// own state, so requests against different sessions never contend on more
// than the manager's map lock.
//
// Usage:
//
//	manager := session.NewManager(store)
//
//	e, err := manager.Create(session.EditorOptions{Rows: 21, Cols: 21})
//	if err != nil {
//		log.Fatal(err)
//	}
//	e.Controller.Regenerate()
//
//	r := manager.Replay("spiral.txt", service.BFS, layout, render.Options{})
//	err = r.Player.Replay(ctx, solver, r.Maze, r.Algorithm, 20*time.Millisecond)
//
// State is never persisted; a restart starts from an empty manager.
package session
