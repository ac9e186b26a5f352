// Package websocket streams live updates to browser clients.
//
// Clients subscribe to one channel per connection with
// GET /ws?channel=<name>. Two kinds of channel exist:
//
//	replay/<maze>/<algorithm>   one "frame" message per painted overlay cell,
//	                            then "replay_done"
//	editor/<session id>         a "redraw" message after every edit
//
// Messages are JSON: {"channel": "...", "event": "...", "data": {...}}.
//
// A single Hub goroutine owns the subscription table. Broadcast never
// blocks the caller; when the queue is full the message is dropped, and a
// client whose send buffer fills is disconnected.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//	router.HandleFunc("/ws", hub.HandleWS)
//	hub.Broadcast(websocket.EditorChannel(id), websocket.EventRedraw, state)
package websocket
