// Package mcp exposes the maze editor and gallery to AI agents over the
// Model Context Protocol.
//
// The client is a thin proxy: every tool calls the REST API of a running
// server, so agents and browsers share the same editor sessions.
//
// MCP Tools:
//   - create_editor: start an editor session, optionally generated or loaded
//   - editor_state: show the grid with row and column indices
//   - editor_intent: send setMode, clickCell, pointerDown, regenerate,
//     resize, save, load or layout
//   - describe_cell: explain one cell and its open neighbours
//   - list_mazes: list stored mazes
//   - compare_algorithms: run every search algorithm on a stored maze
//   - replay: replay one algorithm without animation
//
// Tool failures are reported as error results carrying the API's message.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
