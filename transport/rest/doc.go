// Package rest is the HTTP client for the maze server that stores maze files
// and runs the search algorithms.
//
// Endpoints used:
//
//	GET  /api/mazes                      {"mazes": ["a.txt", ...]}
//	GET  /api/maze/{name}                {"filename": "...", "contents": "..."}
//	POST /api/maze/upload                {"filename": "...", "contents": "..."}
//	POST /api/maze/delete/{name}
//	GET  /api/run/{algorithm}/{name}     {"grid": [...], "visited": [...], "path": [...]}
//
// Non-2xx responses become *APIError; a 404 also matches
// service.ErrMazeNotFound. Bodies that do not decode match
// service.ErrMalformedResult.
package rest
