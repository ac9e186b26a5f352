// Package service defines the collaborators the client talks to and the
// catalog that fronts them.
//
// MazeStore holds named maze text files. Solver runs a search algorithm on a
// stored maze and returns the solved grid with the cells it visited and the
// final path. Both are reached over HTTP in production (see transport/rest)
// and mocked in tests.
//
// Catalog validates file names before they leave the process, normalizes
// uploads through the grid codec, and fans gallery and comparison requests
// out with a bounded errgroup. A single failing maze or algorithm is recorded
// on its own entry; the rest still render.
//
// Usage:
//
//	client := rest.NewClient("http://localhost:8000")
//	catalog := service.NewCatalog(client, client)
//	entries, err := catalog.Gallery(ctx)
//	comparisons, err := catalog.Compare(ctx, "maze_01.txt")
package service
