// Package api serves the maze client's HTTP surface.
//
// Endpoints:
//
// Editor:
//   - GET    /api/editor/intents                     intent names Dispatch accepts
//   - POST   /api/editor/sessions                    {profile, rows, cols, seed, layout, generate, load}
//   - GET    /api/editor/sessions                    ?sort=created|accessed&order=asc|desc&limit=N
//   - GET    /api/editor/sessions/{id}
//   - DELETE /api/editor/sessions/{id}
//   - POST   /api/editor/sessions/{id}/intents       {"intent": "clickCell", "cell": {"r": 1, "c": 2}}
//   - GET    /api/editor/sessions/{id}/canvas.png
//
// Gallery:
//   - GET  /api/gallery
//   - POST /api/gallery/upload                       {filename, contents}
//   - GET  /api/gallery/{name}/preview.png           ?w=&h=
//   - POST /api/gallery/{name}/delete
//
// Comparison:
//   - GET /api/compare/{name}                        all algorithms, failures reported per entry
//   - GET /api/compare/{name}/{algo}.png             ?w=&h=
//
// Replay:
//   - POST /api/replay/{name}/{algo}                 ?speed=ms&width=&dpr=&profile=&wait=true
//   - GET  /api/replay/{name}/{algo}/canvas.png
//
// Other:
//   - GET /api/profiles, GET /api/profiles/{name}
//   - GET /api/health
//   - GET /ws?channel=editor/{id} | replay/{name}/{algo}
//
// A replay runs in the background and streams frames over the WebSocket
// channel unless wait=true is given. Starting a new replay for the same maze
// and algorithm supersedes the one in progress.
//
// Errors are JSON bodies of the form {"error": "message"}. Bad input is 400,
// unknown sessions, profiles and mazes are 404, a superseded wait=true
// replay is 409, and failures of the maze server are 502.
package api
