package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mazeplay/game/grid"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Mazeplay",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mazeplay - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GRID SYMBOLS:
  # wall    . open    S start    G goal
Coordinates are (r, c): row first, both zero-based from the top-left.

AVAILABLE TOOLS:
- create_editor: Start an editor session (optionally generating a maze or loading a stored one)
- editor_state: Show the editor grid and mode
- editor_intent: Send an intent (setMode, clickCell, regenerate, resize, save, load, ...)
- describe_cell: Explain one cell of an editor grid
- list_mazes: List stored mazes
- compare_algorithms: Run bfs, dfs, greedy and astar on a stored maze
- replay: Replay one algorithm on a stored maze and report the result

There is at most one start and one goal. Placing a start or goal moves the existing one.`),
	)

	c.registerTools()
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

func numberProp(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_editor",
		Description: "Create a maze editor session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"profile":  stringProp("Client profile to use (optional)"),
				"rows":     numberProp("Grid rows (optional)"),
				"cols":     numberProp("Grid columns (optional)"),
				"seed":     numberProp("Generator seed (optional)"),
				"generate": map[string]interface{}{"type": "boolean", "description": "Carve a random maze immediately"},
				"load":     stringProp("Stored maze to open instead of an empty grid (optional)"),
			},
		},
	}, c.handleCreateEditor)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "editor_state",
		Description: "Get the current grid and mode of an editor session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Editor session ID"),
			},
			Required: []string{"session_id"},
		},
	}, c.handleEditorState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "editor_intent",
		Description: "Send an intent to an editor session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Editor session ID"),
				"intent":     stringProp("One of setMode, clickCell, pointerDown, regenerate, resize, save, load, layout"),
				"mode":       stringProp("For setMode: wall, start or goal"),
				"r":          numberProp("For clickCell: row"),
				"c":          numberProp("For clickCell: column"),
				"x":          numberProp("For pointerDown: x in surface pixels"),
				"y":          numberProp("For pointerDown: y in surface pixels"),
				"rows":       numberProp("For resize: rows"),
				"cols":       numberProp("For resize: columns"),
				"filename":   stringProp("For save and load: maze file name ending in .txt"),
			},
			Required: []string{"session_id", "intent"},
		},
	}, c.handleEditorIntent)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Describe one cell of an editor grid",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": stringProp("Editor session ID"),
				"r":          numberProp("Row (0-based)"),
				"c":          numberProp("Column (0-based)"),
			},
			Required: []string{"session_id", "r", "c"},
		},
	}, c.handleDescribeCell)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_mazes",
		Description: "List stored mazes with their sizes",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMazes)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "compare_algorithms",
		Description: "Run every search algorithm on a stored maze and compare visited cells and path length",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"maze": stringProp("Stored maze name"),
			},
			Required: []string{"maze"},
		},
	}, c.handleCompare)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "replay",
		Description: "Replay one algorithm on a stored maze without animation and report the result",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"maze":      stringProp("Stored maze name"),
				"algorithm": stringProp("bfs, dfs, greedy or astar"),
			},
			Required: []string{"maze", "algorithm"},
		},
	}, c.handleReplay)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		args = map[string]interface{}{}
	}
	return args
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	v, ok := args[key].(float64)
	return int(v), ok
}

// editorState mirrors the API's editor session JSON.
type editorState struct {
	ID      string     `json:"id"`
	Profile string     `json:"profile"`
	Seed    int64      `json:"seed"`
	Mode    string     `json:"mode"`
	Rows    int        `json:"rows"`
	Cols    int        `json:"cols"`
	Grid    *grid.Grid `json:"grid"`
	Channel string     `json:"channel"`
}

// Tool handlers

func (c *Client) handleCreateEditor(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	body := map[string]interface{}{}
	for _, key := range []string{"profile", "load"} {
		if v, _ := args[key].(string); v != "" {
			body[key] = v
		}
	}
	for _, key := range []string{"rows", "cols", "seed"} {
		if v, ok := intArg(args, key); ok && v > 0 {
			body[key] = v
		}
	}
	if generate, _ := args["generate"].(bool); generate {
		body["generate"] = true
	}

	var state editorState
	if err := c.apiCall(ctx, "POST", "/api/editor/sessions", body, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created editor: %s\nSeed: %d\n\n%s", state.ID, state.Seed, formatEditorState(&state))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleEditorState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	var state editorState
	if err := c.apiCall(ctx, "GET", "/api/editor/sessions/"+url.PathEscape(sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatEditorState(&state)), nil
}

func (c *Client) handleEditorIntent(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	intent, _ := args["intent"].(string)

	body := map[string]interface{}{"intent": intent}
	if mode, _ := args["mode"].(string); mode != "" {
		body["mode"] = mode
	}
	if filename, _ := args["filename"].(string); filename != "" {
		body["filename"] = filename
	}
	r, hasR := intArg(args, "r")
	col, hasC := intArg(args, "c")
	if hasR && hasC {
		body["cell"] = grid.Coordinate{R: r, C: col}
	}
	for _, key := range []string{"x", "y"} {
		if v, ok := args[key].(float64); ok {
			body[key] = v
		}
	}
	for _, key := range []string{"rows", "cols"} {
		if v, ok := intArg(args, key); ok {
			body[key] = v
		}
	}

	var response struct {
		Outcome struct {
			Intent  string `json:"intent"`
			Changed bool   `json:"changed"`
		} `json:"outcome"`
		State editorState `json:"state"`
	}
	path := fmt.Sprintf("/api/editor/sessions/%s/intents", url.PathEscape(sessionID))
	if err := c.apiCall(ctx, "POST", path, body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	changed := "no change"
	if response.Outcome.Changed {
		changed = "grid changed"
	}
	result := fmt.Sprintf("%s: %s\n\n%s", response.Outcome.Intent, changed, formatEditorState(&response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	r, _ := intArg(args, "r")
	col, _ := intArg(args, "c")

	var state editorState
	if err := c.apiCall(ctx, "GET", "/api/editor/sessions/"+url.PathEscape(sessionID), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if state.Grid == nil {
		return mcp.NewToolResultError("editor returned no grid"), nil
	}

	pos := grid.Coordinate{R: r, C: col}
	if !state.Grid.In(pos) {
		return mcp.NewToolResultError(fmt.Sprintf("Cell (%d, %d) is out of bounds. Grid is %dx%d (rows 0-%d, cols 0-%d)",
			r, col, state.Grid.Rows(), state.Grid.Cols(), state.Grid.Rows()-1, state.Grid.Cols()-1)), nil
	}

	return mcp.NewToolResultText(describeCell(state.Grid, pos)), nil
}

func (c *Client) handleListMazes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int `json:"count"`
		Mazes []struct {
			Name  string `json:"name"`
			Rows  int    `json:"rows"`
			Cols  int    `json:"cols"`
			Error string `json:"error"`
		} `json:"mazes"`
	}

	if err := c.apiCall(ctx, "GET", "/api/gallery", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Stored mazes (%d):\n\n", response.Count)
	for _, m := range response.Mazes {
		if m.Error != "" {
			fmt.Fprintf(&b, "- %s (unavailable: %s)\n", m.Name, m.Error)
			continue
		}
		fmt.Fprintf(&b, "- %s (%dx%d)\n", m.Name, m.Rows, m.Cols)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleCompare(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	maze, _ := arguments(request)["maze"].(string)

	var response struct {
		Maze       string `json:"maze"`
		Algorithms []struct {
			Algorithm string `json:"algorithm"`
			Visited   int    `json:"visited"`
			PathLen   int    `json:"path_length"`
			Error     string `json:"error"`
		} `json:"algorithms"`
	}
	if err := c.apiCall(ctx, "GET", "/api/compare/"+url.PathEscape(maze), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Comparison for %s:\n\n", response.Maze)
	fmt.Fprintf(&b, "%-8s %8s %8s\n", "algo", "visited", "path")
	for _, a := range response.Algorithms {
		if a.Error != "" {
			fmt.Fprintf(&b, "%-8s failed: %s\n", a.Algorithm, a.Error)
			continue
		}
		path := fmt.Sprintf("%d", a.PathLen)
		if a.PathLen == 0 {
			path = "none"
		}
		fmt.Fprintf(&b, "%-8s %8d %8s\n", a.Algorithm, a.Visited, path)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleReplay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	maze, _ := args["maze"].(string)
	algorithm, _ := args["algorithm"].(string)

	var response struct {
		Key        string `json:"key"`
		Channel    string `json:"channel"`
		Status     string `json:"status"`
		Visited    int    `json:"visited"`
		PathLength int    `json:"path_length"`
	}
	path := fmt.Sprintf("/api/replay/%s/%s?wait=true&speed=0", url.PathEscape(maze), url.PathEscape(algorithm))
	if err := c.apiCall(ctx, "POST", path, nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Replay %s: %s\nVisited: %d\nPath length: %d\nCanvas: %s/api/replay/%s/canvas.png\n",
		response.Key, response.Status, response.Visited, response.PathLength, c.baseURL, response.Key)
	return mcp.NewToolResultText(result), nil
}

// Formatting helpers

func formatEditorState(state *editorState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Editor %s (%dx%d, mode: %s)\n", state.ID, state.Rows, state.Cols, state.Mode)
	if state.Grid == nil {
		return b.String()
	}

	// Column header uses the last digit of each column index.
	b.WriteString("    ")
	for col := 0; col < state.Grid.Cols(); col++ {
		fmt.Fprintf(&b, "%d", col%10)
	}
	b.WriteString("\n")
	for r, line := range state.Grid.Lines() {
		fmt.Fprintf(&b, "%3d %s\n", r, line)
	}

	if pos, ok := state.Grid.Find(grid.Start); ok {
		fmt.Fprintf(&b, "\nStart: %s", pos)
	} else {
		b.WriteString("\nStart: not placed")
	}
	if pos, ok := state.Grid.Find(grid.Goal); ok {
		fmt.Fprintf(&b, "\nGoal: %s", pos)
	} else {
		b.WriteString("\nGoal: not placed")
	}
	if start, ok := state.Grid.Find(grid.Start); ok {
		if goal, ok := state.Grid.Find(grid.Goal); ok {
			d := state.Grid.DistanceAt(state.Grid.Distances(start), goal)
			if d == grid.Unreachable {
				b.WriteString("\nGoal is not reachable from start")
			} else {
				fmt.Fprintf(&b, "\nShortest path: %d steps", d)
			}
		}
	}
	b.WriteString("\n")
	return b.String()
}

func describeCell(g *grid.Grid, pos grid.Coordinate) string {
	sym := g.Get(pos)

	var cellType, description string
	passable := true
	switch sym {
	case grid.Wall:
		cellType = "Wall"
		passable = false
		description = "Blocked. Clicking in wall mode opens it."
	case grid.Empty:
		cellType = "Open"
		description = "Open corridor. Clicking in wall mode closes it."
	case grid.Start:
		cellType = "Start"
		description = "Where the search begins. Placing another start moves it."
	case grid.Goal:
		cellType = "Goal"
		description = "Where the search ends. Placing another goal moves it."
	}

	return fmt.Sprintf(`Cell %s:
Symbol: %c
Type: %s
Passable: %v
Open neighbours: %d
Description: %s
`, pos, byte(sym), cellType, passable, g.OpenDegree(pos), description)
}
