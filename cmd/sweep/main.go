// Command sweep drives a running server through its REST API: for every seed
// in a range it generates a maze in an editor session, saves it to the maze
// store, and runs the algorithm comparison. It prints per-maze results and a
// per-algorithm summary.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"
)

type editorState struct {
	ID   string `json:"id"`
	Seed int64  `json:"seed"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

type comparison struct {
	Algorithm string `json:"algorithm"`
	Visited   int    `json:"visited"`
	PathLen   int    `json:"path_length"`
	Error     string `json:"error,omitempty"`
}

type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
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

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		var errResp map[string]string
		if json.Unmarshal(data, &errResp) == nil && errResp["error"] != "" {
			return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, errResp["error"])
		}
		return fmt.Errorf("%s %s failed: %s - %s", method, path, resp.Status, string(data))
	}

	if result != nil {
		if err := json.Unmarshal(data, result); err != nil {
			return fmt.Errorf("parse %s response: %w", path, err)
		}
	}
	return nil
}

// CreateEditor opens an editor session with a generated maze.
func (c *Client) CreateEditor(ctx context.Context, rows, cols int, seed int64) (*editorState, error) {
	body := map[string]interface{}{
		"rows":     rows,
		"cols":     cols,
		"seed":     seed,
		"generate": true,
	}
	var state editorState
	if err := c.do(ctx, "POST", "/api/editor/sessions", body, &state); err != nil {
		return nil, fmt.Errorf("create editor: %w", err)
	}
	return &state, nil
}

// Save stores the editor grid under filename.
func (c *Client) Save(ctx context.Context, id, filename string) error {
	body := map[string]string{"intent": "save", "filename": filename}
	return c.do(ctx, "POST", "/api/editor/sessions/"+url.PathEscape(id)+"/intents", body, nil)
}

// DeleteEditor closes an editor session.
func (c *Client) DeleteEditor(ctx context.Context, id string) error {
	return c.do(ctx, "DELETE", "/api/editor/sessions/"+url.PathEscape(id), nil, nil)
}

// Compare runs every algorithm on a stored maze.
func (c *Client) Compare(ctx context.Context, name string) ([]comparison, error) {
	var resp struct {
		Algorithms []comparison `json:"algorithms"`
	}
	if err := c.do(ctx, "GET", "/api/compare/"+url.PathEscape(name), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Algorithms, nil
}

// Summary aggregates the comparisons of one algorithm across mazes.
type Summary struct {
	Algorithm string
	Runs      int
	Failures  int
	NoPath    int
	Visited   int
	PathLen   int
}

func (s *Summary) MeanVisited() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.Visited) / float64(s.Runs)
}

func (s *Summary) MeanPath() float64 {
	if solved := s.Runs - s.NoPath; solved > 0 {
		return float64(s.PathLen) / float64(solved)
	}
	return 0
}

type options struct {
	rows, cols int
	from, to   int64
	prefix     string
	keep       bool
	verbose    bool
}

// sweep runs the generate, save and compare loop and returns the summaries
// sorted by algorithm name. A failing seed is logged and skipped.
func sweep(ctx context.Context, c *Client, opts options, out io.Writer) ([]*Summary, error) {
	if opts.to < opts.from {
		return nil, fmt.Errorf("seed range %d..%d is empty", opts.from, opts.to)
	}

	summaries := map[string]*Summary{}
	failedSeeds := 0
	for seed := opts.from; seed <= opts.to; seed++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := fmt.Sprintf("%s%d.txt", opts.prefix, seed)
		results, err := runSeed(ctx, c, opts, seed, name)
		if err != nil {
			log.Printf("[SWEEP] seed=%d failed: %v", seed, err)
			failedSeeds++
			continue
		}

		fmt.Fprintf(out, "%s:", name)
		for _, r := range results {
			s := summaries[r.Algorithm]
			if s == nil {
				s = &Summary{Algorithm: r.Algorithm}
				summaries[r.Algorithm] = s
			}
			if r.Error != "" {
				s.Failures++
				fmt.Fprintf(out, " %s=error", r.Algorithm)
				continue
			}
			s.Runs++
			s.Visited += r.Visited
			if r.PathLen == 0 {
				s.NoPath++
			} else {
				s.PathLen += r.PathLen
			}
			fmt.Fprintf(out, " %s=%d/%d", r.Algorithm, r.Visited, r.PathLen)
		}
		fmt.Fprintln(out)
	}

	if failedSeeds > 0 && len(summaries) == 0 {
		return nil, fmt.Errorf("all %d seeds failed", failedSeeds)
	}

	result := make([]*Summary, 0, len(summaries))
	for _, s := range summaries {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Algorithm < result[j].Algorithm })
	return result, nil
}

func runSeed(ctx context.Context, c *Client, opts options, seed int64, name string) ([]comparison, error) {
	state, err := c.CreateEditor(ctx, opts.rows, opts.cols, seed)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := c.DeleteEditor(ctx, state.ID); err != nil && opts.verbose {
			log.Printf("[SWEEP] failed to close editor %s: %v", state.ID, err)
		}
	}()

	if err := c.Save(ctx, state.ID, name); err != nil {
		return nil, err
	}
	results, err := c.Compare(ctx, name)
	if err != nil {
		return nil, err
	}
	if !opts.keep {
		if err := c.do(ctx, "POST", "/api/gallery/"+url.PathEscape(name)+"/delete", nil, nil); err != nil && opts.verbose {
			log.Printf("[SWEEP] failed to delete %s: %v", name, err)
		}
	}
	return results, nil
}

func printSummary(out io.Writer, summaries []*Summary) {
	fmt.Fprintf(out, "\n%-8s %6s %6s %8s %10s %8s\n", "algo", "runs", "fail", "no-path", "visited", "path")
	for _, s := range summaries {
		fmt.Fprintf(out, "%-8s %6d %6d %8d %10.1f %8.1f\n",
			s.Algorithm, s.Runs, s.Failures, s.NoPath, s.MeanVisited(), s.MeanPath())
	}
}

func main() {
	serverURL := flag.String("url", "http://localhost:8080", "Maze Play server URL")
	rows := flag.Int("rows", 21, "Maze rows")
	cols := flag.Int("cols", 21, "Maze columns")
	from := flag.Int64("from", 1, "First seed")
	to := flag.Int64("to", 10, "Last seed")
	prefix := flag.String("prefix", "sweep-", "Stored maze name prefix")
	keep := flag.Bool("keep", false, "Keep the generated mazes in the store")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	log.Printf("Connecting to server at %s", *serverURL)
	client := NewClient(*serverURL)

	summaries, err := sweep(context.Background(), client, options{
		rows:    *rows,
		cols:    *cols,
		from:    *from,
		to:      *to,
		prefix:  *prefix,
		keep:    *keep,
		verbose: *verbose,
	}, os.Stdout)
	if err != nil {
		log.Fatalf("Sweep failed: %v", err)
	}
	printSummary(os.Stdout, summaries)
}
