package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wricardo/mazeplay/game/service"
)

// DefaultTimeout bounds every collaborator call.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the maze server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("maze server error: %d", e.Status)
	}
	return fmt.Sprintf("maze server error: %d: %s", e.Status, e.Message)
}

// Unwrap maps 404 onto service.ErrMazeNotFound.
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusNotFound {
		return service.ErrMazeNotFound
	}
	return nil
}

// Client talks to the maze server's HTTP API. It implements both
// service.MazeStore and service.Solver.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var (
	_ service.MazeStore = (*Client)(nil)
	_ service.Solver    = (*Client)(nil)
)

// NewClient creates a client for the maze server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string { return c.baseURL }

// List returns the names of stored .txt mazes. Other listed files are
// ignored.
func (c *Client) List(ctx context.Context) ([]string, error) {
	var response struct {
		Mazes []string `json:"mazes"`
	}
	if err := c.apiCall(ctx, http.MethodGet, "/api/mazes", nil, &response); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(response.Mazes))
	for _, name := range response.Mazes {
		if strings.HasSuffix(name, service.MazeExtension) {
			names = append(names, name)
		}
	}
	return names, nil
}

// Get returns the raw text of a stored maze.
func (c *Client) Get(ctx context.Context, name string) (string, error) {
	var response struct {
		Filename string  `json:"filename"`
		Contents *string `json:"contents"`
	}
	if err := c.apiCall(ctx, http.MethodGet, "/api/maze/"+url.PathEscape(name), nil, &response); err != nil {
		return "", err
	}
	if response.Contents == nil {
		return "", fmt.Errorf("%w: maze %s has no contents", service.ErrMalformedResult, name)
	}
	return *response.Contents, nil
}

// Upload stores contents under filename, replacing any existing maze.
func (c *Client) Upload(ctx context.Context, filename, contents string) error {
	body := map[string]string{
		"filename": filename,
		"contents": contents,
	}
	return c.apiCall(ctx, http.MethodPost, "/api/maze/upload", body, nil)
}

// Delete removes a stored maze.
func (c *Client) Delete(ctx context.Context, name string) error {
	return c.apiCall(ctx, http.MethodPost, "/api/maze/delete/"+url.PathEscape(name), nil, nil)
}

// Run asks the server to solve a stored maze with algorithm.
func (c *Client) Run(ctx context.Context, algorithm service.Algorithm, maze string) (*service.SolverResult, error) {
	path := fmt.Sprintf("/api/run/%s/%s", url.PathEscape(string(algorithm)), url.PathEscape(maze))

	var result service.SolverResult
	if err := c.apiCall(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

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
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return readError(resp)
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: %s %s: %v", service.ErrMalformedResult, method, path, err)
	}
	return nil
}

// readError accepts both {"error": "..."} bodies and plain text.
func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var errResp map[string]string
	if json.Unmarshal(data, &errResp) == nil {
		if msg, ok := errResp["error"]; ok {
			return &APIError{Status: resp.StatusCode, Message: msg}
		}
	}
	return &APIError{Status: resp.StatusCode, Message: strings.TrimSpace(string(data))}
}

// IsAPIError reports whether err came back from the maze server as a
// non-2xx response.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
