package cli

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

	"github.com/google/uuid"
	"github.com/hyperjump/ticketrag/internal/models"
)

// Client calls a running ticketrag server on behalf of one user.
type Client struct {
	baseURL        string
	user           string
	token          string
	identityHeader string
	http           *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithIdentityHeader overrides the header carrying the user id (default X-User-ID).
func WithIdentityHeader(h string) ClientOption {
	return func(c *Client) { c.identityHeader = h }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient returns a client for serverURL. token is sent as a bearer token when it has no scheme.
func NewClient(serverURL, user, token string, opts ...ClientOption) *Client {
	if token != "" && !strings.Contains(token, " ") {
		token = "Bearer " + token
	}
	c := &Client{
		baseURL:        strings.TrimRight(serverURL, "/"),
		user:           user,
		token:          token,
		identityHeader: "X-User-ID",
		http:           &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Query runs a RAG query.
func (c *Client) Query(ctx context.Context, req *models.QueryRequest) (*models.QueryResponse, error) {
	var resp models.QueryResponse
	if err := c.do(ctx, http.MethodPost, "/rag/query", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Index indexes the user's tickets, or one ticket when ticketID is set. With reindex the
// matching chunks are purged first.
func (c *Client) Index(ctx context.Context, req *models.IndexRequest, ticketID string, reindex bool) (*models.IndexResponse, error) {
	action := "index"
	if reindex {
		action = "reindex"
	}
	path := "/rag/" + action
	if ticketID != "" {
		path = "/tickets/" + url.PathEscape(ticketID) + "/rag/" + action
	}
	var resp models.IndexResponse
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status fetches the server status.
func (c *Client) Status(ctx context.Context) (*Status, error) {
	var s Status
	if err := c.do(ctx, http.MethodGet, "/status", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.user != "" {
		req.Header.Set(c.identityHeader, c.user)
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decodeServerError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ServerError is a non-200 answer from the server.
type ServerError struct {
	StatusCode int
	Message    string
	Details    string
}

func (e *ServerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("server returned %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

func decodeServerError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.Unmarshal(b, &body); err != nil || body.Error == "" {
		return &ServerError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(b))}
	}
	return &ServerError{StatusCode: resp.StatusCode, Message: body.Error, Details: body.Details}
}
