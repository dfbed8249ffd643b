// Package tickets is the client for the helpdesk ticket service that owns tickets and attachments.
package tickets

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/models"
	"go.uber.org/zap"
)

// maxErrorBody bounds how much of an error response is kept for details.
const maxErrorBody = 4096

// Credentials are forwarded from the incoming request to the ticket service.
type Credentials struct {
	Authorization string
	RequestID     string
}

// Source lists and loads tickets on behalf of a caller. *Client implements it.
type Source interface {
	ListMine(ctx context.Context, creds Credentials) (Listing, error)
	Get(ctx context.Context, creds Credentials, ticketID string) (*models.Ticket, error)
}

// Client calls the ticket service over HTTP.
type Client struct {
	baseURL    string
	listPath   string
	ticketPath string
	http       *http.Client
	logger     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger for malformed payloads.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient returns a client for the service described by cfg.
func NewClient(cfg *config.TicketsConfig, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		listPath:   cfg.ListPath,
		ticketPath: cfg.TicketPath,
		http:       &http.Client{Timeout: cfg.Timeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListMine returns the tickets visible to the caller. A payload with no recognizable ticket
// array is returned as a ListingMalformed listing, not an error.
func (c *Client) ListMine(ctx context.Context, creds Credentials) (Listing, error) {
	body, err := c.get(ctx, creds, c.listPath)
	if err != nil {
		return Listing{}, err
	}
	listing := NormalizeListing(body)
	if listing.Kind == ListingMalformed {
		c.logger.Warn("ticket list payload not recognized",
			zap.String("request_id", creds.RequestID),
			zap.Int("bytes", len(body)),
		)
	}
	return listing, nil
}

// Get loads one ticket by id.
func (c *Client) Get(ctx context.Context, creds Credentials, ticketID string) (*models.Ticket, error) {
	body, err := c.get(ctx, creds, fmt.Sprintf(c.ticketPath, url.PathEscape(ticketID)))
	if err != nil {
		return nil, err
	}
	t, err := unwrapTicket(body)
	if err != nil {
		return nil, fmt.Errorf("decode ticket %s: %w", ticketID, err)
	}
	if t.ID == "" {
		t.ID = ticketID
	}
	return t, nil
}

func (c *Client) get(ctx context.Context, creds Credentials, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if creds.Authorization != "" {
		req.Header.Set("Authorization", creds.Authorization)
	}
	if creds.RequestID != "" {
		req.Header.Set("X-Request-ID", creds.RequestID)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ticket service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		text := strings.TrimSpace(string(detail))
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &models.UpstreamAuthError{StatusCode: resp.StatusCode, Body: text}
		}
		return nil, &models.UpstreamError{StatusCode: resp.StatusCode, Body: text}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("ticket service: read body: %w", err)
	}
	c.logger.Debug("ticket service call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return data, nil
}
