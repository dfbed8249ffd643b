// Package fetch downloads attachment bytes over HTTP(S).
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hyperjump/ticketrag/internal/models"
	"go.uber.org/zap"
)

// Fetcher downloads a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Response, error)
}

// Response is a completed download.
type Response struct {
	URL         string
	ContentType string
	Body        []byte
}

// HTTPFetcher implements Fetcher with net/http.
type HTTPFetcher struct {
	client    *http.Client
	maxBytes  int64
	userAgent string
	logger    *zap.Logger
}

// Option configures an HTTPFetcher.
type Option func(*HTTPFetcher)

// WithLogger sets the logger for download events.
func WithLogger(logger *zap.Logger) Option {
	return func(f *HTTPFetcher) {
		f.logger = logger
	}
}

// WithClient replaces the underlying HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *HTTPFetcher) {
		f.client = c
	}
}

// WithUserAgent sets the User-Agent header sent on downloads.
func WithUserAgent(ua string) Option {
	return func(f *HTTPFetcher) {
		f.userAgent = ua
	}
}

// NewHTTPFetcher returns a fetcher with the given per-request timeout and body cap.
// maxBytes <= 0 means unlimited.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64, opts ...Option) *HTTPFetcher {
	f := &HTTPFetcher{
		client:   &http.Client{Timeout: timeout},
		maxBytes: maxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET. Non-2xx responses become *models.DownloadError carrying the status;
// transport failures become *models.DownloadError with StatusCode 0.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Response, error) {
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return nil, &models.DownloadError{URL: url, Err: fmt.Errorf("unsupported url scheme")}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &models.DownloadError{URL: url, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &models.DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &models.DownloadError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s", http.StatusText(resp.StatusCode))}
	}

	var body io.Reader = resp.Body
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &models.DownloadError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return nil, &models.DownloadError{URL: url, StatusCode: resp.StatusCode, Err: fmt.Errorf("body exceeds %d bytes", f.maxBytes)}
	}

	if f.logger != nil {
		f.logger.Debug("downloaded attachment",
			zap.String("url", url),
			zap.Int("bytes", len(data)),
			zap.Duration("elapsed", time.Since(start)),
		)
	}
	return &Response{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, nil
}
