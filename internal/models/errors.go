package models

import (
	"errors"
	"fmt"
)

var (
	// ErrEmbeddingUnavailable means the embedding model could not be loaded or run.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrUnsupportedFormat marks an attachment whose format has no extractor.
	ErrUnsupportedFormat = errors.New("unsupported attachment format")

	// ErrMissingIdentity means the request carried no caller identity.
	ErrMissingIdentity = errors.New("caller identity missing")
)

// DownloadError is returned when an attachment cannot be fetched.
type DownloadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("download failed: %d %s", e.StatusCode, e.URL)
	}
	return fmt.Sprintf("download failed: %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ExtractionError is a format-specific parse failure.
type ExtractionError struct {
	Filename string
	Format   string
	Err      error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s (%s): %v", e.Filename, e.Format, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// StoreError wraps a vector store failure with the operation that failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("vector store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// InvalidQueryError is a client error on a specific request field.
type InvalidQueryError struct {
	Field  string
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// UpstreamAuthError is returned when the ticket service rejects the forwarded credentials.
type UpstreamAuthError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamAuthError) Error() string {
	return fmt.Sprintf("ticket service rejected credentials (%d)", e.StatusCode)
}

// UpstreamError is any other non-2xx answer from the ticket service.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("ticket service returned %d: %s", e.StatusCode, e.Body)
}
