// Package extract converts downloaded attachments into plain text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/hyperjump/ticketrag/internal/fetch"
	"github.com/hyperjump/ticketrag/internal/models"
	"go.uber.org/zap"
)

// Result is the text of one attachment plus structural hints about it.
type Result struct {
	Text        string
	Ext         string
	ContentType string
	Structure   Structure
}

// Extractor downloads attachments through a Fetcher and extracts their text.
type Extractor struct {
	fetcher fetch.Fetcher
	logger  *zap.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger for skipped and unsupported attachments.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor returns an Extractor that downloads through f.
func NewExtractor(f fetch.Fetcher, opts ...Option) *Extractor {
	e := &Extractor{fetcher: f, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract fetches the attachment at rawURL and returns its text, dispatching on the
// extension of filename (or of the URL path when filename is empty).
// Known formats propagate *models.DownloadError and *models.ExtractionError.
// Anything else goes through extractUnsupported, which never fails.
func (e *Extractor) Extract(ctx context.Context, rawURL, filename string) (*Result, error) {
	ext := Ext(filename, rawURL)
	res := &Result{Ext: ext, ContentType: ContentType(ext)}

	if !IsKnown(ext) {
		res.Text = e.extractUnsupported(ctx, rawURL, filename, ext)
		res.Structure = Analyze(res.Text)
		return res, nil
	}

	resp, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	text, err := e.ExtractBytes(resp.Body, ext)
	if err != nil {
		return nil, &models.ExtractionError{Filename: filename, Format: ext, Err: err}
	}
	res.Text = strings.TrimSpace(text)
	res.Structure = Analyze(res.Text)
	return res, nil
}

// extractUnsupported is the catch-all policy for unknown or missing extensions:
// try a text download and return empty text on any failure.
func (e *Extractor) extractUnsupported(ctx context.Context, rawURL, filename, ext string) string {
	resp, err := e.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		e.logger.Warn("unsupported attachment skipped",
			zap.String("url", rawURL),
			zap.String("filename", filename),
			zap.String("ext", ext),
			zap.Error(errors.Join(models.ErrUnsupportedFormat, err)),
		)
		return ""
	}
	if looksBinary(resp.Body) {
		e.logger.Warn("unsupported attachment skipped",
			zap.String("url", rawURL),
			zap.String("filename", filename),
			zap.String("ext", ext),
			zap.Error(fmt.Errorf("%w: binary content", models.ErrUnsupportedFormat)),
		)
		return ""
	}
	text, _ := extractPlain(resp.Body)
	return strings.TrimSpace(text)
}

// ExtractBytes extracts text from content based on the given extension.
// ext should include the leading dot (e.g. ".pdf").
func (e *Extractor) ExtractBytes(content []byte, ext string) (string, error) {
	switch ext {
	case ".pdf":
		return extractPDF(content)
	case ".html", ".htm":
		return extractHTML(content)
	case ".docx":
		return extractDOCX(content)
	case ".pptx":
		return extractPPTX(content)
	case ".xlsx":
		return extractExcel(content)
	case ".rtf", ".odt":
		return extractOffice(content)
	case ".txt", ".md", ".json", ".csv", ".log", ".xml":
		return extractPlain(content)
	default:
		return "", fmt.Errorf("%w: %q", models.ErrUnsupportedFormat, ext)
	}
}

var knownExts = map[string]string{
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".md":   "text/markdown",
	".json": "application/json",
	".csv":  "text/csv",
	".log":  "text/plain",
	".xml":  "application/xml",
	".html": "text/html",
	".htm":  "text/html",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".rtf":  "application/rtf",
	".odt":  "application/vnd.oasis.opendocument.text",
}

// IsKnown reports whether ext has a dedicated extractor.
func IsKnown(ext string) bool {
	_, ok := knownExts[ext]
	return ok
}

// ContentType maps an extension to a MIME type, or "application/octet-stream".
func ContentType(ext string) string {
	if ct, ok := knownExts[ext]; ok {
		return ct
	}
	return "application/octet-stream"
}

// Ext returns the lowercased extension of filename, falling back to the URL path.
func Ext(filename, rawURL string) string {
	if filename != "" {
		return strings.ToLower(path.Ext(filename))
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(path.Ext(u.Path))
}
