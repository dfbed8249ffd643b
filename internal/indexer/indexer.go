package indexer

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"time"

	"github.com/hyperjump/ticketrag/internal/chunkid"
	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/embedding"
	"github.com/hyperjump/ticketrag/internal/extract"
	"github.com/hyperjump/ticketrag/internal/metrics"
	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/internal/vector"
	"go.uber.org/zap"
)

// excerptChars bounds the ticket description excerpt stored on each chunk.
const excerptChars = 200

// TextExtractor turns an attachment URL into text. *extract.Extractor implements it.
type TextExtractor interface {
	Extract(ctx context.Context, rawURL, filename string) (*extract.Result, error)
}

// Options describes one ensure-index run.
type Options struct {
	Tickets []models.Ticket
	// ScopeID owns every chunk written by the run and is stored as the userId metadata.
	ScopeID  string
	Project  string
	Size     int
	Overlap  int
	Strategy string
	// Reindex purges the scope's chunks before indexing. With TicketID set only that
	// ticket's chunks are purged.
	Reindex  bool
	TicketID string
}

// Result reports what a run wrote and purged.
type Result struct {
	Added   int
	IDs     []string
	Deleted int
}

// Indexer builds and refreshes a scope's chunks in the vector store.
type Indexer struct {
	extractor TextExtractor
	embedder  embedding.Embedder
	store     vector.Store
	config    *config.RAGConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for skipped attachments and purge failures.
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithMetrics records indexing counters on m.
func WithMetrics(m *metrics.Metrics) IndexerOption {
	return func(idx *Indexer) { idx.metrics = m }
}

// NewIndexer creates an indexer with the given dependencies.
func NewIndexer(
	extractor TextExtractor,
	embedder embedding.Embedder,
	store vector.Store,
	cfg *config.RAGConfig,
	opts ...IndexerOption,
) *Indexer {
	idx := &Indexer{
		extractor: extractor,
		embedder:  embedder,
		store:     store,
		config:    cfg,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	if idx.logger == nil {
		idx.logger = zap.NewNop()
	}
	return idx
}

// EnsureIndex extracts, chunks, embeds and upserts every attachment of opts.Tickets under
// opts.ScopeID. Attachment failures are logged and skipped. Embedding and upsert failures
// abort the run. Nothing is embedded or written when no chunk survives the filters.
//
// Reindex deletes before it writes, so a failure between the two leaves the scope
// under-indexed until the next run.
func (idx *Indexer) EnsureIndex(ctx context.Context, opts Options) (*Result, error) {
	if opts.ScopeID == "" {
		return nil, models.ErrMissingIdentity
	}
	start := time.Now()
	defer func() { idx.metrics.ObserveIndex(time.Since(start)) }()

	chunker, err := NewChunker(idx.strategy(opts.Strategy), opts.Size, opts.Overlap, idx.config.MinChunkSize)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if opts.Reindex {
		res.Deleted = idx.purge(ctx, opts.ScopeID, opts.TicketID)
	}

	project := opts.Project
	if project == "" {
		project = idx.config.Project
	}

	var chunks []*models.Chunk
	seenURL := make(map[string]bool)
	seenHash := make(map[string]bool)
	for ti := range opts.Tickets {
		ticket := &opts.Tickets[ti]
		for ai, att := range ticket.Attachments {
			if att.URL == "" || seenURL[att.URL] {
				continue
			}
			seenURL[att.URL] = true

			built, err := idx.attachmentChunks(ctx, chunker, ticket, ai, att, opts.ScopeID, project, seenHash)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				idx.skip(att, err)
				continue
			}
			chunks = append(chunks, built...)
		}
	}

	if len(chunks) == 0 {
		return res, nil
	}

	inputs := make([]string, len(chunks))
	for i, c := range chunks {
		inputs[i] = c.EmbeddingInput()
	}
	embeddings, err := idx.embedder.EmbedBatch(ctx, inputs)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(embeddings) != len(chunks) {
		return nil, fmt.Errorf("embed chunks: got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	ids := make([]string, len(chunks))
	docs := make([]string, len(chunks))
	metas := make([]models.Metadata, len(chunks))
	for i, c := range chunks {
		c.Embedding = embeddings[i]
		ids[i] = c.ID
		docs[i] = c.Text
		metas[i] = c.Metadata
	}
	if err := idx.store.Upsert(ctx, ids, docs, metas, embeddings); err != nil {
		return nil, fmt.Errorf("upsert chunks: %w", err)
	}

	idx.metrics.ChunksIndexed(len(ids))
	idx.logger.Debug("indexer scope indexed",
		zap.String("scope", opts.ScopeID),
		zap.Int("tickets", len(opts.Tickets)),
		zap.Int("chunks", len(ids)),
	)
	res.Added = len(ids)
	res.IDs = ids
	return res, nil
}

// errSkipped marks attachments dropped by a filter rather than a failure.
type errSkipped struct{ reason string }

func (e *errSkipped) Error() string { return e.reason }

// attachmentChunks extracts one attachment and builds its chunks. Duplicate content and
// text below the length thresholds yield an *errSkipped.
func (idx *Indexer) attachmentChunks(
	ctx context.Context,
	chunker Chunker,
	ticket *models.Ticket,
	ai int,
	att models.Attachment,
	scopeID, project string,
	seenHash map[string]bool,
) ([]*models.Chunk, error) {
	ex, err := idx.extractor.Extract(ctx, att.URL, att.Filename)
	if err != nil {
		return nil, err
	}
	normalized := NormalizeForHash(ex.Text)
	if normalized == "" || runeLen(normalized) < idx.config.MinTextLength {
		return nil, &errSkipped{reason: metrics.SkipEmpty}
	}
	hash := chunkid.ContentHash(normalized)
	if seenHash[hash] {
		return nil, &errSkipped{reason: metrics.SkipDuplicate}
	}
	seenHash[hash] = true

	filename := att.Filename
	if filename == "" {
		filename = attachmentName(att.URL)
	}

	var out []*models.Chunk
	for _, p := range chunker.Chunk(ex.Text) {
		if runeLen(NormalizeForHash(p.Text)) < idx.config.MinChunkTextLength {
			continue
		}
		c := &models.Chunk{
			ID:   chunkid.New(ticket.ID, ai, p.Index, scopeID),
			Text: p.Text,
			Metadata: models.Metadata{
				models.MetaProject:         project,
				models.MetaUserID:          scopeID,
				models.MetaTicketID:        ticket.ID,
				models.MetaTicketTitle:     ticket.Title,
				models.MetaTicketExcerpt:   ticket.Excerpt(excerptChars),
				models.MetaAttachmentIndex: ai,
				models.MetaURL:             att.URL,
				models.MetaFilename:        filename,
				models.MetaChunkIndex:      p.Index,
				models.MetaTotalChunks:     p.Total,
				models.MetaContentType:     ex.ContentType,
				models.MetaContentHash:     hash,
				models.MetaHasHeadings:     ex.Structure.HasHeadings,
				models.MetaHasCode:         ex.Structure.HasCode,
				models.MetaHasNumbers:      ex.Structure.HasNumbers,
				models.MetaCreatedAt:       ticket.CreatedAt,
				models.MetaUpdatedAt:       ticket.UpdatedAt,
			},
		}
		if idx.config.CleanEmbeddings {
			c.SearchText = extract.Clean(p.Text)
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, &errSkipped{reason: metrics.SkipEmpty}
	}
	return out, nil
}

// purge deletes the scope's chunks, or one ticket's chunks within the scope.
// Failures are logged and reported as zero deletions.
func (idx *Indexer) purge(ctx context.Context, scopeID, ticketID string) int {
	where := map[string]string{models.MetaUserID: scopeID}
	if ticketID != "" {
		where[models.MetaTicketID] = ticketID
	}
	n, err := vector.DeleteWhere(ctx, idx.store, where)
	if err != nil {
		idx.logger.Warn("indexer purge failed, continuing",
			zap.String("scope", scopeID),
			zap.String("ticket", ticketID),
			zap.Error(err),
		)
		return 0
	}
	idx.metrics.VectorsDeleted(n)
	idx.logger.Debug("indexer purged scope", zap.String("scope", scopeID), zap.Int("deleted", n))
	return n
}

func (idx *Indexer) skip(att models.Attachment, err error) {
	var skipped *errSkipped
	if errors.As(err, &skipped) {
		idx.metrics.AttachmentSkipped(skipped.reason)
		idx.logger.Debug("indexer attachment skipped",
			zap.String("url", att.URL),
			zap.String("reason", skipped.reason),
		)
		return
	}
	reason := metrics.SkipExtract
	var dl *models.DownloadError
	if errors.As(err, &dl) {
		reason = metrics.SkipDownload
	}
	idx.metrics.AttachmentSkipped(reason)
	idx.logger.Warn("indexer attachment failed",
		zap.String("url", att.URL),
		zap.String("filename", att.Filename),
		zap.Error(err),
	)
}

func (idx *Indexer) strategy(s string) string {
	if s != "" {
		return s
	}
	return idx.config.Strategy
}

// attachmentName falls back to the last path element of the URL.
func attachmentName(rawURL string) string {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	name := path.Base(p)
	if name == "." || name == "/" {
		return ""
	}
	return name
}
