// Package search answers natural-language questions over a caller's indexed ticket attachments.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/embedding"
	"github.com/hyperjump/ticketrag/internal/indexer"
	"github.com/hyperjump/ticketrag/internal/llm"
	"github.com/hyperjump/ticketrag/internal/metrics"
	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/internal/synonyms"
	"github.com/hyperjump/ticketrag/internal/tickets"
	"github.com/hyperjump/ticketrag/internal/vector"
	"go.uber.org/zap"
)

// Ensurer builds or refreshes a scope's index. *indexer.Indexer implements it.
type Ensurer interface {
	EnsureIndex(ctx context.Context, opts indexer.Options) (*indexer.Result, error)
}

// Caller identifies who a request runs for and the credentials forwarded to the ticket service.
type Caller struct {
	ScopeID     string
	Credentials tickets.Credentials
}

// Engine runs indexing and retrieval for callers.
type Engine struct {
	tickets   tickets.Source
	indexer   Ensurer
	embedder  embedding.Embedder
	store     vector.Store
	completer llm.Completer
	synonyms  *synonyms.Table
	config    *config.RAGConfig
	logger    *zap.Logger
	metrics   *metrics.Metrics
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger for variant failures and answer synthesis.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics records query metrics on m.
func WithMetrics(m *metrics.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithCompleter enables answer synthesis through c.
func WithCompleter(c llm.Completer) EngineOption {
	return func(e *Engine) { e.completer = c }
}

// WithSynonyms sets the table used for query expansion.
func WithSynonyms(t *synonyms.Table) EngineOption {
	return func(e *Engine) { e.synonyms = t }
}

// NewEngine creates an engine over the given collaborators.
func NewEngine(
	src tickets.Source,
	idx Ensurer,
	embedder embedding.Embedder,
	store vector.Store,
	cfg *config.RAGConfig,
	opts ...EngineOption,
) *Engine {
	e := &Engine{
		tickets:  src,
		indexer:  idx,
		embedder: embedder,
		store:    store,
		config:   cfg,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.synonyms == nil {
		e.synonyms = synonyms.Default()
	}
	return e
}

// Query answers req for caller. It lists the caller's tickets (or loads req.TicketID),
// optionally refreshes the index, searches every query variant scoped to the caller,
// fuses the results and, when requested and configured, asks the language model for an answer.
func (e *Engine) Query(ctx context.Context, caller Caller, req *models.QueryRequest) (*models.QueryResponse, error) {
	start := time.Now()
	if err := req.Validate(e.config.DefaultTopK, e.config.MaxTopK); err != nil {
		return nil, err
	}
	if caller.ScopeID == "" {
		return nil, models.ErrMissingIdentity
	}

	list, err := e.ticketsFor(ctx, caller, req.TicketID)
	if err != nil {
		return nil, err
	}
	resp := &models.QueryResponse{
		Query:        req.Query,
		TopK:         req.TopK,
		TicketsCount: len(list),
		Results:      []*models.QueryResult{},
	}

	if req.ShouldEnsureIndex() {
		size, overlap := models.ChunkParams(req.Size, req.Overlap, e.config.ChunkSize, e.config.ChunkOverlap)
		res, err := e.indexer.EnsureIndex(ctx, indexer.Options{
			Tickets:  list,
			ScopeID:  caller.ScopeID,
			Project:  req.Project,
			Size:     size,
			Overlap:  overlap,
			Strategy: req.Strategy,
			Reindex:  req.Reindex,
			TicketID: req.TicketID,
		})
		if err != nil {
			return nil, fmt.Errorf("ensure index: %w", err)
		}
		resp.Indexed = res.Added
	}

	where := map[string]string{models.MetaUserID: caller.ScopeID}
	if req.TicketID != "" {
		where[models.MetaTicketID] = req.TicketID
	}
	results, err := e.retrieve(ctx, Variants(req.Query, e.synonyms, req.UseQueryExpansion), where, req.TopK)
	if err != nil {
		return nil, err
	}

	for _, r := range results {
		resp.Results = append(resp.Results, &models.QueryResult{
			ID:       r.ID,
			Text:     r.Text,
			Metadata: r.Metadata,
			Score:    r.Distance,
		})
	}

	if len(results) == 0 {
		answer := NoInformationAnswer
		resp.Answer = &answer
		resp.Sources = []*models.Source{}
	} else {
		resp.Sources = BuildSources(results)
		if req.ShouldAnswer() && e.completer != nil {
			resp.Answer = e.answer(ctx, req.Query, results)
		}
	}

	resp.QueryTime = time.Since(start).Milliseconds()
	e.metrics.ObserveQuery(time.Since(start), len(results))
	return resp, nil
}

// retrieve searches each variant in order and fuses the lists. A failing variant is logged and
// skipped; the request fails only when every variant failed.
func (e *Engine) retrieve(ctx context.Context, variants []Variant, where map[string]string, topK int) ([]Candidate, error) {
	n := int(math.Ceil(float64(topK) * e.config.CandidateFactor))
	if n < topK {
		n = topK
	}

	var lists [][]Candidate
	var firstErr error
	for _, v := range variants {
		list, err := e.searchVariant(ctx, v, where, n)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			e.metrics.VariantFailed()
			e.logger.Warn("query variant failed",
				zap.String("variant", v.Name),
				zap.Error(err),
			)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		lists = append(lists, list)
	}
	if len(lists) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return Fuse(lists, topK), nil
}

func (e *Engine) searchVariant(ctx context.Context, v Variant, where map[string]string, n int) ([]Candidate, error) {
	vec, err := e.embedder.Embed(ctx, v.Text)
	if err != nil {
		return nil, fmt.Errorf("embed %s query: %w", v.Name, err)
	}
	out, err := e.store.Query(ctx, [][]float32{vec}, n, where)
	if err != nil {
		return nil, fmt.Errorf("search %s query: %w", v.Name, err)
	}
	return Candidates(out), nil
}

// answer asks the model for a grounded answer. A model failure leaves the answer empty;
// the retrieved results are still returned.
func (e *Engine) answer(ctx context.Context, query string, results []Candidate) *string {
	text, err := e.completer.Complete(ctx, BuildMessages(query, results, e.config.ExcerptChars))
	e.metrics.LLMCall(err == nil)
	if err != nil {
		if !errors.Is(err, llm.ErrDisabled) {
			e.logger.Warn("answer synthesis failed", zap.Error(err))
		}
		return nil
	}
	return &text
}

// ticketsFor returns the caller's visible tickets, or just ticketID when set.
func (e *Engine) ticketsFor(ctx context.Context, caller Caller, ticketID string) ([]models.Ticket, error) {
	if ticketID != "" {
		t, err := e.tickets.Get(ctx, caller.Credentials, ticketID)
		if err != nil {
			return nil, err
		}
		return []models.Ticket{*t}, nil
	}
	listing, err := e.tickets.ListMine(ctx, caller.Credentials)
	if err != nil {
		return nil, err
	}
	if listing.Kind == tickets.ListingMalformed {
		e.logger.Warn("ticket list unusable, continuing with no tickets",
			zap.String("scope", caller.ScopeID),
			zap.String("kind", listing.Kind.String()),
		)
		return nil, nil
	}
	return listing.Tickets, nil
}

// Index builds the caller's index from their tickets, or from ticketID alone when set.
// With reindex the matching chunks are purged first and DeletedVectors is reported.
func (e *Engine) Index(ctx context.Context, caller Caller, req *models.IndexRequest, ticketID string, reindex bool) (*models.IndexResponse, error) {
	if caller.ScopeID == "" {
		return nil, models.ErrMissingIdentity
	}
	list, err := e.ticketsFor(ctx, caller, ticketID)
	if err != nil {
		return nil, err
	}
	size, overlap := models.ChunkParams(req.Size, req.Overlap, e.config.ChunkSize, e.config.ChunkOverlap)
	res, err := e.indexer.EnsureIndex(ctx, indexer.Options{
		Tickets:  list,
		ScopeID:  caller.ScopeID,
		Project:  req.Project,
		Size:     size,
		Overlap:  overlap,
		Strategy: req.Strategy,
		Reindex:  reindex,
		TicketID: ticketID,
	})
	if err != nil {
		return nil, err
	}

	resp := &models.IndexResponse{
		TicketID:      ticketID,
		TicketsCount:  len(list),
		ChunksIndexed: res.Added,
		IDs:           res.IDs,
	}
	if resp.IDs == nil {
		resp.IDs = []string{}
	}
	if reindex {
		deleted := res.Deleted
		resp.DeletedVectors = &deleted
	}
	switch {
	case res.Added == 0:
		resp.Message = "No extractable attachments found"
	case reindex:
		resp.Message = "Reindexed"
	default:
		resp.Message = "Indexed"
	}
	return resp, nil
}

// Attachments returns the attachments of one ticket as seen by the caller.
func (e *Engine) Attachments(ctx context.Context, caller Caller, ticketID string) ([]models.Attachment, error) {
	t, err := e.tickets.Get(ctx, caller.Credentials, ticketID)
	if err != nil {
		return nil, err
	}
	if t.Attachments == nil {
		return []models.Attachment{}, nil
	}
	return t.Attachments, nil
}

// ScopeCount returns how many chunks the caller owns.
func (e *Engine) ScopeCount(ctx context.Context, caller Caller) (int, error) {
	return e.store.Count(ctx, map[string]string{models.MetaUserID: caller.ScopeID})
}
