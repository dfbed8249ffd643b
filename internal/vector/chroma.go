package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hyperjump/ticketrag/internal/models"
)

// ChromaStore talks to a Chroma server over its v2 REST API. The collection is created
// with cosine space, so returned distances are 1 - cosine similarity.
// Chroma reports no count for filtered deletes, so it relies on the id-convention path of DeleteWhere.
type ChromaStore struct {
	client       *http.Client
	baseURL      string
	apiKey       string
	collection   string
	collectionID string
}

// ChromaOptions configures a ChromaStore.
type ChromaOptions struct {
	URL        string
	Tenant     string
	Database   string
	Collection string
	APIKey     string
	Timeout    time.Duration
}

type chromaCollection struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type chromaCreateRequest struct {
	Name        string         `json:"name"`
	GetOrCreate bool           `json:"get_or_create"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type chromaUpsertRequest struct {
	IDs        []string          `json:"ids"`
	Embeddings [][]float32       `json:"embeddings"`
	Documents  []string          `json:"documents"`
	Metadatas  []models.Metadata `json:"metadatas"`
}

type chromaQueryRequest struct {
	QueryEmbeddings [][]float32    `json:"query_embeddings"`
	NResults        int            `json:"n_results"`
	Where           map[string]any `json:"where,omitempty"`
	Include         []string       `json:"include"`
}

type chromaQueryResponse struct {
	IDs       [][]string          `json:"ids"`
	Documents [][]*string         `json:"documents"`
	Metadatas [][]models.Metadata `json:"metadatas"`
	Distances [][]float64         `json:"distances"`
}

type chromaGetRequest struct {
	Where   map[string]any `json:"where,omitempty"`
	Include []string       `json:"include"`
}

type chromaGetResponse struct {
	IDs []string `json:"ids"`
}

type chromaDeleteRequest struct {
	IDs []string `json:"ids"`
}

// NewChromaStore resolves (creating if needed) the named collection.
func NewChromaStore(ctx context.Context, opts ChromaOptions) (*ChromaStore, error) {
	base := fmt.Sprintf("%s/api/v2/tenants/%s/databases/%s/collections",
		strings.TrimRight(opts.URL, "/"), url.PathEscape(opts.Tenant), url.PathEscape(opts.Database))
	s := &ChromaStore{
		client:     &http.Client{Timeout: opts.Timeout},
		baseURL:    base,
		apiKey:     opts.APIKey,
		collection: opts.Collection,
	}
	var coll chromaCollection
	err := s.postJSON(ctx, base, chromaCreateRequest{
		Name:        opts.Collection,
		GetOrCreate: true,
		Metadata:    map[string]any{"hnsw:space": "cosine"},
	}, &coll)
	if err != nil {
		return nil, storeErr("create collection", err)
	}
	if coll.ID == "" {
		return nil, storeErr("create collection", fmt.Errorf("chroma returned no id for %q", opts.Collection))
	}
	s.collectionID = coll.ID
	return s, nil
}

func (s *ChromaStore) endpoint(op string) string {
	return s.baseURL + "/" + url.PathEscape(s.collectionID) + "/" + op
}

// Backend returns "chroma".
func (s *ChromaStore) Backend() string { return string(BackendChroma) }

// Upsert writes records through /upsert.
func (s *ChromaStore) Upsert(ctx context.Context, ids, documents []string, metadatas []models.Metadata, embeddings [][]float32) error {
	if err := checkAligned(ids, documents, metadatas, embeddings); err != nil {
		return storeErr("upsert", err)
	}
	if len(ids) == 0 {
		return nil
	}
	return storeErr("upsert", s.postJSON(ctx, s.endpoint("upsert"), chromaUpsertRequest{
		IDs:        ids,
		Embeddings: embeddings,
		Documents:  documents,
		Metadatas:  metadatas,
	}, nil))
}

// Query runs /query with the filter applied server-side.
func (s *ChromaStore) Query(ctx context.Context, embeddings [][]float32, n int, where map[string]string) (*QueryResult, error) {
	var resp chromaQueryResponse
	err := s.postJSON(ctx, s.endpoint("query"), chromaQueryRequest{
		QueryEmbeddings: embeddings,
		NResults:        n,
		Where:           chromaWhere(where),
		Include:         []string{"documents", "metadatas", "distances"},
	}, &resp)
	if err != nil {
		return nil, storeErr("query", err)
	}
	res := &QueryResult{}
	for qi := range resp.IDs {
		cands := make([]candidate, len(resp.IDs[qi]))
		for i, id := range resp.IDs[qi] {
			cands[i].id = id
			if qi < len(resp.Documents) && i < len(resp.Documents[qi]) && resp.Documents[qi][i] != nil {
				cands[i].document = *resp.Documents[qi][i]
			}
			if qi < len(resp.Metadatas) && i < len(resp.Metadatas[qi]) {
				cands[i].metadata = resp.Metadatas[qi][i]
			}
			if qi < len(resp.Distances) && i < len(resp.Distances[qi]) {
				cands[i].distance = resp.Distances[qi][i]
			}
		}
		sort.SliceStable(cands, func(a, b int) bool { return cands[a].distance < cands[b].distance })
		res.appendQuery(cands)
	}
	return res, nil
}

// chromaWhere converts an equality filter into Chroma's where syntax; several keys need $and.
func chromaWhere(where map[string]string) map[string]any {
	switch len(where) {
	case 0:
		return nil
	case 1:
		for k, v := range where {
			return map[string]any{k: v}
		}
	}
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	clauses := make([]map[string]any, 0, len(keys))
	for _, k := range keys {
		clauses = append(clauses, map[string]any{k: where[k]})
	}
	return map[string]any{"$and": clauses}
}

// Delete removes records through /delete.
func (s *ChromaStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return storeErr("delete", s.postJSON(ctx, s.endpoint("delete"), chromaDeleteRequest{IDs: ids}, nil))
}

// DeleteWhere lists the ids matching where through /get and removes them.
func (s *ChromaStore) DeleteWhere(ctx context.Context, where map[string]string) (int, error) {
	if len(where) == 0 {
		return 0, storeErr("delete", fmt.Errorf("filtered delete requires a filter"))
	}
	ids, err := s.getIDs(ctx, where)
	if err != nil {
		return 0, err
	}
	if err := s.Delete(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// IDs lists every id in the collection through /get.
func (s *ChromaStore) IDs(ctx context.Context) ([]string, error) {
	return s.getIDs(ctx, nil)
}

func (s *ChromaStore) getIDs(ctx context.Context, where map[string]string) ([]string, error) {
	var resp chromaGetResponse
	if err := s.postJSON(ctx, s.endpoint("get"), chromaGetRequest{Where: chromaWhere(where), Include: []string{}}, &resp); err != nil {
		return nil, storeErr("list", err)
	}
	return resp.IDs, nil
}

// Count returns the number of records matching where.
func (s *ChromaStore) Count(ctx context.Context, where map[string]string) (int, error) {
	if len(where) == 0 {
		var n int
		if err := s.doJSON(ctx, http.MethodGet, s.endpoint("count"), nil, &n); err != nil {
			return 0, storeErr("count", err)
		}
		return n, nil
	}
	ids, err := s.getIDs(ctx, where)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Close releases idle connections.
func (s *ChromaStore) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *ChromaStore) postJSON(ctx context.Context, u string, body, out any) error {
	return s.doJSON(ctx, http.MethodPost, u, body, out)
}

func (s *ChromaStore) doJSON(ctx context.Context, method, u string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("x-chroma-token", s.apiKey)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("chroma %s %s failed: %s: %s", method, u, resp.Status, strings.TrimSpace(string(msg)))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
