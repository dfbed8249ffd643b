package search

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/embedding"
	"github.com/hyperjump/ticketrag/internal/extract"
	"github.com/hyperjump/ticketrag/internal/indexer"
	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEngine_sqlitePersists indexes into a SQLite collection, reopens it and queries
// without re-indexing.
func TestEngine_sqlitePersists(t *testing.T) {
	vcfg := &config.VectorConfig{
		Backend:    string(vector.BackendSQLite),
		Collection: "tickets",
		Path:       filepath.Join(t.TempDir(), "vectors.db"),
	}
	rag := &config.RAGConfig{
		Strategy:           indexer.StrategyFixed,
		ChunkSize:          800,
		ChunkOverlap:       150,
		MinChunkSize:       100,
		MinTextLength:      20,
		MinChunkTextLength: 20,
		DefaultTopK:        5,
		MaxTopK:            20,
		CandidateFactor:    1.5,
		ExcerptChars:       800,
	}
	src := &ticketSource{byCaller: map[string][]models.Ticket{
		"Bearer u1": {{
			ID:    "t1",
			Title: "VPN drops",
			Attachments: []models.Attachment{
				{URL: "http://files/vpn.txt", Filename: "vpn.txt"},
				{URL: "http://files/mail.txt", Filename: "mail.txt"},
			},
		}},
	}}
	attachments := files{
		"http://files/vpn.txt":  "The VPN client disconnects every ten minutes after the update.",
		"http://files/mail.txt": "Outlook cannot sync the shared mailbox since Monday morning.",
	}
	emb := embedding.NewMockEmbedder(dims)
	ctx := context.Background()

	open := func() (vector.Store, *Engine) {
		store, err := vector.NewStore(ctx, vcfg, dims)
		require.NoError(t, err)
		idx := indexer.NewIndexer(extract.NewExtractor(attachments), emb, store, rag)
		return store, NewEngine(src, idx, emb, store, rag)
	}

	store, engine := open()
	res, err := engine.Index(ctx, caller("u1"), &models.IndexRequest{}, "", false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ChunksIndexed)
	require.NoError(t, store.Close())

	store, engine = open()
	defer store.Close()
	n, err := engine.ScopeCount(ctx, caller("u1"))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	noIndex := false
	resp, err := engine.Query(ctx, caller("u1"), &models.QueryRequest{
		Query:       "The VPN client disconnects every ten minutes after the update.",
		TopK:        1,
		EnsureIndex: &noIndex,
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "vpn.txt", resp.Results[0].Metadata.String(models.MetaFilename))
	assert.InDelta(t, 0, resp.Results[0].Score, 1e-5)
	assert.Equal(t, 0, resp.Indexed)
}
