package vector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/ticketrag/internal/models"
)

// SQLiteStore keeps a collection in a SQLite table: one row per chunk with its document,
// JSON metadata and the embedding as a little-endian float32 blob. Filters run in SQL via
// json_extract; ranking is brute-force cosine in Go over the filtered rows.
type SQLiteStore struct {
	db         *sql.DB
	collection string
	dimensions int
}

// NewSQLiteStore opens or creates the database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStore(dbPath, collection string, dimensions int) (*SQLiteStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db, collection: collection, dimensions: dimensions}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		collection TEXT NOT NULL,
		id TEXT NOT NULL,
		document TEXT NOT NULL,
		metadata TEXT NOT NULL,
		embedding BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (collection, id)
	);

	CREATE INDEX IF NOT EXISTS idx_chunks_user ON chunks(collection, json_extract(metadata, '$.userId'));
	`
	_, err := db.Exec(schema)
	return err
}

// Backend returns "sqlite".
func (s *SQLiteStore) Backend() string { return string(BackendSQLite) }

// Upsert writes all records in one transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, ids, documents []string, metadatas []models.Metadata, embeddings [][]float32) error {
	if err := checkAligned(ids, documents, metadatas, embeddings); err != nil {
		return storeErr("upsert", err)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("upsert", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chunks (collection, id, document, metadata, embedding, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(collection, id) DO UPDATE SET
		   document = excluded.document,
		   metadata = excluded.metadata,
		   embedding = excluded.embedding,
		   updated_at = excluded.updated_at`,
	)
	if err != nil {
		return storeErr("upsert", err)
	}
	defer stmt.Close()

	now := time.Now()
	for i, id := range ids {
		if len(embeddings[i]) != s.dimensions {
			return storeErr("upsert", fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(embeddings[i]), s.dimensions))
		}
		meta, err := json.Marshal(metadatas[i])
		if err != nil {
			return storeErr("upsert", fmt.Errorf("encode metadata for %s: %w", id, err))
		}
		if _, err := stmt.ExecContext(ctx, s.collection, id, documents[i], string(meta), float32SliceToBytes(embeddings[i]), now); err != nil {
			return storeErr("upsert", err)
		}
	}
	return storeErr("upsert", tx.Commit())
}

// whereClause renders an equality filter over metadata keys. Keys are sorted for stable SQL.
func whereClause(where map[string]string) (string, []any) {
	keys := make([]string, 0, len(where))
	for k := range where {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		b.WriteString(" AND json_extract(metadata, ?) = ?")
		args = append(args, "$."+k, where[k])
	}
	return b.String(), args
}

// Query loads the rows matching where and ranks them against each query embedding.
func (s *SQLiteStore) Query(ctx context.Context, embeddings [][]float32, n int, where map[string]string) (*QueryResult, error) {
	for _, q := range embeddings {
		if len(q) != s.dimensions {
			return nil, storeErr("query", fmt.Errorf("query dimension mismatch: got %d, expected %d", len(q), s.dimensions))
		}
	}
	clause, args := whereClause(where)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, metadata, embedding FROM chunks WHERE collection = ?`+clause+` ORDER BY rowid`,
		append([]any{s.collection}, args...)...,
	)
	if err != nil {
		return nil, storeErr("query", err)
	}
	defer rows.Close()

	var records []*record
	for rows.Next() {
		var r record
		var meta string
		var blob []byte
		if err := rows.Scan(&r.id, &r.document, &meta, &blob); err != nil {
			return nil, storeErr("query", err)
		}
		if err := json.Unmarshal([]byte(meta), &r.metadata); err != nil {
			return nil, storeErr("query", fmt.Errorf("decode metadata for %s: %w", r.id, err))
		}
		r.embedding = bytesToFloat32Slice(blob)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("query", err)
	}

	res := &QueryResult{}
	for _, q := range embeddings {
		res.appendQuery(topN(q, records, n))
	}
	return res, nil
}

// Delete removes records by id in one transaction.
func (s *SQLiteStore) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("delete", err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, `DELETE FROM chunks WHERE collection = ? AND id = ?`)
	if err != nil {
		return storeErr("delete", err)
	}
	defer stmt.Close()
	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, s.collection, id); err != nil {
			return storeErr("delete", err)
		}
	}
	return storeErr("delete", tx.Commit())
}

// DeleteWhere removes every record matching where and reports how many rows went.
func (s *SQLiteStore) DeleteWhere(ctx context.Context, where map[string]string) (int, error) {
	if len(where) == 0 {
		return 0, storeErr("delete", fmt.Errorf("refusing to delete without a filter"))
	}
	clause, args := whereClause(where)
	res, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE collection = ?`+clause, append([]any{s.collection}, args...)...)
	if err != nil {
		return 0, storeErr("delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("delete", err)
	}
	return int(n), nil
}

// IDs lists all ids in the collection in insertion order.
func (s *SQLiteStore) IDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM chunks WHERE collection = ? ORDER BY rowid`, s.collection)
	if err != nil {
		return nil, storeErr("list", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, storeErr("list", err)
		}
		ids = append(ids, id)
	}
	return ids, storeErr("list", rows.Err())
}

// Count returns the number of records matching where.
func (s *SQLiteStore) Count(ctx context.Context, where map[string]string) (int, error) {
	clause, args := whereClause(where)
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks WHERE collection = ?`+clause, append([]any{s.collection}, args...)...).Scan(&n)
	if err != nil {
		return 0, storeErr("count", err)
	}
	return n, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
