package vector

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/hyperjump/ticketrag/internal/models"
)

// MemoryStore is an in-memory collection with brute-force cosine search.
// Suitable for tests and small deployments; Save/Load persist a snapshot.
type MemoryStore struct {
	dimensions int
	order      []string
	records    map[string]*record
	mu         sync.RWMutex
}

// NewMemoryStore creates an empty store for vectors of the given dimension.
func NewMemoryStore(dimensions int) (*MemoryStore, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryStore{
		dimensions: dimensions,
		records:    make(map[string]*record),
	}, nil
}

// Backend returns "memory".
func (m *MemoryStore) Backend() string { return string(BackendMemory) }

// Upsert inserts or overwrites records.
func (m *MemoryStore) Upsert(ctx context.Context, ids, documents []string, metadatas []models.Metadata, embeddings [][]float32) error {
	if err := checkAligned(ids, documents, metadatas, embeddings); err != nil {
		return storeErr("upsert", err)
	}
	for i := range embeddings {
		if len(embeddings[i]) != m.dimensions {
			return storeErr("upsert", fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(embeddings[i]), m.dimensions))
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, id := range ids {
		vec := make([]float32, m.dimensions)
		copy(vec, embeddings[i])
		meta := make(models.Metadata, len(metadatas[i]))
		for k, v := range metadatas[i] {
			meta[k] = v
		}
		if _, exists := m.records[id]; !exists {
			m.order = append(m.order, id)
		}
		m.records[id] = &record{id: id, document: documents[i], metadata: meta, embedding: vec}
	}
	return nil
}

// Query filters by where before ranking, so records outside the filter are never candidates.
func (m *MemoryStore) Query(ctx context.Context, embeddings [][]float32, n int, where map[string]string) (*QueryResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matching := m.matching(where)
	res := &QueryResult{}
	for _, q := range embeddings {
		if len(q) != m.dimensions {
			return nil, storeErr("query", fmt.Errorf("query dimension mismatch: got %d, expected %d", len(q), m.dimensions))
		}
		res.appendQuery(topN(q, matching, n))
	}
	return res, nil
}

func (m *MemoryStore) matching(where map[string]string) []*record {
	out := make([]*record, 0, len(m.order))
	for _, id := range m.order {
		r := m.records[id]
		if r.metadata.Matches(where) {
			out = append(out, r)
		}
	}
	return out
}

// Delete removes records by id.
func (m *MemoryStore) Delete(ctx context.Context, ids []string) error {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.remove(func(r *record) bool { return drop[r.id] })
	return nil
}

// DeleteWhere removes every record matching where.
func (m *MemoryStore) DeleteWhere(ctx context.Context, where map[string]string) (int, error) {
	if len(where) == 0 {
		return 0, storeErr("delete", fmt.Errorf("refusing to delete without a filter"))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.remove(func(r *record) bool { return r.metadata.Matches(where) }), nil
}

// remove drops records for which drop returns true. Caller holds the write lock.
func (m *MemoryStore) remove(drop func(*record) bool) int {
	kept := m.order[:0]
	removed := 0
	for _, id := range m.order {
		if drop(m.records[id]) {
			delete(m.records, id)
			removed++
			continue
		}
		kept = append(kept, id)
	}
	m.order = kept
	return removed
}

// IDs returns all ids in insertion order.
func (m *MemoryStore) IDs(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out, nil
}

// Count returns the number of records matching where.
func (m *MemoryStore) Count(ctx context.Context, where map[string]string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if len(where) == 0 {
		return len(m.order), nil
	}
	return len(m.matching(where)), nil
}

// Save persists the store to path. Format: dimension (4), n (4), then per record:
// id, document and JSON metadata as length-prefixed strings, then the vector (dimension*4 bytes).
func (m *MemoryStore) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot file: %w", err)
	}
	if err := m.writeSnapshot(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	return os.Rename(tmp, path)
}

func (m *MemoryStore) writeSnapshot(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.order))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, id := range m.order {
		r := m.records[id]
		meta, err := json.Marshal(r.metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", id, err)
		}
		for _, field := range [][]byte{[]byte(r.id), []byte(r.document), meta} {
			if err := writeBytes(w, field); err != nil {
				return err
			}
		}
		if _, err := w.Write(float32SliceToBytes(r.embedding)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load replaces the contents with the snapshot at path. Dimensions must match.
// A missing file leaves the store unchanged.
func (m *MemoryStore) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, store expects %d", dim, m.dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	order := make([]string, 0, n)
	records := make(map[string]*record, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		var fields [3][]byte
		for j := range fields {
			if fields[j], err = readBytes(f); err != nil {
				return err
			}
		}
		var meta models.Metadata
		if err := json.Unmarshal(fields[2], &meta); err != nil {
			return fmt.Errorf("decode metadata: %w", err)
		}
		if _, err := io.ReadFull(f, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		id := string(fields[0])
		order = append(order, id)
		records[id] = &record{id: id, document: string(fields[1]), metadata: meta, embedding: bytesToFloat32Slice(buf)}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.order, m.records = order, records
	return nil
}

func writeBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(b))); err != nil {
		return fmt.Errorf("write length: %w", err)
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("write field: %w", err)
	}
	return nil
}

func readBytes(r io.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, fmt.Errorf("read field: %w", err)
	}
	return b, nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Close is a no-op for MemoryStore.
func (m *MemoryStore) Close() error {
	return nil
}
