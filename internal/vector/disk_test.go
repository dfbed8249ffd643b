package vector

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/models"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()
	f1 := filepath.Join(dir, "f1.bin")
	if err := os.WriteFile(f1, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := DiskUsageBytes(f1, sub, filepath.Join(dir, "missing"), "")
	if err != nil {
		t.Fatal(err)
	}
	if got != 7 {
		t.Errorf("got %d bytes, want 7", got)
	}
}

func TestDiskUsage_backends(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	snap := filepath.Join(dir, "vectors.bin")
	m, err := NewMemoryStore(2)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Upsert(ctx, []string{"a"}, []string{"doc"}, []models.Metadata{{}}, [][]float32{{1, 0}}); err != nil {
		t.Fatal(err)
	}
	if err := m.Save(snap); err != nil {
		t.Fatal(err)
	}
	n, err := DiskUsage(&config.VectorConfig{Backend: "memory", Path: snap})
	if err != nil || n == 0 {
		t.Errorf("memory snapshot usage = %d, %v", n, err)
	}

	dbPath := filepath.Join(dir, "vectors.db")
	s, err := NewSQLiteStore(dbPath, "tickets", 2)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	n, err = DiskUsage(&config.VectorConfig{Backend: "sqlite", Path: dbPath})
	if err != nil || n == 0 {
		t.Errorf("sqlite usage = %d, %v", n, err)
	}

	n, err = DiskUsage(&config.VectorConfig{Backend: "chroma", Path: dbPath})
	if err != nil || n != 0 {
		t.Errorf("chroma usage = %d, %v; want 0", n, err)
	}
}
