package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  host: "127.0.0.1"
  port: 9000
vector:
  backend: memory
embedding:
  provider: mock
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Host != "127.0.0.1" || cfg.Server.Port != 9000 {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Debug {
		t.Error("debug should default to false when unset")
	}
	if cfg.RAG.ChunkSize != 800 || cfg.RAG.ChunkOverlap != 150 {
		t.Errorf("chunk defaults = %d/%d, want 800/150", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.DefaultTopK != 5 {
		t.Errorf("default_top_k = %d, want 5", cfg.RAG.DefaultTopK)
	}
	if cfg.Server.IdentityHeader != "X-User-ID" {
		t.Errorf("identity_header = %q", cfg.Server.IdentityHeader)
	}
	if cfg.Tickets.ListPath != "/api/tickets?scope=me" {
		t.Errorf("list_path = %q", cfg.Tickets.ListPath)
	}
}

func TestLoad_debugTrue(t *testing.T) {
	path := writeConfig(t, `
debug: true
embedding:
  provider: mock
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Debug {
		t.Error("debug should be true when set in config")
	}
}

func TestLoad_expandPathDotSlashRelativeToConfigDir(t *testing.T) {
	path := writeConfig(t, `
vector:
  backend: sqlite
  path: "./data/vectors.db"
rag:
  synonyms_path: "./synonyms.yaml"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Dir(path)
	if want := filepath.Join(dir, "data", "vectors.db"); cfg.Vector.Path != want {
		t.Errorf("vector.path = %q, want %q", cfg.Vector.Path, want)
	}
	if want := filepath.Join(dir, "synonyms.yaml"); cfg.RAG.SynonymsPath != want {
		t.Errorf("synonyms_path = %q, want %q", cfg.RAG.SynonymsPath, want)
	}
}

func TestLoad_invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"overlap not below size", "rag:\n  chunk_size: 100\n  chunk_overlap: 100\n"},
		{"unknown strategy", "rag:\n  strategy: paragraphs\n"},
		{"unknown backend", "vector:\n  backend: pinecone\n"},
		{"chroma without url", "vector:\n  backend: chroma\n"},
		{"unknown provider", "embedding:\n  provider: openai\n"},
		{"max top k below default", "rag:\n  default_top_k: 10\n  max_top_k: 3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tt.content)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoad_missingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	env := map[string]string{
		"GOOGLE_API_KEY":           "g-key",
		"INTERNAL_API_BASE":        "http://tickets:5000",
		"TICKETRAG_CHROMA_API_KEY": "c-key",
	}
	ApplyEnv(cfg, func(k string) string { return env[k] })
	if cfg.LLM.APIKey != "g-key" {
		t.Errorf("llm api key = %q", cfg.LLM.APIKey)
	}
	if cfg.Tickets.BaseURL != "http://tickets:5000" {
		t.Errorf("tickets base url = %q", cfg.Tickets.BaseURL)
	}
	if cfg.Vector.Chroma.APIKey != "c-key" {
		t.Errorf("chroma api key = %q", cfg.Vector.Chroma.APIKey)
	}

	env["TICKETRAG_LLM_API_KEY"] = "primary"
	ApplyEnv(cfg, func(k string) string { return env[k] })
	if cfg.LLM.APIKey != "primary" {
		t.Errorf("TICKETRAG_LLM_API_KEY should win, got %q", cfg.LLM.APIKey)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.Server.RequestTimeout = 42 * time.Second
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.RequestTimeout != 42*time.Second {
		t.Errorf("request_timeout = %v", got.Server.RequestTimeout)
	}
}
