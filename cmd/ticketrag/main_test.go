package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/ticketrag/internal/config"
	"github.com/hyperjump/ticketrag/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"single word", []string{"printer"}, "printer"},
		{"multiple words", []string{"printer", "jammed"}, "printer jammed"},
		{"quoted phrase", []string{"printer jammed"}, "printer jammed"},
		{"blank", []string{"  "}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildQuery(tt.args); got != tt.expected {
				t.Errorf("buildQuery(%v) = %q, want %q", tt.args, got, tt.expected)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfigForDefaultPath(t *testing.T) {
	dir := t.TempDir()
	content := "vector:\n  backend: memory\nembedding:\n  provider: mock\nserver:\n  port: 9911\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	cfg, path, err := loadConfig(defaultConfigPath)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9911 {
		t.Errorf("port: got %d", cfg.Server.Port)
	}
	if filepath.Base(path) != "config.yaml" || path == defaultConfigPath {
		t.Errorf("resolved path: got %q", path)
	}
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "etc", "config.yaml")
	out, err := run(t, "init", "--config", path)
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if !strings.Contains(out, "Wrote") {
		t.Errorf("output: %q", out)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("written config does not load: %v", err)
	}
	if cfg.RAG.ChunkSize != 800 || cfg.Vector.Collection != "tickets" {
		t.Errorf("defaults: %+v", cfg.RAG)
	}

	if _, err := run(t, "init", "--config", path); err == nil {
		t.Error("expected init to refuse overwriting")
	}
	if _, err := run(t, "init", "--config", path, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestQueryCommand(t *testing.T) {
	var got models.QueryRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/rag/query" || r.Header.Get("X-User-ID") != "u1" {
			http.Error(w, "unexpected request", http.StatusBadRequest)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(models.QueryResponse{Query: got.Query, TopK: got.TopK, Results: []*models.QueryResult{}})
	}))
	defer srv.Close()

	out, err := run(t, "query", "--server", srv.URL, "--user", "u1", "-k", "3", "--no-answer", "-o", "json", "printer", "jammed")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if got.Query != "printer jammed" || got.TopK != 3 {
		t.Errorf("request: %+v", got)
	}
	if got.Answer == nil || *got.Answer {
		t.Errorf("answer flag: %v", got.Answer)
	}
	if got.EnsureIndex != nil {
		t.Errorf("ensureIndex should be omitted: %v", *got.EnsureIndex)
	}
	var resp models.QueryResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("json output: %v\n%s", err, out)
	}
	if resp.Query != "printer jammed" {
		t.Errorf("output query: %q", resp.Query)
	}
}

func TestReindexCommand_ticket(t *testing.T) {
	var path string
	var overlap *int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		var req models.IndexRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		overlap = req.Overlap
		deleted := 2
		_ = json.NewEncoder(w).Encode(models.IndexResponse{
			Message: "Reindexed", TicketID: "t1", ChunksIndexed: 3, IDs: []string{}, DeletedVectors: &deleted,
		})
	}))
	defer srv.Close()

	out, err := run(t, "reindex", "--server", srv.URL, "--user", "u1", "--ticket", "t1", "--overlap", "0")
	if err != nil {
		t.Fatalf("reindex: %v", err)
	}
	if path != "/tickets/t1/rag/reindex" {
		t.Errorf("path: got %q", path)
	}
	if overlap == nil || *overlap != 0 {
		t.Errorf("explicit zero overlap not sent: %v", overlap)
	}
	if !strings.Contains(out, "Reindexed: 3 chunks") || !strings.Contains(out, "deleted_vectors: 2") {
		t.Errorf("output: %q", out)
	}
}

func TestStatusCommand_serverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Status failed","details":"disk gone"}`))
	}))
	defer srv.Close()

	_, err := run(t, "status", "--server", srv.URL)
	if err == nil || !strings.Contains(err.Error(), "disk gone") {
		t.Errorf("expected server error details, got %v", err)
	}
}

func TestQueryCommand_dotenvFeedsClientFlags(t *testing.T) {
	for _, key := range []string{"TICKETRAG_USER", "TICKETRAG_TOKEN"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TICKETRAG_USER=alice\nTICKETRAG_TOKEN=tok\n"), 0600); err != nil {
		t.Fatal(err)
	}
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(wd) }()

	var user, auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user = r.Header.Get("X-User-ID")
		auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(models.QueryResponse{Query: "hello", Results: []*models.QueryResult{}})
	}))
	defer srv.Close()

	if _, err := run(t, "query", "--server", srv.URL, "hello"); err != nil {
		t.Fatalf("query: %v", err)
	}
	if user != "alice" {
		t.Errorf("identity header: got %q, want alice", user)
	}
	if auth != "Bearer tok" {
		t.Errorf("authorization: got %q", auth)
	}
}
