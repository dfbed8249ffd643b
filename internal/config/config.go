// Package config provides configuration loading and structs for the ticketrag server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Tickets   TicketsConfig   `yaml:"tickets"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Vector    VectorConfig    `yaml:"vector"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// IdentityHeader carries the authenticated caller id, set by the auth gateway.
	IdentityHeader string        `yaml:"identity_header"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// TicketsConfig locates the ticket-listing service.
type TicketsConfig struct {
	BaseURL    string        `yaml:"base_url"`
	ListPath   string        `yaml:"list_path"`
	TicketPath string        `yaml:"ticket_path"`
	Timeout    time.Duration `yaml:"timeout"`
}

// FetchConfig bounds attachment downloads.
type FetchConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	MaxBytes  int64         `yaml:"max_bytes"`
	UserAgent string        `yaml:"user_agent"`
}

// EmbeddingConfig holds embedder settings.
type EmbeddingConfig struct {
	Provider   string        `yaml:"provider"`
	ModelPath  string        `yaml:"model_path"`
	Dimensions int           `yaml:"dimensions"`
	MaxTokens  int           `yaml:"max_tokens"`
	CacheSize  int           `yaml:"cache_size"`
	Timeout    time.Duration `yaml:"timeout"`
}

// VectorConfig selects and configures the vector store backend.
type VectorConfig struct {
	Backend    string       `yaml:"backend"`
	Collection string       `yaml:"collection"`
	Path       string       `yaml:"path"`
	Chroma     ChromaConfig `yaml:"chroma"`
}

// ChromaConfig holds connection details for a Chroma server.
type ChromaConfig struct {
	URL      string        `yaml:"url"`
	Tenant   string        `yaml:"tenant"`
	Database string        `yaml:"database"`
	APIKey   string        `yaml:"api_key"`
	Timeout  time.Duration `yaml:"timeout"`
}

// LLMConfig configures the OpenAI-compatible chat endpoint used for answers.
type LLMConfig struct {
	Enabled     bool          `yaml:"enabled"`
	BaseURL     string        `yaml:"base_url"`
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	Temperature float32       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// RAGConfig holds chunking and retrieval settings.
type RAGConfig struct {
	Project            string  `yaml:"project"`
	Strategy           string  `yaml:"strategy"`
	ChunkSize          int     `yaml:"chunk_size"`
	ChunkOverlap       int     `yaml:"chunk_overlap"`
	MinChunkSize       int     `yaml:"min_chunk_size"`
	MinTextLength      int     `yaml:"min_text_length"`
	MinChunkTextLength int     `yaml:"min_chunk_text_length"`
	DefaultTopK        int     `yaml:"default_top_k"`
	MaxTopK            int     `yaml:"max_top_k"`
	CandidateFactor    float64 `yaml:"candidate_factor"`
	ExcerptChars       int     `yaml:"excerpt_chars"`
	CleanEmbeddings    bool    `yaml:"clean_embeddings"`
	SynonymsPath       string  `yaml:"synonyms_path"`
	// SynonymMaxEdits lets misspelled query words match synonym keys. 0 means exact words only.
	SynonymMaxEdits    int     `yaml:"synonym_max_edits"`
}

// Load reads and parses the config file at path, applies defaults and environment overrides,
// expands paths, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	ApplyEnv(&cfg, os.Getenv)

	configDir := filepath.Dir(path)
	cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	cfg.Vector.Path = expandPath(cfg.Vector.Path, configDir)
	if cfg.RAG.SynonymsPath != "" {
		cfg.RAG.SynonymsPath = expandPath(cfg.RAG.SynonymsPath, configDir)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the pipeline cannot run with.
func (c *Config) Validate() error {
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap (%d) must be less than rag.chunk_size (%d)", c.RAG.ChunkOverlap, c.RAG.ChunkSize)
	}
	switch c.RAG.Strategy {
	case "fixed", "semantic":
	default:
		return fmt.Errorf("unknown rag.strategy %q (supported: fixed, semantic)", c.RAG.Strategy)
	}
	switch c.Vector.Backend {
	case "memory", "sqlite":
	case "chroma":
		if c.Vector.Chroma.URL == "" {
			return fmt.Errorf("vector.chroma.url is required for the chroma backend")
		}
	default:
		return fmt.Errorf("unknown vector.backend %q (supported: memory, sqlite, chroma)", c.Vector.Backend)
	}
	switch c.Embedding.Provider {
	case "onnx", "mock":
	default:
		return fmt.Errorf("unknown embedding.provider %q (supported: onnx, mock)", c.Embedding.Provider)
	}
	if c.RAG.MaxTopK < c.RAG.DefaultTopK {
		return fmt.Errorf("rag.max_top_k (%d) must be >= rag.default_top_k (%d)", c.RAG.MaxTopK, c.RAG.DefaultTopK)
	}
	return nil
}

// Save writes the config to path. Used by "ticketrag init" to write a starter config.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
