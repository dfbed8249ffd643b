package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Server.IdentityHeader == "" {
		cfg.Server.IdentityHeader = "X-User-ID"
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 120 * time.Second
	}
	if cfg.Tickets.BaseURL == "" {
		cfg.Tickets.BaseURL = "http://localhost:5000"
	}
	if cfg.Tickets.ListPath == "" {
		cfg.Tickets.ListPath = "/api/tickets?scope=me"
	}
	if cfg.Tickets.TicketPath == "" {
		cfg.Tickets.TicketPath = "/api/tickets/%s"
	}
	if cfg.Tickets.Timeout == 0 {
		cfg.Tickets.Timeout = 15 * time.Second
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 30 * time.Second
	}
	if cfg.Fetch.MaxBytes == 0 {
		cfg.Fetch.MaxBytes = 20 << 20
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = "ticketrag/1.0"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "onnx"
	}
	if cfg.Embedding.ModelPath == "" {
		cfg.Embedding.ModelPath = "/usr/local/var/ticketrag/models/all-MiniLM-L6-v2.onnx"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.Timeout == 0 {
		cfg.Embedding.Timeout = 60 * time.Second
	}
	if cfg.Vector.Backend == "" {
		cfg.Vector.Backend = "sqlite"
	}
	if cfg.Vector.Collection == "" {
		cfg.Vector.Collection = "tickets"
	}
	if cfg.Vector.Path == "" {
		cfg.Vector.Path = "/usr/local/var/ticketrag/data/vectors.db"
	}
	if cfg.Vector.Chroma.Tenant == "" {
		cfg.Vector.Chroma.Tenant = "default_tenant"
	}
	if cfg.Vector.Chroma.Database == "" {
		cfg.Vector.Chroma.Database = "default_database"
	}
	if cfg.Vector.Chroma.Timeout == 0 {
		cfg.Vector.Chroma.Timeout = 15 * time.Second
	}
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.5-flash"
	}
	if cfg.LLM.Temperature == 0 {
		cfg.LLM.Temperature = 0.2
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.RAG.Project == "" {
		cfg.RAG.Project = "tickets"
	}
	if cfg.RAG.Strategy == "" {
		cfg.RAG.Strategy = "fixed"
	}
	if cfg.RAG.ChunkSize == 0 {
		cfg.RAG.ChunkSize = 800
	}
	if cfg.RAG.ChunkOverlap == 0 {
		cfg.RAG.ChunkOverlap = 150
	}
	if cfg.RAG.MinChunkSize == 0 {
		cfg.RAG.MinChunkSize = 100
	}
	if cfg.RAG.MinTextLength == 0 {
		cfg.RAG.MinTextLength = 20
	}
	if cfg.RAG.MinChunkTextLength == 0 {
		cfg.RAG.MinChunkTextLength = 20
	}
	if cfg.RAG.DefaultTopK == 0 {
		cfg.RAG.DefaultTopK = 5
	}
	if cfg.RAG.MaxTopK == 0 {
		cfg.RAG.MaxTopK = 20
	}
	if cfg.RAG.CandidateFactor == 0 {
		cfg.RAG.CandidateFactor = 1.5
	}
	if cfg.RAG.ExcerptChars == 0 {
		cfg.RAG.ExcerptChars = 800
	}
}

// ApplyEnv overrides secrets and endpoints from the environment. getenv is os.Getenv in production.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	if v := firstNonEmpty(getenv("TICKETRAG_LLM_API_KEY"), getenv("GOOGLE_API_KEY"), getenv("OPENAI_API_KEY")); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := getenv("TICKETRAG_LLM_MODEL"); v != "" {
		cfg.LLM.Model = v
	} else if v := getenv("GEMINI_MODEL"); v != "" {
		cfg.LLM.Model = v
	}
	if v := getenv("TICKETRAG_CHROMA_API_KEY"); v != "" {
		cfg.Vector.Chroma.APIKey = v
	}
	if v := firstNonEmpty(getenv("TICKETRAG_TICKETS_BASE_URL"), getenv("INTERNAL_API_BASE")); v != "" {
		cfg.Tickets.BaseURL = v
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
