package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/internal/vector"
	"go.uber.org/zap"
)

// errorBody is the JSON shape of every failed request.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req models.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	caller := callerFrom(r.Context())
	s.logger.Debug("query request",
		zap.String("scope", caller.ScopeID),
		zap.Int("top_k", req.TopK),
		zap.String("ticket", req.TicketID),
	)
	resp, err := s.engine.Query(r.Context(), caller, &req)
	if err != nil {
		s.respondFailure(w, r, err, "Query failed")
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.index(w, r, "", false)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	s.index(w, r, "", true)
}

func (s *Server) handleTicketIndex(w http.ResponseWriter, r *http.Request) {
	s.index(w, r, chi.URLParam(r, "ticketId"), false)
}

func (s *Server) handleTicketReindex(w http.ResponseWriter, r *http.Request) {
	s.index(w, r, chi.URLParam(r, "ticketId"), true)
}

// index serves the four indexing routes. The body is optional.
func (s *Server) index(w http.ResponseWriter, r *http.Request, ticketID string, reindex bool) {
	var req models.IndexRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	caller := callerFrom(r.Context())
	s.logger.Debug("index request",
		zap.String("scope", caller.ScopeID),
		zap.String("ticket", ticketID),
		zap.Bool("reindex", reindex),
	)
	resp, err := s.engine.Index(r.Context(), caller, &req, ticketID, reindex)
	if err != nil {
		s.respondFailure(w, r, err, "Indexing failed")
		return
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAttachments(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketId")
	atts, err := s.engine.Attachments(r.Context(), callerFrom(r.Context()), ticketID)
	if err != nil {
		s.respondFailure(w, r, err, "Failed to load attachments")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ticketId":    ticketID,
		"count":       len(atts),
		"attachments": atts,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":      true,
		"ts":      time.Now().UTC().Format(time.RFC3339),
		"service": serviceName,
	})
}

// handleStatus reports the store and the retrieval settings in effect. The caller's own vector
// count is included when the identity header is present.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	total, err := s.store.Count(ctx, nil)
	if err != nil {
		s.logger.Error("status: count vectors failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, "Status failed", err.Error())
		return
	}
	resp := map[string]interface{}{
		"backend":       s.store.Backend(),
		"collection":    s.config.Vector.Collection,
		"total_vectors": total,
	}
	if scope := r.Header.Get(s.config.Server.IdentityHeader); scope != "" {
		n, err := s.store.Count(ctx, map[string]string{models.MetaUserID: scope})
		if err != nil {
			s.logger.Warn("status: count scope vectors failed", zap.Error(err))
		} else {
			resp["user_vectors"] = n
		}
	}
	if diskBytes, err := vector.DiskUsage(&s.config.Vector); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}

	rag := s.config.RAG
	resp["config"] = map[string]interface{}{
		"project":          rag.Project,
		"strategy":         rag.Strategy,
		"chunk_size":       rag.ChunkSize,
		"chunk_overlap":    rag.ChunkOverlap,
		"min_chunk_size":   rag.MinChunkSize,
		"default_top_k":    rag.DefaultTopK,
		"max_top_k":        rag.MaxTopK,
		"candidate_factor": rag.CandidateFactor,
		"clean_embeddings": rag.CleanEmbeddings,
		"embedding":        s.config.Embedding.Provider,
		"dimensions":       s.config.Embedding.Dimensions,
		"llm_enabled":      s.config.LLM.Enabled,
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// respondFailure maps an engine error to a status code and error body.
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, err error, generic string) {
	var (
		invalid  *models.InvalidQueryError
		auth     *models.UpstreamAuthError
		upstream *models.UpstreamError
	)
	switch {
	case errors.As(err, &invalid):
		s.respondError(w, http.StatusBadRequest, invalid.Error(), "")
	case errors.Is(err, models.ErrMissingIdentity):
		s.respondError(w, http.StatusUnauthorized, "Missing caller identity", "")
	case errors.As(err, &auth):
		s.respondError(w, auth.StatusCode, "Ticket service rejected credentials", auth.Body)
	case errors.As(err, &upstream):
		status := http.StatusBadGateway
		if upstream.StatusCode == http.StatusNotFound {
			status = http.StatusNotFound
		}
		s.respondError(w, status, "Ticket service request failed", upstream.Body)
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusGatewayTimeout, "Request timed out", "")
	default:
		s.logger.Error(generic,
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Error(err),
		)
		s.respondError(w, http.StatusInternalServerError, generic, err.Error())
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message, details string) {
	s.respondJSON(w, status, errorBody{Error: message, Details: details})
}
