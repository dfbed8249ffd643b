package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/hyperjump/ticketrag/internal/models"
	"github.com/hyperjump/ticketrag/internal/search"
	"github.com/hyperjump/ticketrag/internal/tickets"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request id in both directions and to the ticket service.
const RequestIDHeader = "X-Request-ID"

type ctxKey int

const (
	requestIDKey ctxKey = iota
	callerKey
)

// requestID reuses a client-supplied X-Request-ID or assigns a new UUID, and echoes it back.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// accessLog logs each request and records it in metrics under its route pattern.
func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		s.metrics.HTTPRequest(route, status)
		s.logger.Debug("http request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
	})
}

// requireIdentity resolves the caller from the identity header and rejects anonymous requests.
// The Authorization header is forwarded to the ticket service unchanged.
func (s *Server) requireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		scope := strings.TrimSpace(r.Header.Get(s.config.Server.IdentityHeader))
		if scope == "" {
			s.respondFailure(w, r, models.ErrMissingIdentity, "")
			return
		}
		caller := search.Caller{
			ScopeID: scope,
			Credentials: tickets.Credentials{
				Authorization: r.Header.Get("Authorization"),
				RequestID:     requestIDFrom(r.Context()),
			},
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, caller)))
	})
}

func callerFrom(ctx context.Context) search.Caller {
	c, _ := ctx.Value(callerKey).(search.Caller)
	return c
}
