// Package api exposes the analyzer over HTTP: analysis runs, report
// lookup, direct source invocation, and advisor chat.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ankitjain91/pmfit-analyzer/internal/analysis"
	"github.com/ankitjain91/pmfit-analyzer/internal/logging"
	"github.com/ankitjain91/pmfit-analyzer/internal/sources"
)

// Analyzer is the report surface the handlers call.
type Analyzer interface {
	Analyze(ctx context.Context, input analysis.IdeaInput) (*analysis.Report, error)
	Get(ctx context.Context, id string) (*analysis.Report, error)
	Recent(ctx context.Context, limit int) ([]*analysis.Report, error)
	Chat(ctx context.Context, messages []sources.ChatMessage) (*sources.ChatReply, error)
	Prefetch(ctx context.Context, input analysis.IdeaInput) error
}

// Functions invokes one backend function by name.
type Functions interface {
	Function(ctx context.Context, name string, payload json.RawMessage) (any, error)
}

type Server struct {
	analyzer  Analyzer
	functions Functions
	health    http.Handler
	metrics   http.Handler
	logger    *logging.Logger
}

func NewServer(analyzer Analyzer, functions Functions, health, metrics http.Handler) *Server {
	return &Server{
		analyzer:  analyzer,
		functions: functions,
		health:    health,
		metrics:   metrics,
		logger:    logging.New("pmfit-api"),
	}
}

// Handler builds the route table with request-ID and access logging
// middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/analyses", s.handleAnalyze)
	mux.HandleFunc("GET /v1/analyses", s.handleRecent)
	mux.HandleFunc("GET /v1/analyses/{id}", s.handleGetAnalysis)
	mux.HandleFunc("POST /v1/analyses/prefetch", s.handlePrefetch)
	mux.HandleFunc("POST /v1/functions/{name}", s.handleFunction)
	mux.HandleFunc("POST /v1/chat", s.handleChat)
	if s.health != nil {
		mux.Handle("GET /healthz", s.health)
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	return s.withRequestID(mux)
}

type ctxKeyRequestID struct{}

// RequestIDFrom returns the request ID middleware attached to ctx.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), ctxKeyRequestID{}, id)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		s.logger.WithContext(ctx).WithRequest(id).
			WithField("method", r.Method).
			WithField("path", r.URL.Path).
			WithField("duration_ms", time.Since(start).Milliseconds()).
			Debug("request handled")
	})
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg, RequestID: RequestIDFrom(r.Context())})
}
