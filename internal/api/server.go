// Package api serves the tutor over JSON HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/abhisek/skillpath/internal/metrics"
	"github.com/abhisek/skillpath/internal/skillgraph"
	"github.com/abhisek/skillpath/internal/store"
	"github.com/abhisek/skillpath/internal/tutor"
)

// Tutor is the orchestration surface the handlers need.
type Tutor interface {
	CreateThread(ctx context.Context, userID, title string, draft *skillgraph.Draft) (store.Thread, error)
	Threads(ctx context.Context, userID string) ([]store.Thread, error)
	Plan(ctx context.Context, userID, threadID string) (tutor.Recommendation, error)
	Next(ctx context.Context, userID, threadID string) (tutor.Step, error)
	Submit(ctx context.Context, userID, threadID, nodeID string, a tutor.Attempt) (tutor.Result, error)
	Progress(ctx context.Context, userID, threadID string) (tutor.ThreadStatus, error)
	History(ctx context.Context, userID, threadID, nodeID string, opts store.QueryOpts) ([]store.EvidenceEventData, error)
}

// Server wires HTTP routes onto a Tutor.
type Server struct {
	tutor   Tutor
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewServer(t Tutor, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{tutor: t, metrics: m, logger: logger}
}

// Handler returns the routed handler. Every route is wrapped by the
// metrics middleware under its pattern.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.metrics.Middleware(pattern, h))
	}

	handle("GET /healthz", s.handleHealth)
	handle("POST /threads", s.handleCreateThread)
	handle("GET /threads", s.handleListThreads)
	handle("GET /threads/{id}/plan", s.handlePlan)
	handle("GET /threads/{id}/next", s.handleNext)
	handle("GET /threads/{id}/progress", s.handleProgress)
	handle("POST /threads/{id}/evidence", s.handleSubmit)
	handle("GET /threads/{id}/evidence", s.handleHistory)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
