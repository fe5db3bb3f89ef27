// Package api exposes the TCD service over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/internal/domain/confidence"
	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/industry"
	"github.com/okian/tcd/internal/domain/model"
	"github.com/okian/tcd/pkg/logger"
)

const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	Evaluate(ctx context.Context, req service.Request) (service.Evaluation, error)
	DetectGaming(ctx context.Context, d formula.DriverScores) (formula.GamingReport, error)
	EstimateConfidence(ctx context.Context, req service.Request, samples int, seed *int64) (confidence.Interval, error)
	Priorities(ctx context.Context, industryName string, d formula.DriverScores) (service.PriorityReport, error)

	// Submit queues an assessment. It returns service.ErrBackpressure when
	// the queue is full.
	Submit(ctx context.Context, req service.Request) (id string, duplicate bool, err error)
	Result(ctx context.Context, id string) (model.Record, error)
	Results(ctx context.Context, limit int) ([]model.Record, error)

	Industries() []industry.Profile
}

// Server wires HTTP routes for the business API.
type Server struct {
	deps               Dependencies
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	evaluateHandler    *EvaluateHandler
	assessmentsHandler *AssessmentsHandler
	logger             logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		deps:               deps,
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		evaluateHandler:    NewEvaluateHandler(deps),
		assessmentsHandler: NewAssessmentsHandler(deps),
		logger:             logger.Get().Named("http"),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("GET /v1/industries", MetricsMiddleware(s.handleIndustries, "industries"))
	mux.HandleFunc("POST /v1/evaluate", MetricsMiddleware(s.evaluateHandler.HandleEvaluate, "evaluate"))
	mux.HandleFunc("POST /v1/gaming", MetricsMiddleware(s.evaluateHandler.HandleGaming, "gaming"))
	mux.HandleFunc("POST /v1/confidence", MetricsMiddleware(s.evaluateHandler.HandleConfidence, "confidence"))
	mux.HandleFunc("POST /v1/priorities", MetricsMiddleware(s.evaluateHandler.HandlePriorities, "priorities"))
	mux.HandleFunc("POST /v1/assessments", MetricsMiddleware(s.assessmentsHandler.HandleSubmit, "assessments_submit"))
	mux.HandleFunc("GET /v1/assessments", MetricsMiddleware(s.assessmentsHandler.HandleList, "assessments_list"))
	mux.HandleFunc("GET /v1/assessments/{id}", MetricsMiddleware(s.assessmentsHandler.HandleGet, "assessments_get"))
}

func (s *Server) handleIndustries(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"industries": s.deps.Industries()})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// decode reads a JSON body of at most maxBodyBytes into v.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadRequest)
		}
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError classifies err and writes it as an errorResponse. Internal
// errors are logged and their text is not returned.
func writeError(ctx context.Context, w http.ResponseWriter, l logger.Logger, err error) {
	status, code := classify(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		l.Error(ctx, "request failed", logger.Error(err))
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
