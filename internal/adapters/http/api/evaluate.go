package api

import (
	"net/http"

	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/pkg/logger"
)

// EvaluateHandler serves the synchronous evaluation endpoints.
type EvaluateHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewEvaluateHandler creates a new evaluate handler.
func NewEvaluateHandler(deps Dependencies) *EvaluateHandler {
	return &EvaluateHandler{deps: deps, logger: logger.Get().Named("http.evaluate")}
}

// HandleEvaluate handles POST /v1/evaluate.
func (h *EvaluateHandler) HandleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "api.evaluate"
	ctx := r.Context()

	var body evaluateRequest
	if err := decode(w, r, &body); err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	req, err := body.toService()
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	ev, err := h.deps.Evaluate(ctx, req)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newEvaluationResponse(&ev))
}

// HandleGaming handles POST /v1/gaming.
func (h *EvaluateHandler) HandleGaming(w http.ResponseWriter, r *http.Request) {
	const op = "api.gaming"
	ctx := r.Context()

	var body gamingRequest
	if err := decode(w, r, &body); err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	if len(body.Drivers) == 0 {
		writeError(ctx, w, h.logger, WrapKind(op, ErrBadRequest, errMissingDrivers))
		return
	}
	d, err := formula.ParseDriverScores(body.Drivers)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	rep, err := h.deps.DetectGaming(ctx, d)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// HandleConfidence handles POST /v1/confidence.
func (h *EvaluateHandler) HandleConfidence(w http.ResponseWriter, r *http.Request) {
	const op = "api.confidence"
	ctx := r.Context()

	var body confidenceRequest
	if err := decode(w, r, &body); err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	if body.Samples < 0 {
		writeError(ctx, w, h.logger, WrapKind(op, ErrBadRequest, errNegativeSamples))
		return
	}
	req, err := body.toService()
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	iv, err := h.deps.EstimateConfidence(ctx, req, body.Samples, body.Seed)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newConfidenceResponse(iv))
}

// HandlePriorities handles POST /v1/priorities.
func (h *EvaluateHandler) HandlePriorities(w http.ResponseWriter, r *http.Request) {
	const op = "api.priorities"
	ctx := r.Context()

	var body priorityRequest
	if err := decode(w, r, &body); err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	if len(body.Drivers) == 0 {
		writeError(ctx, w, h.logger, WrapKind(op, ErrBadRequest, errMissingDrivers))
		return
	}
	d, err := formula.ParseDriverScores(body.Drivers)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	rep, err := h.deps.Priorities(ctx, body.Industry, d)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newPriorityResponse(&rep))
}
