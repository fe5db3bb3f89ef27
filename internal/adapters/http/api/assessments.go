package api

import (
	"net/http"
	"strconv"

	"github.com/okian/tcd/pkg/logger"
)

const defaultListLimit = 50

// AssessmentsHandler serves batch submission and result lookup.
type AssessmentsHandler struct {
	deps   Dependencies
	logger logger.Logger
}

// NewAssessmentsHandler creates a new assessments handler.
func NewAssessmentsHandler(deps Dependencies) *AssessmentsHandler {
	return &AssessmentsHandler{deps: deps, logger: logger.Get().Named("http.assessments")}
}

// HandleSubmit handles POST /v1/assessments. New assessments get 202, a
// known assessment_id gets 200 and a full queue gets 429.
func (h *AssessmentsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_assessment"
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
	id, dup, err := h.deps.Submit(ctx, req)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	if dup {
		writeJSON(w, http.StatusOK, submitResponse{ID: id, Status: "duplicate", Duplicate: true})
		return
	}
	w.Header().Set("Location", "/v1/assessments/"+id)
	writeJSON(w, http.StatusAccepted, submitResponse{ID: id, Status: "accepted"})
}

// HandleGet handles GET /v1/assessments/{id}.
func (h *AssessmentsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_assessment"
	ctx := r.Context()

	rec, err := h.deps.Result(ctx, r.PathValue("id"))
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, newRecordResponse(&rec))
}

// HandleList handles GET /v1/assessments?limit=N.
func (h *AssessmentsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_assessments"
	ctx := r.Context()

	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(ctx, w, h.logger, WrapKind(op, ErrBadRequest, errInvalidLimit))
			return
		}
		limit = n
	}
	recs, err := h.deps.Results(ctx, limit)
	if err != nil {
		writeError(ctx, w, h.logger, Wrap(op, err))
		return
	}
	out := make([]recordResponse, len(recs))
	for i := range recs {
		out[i] = newRecordResponse(&recs[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"assessments": out})
}
