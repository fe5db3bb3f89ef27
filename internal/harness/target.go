package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/okian/tcd/internal/domain/formula"
)

// ErrRejected is returned by targets for inputs the evaluator refused.
var ErrRejected = errors.New("input rejected")

// Outcome is the part of an evaluation the checks inspect.
type Outcome struct {
	Total   float64
	Ceiling float64
	Capped  bool
	Gaming  formula.GamingReport
}

// Target evaluates inputs. Implementations must be safe for concurrent
// use.
type Target interface {
	Evaluate(ctx context.Context, in formula.Input) (Outcome, error)
	// Tolerance is the absolute error the target may add to money values.
	Tolerance() float64
}

// LocalTarget evaluates in process.
type LocalTarget struct {
	ev *formula.Evaluator
}

// NewLocalTarget wraps ev. A nil ev uses the published coefficients.
func NewLocalTarget(ev *formula.Evaluator) *LocalTarget {
	if ev == nil {
		ev = formula.Default()
	}
	return &LocalTarget{ev: ev}
}

// Evaluate runs the formula.
func (t *LocalTarget) Evaluate(_ context.Context, in formula.Input) (Outcome, error) { //nolint:gocritic // hugeParam
	res, err := t.ev.Evaluate(in)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrRejected, err)
	}
	return Outcome{Total: res.Total, Ceiling: res.Ceiling, Capped: res.Capped, Gaming: res.Gaming}, nil
}

// Tolerance is zero beyond float rounding.
func (t *LocalTarget) Tolerance() float64 { return 1e-6 }

// HTTPTarget evaluates through a running server's POST /v1/evaluate.
type HTTPTarget struct {
	base   string
	client *http.Client
}

// NewHTTPTarget creates a target for the server at baseURL. A nil client
// uses one with a 10s timeout.
func NewHTTPTarget(baseURL string, client *http.Client) *HTTPTarget {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPTarget{base: strings.TrimRight(baseURL, "/"), client: client}
}

type httpRequest struct {
	Drivers            map[string]float64 `json:"drivers"`
	Payroll            float64            `json:"payroll"`
	TeamSize           int                `json:"team_size"`
	IndustryFactor     float64            `json:"industry_factor"`
	TurnoverMultiplier float64            `json:"turnover_multiplier"`
	BusinessValueRatio float64            `json:"business_value_ratio"`
}

type httpResponse struct {
	Total   float64              `json:"total"`
	Ceiling float64              `json:"ceiling"`
	Capped  bool                 `json:"capped"`
	Gaming  formula.GamingReport `json:"gaming"`
	Code    string               `json:"code"`
	Message string               `json:"message"`
}

// Evaluate posts in and decodes the response.
func (t *HTTPTarget) Evaluate(ctx context.Context, in formula.Input) (Outcome, error) { //nolint:gocritic // hugeParam
	body, err := json.Marshal(httpRequest{
		Drivers:            in.Drivers.Map(),
		Payroll:            in.Payroll,
		TeamSize:           in.TeamSize,
		IndustryFactor:     in.IndustryFactor,
		TurnoverMultiplier: in.TurnoverMultiplier,
		BusinessValueRatio: in.BusinessValueRatio,
	})
	if err != nil {
		return Outcome{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+"/v1/evaluate", bytes.NewReader(body))
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return Outcome{}, err
	}
	defer resp.Body.Close()

	var out httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Outcome{}, fmt.Errorf("decode %s response: %w", resp.Status, err)
	}
	switch {
	case resp.StatusCode == http.StatusBadRequest:
		return Outcome{}, fmt.Errorf("%w: %s: %s", ErrRejected, out.Code, out.Message)
	case resp.StatusCode != http.StatusOK:
		return Outcome{}, fmt.Errorf("unexpected status %s: %s", resp.Status, out.Message)
	}
	return Outcome{Total: out.Total, Ceiling: out.Ceiling, Capped: out.Capped, Gaming: out.Gaming}, nil
}

// Tolerance covers cent rounding of two values.
func (t *HTTPTarget) Tolerance() float64 { return 0.02 }
