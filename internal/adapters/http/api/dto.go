package api

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/internal/domain/confidence"
	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/model"
	"github.com/okian/tcd/internal/domain/priority"
)

// cents rounds a money amount half away from zero to two decimals.
func cents(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// evaluateRequest is the body of POST /v1/evaluate, /v1/confidence and
// /v1/assessments. Drivers are keyed by driver name; the legacy
// comm_quality key is accepted for communication.
type evaluateRequest struct {
	AssessmentID       string             `json:"assessment_id,omitempty"`
	Team               string             `json:"team,omitempty"`
	Drivers            map[string]float64 `json:"drivers"`
	Payroll            float64            `json:"payroll"`
	TeamSize           int                `json:"team_size"`
	Industry           string             `json:"industry,omitempty"`
	IndustryFactor     *float64           `json:"industry_factor,omitempty"`
	TurnoverMultiplier *float64           `json:"turnover_multiplier,omitempty"`
	BusinessValueRatio *float64           `json:"business_value_ratio,omitempty"`
	Revenue            float64            `json:"revenue,omitempty"`
}

func (r *evaluateRequest) toService() (service.Request, error) {
	if len(r.Drivers) == 0 {
		return service.Request{}, fmt.Errorf("%w: %w", ErrBadRequest, errMissingDrivers)
	}
	d, err := formula.ParseDriverScores(r.Drivers)
	if err != nil {
		return service.Request{}, err
	}
	return service.Request{
		AssessmentID:       r.AssessmentID,
		Team:               r.Team,
		Drivers:            d,
		Payroll:            r.Payroll,
		TeamSize:           r.TeamSize,
		Industry:           r.Industry,
		IndustryFactor:     r.IndustryFactor,
		TurnoverMultiplier: r.TurnoverMultiplier,
		BusinessValueRatio: r.BusinessValueRatio,
		Revenue:            r.Revenue,
	}, nil
}

type confidenceRequest struct {
	evaluateRequest
	Samples int    `json:"samples,omitempty"`
	Seed    *int64 `json:"seed,omitempty"`
}

type gamingRequest struct {
	Drivers map[string]float64 `json:"drivers"`
}

type priorityRequest struct {
	Drivers  map[string]float64 `json:"drivers"`
	Industry string             `json:"industry,omitempty"`
}

type componentsResponse struct {
	Productivity  float64 `json:"productivity"`
	Rework        float64 `json:"rework"`
	Turnover      float64 `json:"turnover"`
	Opportunity   float64 `json:"opportunity"`
	Overhead      float64 `json:"overhead"`
	Disengagement float64 `json:"disengagement"`
}

type intervalResponse struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

type evaluateResponse struct {
	Total             float64              `json:"total"`
	Raw               float64              `json:"raw"`
	GrossSubtotal     float64              `json:"gross_subtotal"`
	Subtotal          float64              `json:"subtotal"`
	Ceiling           float64              `json:"ceiling"`
	Capped            bool                 `json:"capped"`
	Components        componentsResponse   `json:"components"`
	NominalInterval   intervalResponse     `json:"nominal_interval"`
	Factors           formula.Factors      `json:"factors"`
	Engagement        formula.Engagement   `json:"engagement"`
	Gaming            formula.GamingReport `json:"gaming"`
	FourCs            formula.FourCsScores `json:"four_cs"`
	Readiness         float64              `json:"readiness"`
	WeightedReadiness float64              `json:"weighted_readiness"`
	Corrections       []formula.Correction `json:"corrections,omitempty"`
	Industry          string               `json:"industry,omitempty"`
	IndustryMatched   bool                 `json:"industry_matched"`
	FormulaVersion    string               `json:"formula_version"`
}

func newEvaluateResponse(res *formula.Result) evaluateResponse {
	c := res.Components
	return evaluateResponse{
		Total:         cents(res.Total),
		Raw:           cents(res.Raw),
		GrossSubtotal: cents(res.GrossSubtotal),
		Subtotal:      cents(res.Subtotal),
		Ceiling:       cents(res.Ceiling),
		Capped:        res.Capped,
		Components: componentsResponse{
			Productivity:  cents(c.Productivity),
			Rework:        cents(c.Rework),
			Turnover:      cents(c.Turnover),
			Opportunity:   cents(c.Opportunity),
			Overhead:      cents(c.Overhead),
			Disengagement: cents(c.Disengagement),
		},
		NominalInterval: intervalResponse{
			Lower: cents(res.NominalInterval.Lower),
			Upper: cents(res.NominalInterval.Upper),
		},
		Factors:           res.Factors,
		Engagement:        res.Engagement,
		Gaming:            res.Gaming,
		FourCs:            res.FourCs,
		Readiness:         res.Readiness,
		WeightedReadiness: res.WeightedReadiness,
		Corrections:       res.Corrections,
		FormulaVersion:    res.Version,
	}
}

func newEvaluationResponse(ev *service.Evaluation) evaluateResponse {
	out := newEvaluateResponse(&ev.Result)
	out.Industry = ev.Industry.Name
	out.IndustryMatched = ev.IndustryMatched
	return out
}

type confidenceResponse struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Mean    float64 `json:"mean"`
	Point   float64 `json:"point"`
	Level   float64 `json:"level"`
	Samples int     `json:"samples"`
	Seed    int64   `json:"seed"`
}

func newConfidenceResponse(iv confidence.Interval) confidenceResponse {
	return confidenceResponse{
		Low:     cents(iv.Low),
		High:    cents(iv.High),
		Mean:    cents(iv.Mean),
		Point:   cents(iv.Point),
		Level:   iv.Level,
		Samples: iv.Samples,
		Seed:    iv.Seed,
	}
}

type priorityResponse struct {
	Industry        string                    `json:"industry"`
	IndustryMatched bool                      `json:"industry_matched"`
	WeightSet       string                    `json:"weight_set"`
	Threshold       float64                   `json:"threshold"`
	Drivers         []priority.Driver         `json:"drivers"`
	Counts          map[priority.Quadrant]int `json:"counts"`
}

func newPriorityResponse(rep *service.PriorityReport) priorityResponse {
	return priorityResponse{
		Industry:        rep.Industry.Name,
		IndustryMatched: rep.IndustryMatched,
		WeightSet:       rep.WeightSet,
		Threshold:       priority.Threshold,
		Drivers:         rep.Drivers,
		Counts:          rep.Counts,
	}
}

type submitResponse struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type recordResponse struct {
	ID          string            `json:"id"`
	Team        string            `json:"team,omitempty"`
	Industry    string            `json:"industry,omitempty"`
	Status      model.Status      `json:"status"`
	Result      *evaluateResponse `json:"result,omitempty"`
	Error       string            `json:"error,omitempty"`
	SubmittedAt time.Time         `json:"submitted_at"`
	CompletedAt time.Time         `json:"completed_at,omitzero"`
}

func newRecordResponse(rec *model.Record) recordResponse {
	out := recordResponse{
		ID:          rec.ID,
		Team:        rec.Team,
		Industry:    rec.Industry,
		Status:      rec.Status,
		Error:       rec.Error,
		SubmittedAt: rec.SubmittedAt,
		CompletedAt: rec.CompletedAt,
	}
	if rec.Result != nil {
		res := newEvaluateResponse(rec.Result)
		res.Industry = rec.Industry
		out.Result = &res
	}
	return out
}
