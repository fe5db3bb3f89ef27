package formula

import "math"

// Bounds for the scalar multipliers. Values outside are clamped.
const (
	MinIndustryFactor     = 0.7
	MaxIndustryFactor     = 1.4
	MinTurnoverMultiplier = 0.8
	MaxTurnoverMultiplier = 1.3
	MinBusinessValueRatio = 1.0
	MaxBusinessValueRatio = 10.0
)

// Nominal band reported next to each point estimate.
const (
	nominalLowerBand = 0.75
	nominalUpperBand = 1.30
)

// Input is one team's evaluation request.
type Input struct {
	Drivers            DriverScores `json:"drivers" yaml:"drivers"`
	Payroll            float64      `json:"payroll" yaml:"payroll"`
	TeamSize           int          `json:"team_size" yaml:"team_size"`
	IndustryFactor     float64      `json:"industry_factor" yaml:"industry_factor"`
	TurnoverMultiplier float64      `json:"turnover_multiplier" yaml:"turnover_multiplier"`
	BusinessValueRatio float64      `json:"business_value_ratio" yaml:"business_value_ratio"`
}

// Factors are the multipliers applied to the discounted subtotal.
type Factors struct {
	OverlapDiscount float64 `json:"overlap_discount"`
	Business        float64 `json:"business"`
	Industry        float64 `json:"industry"`
	Turnover        float64 `json:"turnover"`
	TeamSize        float64 `json:"team_size"`
	Gaming          float64 `json:"gaming"`
}

// Correction records an input value that was clamped into its domain.
type Correction struct {
	Field   string  `json:"field"`
	Given   float64 `json:"given"`
	Applied float64 `json:"applied"`
}

// NominalInterval is the fixed band around the point estimate. The
// confidence package gives the sampled interval.
type NominalInterval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Result is a complete evaluation with every intermediate value.
type Result struct {
	Total             float64         `json:"total"`
	Raw               float64         `json:"raw"`
	GrossSubtotal     float64         `json:"gross_subtotal"`
	Subtotal          float64         `json:"subtotal"`
	Ceiling           float64         `json:"ceiling"`
	Capped            bool            `json:"capped"`
	Components        Components      `json:"components"`
	Factors           Factors         `json:"factors"`
	Engagement        Engagement      `json:"engagement"`
	Gaming            GamingReport    `json:"gaming"`
	FourCs            FourCsScores    `json:"four_cs"`
	Readiness         float64         `json:"readiness"`
	WeightedReadiness float64         `json:"weighted_readiness"`
	NominalInterval   NominalInterval `json:"nominal_interval"`
	Sanitized         Input           `json:"sanitized"`
	Corrections       []Correction    `json:"corrections,omitempty"`
	Version           string          `json:"version"`
}

// Corrected reports whether any input was clamped.
func (r Result) Corrected() bool { return len(r.Corrections) > 0 }

// Evaluator computes TCD with a fixed coefficient set.
type Evaluator struct {
	coeffs Coefficients
}

// EvaluatorOption configures an Evaluator.
type EvaluatorOption func(*Evaluator)

// WithCoefficients replaces the default coefficient set.
func WithCoefficients(c Coefficients) EvaluatorOption {
	return func(e *Evaluator) {
		e.coeffs = c
	}
}

// NewEvaluator builds an evaluator, validating its coefficients.
func NewEvaluator(opts ...EvaluatorOption) (*Evaluator, error) {
	e := &Evaluator{coeffs: DefaultCoefficients()}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.coeffs.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

var defaultEvaluator = &Evaluator{coeffs: DefaultCoefficients()}

// Default returns the evaluator using the published coefficients.
func Default() *Evaluator { return defaultEvaluator }

// Evaluate runs the default evaluator.
func Evaluate(in Input) (Result, error) {
	return defaultEvaluator.Evaluate(in)
}

// Coefficients returns the evaluator's coefficient set.
func (e *Evaluator) Coefficients() Coefficients { return e.coeffs }

// WithCoefficients returns a copy of e using c. The receiver is unchanged.
func (e *Evaluator) WithCoefficients(c Coefficients) (*Evaluator, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{coeffs: c}, nil
}

// Validate applies the hard-rejection rules without evaluating.
func Validate(in Input) error {
	if !isFinite(in.Payroll) {
		return financialError("payroll", in.Payroll, "must be a finite number")
	}
	if in.Payroll <= 0 {
		return financialError("payroll", in.Payroll, "must be greater than zero")
	}
	if in.TeamSize < 1 {
		return financialError("team_size", float64(in.TeamSize), "must be at least 1")
	}
	scalars := []struct {
		name string
		v    float64
	}{
		{"industry_factor", in.IndustryFactor},
		{"turnover_multiplier", in.TurnoverMultiplier},
		{"business_value_ratio", in.BusinessValueRatio},
	}
	for _, s := range scalars {
		if !isFinite(s.v) {
			return financialError(s.name, s.v, "must be a finite number")
		}
	}
	return in.Drivers.Validate()
}

// Sanitize clamps every bounded input into its domain and lists the
// values that changed. It assumes in has passed Validate.
func Sanitize(in Input) (Input, []Correction) {
	var corrections []Correction
	clamp := func(field string, v, lo, hi float64) float64 {
		c := Clamp(v, lo, hi)
		if c != v {
			corrections = append(corrections, Correction{Field: field, Given: v, Applied: c})
		}
		return c
	}
	out := in
	for _, name := range DriverNames() {
		v, _ := in.Drivers.Get(name)
		out.Drivers = out.Drivers.With(name, clamp("drivers."+name, v, MinDriverScore, MaxDriverScore))
	}
	out.IndustryFactor = clamp("industry_factor", in.IndustryFactor, MinIndustryFactor, MaxIndustryFactor)
	out.TurnoverMultiplier = clamp("turnover_multiplier", in.TurnoverMultiplier, MinTurnoverMultiplier, MaxTurnoverMultiplier)
	out.BusinessValueRatio = clamp("business_value_ratio", in.BusinessValueRatio, MinBusinessValueRatio, MaxBusinessValueRatio)
	return out, corrections
}

// Evaluate computes the total cost of dysfunction for in. It fails only on
// the hard-rejection rules; all other out-of-range values are clamped and
// reported in Result.Corrections.
func (e *Evaluator) Evaluate(in Input) (Result, error) {
	if err := Validate(in); err != nil {
		return Result{}, err
	}
	s, corrections := Sanitize(in)
	c := e.coeffs
	d := s.Drivers

	eng := c.engagement(d)
	comps := c.computeComponents(d, s.Payroll, s.TeamSize, s.TurnoverMultiplier, s.BusinessValueRatio, eng)
	gaming := detectGaming(d)
	fourCs := FourCs(d)

	gross := comps.Sum()
	subtotal := gross * (1 - c.OverlapDiscount)
	factors := Factors{
		OverlapDiscount: c.OverlapDiscount,
		Business:        BusinessMultiplier(fourCs.Mean, c.FourCsAmplification),
		Industry:        s.IndustryFactor,
		Turnover:        s.TurnoverMultiplier,
		TeamSize:        TeamSizeFactor(s.TeamSize),
		Gaming:          gaming.Penalty,
	}
	raw := subtotal * factors.Business * factors.Industry * factors.TeamSize * factors.Gaming
	ceiling := s.Payroll * c.CeilingMultiple
	total := math.Min(raw, ceiling)

	return Result{
		Total:             total,
		Raw:               raw,
		GrossSubtotal:     gross,
		Subtotal:          subtotal,
		Ceiling:           ceiling,
		Capped:            raw > ceiling,
		Components:        comps,
		Factors:           factors,
		Engagement:        eng,
		Gaming:            gaming,
		FourCs:            fourCs,
		Readiness:         Readiness(d),
		WeightedReadiness: WeightedReadiness(d),
		NominalInterval:   NominalInterval{Lower: total * nominalLowerBand, Upper: total * nominalUpperBand},
		Sanitized:         s,
		Corrections:       corrections,
		Version:           FormulaVersion,
	}, nil
}
