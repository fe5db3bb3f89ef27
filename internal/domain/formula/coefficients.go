// Package formula implements the Total Cost of Dysfunction valuation: input
// sanitization, the six cost components, the correction multipliers and the
// capped aggregate.
//
// Every function in this package is pure. An Evaluator carries an immutable
// Coefficients value so that callers (the confidence estimator in particular)
// can substitute perturbed coefficients without touching shared state.
package formula

import (
	"fmt"
	"math"
)

// FormulaVersion identifies the revision of the formula stamped into results.
const FormulaVersion = "4.0.0"

// Coefficients holds the tunable constants of the formula.
type Coefficients struct {
	// Productivity is δ1, the share of payroll lost to low readiness.
	Productivity float64 `koanf:"productivity" json:"productivity"`
	// Rework is δ2.
	Rework float64 `koanf:"rework" json:"rework"`
	// Turnover is τ.
	Turnover float64 `koanf:"turnover" json:"turnover"`
	// Opportunity is δ4.
	Opportunity float64 `koanf:"opportunity" json:"opportunity"`
	// Overhead is δ5.
	Overhead float64 `koanf:"overhead" json:"overhead"`

	// DisengagementMax is the asymptotic ceiling of the engagement sigmoid.
	DisengagementMax    float64 `koanf:"disengagement_max" json:"disengagement_max"`
	EngagementMidpoint  float64 `koanf:"engagement_midpoint" json:"engagement_midpoint"`
	EngagementSteepness float64 `koanf:"engagement_steepness" json:"engagement_steepness"`

	// FourCsAmplification is α in M_4C = 1 + α(1 - C̄/7).
	FourCsAmplification float64 `koanf:"four_cs_amplification" json:"four_cs_amplification"`
	// OverlapDiscount removes double-counted cost from the component sum.
	OverlapDiscount float64 `koanf:"overlap_discount" json:"overlap_discount"`
	// CeilingMultiple caps the total at CeilingMultiple × payroll.
	CeilingMultiple float64 `koanf:"ceiling_multiple" json:"ceiling_multiple"`
}

// DefaultCoefficients returns the published coefficient set.
func DefaultCoefficients() Coefficients {
	return Coefficients{
		Productivity:        0.25,
		Rework:              0.10,
		Turnover:            0.21,
		Opportunity:         0.15,
		Overhead:            0.12,
		DisengagementMax:    0.18,
		EngagementMidpoint:  4.0,
		EngagementSteepness: 2.0,
		FourCsAmplification: 0.5,
		OverlapDiscount:     0.12,
		CeilingMultiple:     3.5,
	}
}

// Validate reports whether every coefficient is finite and inside the range
// that keeps the formula's guarantees (non-negativity and the ceiling).
func (c Coefficients) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"productivity", c.Productivity},
		{"rework", c.Rework},
		{"turnover", c.Turnover},
		{"opportunity", c.Opportunity},
		{"overhead", c.Overhead},
		{"disengagement_max", c.DisengagementMax},
		{"engagement_midpoint", c.EngagementMidpoint},
		{"engagement_steepness", c.EngagementSteepness},
		{"four_cs_amplification", c.FourCsAmplification},
		{"overlap_discount", c.OverlapDiscount},
		{"ceiling_multiple", c.CeilingMultiple},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return fmt.Errorf("%w: %s is not finite", ErrInvalidCoefficients, f.name)
		}
		if f.v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %g", ErrInvalidCoefficients, f.name, f.v)
		}
	}
	if c.OverlapDiscount >= 1 {
		return fmt.Errorf("%w: overlap_discount must be below 1, got %g", ErrInvalidCoefficients, c.OverlapDiscount)
	}
	if c.CeilingMultiple == 0 {
		return fmt.Errorf("%w: ceiling_multiple must be positive", ErrInvalidCoefficients)
	}
	return nil
}
