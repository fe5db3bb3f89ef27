package service

import (
	"fmt"
	"math"

	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/industry"
)

// Request is an evaluation request as received from a transport. The
// optional multipliers are pointers so that an explicit zero reaches the
// formula and is clamped like any other out-of-range value.
type Request struct {
	AssessmentID string
	Team         string
	Drivers      formula.DriverScores
	Payroll      float64
	TeamSize     int

	// Industry names a profile in the industry table. IndustryFactor and
	// TurnoverMultiplier, when set, win over the profile.
	Industry           string
	IndustryFactor     *float64
	TurnoverMultiplier *float64

	// BusinessValueRatio wins over Revenue; Revenue is divided by
	// Payroll. With neither, the ratio is 1. A zero Revenue counts as
	// not given.
	BusinessValueRatio *float64
	Revenue            float64
}

// Resolution is a Request turned into formula input.
type Resolution struct {
	Input           formula.Input
	Industry        industry.Profile
	IndustryMatched bool
}

// Evaluation is an evaluation result with the industry it used.
type Evaluation struct {
	formula.Result
	Industry        industry.Profile `json:"industry"`
	IndustryMatched bool             `json:"industry_matched"`
}

// Resolve looks up the industry profile and derives the business value
// ratio. It does not validate the formula input.
func (s *Service) Resolve(req Request) (Resolution, error) { //nolint:gocritic // hugeParam
	if req.Revenue < 0 || math.IsNaN(req.Revenue) || math.IsInf(req.Revenue, 0) {
		return Resolution{}, fmt.Errorf("%w: revenue must be a finite non-negative number", ErrInvalidRequest)
	}

	profile, ok := s.industries.Lookup(req.Industry)

	in := formula.Input{
		Drivers:            req.Drivers,
		Payroll:            req.Payroll,
		TeamSize:           req.TeamSize,
		IndustryFactor:     profile.Phi,
		TurnoverMultiplier: profile.Rho,
		BusinessValueRatio: 1,
	}
	if req.IndustryFactor != nil {
		in.IndustryFactor = *req.IndustryFactor
	}
	if req.TurnoverMultiplier != nil {
		in.TurnoverMultiplier = *req.TurnoverMultiplier
	}
	switch {
	case req.BusinessValueRatio != nil:
		in.BusinessValueRatio = *req.BusinessValueRatio
	case req.Revenue > 0 && req.Payroll > 0:
		in.BusinessValueRatio = req.Revenue / req.Payroll
	}
	return Resolution{Input: in, Industry: profile, IndustryMatched: ok}, nil
}
