package priority

import (
	"strings"

	"github.com/okian/tcd/internal/domain/formula"
)

// DefaultWeightSet names the business-value weights used for industries
// without a set of their own.
const DefaultWeightSet = "Professional Services"

// teamImpactWeights are the driver-to-performance correlations normalized
// to the strongest driver (team cognition, r = 0.35). They do not vary by
// industry.
var teamImpactWeights = map[string]float64{
	formula.TeamCognition: 1.00,
	formula.Trust:         0.94,
	formula.Communication: 0.89,
	formula.Coordination:  0.83,
	formula.GoalClarity:   0.80,
	formula.PsychSafety:   0.77,
	formula.TMS:           0.74,
}

// businessValueWeights are keyed by lowercased industry profile name.
var businessValueWeights = map[string]map[string]float64{
	"technology": {
		formula.Trust: 0.94, formula.PsychSafety: 0.89, formula.Communication: 1.00, formula.GoalClarity: 0.85,
		formula.Coordination: 0.95, formula.TMS: 0.79, formula.TeamCognition: 1.00,
	},
	"healthcare": {
		formula.Trust: 1.00, formula.PsychSafety: 0.89, formula.Communication: 1.00, formula.GoalClarity: 0.85,
		formula.Coordination: 0.88, formula.TMS: 0.79, formula.TeamCognition: 1.00,
	},
	"financial services": {
		formula.Trust: 0.94, formula.PsychSafety: 0.82, formula.Communication: 1.00, formula.GoalClarity: 0.85,
		formula.Coordination: 0.83, formula.TMS: 0.74, formula.TeamCognition: 1.00,
	},
	"government": {
		formula.Trust: 0.94, formula.PsychSafety: 0.77, formula.Communication: 0.94, formula.GoalClarity: 0.92,
		formula.Coordination: 0.83, formula.TMS: 0.74, formula.TeamCognition: 0.90,
	},
	// Retail shares the hospitality and service weights.
	"retail": {
		formula.Trust: 1.00, formula.PsychSafety: 0.82, formula.Communication: 0.94, formula.GoalClarity: 0.80,
		formula.Coordination: 0.83, formula.TMS: 0.69, formula.TeamCognition: 0.85,
	},
	"manufacturing": {
		formula.Trust: 0.94, formula.PsychSafety: 0.77, formula.Communication: 0.89, formula.GoalClarity: 0.85,
		formula.Coordination: 0.95, formula.TMS: 0.85, formula.TeamCognition: 0.90,
	},
	"professional services": {
		formula.Trust: 1.00, formula.PsychSafety: 0.82, formula.Communication: 1.00, formula.GoalClarity: 0.85,
		formula.Coordination: 0.88, formula.TMS: 0.85, formula.TeamCognition: 1.00,
	},
}

// TeamImpactWeight returns the industry-independent weight of a driver.
func TeamImpactWeight(driver string) (float64, bool) {
	w, ok := teamImpactWeights[driver]
	return w, ok
}

// BusinessValueWeights returns a copy of the weight set for an industry.
// Unknown industries get the DefaultWeightSet weights with found=false.
func BusinessValueWeights(industry string) (weights map[string]float64, found bool) {
	set, found := businessValueWeights[strings.ToLower(strings.TrimSpace(industry))]
	if !found {
		set = businessValueWeights[strings.ToLower(DefaultWeightSet)]
	}
	out := make(map[string]float64, len(set))
	for k, v := range set {
		out[k] = v
	}
	return out, found
}
