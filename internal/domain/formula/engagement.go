package formula

import "math"

// Engagement category thresholds on the trust/psych-safety average.
const (
	engagedThreshold    = 5.5
	notEngagedThreshold = 3.5
)

// Engagement categories.
const (
	CategoryEngaged            = "Engaged"
	CategoryNotEngaged         = "Not Engaged"
	CategoryActivelyDisengaged = "Actively Disengaged"
)

// Engagement describes the disengagement inputs of one evaluation.
type Engagement struct {
	Score       float64 `json:"score"`
	Coefficient float64 `json:"coefficient"`
	Adjustment  float64 `json:"adjustment"`
	Category    string  `json:"category"`
}

// EngagementCoefficient is the continuous disengagement rate
// 0.18 / (1 + e^(2(E-4))) with the default coefficients.
func EngagementCoefficient(e float64) float64 {
	return DefaultCoefficients().engagementCoefficient(e)
}

func (c Coefficients) engagementCoefficient(e float64) float64 {
	return c.DisengagementMax / (1 + math.Exp(c.EngagementSteepness*(e-c.EngagementMidpoint)))
}

// EngagementCategory labels an engagement score. The label is descriptive
// only; the cost uses the continuous coefficient.
func EngagementCategory(e float64) string {
	switch {
	case e >= engagedThreshold:
		return CategoryEngaged
	case e >= notEngagedThreshold:
		return CategoryNotEngaged
	default:
		return CategoryActivelyDisengaged
	}
}

func (c Coefficients) engagement(d DriverScores) Engagement {
	e := d.Engagement()
	return Engagement{
		Score:       e,
		Coefficient: c.engagementCoefficient(e),
		Adjustment:  (MaxDriverScore - e) / 6,
		Category:    EngagementCategory(e),
	}
}
