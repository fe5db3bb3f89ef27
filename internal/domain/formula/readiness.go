package formula

import "math"

// readinessWeights are the meta-analysis weights used by the legacy
// weighted readiness score. They sum to 1.
var readinessWeights = DriverScores{
	Trust:         0.18,
	PsychSafety:   0.17,
	Communication: 0.15,
	GoalClarity:   0.14,
	Coordination:  0.13,
	TMS:           0.12,
	TeamCognition: 0.11,
}

// Readiness is the unweighted readiness R = (mean - 1) / 6 in [0, 1].
func Readiness(d DriverScores) float64 {
	return (d.Mean() - MinDriverScore) / 6
}

// WeightedReadiness is Σ (score/7)·w, rounded to four places. Scores are
// sanitized first.
func WeightedReadiness(d DriverScores) float64 {
	s := d.Sanitize()
	var sum float64
	for _, name := range DriverNames() {
		score, _ := s.Get(name)
		w, _ := readinessWeights.Get(name)
		sum += score / MaxDriverScore * w
	}
	return math.Round(sum*1e4) / 1e4
}
