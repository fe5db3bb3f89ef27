package formula

import "math"

// Gaming penalty parameters.
const (
	anomalyThreshold  = 1.5
	gamingPenaltyRate = 0.1
	maxGamingPenalty  = 1.5
	neutralMultiplier = 1.0
)

// correlatedPair is a pair of drivers that move together in honest data.
type correlatedPair struct {
	a, b      string
	tolerance float64
}

var correlatedPairs = []correlatedPair{
	{Trust, PsychSafety, 1.5},
	{Communication, Coordination, 2.0},
	{GoalClarity, TeamCognition, 2.5},
}

// PairDeviation is the divergence of one correlated pair.
type PairDeviation struct {
	First      string  `json:"first"`
	Second     string  `json:"second"`
	Difference float64 `json:"difference"`
	Tolerance  float64 `json:"tolerance"`
	Excess     float64 `json:"excess"`
}

// GamingReport is the outcome of the anomaly detector.
type GamingReport struct {
	AnomalyScore float64         `json:"anomaly_score"`
	Penalty      float64         `json:"penalty_multiplier"`
	Flagged      bool            `json:"flagged"`
	Pairs        []PairDeviation `json:"pairs"`
}

// DetectGaming scores implausible divergence between normally-correlated
// drivers. Scores are sanitized first, so the report matches what Evaluate
// would apply.
func DetectGaming(d DriverScores) (GamingReport, error) {
	if err := d.Validate(); err != nil {
		return GamingReport{}, err
	}
	return detectGaming(d.Sanitize()), nil
}

func detectGaming(d DriverScores) GamingReport {
	report := GamingReport{Pairs: make([]PairDeviation, 0, len(correlatedPairs))}
	for _, p := range correlatedPairs {
		a, _ := d.Get(p.a)
		b, _ := d.Get(p.b)
		diff := math.Abs(a - b)
		excess := math.Max(0, diff-p.tolerance)
		report.AnomalyScore += excess
		report.Pairs = append(report.Pairs, PairDeviation{
			First:      p.a,
			Second:     p.b,
			Difference: diff,
			Tolerance:  p.tolerance,
			Excess:     excess,
		})
	}
	report.Penalty = GamingPenalty(report.AnomalyScore)
	report.Flagged = report.Penalty > neutralMultiplier
	return report
}

// GamingPenalty maps an anomaly score to the multiplier G in [1.0, 1.5].
func GamingPenalty(anomaly float64) float64 {
	return math.Min(maxGamingPenalty, neutralMultiplier+gamingPenaltyRate*math.Max(0, anomaly-anomalyThreshold))
}
