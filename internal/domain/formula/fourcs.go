package formula

// FourCsScores are the four composite averages of the 4C's model.
type FourCsScores struct {
	Criteria      float64 `json:"criteria"`
	Commitment    float64 `json:"commitment"`
	Collaboration float64 `json:"collaboration"`
	Change        float64 `json:"change"`
	Mean          float64 `json:"mean"`
}

// FourCs computes the composites from sanitized driver scores.
func FourCs(d DriverScores) FourCsScores {
	s := FourCsScores{
		Criteria:      mean(d.TeamCognition, d.GoalClarity, d.Coordination),
		Commitment:    mean(d.TeamCognition, d.Trust, d.GoalClarity),
		Collaboration: mean(d.TMS, d.Trust, d.PsychSafety, d.Coordination, d.Communication),
		Change:        mean(d.GoalClarity, d.Coordination),
	}
	s.Mean = mean(s.Criteria, s.Commitment, s.Collaboration, s.Change)
	return s
}

// BusinessMultiplier returns M_4C = 1 + α(1 - C̄/7).
func BusinessMultiplier(cbar, alpha float64) float64 {
	return neutralMultiplier + alpha*(1-cbar/MaxDriverScore)
}

func mean(vs ...float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum / float64(len(vs))
}
