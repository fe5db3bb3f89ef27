// Package priority ranks the seven team drivers by how much closing their
// gap would help. Each driver's shortfall from the top of the scale is
// weighted twice, once for day-to-day team performance and once for the
// business value of fixing it, and the pair of scores places the driver
// in one of four quadrants.
package priority

import (
	"sort"

	"github.com/okian/tcd/internal/domain/formula"
)

// Threshold separates high from low on both weighted axes.
const Threshold = 2.5

// Quadrant is a driver's place in the priority matrix.
type Quadrant string

// Quadrants from most to least urgent.
const (
	Critical Quadrant = "CRITICAL"
	High     Quadrant = "HIGH"
	Medium   Quadrant = "MEDIUM"
	Low      Quadrant = "LOW"
)

// Quadrants returns the quadrants in urgency order.
func Quadrants() []Quadrant { return []Quadrant{Critical, High, Medium, Low} }

func (q Quadrant) rank() int {
	switch q {
	case Critical:
		return 0
	case High:
		return 1
	case Medium:
		return 2
	default:
		return 3
	}
}

var labels = map[string]string{
	formula.Communication: "Communication Quality",
	formula.Trust:         "Trust",
	formula.PsychSafety:   "Psychological Safety",
	formula.GoalClarity:   "Goal Clarity",
	formula.Coordination:  "Coordination",
	formula.TMS:           "Transactive Memory",
	formula.TeamCognition: "Team Cognition",
}

// Classify places a pair of weighted scores in a quadrant. Business value
// decides between Critical/High and Medium/Low before team impact does.
func Classify(teamImpact, businessValue float64) Quadrant {
	highImpact := teamImpact >= Threshold
	highValue := businessValue >= Threshold
	switch {
	case highImpact && highValue:
		return Critical
	case highValue:
		return High
	case highImpact:
		return Medium
	default:
		return Low
	}
}

// Gap is the shortfall of a score from the top of the scale.
func Gap(score float64) float64 {
	return max(0, formula.MaxDriverScore-score)
}

// Driver is one row of the matrix.
type Driver struct {
	Driver              string   `json:"driver"`
	Label               string   `json:"label"`
	Score               float64  `json:"score"`
	Gap                 float64  `json:"gap"`
	TeamImpactWeight    float64  `json:"team_impact_weight"`
	TeamImpact          float64  `json:"team_impact"`
	BusinessValueWeight float64  `json:"business_value_weight"`
	BusinessValue       float64  `json:"business_value"`
	Quadrant            Quadrant `json:"quadrant"`
}

// Combined is the sum of both weighted scores.
func (d Driver) Combined() float64 { return d.TeamImpact + d.BusinessValue }

// Matrix is the ranked priority matrix of one team.
type Matrix struct {
	// WeightSet names the business-value weights used. It differs from the
	// requested industry when that industry has no weights of its own.
	WeightSet string `json:"weight_set"`
	// Drivers are ordered most urgent first: by quadrant, then by combined
	// score, then by driver name.
	Drivers []Driver         `json:"drivers"`
	Counts  map[Quadrant]int `json:"counts"`
}

// Top returns up to n drivers from the head of the ranking.
func (m Matrix) Top(n int) []Driver {
	if n < 0 {
		n = 0
	}
	return m.Drivers[:min(n, len(m.Drivers))]
}

// InQuadrant returns the drivers in q, in ranking order.
func (m Matrix) InQuadrant(q Quadrant) []Driver {
	var out []Driver
	for _, d := range m.Drivers {
		if d.Quadrant == q {
			out = append(out, d)
		}
	}
	return out
}

// Compute builds the matrix for d using the business-value weights of
// industry. Non-finite scores are rejected; out-of-range scores are
// clamped into [1, 7] first.
func Compute(d formula.DriverScores, industry string) (Matrix, error) {
	if err := d.Validate(); err != nil {
		return Matrix{}, err
	}
	d = d.Sanitize()

	weights, found := BusinessValueWeights(industry)
	m := Matrix{
		WeightSet: DefaultWeightSet,
		Drivers:   make([]Driver, 0, len(teamImpactWeights)),
		Counts:    make(map[Quadrant]int, 4),
	}
	if found {
		m.WeightSet = industry
	}
	for _, q := range Quadrants() {
		m.Counts[q] = 0
	}

	for _, name := range formula.DriverNames() {
		score, _ := d.Get(name)
		gap := Gap(score)
		row := Driver{
			Driver:              name,
			Label:               labels[name],
			Score:               score,
			Gap:                 gap,
			TeamImpactWeight:    teamImpactWeights[name],
			BusinessValueWeight: weights[name],
		}
		row.TeamImpact = gap * row.TeamImpactWeight
		row.BusinessValue = gap * row.BusinessValueWeight
		row.Quadrant = Classify(row.TeamImpact, row.BusinessValue)
		m.Counts[row.Quadrant]++
		m.Drivers = append(m.Drivers, row)
	}

	sort.SliceStable(m.Drivers, func(i, j int) bool {
		a, b := m.Drivers[i], m.Drivers[j]
		if a.Quadrant != b.Quadrant {
			return a.Quadrant.rank() < b.Quadrant.rank()
		}
		if a.Combined() != b.Combined() {
			return a.Combined() > b.Combined()
		}
		return a.Driver < b.Driver
	})
	return m, nil
}
