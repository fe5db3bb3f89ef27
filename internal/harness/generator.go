// Package harness runs seeded adversarial cases against an evaluator and
// checks the properties every result must satisfy.
package harness

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/tcd/internal/domain/formula"
)

// Case kinds produced by the generator.
const (
	KindTypical      = "typical"
	KindOutOfDomain  = "out_of_domain"
	KindExtremeScale = "extreme_multipliers"
	KindTeamSize     = "team_size"
	KindPayroll      = "payroll"
	KindGaming       = "gaming"
)

var kinds = []string{KindTypical, KindOutOfDomain, KindExtremeScale, KindTeamSize, KindPayroll, KindGaming}

// Case is one generated input.
type Case struct {
	Name  string        `json:"name"`
	Kind  string        `json:"kind"`
	Input formula.Input `json:"input"`
}

// Generator produces a deterministic sequence of cases from a seed.
type Generator struct {
	rng *rand.Rand
	n   int
}

// NewGenerator creates a generator.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))} //nolint:gosec // reproducible test data
}

// Next returns the next case. Kinds rotate so every kind is covered.
func (g *Generator) Next() Case {
	kind := kinds[g.n%len(kinds)]
	g.n++

	in := formula.Input{
		Drivers:            g.drivers(1, 7),
		Payroll:            g.logUniform(1e5, 5e7),
		TeamSize:           3 + g.rng.Intn(30),
		IndustryFactor:     g.uniform(formula.MinIndustryFactor, formula.MaxIndustryFactor),
		TurnoverMultiplier: g.uniform(formula.MinTurnoverMultiplier, formula.MaxTurnoverMultiplier),
		BusinessValueRatio: g.uniform(formula.MinBusinessValueRatio, formula.MaxBusinessValueRatio),
	}

	switch kind {
	case KindOutOfDomain:
		in.Drivers = g.drivers(-5, 15)
	case KindExtremeScale:
		in.IndustryFactor = g.uniform(0.01, 5)
		in.TurnoverMultiplier = g.uniform(0.01, 5)
		in.BusinessValueRatio = g.uniform(0.01, 50)
	case KindTeamSize:
		in.TeamSize = 1 + g.rng.Intn(200)
	case KindPayroll:
		in.Payroll = g.logUniform(1e3, 1e9)
	case KindGaming:
		// High trust with low psychological safety is implausible.
		in.Drivers.Trust = g.uniform(6.5, 7)
		in.Drivers.PsychSafety = g.uniform(1, 2)
	}
	return Case{Name: fmt.Sprintf("%s-%d", kind, g.n), Kind: kind, Input: in}
}

// Cases returns the next n cases.
func (g *Generator) Cases(n int) []Case {
	out := make([]Case, n)
	for i := range out {
		out[i] = g.Next()
	}
	return out
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *Generator) logUniform(lo, hi float64) float64 {
	return math.Exp(g.uniform(math.Log(lo), math.Log(hi)))
}

func (g *Generator) drivers(lo, hi float64) formula.DriverScores {
	var d formula.DriverScores
	for _, name := range formula.DriverNames() {
		d = d.With(name, math.Round(g.uniform(lo, hi)*100)/100)
	}
	return d
}
