package formula

// Components are the six additive cost categories, in currency units.
type Components struct {
	Productivity  float64 `json:"productivity"`
	Rework        float64 `json:"rework"`
	Turnover      float64 `json:"turnover"`
	Opportunity   float64 `json:"opportunity"`
	Overhead      float64 `json:"overhead"`
	Disengagement float64 `json:"disengagement"`
}

// Sum adds the six components.
func (c Components) Sum() float64 {
	return c.Productivity + c.Rework + c.Turnover + c.Opportunity + c.Overhead + c.Disengagement
}

// Slice returns the components in C1..C6 order.
func (c Components) Slice() []float64 {
	return []float64{c.Productivity, c.Rework, c.Turnover, c.Opportunity, c.Overhead, c.Disengagement}
}

// gap is the normalized shortfall of two drivers from the top of the scale.
func gap(a, b float64) float64 {
	return ((MaxDriverScore - a) + (MaxDriverScore - b)) / 12
}

// computeComponents expects sanitized inputs. Every term is a product of
// non-negative factors.
func (c Coefficients) computeComponents(d DriverScores, payroll float64, teamSize int, rho, bv float64, eng Engagement) Components {
	n := float64(teamSize)
	perHead := payroll / n
	return Components{
		Productivity:  payroll * c.Productivity * (1 - Readiness(d)),
		Rework:        payroll * c.Rework * gap(d.Communication, d.TeamCognition),
		Turnover:      n * perHead * c.Turnover * gap(d.Trust, d.PsychSafety) * rho,
		Opportunity:   payroll * c.Opportunity * gap(d.Coordination, d.GoalClarity) * bv,
		Overhead:      payroll * c.Overhead * gap(d.TMS, d.Communication),
		Disengagement: payroll * eng.Coefficient * eng.Adjustment,
	}
}
