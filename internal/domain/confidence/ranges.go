package confidence

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/okian/tcd/internal/domain/formula"
)

// Range is a closed uniform sampling interval.
type Range struct {
	Min float64 `koanf:"min" json:"min"`
	Max float64 `koanf:"max" json:"max"`
}

func (r Range) draw(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

func (r Range) validate(name string) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || math.IsInf(r.Min, 0) || math.IsInf(r.Max, 0) {
		return fmt.Errorf("%w: %s is not finite", ErrInvalidRange, name)
	}
	if r.Min < 0 || r.Max < r.Min {
		return fmt.Errorf("%w: %s [%g, %g]", ErrInvalidRange, name, r.Min, r.Max)
	}
	return nil
}

// Ranges holds the sampling interval of each perturbed coefficient.
type Ranges struct {
	Productivity Range `koanf:"productivity" json:"productivity"`
	Rework       Range `koanf:"rework" json:"rework"`
	Turnover     Range `koanf:"turnover" json:"turnover"`
	Opportunity  Range `koanf:"opportunity" json:"opportunity"`
	Overhead     Range `koanf:"overhead" json:"overhead"`
}

// DefaultRanges returns the published uncertainty ranges.
func DefaultRanges() Ranges {
	return Ranges{
		Productivity: Range{0.20, 0.30},
		Rework:       Range{0.05, 0.15},
		Turnover:     Range{0.16, 0.26},
		Opportunity:  Range{0.10, 0.20},
		Overhead:     Range{0.08, 0.16},
	}
}

// Validate checks every range.
func (r Ranges) Validate() error {
	for _, f := range []struct {
		name string
		r    Range
	}{
		{"productivity", r.Productivity},
		{"rework", r.Rework},
		{"turnover", r.Turnover},
		{"opportunity", r.Opportunity},
		{"overhead", r.Overhead},
	} {
		if err := f.r.validate(f.name); err != nil {
			return err
		}
	}
	return nil
}

// perturb draws one coefficient set. The draw order is fixed so a seed
// always yields the same sequence.
func (r Ranges) perturb(base formula.Coefficients, rng *rand.Rand) formula.Coefficients {
	c := base
	c.Productivity = r.Productivity.draw(rng)
	c.Rework = r.Rework.draw(rng)
	c.Turnover = r.Turnover.draw(rng)
	c.Opportunity = r.Opportunity.draw(rng)
	c.Overhead = r.Overhead.draw(rng)
	return c
}
