package harness

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/okian/tcd/internal/domain/formula"
)

// Check names reported in failures.
const (
	CheckBounded      = "bounded"
	CheckPerfectTeam  = "perfect_team"
	CheckMonotonic    = "monotonic"
	CheckProportional = "payroll_proportional"
	CheckContinuous   = "continuous"
	CheckRejects      = "rejects_invalid"
	CheckGaming       = "gaming_detected"
)

const (
	ceilingRatio   = 3.5
	monotoneStep   = 0.5
	continuityStep = 1e-6
	// A driver nudge of continuityStep may move the total by at most this
	// share of payroll.
	continuityBound = 1e-4
)

// Failure is one violated property.
type Failure struct {
	Case   string `json:"case"`
	Check  string `json:"check"`
	Detail string `json:"detail"`
}

// checker runs every property against one case.
type checker struct {
	target Target
	tol    float64
	checks int
	fails  []Failure
}

func (c *checker) fail(tc *Case, check, format string, args ...any) {
	c.fails = append(c.fails, Failure{Case: tc.Name, Check: check, Detail: fmt.Sprintf(format, args...)})
}

func (c *checker) run(ctx context.Context, tc *Case) error {
	base, err := c.target.Evaluate(ctx, tc.Input)
	if err != nil {
		if errors.Is(err, ErrRejected) {
			c.checks++
			c.fail(tc, CheckBounded, "valid input rejected: %v", err)
			return nil
		}
		return err
	}
	steps := []func(context.Context, *Case, Outcome) error{
		c.bounded,
		c.perfectTeam,
		c.monotonic,
		c.proportional,
		c.continuous,
		c.rejects,
		c.gaming,
	}
	for _, step := range steps {
		if err := step(ctx, tc, base); err != nil {
			return err
		}
	}
	return nil
}

func (c *checker) bounded(_ context.Context, tc *Case, base Outcome) error { //nolint:gocritic // hugeParam
	c.checks++
	limit := ceilingRatio*tc.Input.Payroll + c.tol
	if math.IsNaN(base.Total) || base.Total < 0 || base.Total > limit {
		c.fail(tc, CheckBounded, "total %.2f outside [0, %.2f]", base.Total, limit)
	}
	return nil
}

func (c *checker) perfectTeam(ctx context.Context, tc *Case, base Outcome) error { //nolint:gocritic // hugeParam
	in := tc.Input
	in.Drivers = formula.UniformDrivers(7)
	best, err := c.eval(ctx, in)
	if err != nil {
		return err
	}
	c.checks++
	if best.Total > base.Total+c.tol {
		c.fail(tc, CheckPerfectTeam, "perfect team costs %.2f, more than %.2f", best.Total, base.Total)
	}
	return nil
}

// monotonic raises each driver in turn. The total may not rise unless the
// gaming penalty changed.
func (c *checker) monotonic(ctx context.Context, tc *Case, base Outcome) error { //nolint:gocritic // hugeParam
	for _, name := range formula.DriverNames() {
		v, _ := tc.Input.Drivers.Get(name)
		in := tc.Input
		in.Drivers = in.Drivers.With(name, v+monotoneStep)
		up, err := c.eval(ctx, in)
		if err != nil {
			return err
		}
		if math.Abs(up.Gaming.Penalty-base.Gaming.Penalty) > 1e-12 {
			continue
		}
		c.checks++
		if up.Total > base.Total+c.tol {
			c.fail(tc, CheckMonotonic, "raising %s to %.2f increased total %.2f -> %.2f", name, v+monotoneStep, base.Total, up.Total)
		}
	}
	return nil
}

func (c *checker) proportional(ctx context.Context, tc *Case, base Outcome) error { //nolint:gocritic // hugeParam
	in := tc.Input
	in.Payroll *= 2
	double, err := c.eval(ctx, in)
	if err != nil {
		return err
	}
	c.checks++
	if diff := math.Abs(double.Total - 2*base.Total); diff > 3*c.tol+1e-9*double.Total {
		c.fail(tc, CheckProportional, "doubling payroll gave %.2f, want %.2f", double.Total, 2*base.Total)
	}
	return nil
}

func (c *checker) continuous(ctx context.Context, tc *Case, base Outcome) error { //nolint:gocritic // hugeParam
	v, _ := tc.Input.Drivers.Get(formula.Trust)
	in := tc.Input
	in.Drivers = in.Drivers.With(formula.Trust, v+continuityStep)
	near, err := c.eval(ctx, in)
	if err != nil {
		return err
	}
	c.checks++
	if diff := math.Abs(near.Total - base.Total); diff > continuityBound*tc.Input.Payroll+c.tol {
		c.fail(tc, CheckContinuous, "nudging trust by %g moved total by %.2f", continuityStep, diff)
	}
	return nil
}

func (c *checker) rejects(ctx context.Context, tc *Case, _ Outcome) error { //nolint:gocritic // hugeParam
	for _, mutate := range []func(*formula.Input){
		func(in *formula.Input) { in.Payroll = -in.Payroll },
		func(in *formula.Input) { in.TeamSize = 0 },
	} {
		in := tc.Input
		mutate(&in)
		_, err := c.target.Evaluate(ctx, in)
		c.checks++
		switch {
		case err == nil:
			c.fail(tc, CheckRejects, "accepted payroll %.2f with team size %d", in.Payroll, in.TeamSize)
		case !errors.Is(err, ErrRejected):
			return err
		}
	}
	return nil
}

func (c *checker) gaming(_ context.Context, tc *Case, base Outcome) error { //nolint:gocritic // hugeParam
	if tc.Kind != KindGaming {
		return nil
	}
	c.checks++
	if !base.Gaming.Flagged {
		c.fail(tc, CheckGaming, "trust %.2f with psych_safety %.2f not flagged",
			tc.Input.Drivers.Trust, tc.Input.Drivers.PsychSafety)
	}
	return nil
}

// eval evaluates a derived valid input. A rejection here is a harness
// failure, not a property failure.
func (c *checker) eval(ctx context.Context, in formula.Input) (Outcome, error) { //nolint:gocritic // hugeParam
	out, err := c.target.Evaluate(ctx, in)
	if err != nil {
		return Outcome{}, fmt.Errorf("derived input: %w", err)
	}
	return out, nil
}
