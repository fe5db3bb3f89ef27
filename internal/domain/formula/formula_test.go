package formula_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/okian/tcd/internal/domain/formula"
	. "github.com/smartystreets/goconvey/convey"
)

func scenarioInput() formula.Input {
	return formula.Input{
		Drivers: formula.DriverScores{
			Communication: 4.2,
			Trust:         5.1,
			PsychSafety:   4.8,
			GoalClarity:   3.9,
			Coordination:  4.5,
			TMS:           4.0,
			TeamCognition: 4.3,
		},
		Payroll:            1_800_000,
		TeamSize:           15,
		IndustryFactor:     1.20,
		TurnoverMultiplier: 1.15,
		BusinessValueRatio: 3.0,
	}
}

func randomInput(rng *rand.Rand) formula.Input {
	score := func() float64 { return rng.Float64()*10 - 2 } // deliberately out of domain at both ends
	return formula.Input{
		Drivers: formula.DriverScores{
			Communication: score(),
			Trust:         score(),
			PsychSafety:   score(),
			GoalClarity:   score(),
			Coordination:  score(),
			TMS:           score(),
			TeamCognition: score(),
		},
		Payroll:            math.Pow(10, 3+rng.Float64()*6),
		TeamSize:           1 + rng.Intn(200),
		IndustryFactor:     rng.Float64() * 3,
		TurnoverMultiplier: rng.Float64() * 3,
		BusinessValueRatio: rng.Float64() * 20,
	}
}

func TestEvaluate_Scenario(t *testing.T) {
	Convey("Given the reference team", t, func() {
		in := scenarioInput()

		Convey("When it is evaluated", func() {
			res, err := formula.Evaluate(in)
			So(err, ShouldBeNil)

			Convey("Then all six components are positive", func() {
				for _, c := range res.Components.Slice() {
					So(c, ShouldBeGreaterThan, 0)
				}
			})

			Convey("And the subtotal carries the overlap discount", func() {
				So(res.Subtotal, ShouldAlmostEqual, 0.88*res.Components.Sum(), 1e-6)
				So(res.GrossSubtotal, ShouldAlmostEqual, res.Components.Sum(), 1e-6)
			})

			Convey("And the total is bounded", func() {
				So(res.Total, ShouldBeGreaterThan, 0)
				So(res.Total, ShouldBeLessThanOrEqualTo, 3.5*in.Payroll)
				So(res.Capped, ShouldBeFalse)
			})

			Convey("And the intermediate values match the published figures", func() {
				So(res.Engagement.Score, ShouldAlmostEqual, 4.95, 1e-9)
				So(res.Engagement.Category, ShouldEqual, formula.CategoryNotEngaged)
				So(res.Components.Productivity, ShouldAlmostEqual, 195000, 1e-6)
				So(res.Components.Rework, ShouldAlmostEqual, 82500, 1e-6)
				So(res.Components.Turnover, ShouldAlmostEqual, 148522.5, 1e-6)
				So(res.Components.Opportunity, ShouldAlmostEqual, 378000, 1e-6)
				So(res.Components.Overhead, ShouldAlmostEqual, 104400, 1e-6)
				So(res.Components.Disengagement, ShouldAlmostEqual, 14403.008, 1e-3)
				So(res.Factors.TeamSize, ShouldAlmostEqual, 1.06, 1e-12)
				So(res.Factors.Business, ShouldAlmostEqual, 1.18952381, 1e-8)
				So(res.Factors.Gaming, ShouldEqual, 1.0)
				So(res.Total, ShouldAlmostEqual, 1228747.12, 0.01)
				So(res.WeightedReadiness, ShouldEqual, 0.6354)
				So(res.Version, ShouldEqual, formula.FormulaVersion)
			})

			Convey("And the nominal band surrounds the total", func() {
				So(res.NominalInterval.Lower, ShouldAlmostEqual, 0.75*res.Total, 1e-6)
				So(res.NominalInterval.Upper, ShouldAlmostEqual, 1.30*res.Total, 1e-6)
			})

			Convey("And nothing was corrected", func() {
				So(res.Corrections, ShouldBeEmpty)
				So(res.Sanitized, ShouldResemble, in)
			})
		})
	})
}

func TestEvaluate_Properties(t *testing.T) {
	Convey("Given a seeded stream of adversarial inputs", t, func() {
		rng := rand.New(rand.NewSource(42))

		Convey("Then the total is never negative and never above the ceiling", func() {
			for i := 0; i < 5000; i++ {
				in := randomInput(rng)
				res, err := formula.Evaluate(in)
				So(err, ShouldBeNil)
				if res.Total < 0 || res.Total > 3.5*in.Payroll {
					So(res.Total, ShouldBeBetweenOrEqual, 0, 3.5*in.Payroll)
				}
				if res.Capped != (res.Raw > res.Total) {
					So(res.Capped, ShouldEqual, res.Raw > res.Total)
				}
			}
		})

		Convey("Then a perfect team costs nothing", func() {
			for i := 0; i < 500; i++ {
				in := randomInput(rng)
				in.Drivers = formula.UniformDrivers(7)
				in.IndustryFactor = 1.0
				in.TurnoverMultiplier = 1.0
				res, err := formula.Evaluate(in)
				So(err, ShouldBeNil)
				if res.Total >= 0.01 {
					So(res.Total, ShouldBeLessThan, 0.01)
				}
			}
		})

		Convey("Then the total scales linearly with payroll below the ceiling", func() {
			for i := 0; i < 1000; i++ {
				in := randomInput(rng)
				k := 0.1 + rng.Float64()*5
				base, err := formula.Evaluate(in)
				So(err, ShouldBeNil)
				in.Payroll *= k
				scaled, err := formula.Evaluate(in)
				So(err, ShouldBeNil)
				if base.Capped || scaled.Capped {
					continue
				}
				if math.Abs(scaled.Total-k*base.Total) > 1e-9*math.Max(1, scaled.Total) {
					So(scaled.Total, ShouldAlmostEqual, k*base.Total, 1e-9*math.Max(1, scaled.Total))
				}
			}
		})
	})
}

func TestEvaluate_Monotonicity(t *testing.T) {
	Convey("Given random in-domain teams", t, func() {
		rng := rand.New(rand.NewSource(7))

		Convey("When any single driver improves and the gaming penalty is unchanged", func() {
			Convey("Then the total never increases", func() {
				checked := 0
				for i := 0; i < 2000; i++ {
					in := randomInput(rng)
					in.Drivers = in.Drivers.Sanitize()
					base, err := formula.Evaluate(in)
					So(err, ShouldBeNil)
					for _, name := range formula.DriverNames() {
						v, _ := in.Drivers.Get(name)
						next := in
						next.Drivers = in.Drivers.With(name, v+rng.Float64()*2)
						res, err := formula.Evaluate(next)
						So(err, ShouldBeNil)
						if res.Factors.Gaming != base.Factors.Gaming {
							continue
						}
						checked++
						if res.Total > base.Total+1e-9*base.Total {
							So(res.Total, ShouldBeLessThanOrEqualTo, base.Total)
						}
					}
				}
				So(checked, ShouldBeGreaterThan, 1000)
			})
		})

		Convey("When a uniform team improves one driver by at most one point", func() {
			Convey("Then the total strictly decreases", func() {
				for v := 1.0; v < 6.0; v += 0.5 {
					in := scenarioInput()
					in.Drivers = formula.UniformDrivers(v)
					base, err := formula.Evaluate(in)
					So(err, ShouldBeNil)
					for _, name := range formula.DriverNames() {
						next := in
						next.Drivers = in.Drivers.With(name, v+1)
						res, err := formula.Evaluate(next)
						So(err, ShouldBeNil)
						So(res.Factors.Gaming, ShouldEqual, 1.0)
						So(res.Total, ShouldBeLessThan, base.Total)
					}
				}
			})
		})
	})
}

func TestEvaluate_Rejections(t *testing.T) {
	Convey("Given structurally invalid inputs", t, func() {
		cases := []struct {
			name   string
			mutate func(*formula.Input)
			kind   error
			field  string
		}{
			{"zero payroll", func(in *formula.Input) { in.Payroll = 0 }, formula.ErrInvalidFinancialInput, "payroll"},
			{"negative payroll", func(in *formula.Input) { in.Payroll = -10 }, formula.ErrInvalidFinancialInput, "payroll"},
			{"NaN payroll", func(in *formula.Input) { in.Payroll = math.NaN() }, formula.ErrInvalidFinancialInput, "payroll"},
			{"infinite payroll", func(in *formula.Input) { in.Payroll = math.Inf(1) }, formula.ErrInvalidFinancialInput, "payroll"},
			{"empty team", func(in *formula.Input) { in.TeamSize = 0 }, formula.ErrInvalidFinancialInput, "team_size"},
			{"NaN industry factor", func(in *formula.Input) { in.IndustryFactor = math.NaN() }, formula.ErrInvalidFinancialInput, "industry_factor"},
			{"infinite business value", func(in *formula.Input) { in.BusinessValueRatio = math.Inf(-1) }, formula.ErrInvalidFinancialInput, "business_value_ratio"},
			{"NaN driver", func(in *formula.Input) { in.Drivers.Trust = math.NaN() }, formula.ErrInvalidDriverScore, formula.Trust},
		}

		for _, tc := range cases {
			tc := tc
			Convey("When the input has "+tc.name, func() {
				in := scenarioInput()
				tc.mutate(&in)
				res, err := formula.Evaluate(in)

				Convey("Then it is rejected with a typed error", func() {
					So(err, ShouldNotBeNil)
					So(errors.Is(err, tc.kind), ShouldBeTrue)
					var ie *formula.InputError
					So(errors.As(err, &ie), ShouldBeTrue)
					So(ie.Field, ShouldEqual, tc.field)
					So(res, ShouldResemble, formula.Result{})
				})
			})
		}
	})
}

func TestEvaluate_Corrections(t *testing.T) {
	Convey("Given out-of-range but finite inputs", t, func() {
		in := scenarioInput()
		in.Drivers.Trust = 9
		in.Drivers.TMS = -3
		in.IndustryFactor = 2
		in.TurnoverMultiplier = 0.1
		in.BusinessValueRatio = 50

		Convey("When evaluated", func() {
			res, err := formula.Evaluate(in)
			So(err, ShouldBeNil)

			Convey("Then the clamped values are reported back", func() {
				So(res.Corrected(), ShouldBeTrue)
				So(res.Corrections, ShouldHaveLength, 5)
				So(res.Corrections, ShouldContain, formula.Correction{Field: "drivers.trust", Given: 9, Applied: 7})
				So(res.Corrections, ShouldContain, formula.Correction{Field: "drivers.tms", Given: -3, Applied: 1})
				So(res.Corrections, ShouldContain, formula.Correction{Field: "industry_factor", Given: 2, Applied: 1.4})
				So(res.Corrections, ShouldContain, formula.Correction{Field: "turnover_multiplier", Given: 0.1, Applied: 0.8})
				So(res.Corrections, ShouldContain, formula.Correction{Field: "business_value_ratio", Given: 50, Applied: 10})
				So(res.Sanitized.Drivers.Trust, ShouldEqual, 7)
				So(res.Factors.Industry, ShouldEqual, 1.4)
			})

			Convey("And the result equals evaluating the sanitized input", func() {
				again, err := formula.Evaluate(res.Sanitized)
				So(err, ShouldBeNil)
				So(again.Total, ShouldEqual, res.Total)
				So(again.Corrections, ShouldBeEmpty)
			})
		})
	})
}

func TestEvaluator_Coefficients(t *testing.T) {
	Convey("Given a custom evaluator", t, func() {
		c := formula.DefaultCoefficients()
		c.Productivity = 0.30

		Convey("When the coefficients are valid", func() {
			ev, err := formula.NewEvaluator(formula.WithCoefficients(c))
			So(err, ShouldBeNil)
			So(ev.Coefficients().Productivity, ShouldEqual, 0.30)

			Convey("Then productivity loss follows the new rate", func() {
				res, err := ev.Evaluate(scenarioInput())
				So(err, ShouldBeNil)
				So(res.Components.Productivity, ShouldAlmostEqual, 234000, 1e-6)
			})

			Convey("And deriving a copy leaves the original untouched", func() {
				other, err := ev.WithCoefficients(formula.DefaultCoefficients())
				So(err, ShouldBeNil)
				So(other.Coefficients().Productivity, ShouldEqual, 0.25)
				So(ev.Coefficients().Productivity, ShouldEqual, 0.30)
			})
		})

		Convey("When a coefficient is invalid", func() {
			c.OverlapDiscount = 1.5
			_, err := formula.NewEvaluator(formula.WithCoefficients(c))
			So(errors.Is(err, formula.ErrInvalidCoefficients), ShouldBeTrue)

			c = formula.DefaultCoefficients()
			c.Rework = math.NaN()
			_, err = formula.Default().WithCoefficients(c)
			So(errors.Is(err, formula.ErrInvalidCoefficients), ShouldBeTrue)
		})
	})
}
