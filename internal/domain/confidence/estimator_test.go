package confidence_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/tcd/internal/domain/confidence"
	"github.com/okian/tcd/internal/domain/formula"
	. "github.com/smartystreets/goconvey/convey"
)

func sampleInput() formula.Input {
	return formula.Input{
		Drivers: formula.DriverScores{
			Communication: 4.2, Trust: 5.1, PsychSafety: 4.8, GoalClarity: 3.9,
			Coordination: 4.5, TMS: 4.0, TeamCognition: 4.3,
		},
		Payroll:            1_800_000,
		TeamSize:           15,
		IndustryFactor:     1.2,
		TurnoverMultiplier: 1.15,
		BusinessValueRatio: 3,
	}
}

func TestEstimator_Estimate(t *testing.T) {
	Convey("Given an estimator with 2000 samples", t, func() {
		ctx := context.Background()
		est, err := confidence.New(confidence.WithSampleCount(2000), confidence.WithWorkers(4))
		So(err, ShouldBeNil)
		So(est.SampleCount(), ShouldEqual, 2000)

		Convey("When estimating the reference team", func() {
			iv, err := est.Estimate(ctx, sampleInput(), 42)
			So(err, ShouldBeNil)

			Convey("Then the interval is ordered and contains the mean", func() {
				So(iv.Low, ShouldBeGreaterThan, 0)
				So(iv.Low, ShouldBeLessThanOrEqualTo, iv.Mean)
				So(iv.Mean, ShouldBeLessThanOrEqualTo, iv.High)
				So(iv.Samples, ShouldEqual, 2000)
				So(iv.Level, ShouldEqual, 0.95)
				So(iv.Seed, ShouldEqual, 42)
			})

			Convey("And the point estimate lies inside the interval", func() {
				So(iv.Point, ShouldBeBetween, iv.Low, iv.High)
			})

			Convey("And the same seed reproduces it regardless of worker count", func() {
				serial, err := confidence.New(confidence.WithSampleCount(2000), confidence.WithWorkers(1))
				So(err, ShouldBeNil)
				again, err := serial.Estimate(ctx, sampleInput(), 42)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, iv)
			})

			Convey("And a different seed gives a different sample", func() {
				other, err := est.Estimate(ctx, sampleInput(), 43)
				So(err, ShouldBeNil)
				So(other.Mean, ShouldNotEqual, iv.Mean)
			})
		})

		Convey("When the ranges collapse to the point coefficients", func() {
			c := formula.DefaultCoefficients()
			fixed := confidence.Ranges{
				Productivity: confidence.Range{Min: c.Productivity, Max: c.Productivity},
				Rework:       confidence.Range{Min: c.Rework, Max: c.Rework},
				Turnover:     confidence.Range{Min: c.Turnover, Max: c.Turnover},
				Opportunity:  confidence.Range{Min: c.Opportunity, Max: c.Opportunity},
				Overhead:     confidence.Range{Min: c.Overhead, Max: c.Overhead},
			}
			flat, err := confidence.New(confidence.WithSampleCount(100), confidence.WithRanges(fixed))
			So(err, ShouldBeNil)
			iv, err := flat.Estimate(ctx, sampleInput(), 1)
			So(err, ShouldBeNil)

			Convey("Then the interval degenerates to the point", func() {
				So(iv.Low, ShouldAlmostEqual, iv.Point, 1e-6)
				So(iv.High, ShouldAlmostEqual, iv.Point, 1e-6)
				So(iv.Mean, ShouldAlmostEqual, iv.Point, 1e-6)
			})
		})

		Convey("When the input is invalid", func() {
			in := sampleInput()
			in.Payroll = 0
			_, err := est.Estimate(ctx, in, 1)

			Convey("Then it is rejected before sampling", func() {
				So(errors.Is(err, formula.ErrInvalidFinancialInput), ShouldBeTrue)
			})
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := est.Estimate(cctx, sampleInput(), 1)

			Convey("Then the estimate is aborted", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When too few samples are requested", func() {
			_, err := est.EstimateSamples(ctx, sampleInput(), 1, 1)
			So(errors.Is(err, confidence.ErrInvalidSampleCount), ShouldBeTrue)
		})
	})
}

func TestNew_Validation(t *testing.T) {
	Convey("Given invalid estimator options", t, func() {
		_, err := confidence.New(confidence.WithSampleCount(0))
		So(errors.Is(err, confidence.ErrInvalidSampleCount), ShouldBeTrue)

		_, err = confidence.New(confidence.WithWorkers(0))
		So(errors.Is(err, confidence.ErrInvalidWorkers), ShouldBeTrue)

		r := confidence.DefaultRanges()
		r.Turnover = confidence.Range{Min: 0.3, Max: 0.1}
		_, err = confidence.New(confidence.WithRanges(r))
		So(errors.Is(err, confidence.ErrInvalidRange), ShouldBeTrue)
	})
}

func TestPercentile(t *testing.T) {
	Convey("Percentile interpolates between closest ranks", t, func() {
		v := []float64{1, 2, 3, 4, 5}
		So(confidence.Percentile(v, 0), ShouldEqual, 1)
		So(confidence.Percentile(v, 50), ShouldEqual, 3)
		So(confidence.Percentile(v, 100), ShouldEqual, 5)
		So(confidence.Percentile(v, 2.5), ShouldAlmostEqual, 1.1, 1e-12)
		So(confidence.Percentile(v, 97.5), ShouldAlmostEqual, 4.9, 1e-12)
		So(confidence.Percentile([]float64{7}, 50), ShouldEqual, 7)
	})
}
