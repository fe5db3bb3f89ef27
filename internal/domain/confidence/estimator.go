// Package confidence estimates a sampled confidence interval for a TCD
// evaluation by perturbing the headline coefficients.
package confidence

import (
	"context"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tcd/internal/domain/formula"
)

const (
	// DefaultSampleCount is the number of trials per estimate.
	DefaultSampleCount = 10_000
	// Level is the two-sided coverage of the reported interval.
	Level = 0.95

	lowerPercentile = 2.5
	upperPercentile = 97.5

	// trials between cancellation checks
	checkEvery = 256
)

// Interval is the outcome of one estimate.
type Interval struct {
	Low     float64 `json:"low"`
	High    float64 `json:"high"`
	Mean    float64 `json:"mean"`
	Point   float64 `json:"point"`
	Samples int     `json:"samples"`
	Seed    int64   `json:"seed"`
	Level   float64 `json:"level"`
}

// Estimator runs Monte Carlo trials over a base evaluator.
type Estimator struct {
	samples   int
	workers   int
	ranges    Ranges
	evaluator *formula.Evaluator
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithSampleCount sets the default number of trials.
func WithSampleCount(k int) Option {
	return func(e *Estimator) {
		e.samples = k
	}
}

// WithWorkers sets how many goroutines evaluate trials.
func WithWorkers(n int) Option {
	return func(e *Estimator) {
		e.workers = n
	}
}

// WithRanges replaces the default sampling ranges.
func WithRanges(r Ranges) Option {
	return func(e *Estimator) {
		e.ranges = r
	}
}

// WithEvaluator sets the evaluator whose non-sampled coefficients are kept.
func WithEvaluator(ev *formula.Evaluator) Option {
	return func(e *Estimator) {
		if ev != nil {
			e.evaluator = ev
		}
	}
}

// New creates an Estimator.
func New(opts ...Option) (*Estimator, error) {
	e := &Estimator{
		samples:   DefaultSampleCount,
		workers:   runtime.GOMAXPROCS(0),
		ranges:    DefaultRanges(),
		evaluator: formula.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.samples < 2 {
		return nil, ErrInvalidSampleCount
	}
	if e.workers < 1 {
		return nil, ErrInvalidWorkers
	}
	if err := e.ranges.Validate(); err != nil {
		return nil, err
	}
	return e, nil
}

// SampleCount returns the default number of trials.
func (e *Estimator) SampleCount() int { return e.samples }

// Estimate runs the default number of trials.
func (e *Estimator) Estimate(ctx context.Context, in formula.Input, seed int64) (Interval, error) {
	return e.EstimateSamples(ctx, in, e.samples, seed)
}

// EstimateSamples runs k trials. The result depends only on in, k and seed:
// coefficient sets are drawn in order before the trials fan out, and each
// trial writes to its own slot.
func (e *Estimator) EstimateSamples(ctx context.Context, in formula.Input, k int, seed int64) (Interval, error) {
	if k < 2 {
		return Interval{}, ErrInvalidSampleCount
	}
	point, err := e.evaluator.Evaluate(in)
	if err != nil {
		return Interval{}, err
	}
	// The input is valid from here on, so trials cannot fail on it.
	sanitized := point.Sanitized

	rng := rand.New(rand.NewSource(seed))
	base := e.evaluator.Coefficients()
	coeffs := make([]formula.Coefficients, k)
	for i := range coeffs {
		coeffs[i] = e.ranges.perturb(base, rng)
	}

	totals := make([]float64, k)
	workers := min(e.workers, k)
	chunk := (k + workers - 1) / workers

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		lo, hi := w*chunk, min((w+1)*chunk, k)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			for i := lo; i < hi; i++ {
				if (i-lo)%checkEvery == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				ev, err := e.evaluator.WithCoefficients(coeffs[i])
				if err != nil {
					return err
				}
				r, err := ev.Evaluate(sanitized)
				if err != nil {
					return err
				}
				totals[i] = r.Total
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Interval{}, err
	}

	var sum float64
	for _, t := range totals {
		sum += t
	}
	sort.Float64s(totals)

	return Interval{
		Low:     Percentile(totals, lowerPercentile),
		High:    Percentile(totals, upperPercentile),
		Mean:    sum / float64(k),
		Point:   point.Total,
		Samples: k,
		Seed:    seed,
		Level:   Level,
	}, nil
}

// Percentile returns the p-th percentile (0-100) of sorted values using
// linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	rank := p / 100 * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo < 0 {
		return sorted[0]
	}
	if hi >= n {
		return sorted[n-1]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
