package harness

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/tcd/pkg/logger"
)

// Report summarizes a harness run.
type Report struct {
	Seed     int64         `json:"seed"`
	Cases    int           `json:"cases"`
	Checks   int           `json:"checks"`
	Failures []Failure     `json:"failures"`
	Duration time.Duration `json:"duration"`
}

// Passed reports whether no property was violated.
func (r Report) Passed() bool { return len(r.Failures) == 0 }

// Runner evaluates generated cases against a target.
type Runner struct {
	target  Target
	cases   int
	seed    int64
	workers int
	logger  logger.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCases sets the number of generated cases.
func WithCases(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.cases = n
		}
	}
}

// WithSeed sets the generator seed.
func WithSeed(seed int64) Option {
	return func(r *Runner) { r.seed = seed }
}

// WithWorkers bounds concurrent cases.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a runner for target.
func NewRunner(target Target, opts ...Option) *Runner {
	r := &Runner{target: target, cases: 500, seed: 1, workers: 8}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = logger.Get().Named("harness")
	}
	return r
}

// Run generates the cases and checks each one. Failures are ordered by
// case. An error means the target could not be reached, not that a
// property failed.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	cases := NewGenerator(r.seed).Cases(r.cases)

	var (
		mu     sync.Mutex
		checks int
		byCase = make([][]Failure, len(cases))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i := range cases {
		g.Go(func() error {
			c := &checker{target: r.target, tol: r.target.Tolerance()}
			if err := c.run(gctx, &cases[i]); err != nil {
				return err
			}
			mu.Lock()
			checks += c.checks
			byCase[i] = c.fails
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	rep := Report{Seed: r.seed, Cases: len(cases), Checks: checks, Duration: time.Since(start)}
	for _, f := range byCase {
		rep.Failures = append(rep.Failures, f...)
	}

	r.logger.Info(ctx, "harness run finished",
		logger.Int64("seed", r.seed),
		logger.Int("cases", rep.Cases),
		logger.Int("checks", rep.Checks),
		logger.Int("failures", len(rep.Failures)),
		logger.Duration("duration", rep.Duration),
	)
	return rep, nil
}
