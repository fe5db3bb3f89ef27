// Package service evaluates team assessments and runs the batch scoring
// pipeline behind the HTTP, MCP and CLI surfaces.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tcd/internal/adapters/audit"
	eventqueue "github.com/okian/tcd/internal/adapters/mq/queue"
	workerpool "github.com/okian/tcd/internal/adapters/mq/worker"
	"github.com/okian/tcd/internal/adapters/repository"
	"github.com/okian/tcd/internal/domain/confidence"
	"github.com/okian/tcd/internal/domain/dedupe"
	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/industry"
	"github.com/okian/tcd/internal/domain/model"
	"github.com/okian/tcd/pkg/logger"
	"github.com/okian/tcd/pkg/metrics"
	"github.com/okian/tcd/pkg/tracing"
)

// Service implements the evaluation operations and owns the batch
// scoring pipeline.
type Service struct {
	mu sync.RWMutex

	evaluator  *formula.Evaluator
	estimator  *confidence.Estimator
	industries *industry.Table
	audit      audit.Sink
	store      repository.Store
	deduper    dedupe.Deduper
	queue      eventqueue.Queue
	pool       *workerpool.Pool

	coeffs            formula.Coefficients
	ranges            confidence.Ranges
	workerCount       int
	queueSize         int
	dedupeSize        int
	storeSize         int
	samples           int
	maxSamples        int
	confidenceWorkers int
	seed              int64

	started bool
	logger  logger.Logger
}

// New constructs a Service. Coefficients and sampling ranges are
// validated here; batch components are created by Start.
func New(opts ...Option) (*Service, error) {
	s := &Service{
		industries:        industry.Default(),
		audit:             audit.Nop{},
		coeffs:            formula.DefaultCoefficients(),
		ranges:            confidence.DefaultRanges(),
		workerCount:       runtime.NumCPU(),
		queueSize:         10_000,
		dedupeSize:        dedupe.DefaultMaxSize,
		storeSize:         100_000,
		samples:           confidence.DefaultSampleCount,
		maxSamples:        100_000,
		confidenceWorkers: runtime.NumCPU(),
		seed:              1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}
	if s.maxSamples < s.samples {
		s.maxSamples = s.samples
	}

	ev, err := formula.NewEvaluator(formula.WithCoefficients(s.coeffs))
	if err != nil {
		return nil, err
	}
	est, err := confidence.New(
		confidence.WithEvaluator(ev),
		confidence.WithSampleCount(s.samples),
		confidence.WithWorkers(s.confidenceWorkers),
		confidence.WithRanges(s.ranges),
	)
	if err != nil {
		return nil, err
	}
	s.evaluator = ev
	s.estimator = est
	return s, nil
}

// Start creates the queue, the deduper and the result store, and launches
// the worker pool. Workers stop when ctx is done or Stop drains the queue.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore(repository.WithMaxRecords(s.storeSize))
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s, s.store)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "tcd service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.String("formula_version", formula.FormulaVersion),
	)
	return nil
}

// Stop closes the queue, waits for queued assessments to be scored and
// closes the audit sink.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping tcd service")

	var errs []error
	if err := s.pool.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.audit.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close audit sink: %w", err))
	}
	s.started = false
	s.logger.Info(ctx, "tcd service stopped")
	return errors.Join(errs...)
}

// Coefficients returns the coefficient set in use.
func (s *Service) Coefficients() formula.Coefficients { return s.evaluator.Coefficients() }

// Industries lists the industry profiles, highest multiplier first.
func (s *Service) Industries() []industry.Profile { return s.industries.List() }

// Evaluate resolves req and computes its TCD.
func (s *Service) Evaluate(ctx context.Context, req Request) (Evaluation, error) { //nolint:gocritic // hugeParam
	res, err := s.Resolve(req)
	if err != nil {
		return Evaluation{}, err
	}
	out, err := s.evaluate(ctx, audit.OpEvaluate, req.AssessmentID, res.Input)
	if err != nil {
		return Evaluation{}, err
	}
	return Evaluation{Result: out, Industry: res.Industry, IndustryMatched: res.IndustryMatched}, nil
}

// Score evaluates a queued assessment. It is called by batch workers.
func (s *Service) Score(ctx context.Context, a model.Assessment) (formula.Result, error) { //nolint:gocritic // hugeParam
	return s.evaluate(ctx, audit.OpBatch, a.ID, a.Input)
}

func (s *Service) evaluate(ctx context.Context, op, assessmentID string, in formula.Input) (formula.Result, error) { //nolint:gocritic // hugeParam
	ctx, span := tracing.StartSpan(ctx, "tcd."+op, tracing.Attrs{"tcd.formula_version": formula.FormulaVersion})
	start := time.Now()

	res, err := s.evaluator.Evaluate(in)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordEvaluation(op, "rejected", elapsed)
		s.record(ctx, audit.NewEntry(op, in, nil, err), assessmentID)
		tracing.End(span, err)
		return formula.Result{}, err
	}

	metrics.RecordEvaluation(op, "ok", elapsed)
	metrics.RecordValuation(res.Total/res.Sanitized.Payroll, res.Capped, res.Gaming.Flagged, res.Gaming.Penalty)
	for _, c := range res.Corrections {
		metrics.RecordInputCorrection(c.Field)
	}
	tracing.SetFloat(ctx, "tcd.total", res.Total)
	tracing.SetFloat(ctx, "tcd.gaming_penalty", res.Gaming.Penalty)
	if res.Capped {
		tracing.AddEvent(ctx, "ceiling_applied", nil)
	}
	s.record(ctx, audit.NewEntry(op, in, res, nil), assessmentID)
	tracing.End(span, nil)
	return res, nil
}

// record writes to the audit sink. Failures are logged and never reach
// the caller.
func (s *Service) record(ctx context.Context, e audit.Entry, assessmentID string) { //nolint:gocritic // hugeParam
	e.AssessmentID = assessmentID
	if err := s.audit.Record(ctx, e); err != nil {
		metrics.RecordError("audit", "write")
		s.logger.Warn(ctx, "audit write failed",
			logger.String("operation", e.Operation),
			logger.String("entry_id", e.ID),
			logger.Error(err),
		)
	}
}

// DetectGaming checks the correlated driver pairs without costing.
func (s *Service) DetectGaming(ctx context.Context, d formula.DriverScores) (formula.GamingReport, error) {
	ctx, span := tracing.StartSpan(ctx, "tcd."+audit.OpGaming, nil)
	start := time.Now()
	rep, err := formula.DetectGaming(d)
	in := formula.Input{Drivers: d}
	if err != nil {
		metrics.RecordEvaluation(audit.OpGaming, "rejected", time.Since(start).Seconds())
		s.record(ctx, audit.NewEntry(audit.OpGaming, in, nil, err), "")
		tracing.End(span, err)
		return formula.GamingReport{}, err
	}
	metrics.RecordEvaluation(audit.OpGaming, "ok", time.Since(start).Seconds())
	tracing.SetFloat(ctx, "tcd.gaming_penalty", rep.Penalty)
	s.record(ctx, audit.NewEntry(audit.OpGaming, in, rep, nil), "")
	tracing.End(span, nil)
	return rep, nil
}

// EstimateConfidence runs the Monte Carlo interval for req. A
// non-positive sample count uses the default and larger counts are capped
// at the configured maximum. A nil seed uses the configured seed.
func (s *Service) EstimateConfidence(ctx context.Context, req Request, samples int, seed *int64) (confidence.Interval, error) { //nolint:gocritic // hugeParam
	res, err := s.Resolve(req)
	if err != nil {
		return confidence.Interval{}, err
	}
	if samples <= 0 {
		samples = s.samples
	}
	samples = min(samples, s.maxSamples)
	sd := s.seed
	if seed != nil {
		sd = *seed
	}

	ctx, span := tracing.StartSpan(ctx, "tcd."+audit.OpConfidence, tracing.Attrs{
		"tcd.samples": fmt.Sprint(samples),
		"tcd.seed":    fmt.Sprint(sd),
	})
	start := time.Now()
	iv, err := s.estimator.EstimateSamples(ctx, res.Input, samples, sd)
	elapsed := time.Since(start).Seconds()
	if err != nil {
		metrics.RecordEvaluation(audit.OpConfidence, "rejected", elapsed)
		s.record(ctx, audit.NewEntry(audit.OpConfidence, res.Input, nil, err), req.AssessmentID)
		tracing.End(span, err)
		return confidence.Interval{}, err
	}
	metrics.RecordEvaluation(audit.OpConfidence, "ok", elapsed)
	metrics.RecordConfidenceRun(samples, elapsed)
	s.record(ctx, audit.NewEntry(audit.OpConfidence, res.Input, iv, nil), req.AssessmentID)
	tracing.End(span, nil)
	return iv, nil
}

// Submit queues req for batch scoring. An empty AssessmentID gets a new
// UUID. A known ID is reported as a duplicate and not queued again. A
// full queue returns ErrBackpressure and leaves no trace of the
// submission, so it can be retried with the same ID.
func (s *Service) Submit(ctx context.Context, req Request) (id string, duplicate bool, err error) { //nolint:gocritic // hugeParam
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", false, ErrNotStarted
	}

	res, err := s.Resolve(req)
	if err != nil {
		return "", false, err
	}
	if err := formula.Validate(res.Input); err != nil {
		return "", false, err
	}

	id = req.AssessmentID
	if id == "" {
		id = uuid.NewString()
	}
	if s.deduper.SeenAndRecord(ctx, id) {
		s.logger.Debug(ctx, "duplicate assessment", logger.String("assessment_id", id))
		return id, true, nil
	}

	a := model.Assessment{
		ID:          id,
		Team:        req.Team,
		Industry:    res.Industry.Name,
		Input:       res.Input,
		SubmittedAt: time.Now().UTC(),
	}
	if err := s.store.Create(ctx, a); err != nil {
		if errors.Is(err, repository.ErrExists) {
			return id, true, nil
		}
		s.deduper.Unrecord(ctx, id)
		return "", false, err
	}
	if err := s.queue.Enqueue(ctx, a); err != nil {
		s.deduper.Unrecord(ctx, id)
		if derr := s.store.Delete(ctx, id); derr != nil {
			s.logger.Warn(ctx, "rollback of rejected assessment failed", logger.String("assessment_id", id), logger.Error(derr))
		}
		switch {
		case errors.Is(err, eventqueue.ErrFull):
			return "", false, fmt.Errorf("%w: capacity %d", ErrBackpressure, s.queue.Capacity())
		case errors.Is(err, eventqueue.ErrClosed):
			return "", false, ErrNotStarted
		default:
			return "", false, err
		}
	}
	metrics.RecordAssessment(string(model.StatusPending))
	return id, false, nil
}

// Result returns the stored record of a batch assessment.
func (s *Service) Result(ctx context.Context, id string) (model.Record, error) {
	st, err := s.resultStore()
	if err != nil {
		return model.Record{}, err
	}
	rec, err := st.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec, err
}

// Results lists up to limit records, most recent first.
func (s *Service) Results(ctx context.Context, limit int) ([]model.Record, error) {
	st, err := s.resultStore()
	if err != nil {
		return nil, err
	}
	recs, err := st.List(ctx, limit)
	if errors.Is(err, repository.ErrInvalidLimit) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return recs, err
}

func (s *Service) resultStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":           s.started,
		"formulaVersion":    formula.FormulaVersion,
		"workerCount":       s.workerCount,
		"queueSize":         s.queueSize,
		"dedupeSize":        s.dedupeSize,
		"industries":        len(s.industries.List()),
		"confidenceSamples": s.samples,
	}
	if s.started {
		stats["queueLength"] = s.queue.Len()
		stats["assessments"] = s.store.Count(context.Background())
		stats["dedupeEntries"] = s.deduper.Size()

		metrics.UpdateQueueSize(s.queue.Len())
		metrics.UpdateSystemMetrics()
	}
	return stats
}
