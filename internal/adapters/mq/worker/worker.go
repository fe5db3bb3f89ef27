// Package worker runs the pool that scores queued batch assessments.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/model"
	"github.com/okian/tcd/pkg/logger"
	"github.com/okian/tcd/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Scorer evaluates one assessment.
type Scorer interface {
	Score(ctx context.Context, a model.Assessment) (formula.Result, error)
}

// Recorder stores the outcome of an assessment.
type Recorder interface {
	Complete(ctx context.Context, id string, res formula.Result) error
	Fail(ctx context.Context, id string, cause error) error
}

// Queue is where workers receive assessments.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Assessment
}

// InMemoryWorker scores assessments read from a queue.
type InMemoryWorker struct {
	queue    Queue
	scorer   Scorer
	recorder Recorder
	name     string
	logger   logger.Logger

	done chan struct{}
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, scorer Scorer, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		scorer:   scorer,
		recorder: recorder,
		name:     "worker",
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run consumes the queue until it is closed and drained or ctx is done.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)
	for a := range w.queue.Dequeue(ctx) {
		if err := w.process(ctx, a); err != nil {
			w.logger.Error(ctx, "assessment failed", logger.String("assessment_id", a.ID), logger.Error(err))
		}
	}
}

// Done is closed when Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} { return w.done }

func (w *InMemoryWorker) process(ctx context.Context, a model.Assessment) error { //nolint:gocritic // hugeParam: received by value from the channel
	start := time.Now()
	res, err := w.scorer.Score(ctx, a)
	metrics.RecordWorkerProcessed(time.Since(start).Seconds(), err != nil)

	if err != nil {
		metrics.RecordAssessment(string(model.StatusFailed))
		if ferr := w.recorder.Fail(ctx, a.ID, err); ferr != nil {
			metrics.RecordError("worker", "record_failure")
			return fmt.Errorf("record failure of %s: %w", a.ID, ferr)
		}
		return fmt.Errorf("score %s: %w", a.ID, err)
	}

	if err := w.recorder.Complete(ctx, a.ID, res); err != nil {
		metrics.RecordError("worker", "record_result")
		return fmt.Errorf("record result of %s: %w", a.ID, err)
	}
	metrics.RecordAssessment(string(model.StatusCompleted))
	w.logger.Debug(ctx, "assessment scored",
		logger.String("assessment_id", a.ID),
		logger.Float64("total", res.Total),
	)
	return nil
}

// Closer is implemented by queues the pool can close on shutdown.
type Closer interface {
	Close() error
}

// Pool manages a fixed set of workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger

	startOnce sync.Once
}

// NewPool creates a pool. A non-positive count uses one worker per CPU.
func NewPool(workerCount int, q Queue, scorer Scorer, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, scorer, recorder, WithName("worker-"+strconv.Itoa(i)))
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start launches every worker once.
func (p *Pool) Start(ctx context.Context) {
	p.startOnce.Do(func() {
		for _, w := range p.workers {
			go w.Run(ctx)
		}
		metrics.UpdateWorkersActive(len(p.workers))
		p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
	})
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if c, ok := p.queue.(Closer); ok {
		if err := c.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkersActive(0)
	if timedOut > 0 {
		return fmt.Errorf("%d workers did not stop: %w", timedOut, shutdownCtx.Err())
	}
	return nil
}
