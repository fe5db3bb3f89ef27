package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	worker "github.com/okian/tcd/internal/adapters/mq/worker"
	"github.com/okian/tcd/internal/domain/formula"
	model "github.com/okian/tcd/internal/domain/model"
	logging "github.com/okian/tcd/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

type mockQueue struct {
	ch        chan model.Assessment
	closeOnce sync.Once
}

func newMockQueue() *mockQueue {
	return &mockQueue{ch: make(chan model.Assessment, 10)}
}

func (mq *mockQueue) Dequeue(ctx context.Context) <-chan model.Assessment { return mq.ch }

func (mq *mockQueue) Close() error {
	mq.closeOnce.Do(func() { close(mq.ch) })
	return nil
}

type mockScorer struct {
	failFor map[string]error
}

func (ms *mockScorer) Score(ctx context.Context, a model.Assessment) (formula.Result, error) {
	if err, ok := ms.failFor[a.ID]; ok {
		return formula.Result{}, err
	}
	return formula.Evaluate(a.Input)
}

type mockRecorder struct {
	mu        sync.Mutex
	completed map[string]formula.Result
	failed    map[string]error
	wg        *sync.WaitGroup
}

func newMockRecorder(expected int) *mockRecorder {
	wg := &sync.WaitGroup{}
	wg.Add(expected)
	return &mockRecorder{completed: map[string]formula.Result{}, failed: map[string]error{}, wg: wg}
}

func (mr *mockRecorder) Complete(ctx context.Context, id string, res formula.Result) error {
	mr.mu.Lock()
	mr.completed[id] = res
	mr.mu.Unlock()
	mr.wg.Done()
	return nil
}

func (mr *mockRecorder) Fail(ctx context.Context, id string, cause error) error {
	mr.mu.Lock()
	mr.failed[id] = cause
	mr.mu.Unlock()
	mr.wg.Done()
	return nil
}

func (mr *mockRecorder) wait(t time.Duration) bool {
	done := make(chan struct{})
	go func() { mr.wg.Wait(); close(done) }()
	select {
	case <-done:
		return true
	case <-time.After(t):
		return false
	}
}

func assessment(id string, payroll float64) model.Assessment {
	return model.Assessment{
		ID: id,
		Input: formula.Input{
			Drivers:            formula.UniformDrivers(4),
			Payroll:            payroll,
			TeamSize:           8,
			IndustryFactor:     1,
			TurnoverMultiplier: 1,
			BusinessValueRatio: 1,
		},
	}
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker over a queue", t, func() {
		q := newMockQueue()
		scorer := &mockScorer{failFor: map[string]error{"bad": errors.New("boom")}}
		rec := newMockRecorder(3)
		w := worker.NewInMemoryWorker(q, scorer, rec, worker.WithName("w-test"), worker.WithLogger(logging.Nop()))

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When good and bad assessments arrive", func() {
			q.ch <- assessment("a1", 1_000_000)
			q.ch <- assessment("bad", 1_000_000)
			q.ch <- assessment("zero", 0)

			convey.Convey("Then each outcome is recorded", func() {
				convey.So(rec.wait(2*time.Second), convey.ShouldBeTrue)
				convey.So(rec.completed, convey.ShouldContainKey, "a1")
				convey.So(rec.completed["a1"].Total, convey.ShouldBeGreaterThan, 0)
				convey.So(rec.failed["bad"].Error(), convey.ShouldEqual, "boom")
				convey.So(errors.Is(rec.failed["zero"], formula.ErrInvalidFinancialInput), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the queue closes", func() {
			_ = q.Close()

			convey.Convey("Then the worker stops", func() {
				select {
				case <-w.Done():
				case <-time.After(time.Second):
					convey.So("worker still running", convey.ShouldBeEmpty)
				}
			})
		})
	})
}

func TestPool(t *testing.T) {
	convey.Convey("Given a pool of four workers", t, func() {
		q := newMockQueue()
		rec := newMockRecorder(10)
		pool := worker.NewPool(4, q, &mockScorer{}, rec)
		convey.So(pool.Size(), convey.ShouldEqual, 4)

		ctx := context.Background()
		pool.Start(ctx)
		pool.Start(ctx)

		convey.Convey("When ten assessments are queued and the pool shuts down", func() {
			go func() {
				for i := 0; i < 10; i++ {
					q.ch <- assessment(string(rune('a'+i)), float64(100_000*(i+1)))
				}
			}()
			convey.So(rec.wait(2*time.Second), convey.ShouldBeTrue)
			err := pool.Shutdown(ctx)

			convey.Convey("Then every assessment was scored and workers stopped", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.completed, convey.ShouldHaveLength, 10)
			})
		})
	})
}
