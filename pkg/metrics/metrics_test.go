package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewManager(t *testing.T) {
	Convey("Given a dedicated registry", t, func() {
		registry := prometheus.NewRegistry()

		Convey("When creating a manager with custom options", func() {
			m := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{0.1, 1}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			m.ceilingHits.Inc()

			Convey("Then collectors are registered under the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if f.GetName() == "test_unit_ceiling_hits_total" {
						found = true
						So(f.GetMetric()[0].GetLabel()[0].GetValue(), ShouldEqual, "test")
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When an empty namespace is given", func() {
			m := NewManager(WithNamespace(""), WithPrometheusRegistry(registry))
			So(m.namespace, ShouldEqual, "tcd")
		})
	})
}

func TestRecordHelpers(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording evaluations", func() {
			before := testutil.ToFloat64(globalManager.evaluations.WithLabelValues("evaluate", "ok"))
			RecordEvaluation("evaluate", "ok", 0.002)
			RecordEvaluation("evaluate", "ok", 0.003)

			Convey("Then the counter advances", func() {
				after := testutil.ToFloat64(globalManager.evaluations.WithLabelValues("evaluate", "ok"))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When a capped and flagged valuation is recorded", func() {
			hits := testutil.ToFloat64(globalManager.ceilingHits)
			flags := testutil.ToFloat64(globalManager.gamingFlags)
			RecordValuation(3.5, true, true, 1.2)
			RecordValuation(0.4, false, false, 1.0)

			Convey("Then each counter moves once", func() {
				So(testutil.ToFloat64(globalManager.ceilingHits)-hits, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.gamingFlags)-flags, ShouldEqual, 1)
			})
		})

		Convey("When the queue gauges are updated", func() {
			UpdateQueueCapacity(10)
			UpdateQueueSize(4)
			UpdateQueueUtilization(0.4)

			Convey("Then they hold the last value", func() {
				So(testutil.ToFloat64(globalManager.queueCapacity), ShouldEqual, 10)
				So(testutil.ToFloat64(globalManager.queueSize), ShouldEqual, 4)
				So(testutil.ToFloat64(globalManager.queueUtilization), ShouldEqual, 0.4)
			})
		})

		Convey("When worker outcomes are recorded", func() {
			errs := testutil.ToFloat64(globalManager.workerErrors)
			ok := testutil.ToFloat64(globalManager.workerProcessed)
			RecordWorkerProcessed(0.01, true)
			RecordWorkerProcessed(0.01, false)
			RecordWorkerProcessed(0.01, false)

			Convey("Then failures and successes are counted apart", func() {
				So(testutil.ToFloat64(globalManager.workerErrors)-errs, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.workerProcessed)-ok, ShouldEqual, 2)
			})
		})

		Convey("When system metrics are sampled", func() {
			UpdateSystemMetrics()
			So(testutil.ToFloat64(globalManager.systemGoroutines), ShouldBeGreaterThan, 0)
			So(testutil.ToFloat64(globalManager.systemMemory), ShouldBeGreaterThan, 0)
		})

		Convey("When the registry is exported", func() {
			RecordHTTPRequest("/v1/evaluate", "POST", "200", 0.001)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)

			Convey("Then only tcd collectors are present", func() {
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "tcd_engine_"), ShouldBeTrue)
				}
			})
		})
	})
}

func TestRecordConcurrency(t *testing.T) {
	Convey("Given many goroutines recording at once", t, func() {
		before := testutil.ToFloat64(globalManager.queueEnqueued)
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					RecordQueueEnqueue()
					RecordInputCorrection("industry_factor")
					RecordAuditWrite("sqlite", "ok")
				}
			}()
		}
		wg.Wait()

		Convey("Then no increment is lost", func() {
			So(testutil.ToFloat64(globalManager.queueEnqueued)-before, ShouldEqual, 1000)
		})
	})
}
