package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/tcd/internal/adapters/http/api"
	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

const referenceBody = `{
	"team": "platform",
	"drivers": {
		"comm_quality": 4.2, "trust": 5.1, "psych_safety": 4.8, "goal_clarity": 3.9,
		"coordination": 4.5, "tms": 4.0, "team_cognition": 4.3
	},
	"payroll": 1800000,
	"team_size": 15,
	"industry": "Technology",
	"business_value_ratio": 3
}`

// fullQueue rejects every submission.
type fullQueue struct {
	*service.Service
}

func (fullQueue) Submit(context.Context, service.Request) (string, bool, error) {
	return "", false, fmt.Errorf("%w: capacity 1", service.ErrBackpressure)
}

// brokenService fails every evaluation with an unexpected error.
type brokenService struct {
	*service.Service
}

func (brokenService) Evaluate(context.Context, service.Request) (service.Evaluation, error) {
	return service.Evaluation{}, errors.New("database password is hunter2")
}

func newMux(deps api.Dependencies, stats api.StatsProvider) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, stats).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestServer_Evaluate(t *testing.T) {
	Convey("Given the API over a real service", t, func() {
		svc, err := service.New(service.WithLogger(logger.Nop()), service.WithConfidenceSamples(200, 1000))
		So(err, ShouldBeNil)
		mux := newMux(svc, svc)

		Convey("When the reference team is evaluated", func() {
			w, out := do(mux, http.MethodPost, "/v1/evaluate", referenceBody)

			Convey("Then money is rounded to cents", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldEqual, "application/json; charset=utf-8")
				So(out["total"], ShouldEqual, 1228747.12)
				components := out["components"].(map[string]any)
				So(components["productivity"], ShouldEqual, 195000.0)
				So(components["turnover"], ShouldEqual, 148522.5)
				So(components["disengagement"], ShouldEqual, 14403.01)
				So(out["industry"], ShouldEqual, "Technology")
				So(out["industry_matched"], ShouldEqual, true)
				So(out["formula_version"], ShouldEqual, "4.0.0")
			})
		})

		Convey("When the multipliers are explicit zeros", func() {
			body := strings.Replace(referenceBody, `"business_value_ratio": 3`,
				`"business_value_ratio": 3, "industry_factor": 0, "turnover_multiplier": 0`, 1)
			w, out := do(mux, http.MethodPost, "/v1/evaluate", body)

			Convey("Then they are clamped to the lower bounds and reported", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				factors := out["factors"].(map[string]any)
				So(factors["industry"], ShouldEqual, 0.7)
				So(factors["turnover"], ShouldEqual, 0.8)
				corrections, ok := out["corrections"].([]any)
				So(ok, ShouldBeTrue)
				fields := make([]any, 0, len(corrections))
				for _, c := range corrections {
					fields = append(fields, c.(map[string]any)["field"])
				}
				So(fields, ShouldContain, "industry_factor")
				So(fields, ShouldContain, "turnover_multiplier")
			})
		})

		Convey("When payroll is zero", func() {
			body := strings.Replace(referenceBody, `"payroll": 1800000`, `"payroll": 0`, 1)
			w, out := do(mux, http.MethodPost, "/v1/evaluate", body)

			Convey("Then the financial input is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(out["code"], ShouldEqual, "invalid_financial_input")
				So(out["message"], ShouldContainSubstring, "payroll")
			})
		})

		Convey("When a driver is missing", func() {
			body := strings.Replace(referenceBody, `"tms": 4.0,`, ``, 1)
			w, out := do(mux, http.MethodPost, "/v1/evaluate", body)

			Convey("Then the driver set is rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(out["code"], ShouldEqual, "invalid_driver_score")
				So(out["message"], ShouldContainSubstring, "tms")
			})
		})

		Convey("When the body is not JSON", func() {
			w, out := do(mux, http.MethodPost, "/v1/evaluate", "{")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(out["code"], ShouldEqual, "bad_request")
		})

		Convey("When the body is empty", func() {
			w, out := do(mux, http.MethodPost, "/v1/evaluate", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(out["message"], ShouldContainSubstring, "empty body")
		})

		Convey("When the wrong method is used", func() {
			w, _ := do(mux, http.MethodGet, "/v1/evaluate", "")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})

		Convey("When gaming is checked", func() {
			w, out := do(mux, http.MethodPost, "/v1/gaming", `{"drivers": {
				"communication": 4, "trust": 7, "psych_safety": 1, "goal_clarity": 4,
				"coordination": 4, "tms": 4, "team_cognition": 4}}`)

			Convey("Then the inconsistency is flagged", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(out["flagged"], ShouldEqual, true)
				So(out["penalty_multiplier"], ShouldBeGreaterThan, 1)
			})
		})

		Convey("When driver priorities are requested", func() {
			w, out := do(mux, http.MethodPost, "/v1/priorities", `{"industry": "technology", "drivers": {
				"communication": 4, "trust": 4, "psych_safety": 4, "goal_clarity": 4,
				"coordination": 4, "tms": 4, "team_cognition": 4}}`)

			Convey("Then the drivers come back ranked with quadrant counts", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(out["industry"], ShouldEqual, "Technology")
				So(out["weight_set"], ShouldEqual, "Technology")
				So(out["threshold"], ShouldEqual, 2.5)
				drivers := out["drivers"].([]any)
				So(drivers, ShouldHaveLength, 7)
				first := drivers[0].(map[string]any)
				So(first["driver"], ShouldEqual, "team_cognition")
				So(first["quadrant"], ShouldEqual, "CRITICAL")
				counts := out["counts"].(map[string]any)
				So(counts["CRITICAL"], ShouldEqual, 3.0)
				So(counts["MEDIUM"], ShouldEqual, 0.0)
			})
		})

		Convey("When driver priorities are requested without drivers", func() {
			w, out := do(mux, http.MethodPost, "/v1/priorities", `{"industry": "technology"}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(out["code"], ShouldEqual, "bad_request")
		})

		Convey("When gaming is checked without drivers", func() {
			w, out := do(mux, http.MethodPost, "/v1/gaming", `{}`)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(out["code"], ShouldEqual, "bad_request")
		})

		Convey("When a confidence interval is requested twice with one seed", func() {
			body := strings.Replace(referenceBody, `"team": "platform",`, `"samples": 300, "seed": 11,`, 1)
			w1, a := do(mux, http.MethodPost, "/v1/confidence", body)
			w2, b := do(mux, http.MethodPost, "/v1/confidence", body)

			Convey("Then both answers are identical and bracket a positive range", func() {
				So(w1.Code, ShouldEqual, http.StatusOK)
				So(w2.Code, ShouldEqual, http.StatusOK)
				So(a, ShouldResemble, b)
				So(a["samples"], ShouldEqual, 300.0)
				So(a["seed"], ShouldEqual, 11.0)
				So(a["low"], ShouldBeLessThanOrEqualTo, a["high"])
			})
		})

		Convey("When negative samples are requested", func() {
			body := strings.Replace(referenceBody, `"team": "platform",`, `"samples": -5,`, 1)
			w, _ := do(mux, http.MethodPost, "/v1/confidence", body)
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When industries are listed", func() {
			w, out := do(mux, http.MethodGet, "/v1/industries", "")

			Convey("Then the highest multiplier comes first", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				list := out["industries"].([]any)
				So(list, ShouldHaveLength, 7)
				So(list[0].(map[string]any)["name"], ShouldEqual, "Healthcare")
			})
		})

		Convey("When an unexpected error occurs", func() {
			mux := newMux(brokenService{svc}, svc)
			w, out := do(mux, http.MethodPost, "/v1/evaluate", referenceBody)

			Convey("Then its text is not leaked", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(out["code"], ShouldEqual, "internal_error")
				So(w.Body.String(), ShouldNotContainSubstring, "hunter2")
			})
		})
	})
}

func TestServer_Assessments(t *testing.T) {
	Convey("Given the API over a started service", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		svc, err := service.New(service.WithLogger(logger.Nop()), service.WithWorkerCount(2))
		So(err, ShouldBeNil)
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		mux := newMux(svc, svc)

		Convey("When an assessment is submitted", func() {
			body := strings.Replace(referenceBody, `"team": "platform",`, `"assessment_id": "q3-platform",`, 1)
			w, out := do(mux, http.MethodPost, "/v1/assessments", body)

			Convey("Then it is accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(out["id"], ShouldEqual, "q3-platform")
				So(w.Header().Get("Location"), ShouldEqual, "/v1/assessments/q3-platform")
			})

			Convey("And the same ID is reported as a duplicate", func() {
				w, out := do(mux, http.MethodPost, "/v1/assessments", body)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(out["duplicate"], ShouldEqual, true)
			})

			Convey("And its result becomes available", func() {
				var out map[string]any
				deadline := time.Now().Add(5 * time.Second)
				for time.Now().Before(deadline) {
					var w *httptest.ResponseRecorder
					w, out = do(mux, http.MethodGet, "/v1/assessments/q3-platform", "")
					So(w.Code, ShouldEqual, http.StatusOK)
					if out["status"] != "pending" {
						break
					}
					time.Sleep(5 * time.Millisecond)
				}
				So(out["status"], ShouldEqual, "completed")
				So(out["result"].(map[string]any)["total"], ShouldEqual, 1228747.12)

				w, list := do(mux, http.MethodGet, "/v1/assessments?limit=10", "")
				So(w.Code, ShouldEqual, http.StatusOK)
				So(list["assessments"], ShouldHaveLength, 1)
			})
		})

		Convey("When an unknown assessment is requested", func() {
			w, out := do(mux, http.MethodGet, "/v1/assessments/nope", "")
			So(w.Code, ShouldEqual, http.StatusNotFound)
			So(out["code"], ShouldEqual, "not_found")
		})

		Convey("When the list limit is invalid", func() {
			w, _ := do(mux, http.MethodGet, "/v1/assessments?limit=zero", "")
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("When the queue is full", func() {
			mux := newMux(fullQueue{svc}, svc)
			w, out := do(mux, http.MethodPost, "/v1/assessments", referenceBody)

			Convey("Then the client is told to back off", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(out["code"], ShouldEqual, "backpressure")
			})
		})

		Convey("When stats and metrics are requested", func() {
			w, out := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(out["started"], ShouldEqual, true)

			w, _ = do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "tcd_engine_")
		})
	})
}

func TestKindError(t *testing.T) {
	Convey("Given wrapped API errors", t, func() {
		cause := errors.New("boom")
		err := api.WrapKind("api.op", api.ErrBadRequest, cause)

		So(errors.Is(err, api.ErrBadRequest), ShouldBeTrue)
		So(errors.Is(err, cause), ShouldBeTrue)
		So(err.Error(), ShouldEqual, "api.op: bad request: boom")
		So(api.NewKind("api.op", api.ErrBadRequest).Error(), ShouldEqual, "api.op: bad request")
		So(api.Wrap("api.op", nil), ShouldBeNil)
		So(api.Wrap("api.op", cause).Error(), ShouldEqual, "api.op: boom")
	})
}
