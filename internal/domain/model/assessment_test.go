package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestRecord(t *testing.T) {
	convey.Convey("Given assessment records", t, func() {
		submitted := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

		convey.Convey("When the record is pending", func() {
			r := model.Record{ID: "a-1", Status: model.StatusPending, SubmittedAt: submitted}

			convey.Convey("Then it is not done and omits empty fields", func() {
				convey.So(r.Done(), convey.ShouldBeFalse)
				raw, err := json.Marshal(r)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldNotContainSubstring, "completed_at")
				convey.So(string(raw), convey.ShouldNotContainSubstring, "result")
				convey.So(string(raw), convey.ShouldContainSubstring, `"status":"pending"`)
			})
		})

		convey.Convey("When the record completed", func() {
			r := model.Record{
				ID:          "a-2",
				Status:      model.StatusCompleted,
				Result:      &formula.Result{Total: 10},
				SubmittedAt: submitted,
				CompletedAt: submitted.Add(time.Second),
			}

			convey.Convey("Then it is done and carries its result", func() {
				convey.So(r.Done(), convey.ShouldBeTrue)
				raw, err := json.Marshal(r)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(raw), convey.ShouldContainSubstring, "completed_at")
				convey.So(string(raw), convey.ShouldContainSubstring, "result")
			})
		})

		convey.Convey("When the record failed", func() {
			r := model.Record{ID: "a-3", Status: model.StatusFailed, Error: "payroll must be positive"}
			convey.So(r.Done(), convey.ShouldBeTrue)
		})
	})
}
