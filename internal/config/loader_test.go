package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/okian/tcd/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tcd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then the defaults apply", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(cfg.ConfidenceSamples, convey.ShouldEqual, 10_000)
				convey.So(cfg.Coefficients.Productivity, convey.ShouldEqual, 0.25)
				convey.So(cfg.Industries, convey.ShouldHaveLength, 7)
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 10*time.Second)
			})
		})

		convey.Convey("When environment variables are set", func() {
			t.Setenv("TCD_ADDR", ":8080")
			t.Setenv("TCD_QUEUE_SIZE", "500")
			t.Setenv("TCD_AUDIT_ENABLED", "false")
			t.Setenv("TCD_REQUEST_TIMEOUT", "2s")
			t.Setenv("TCD_COEFFICIENTS__REWORK", "0.12")
			t.Setenv("TCD_TRACING__SAMPLING", "never")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they override the defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.AuditEnabled, convey.ShouldBeFalse)
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 2*time.Second)
				convey.So(cfg.Coefficients.Rework, convey.ShouldEqual, 0.12)
				convey.So(cfg.Coefficients.Productivity, convey.ShouldEqual, 0.25)
				convey.So(cfg.Tracing.Sampling, convey.ShouldEqual, "never")
			})
		})

		convey.Convey("When a YAML file is given", func() {
			t.Setenv("TCD_CONFIG", writeConfigFile(t, `
addr: ":9090"
worker_count: 3
confidence_samples: 2000
default_industry: Energy
industries:
  - name: Energy
    phi: 1.1
    rho: 1.05
    naics: ["21"]
  - name: Retail
    phi: 0.9
    rho: 0.95
`))
			t.Setenv("TCD_WORKER_COUNT", "5")

			cfg, err := config.Load(ctx)

			convey.Convey("Then file values apply and env still wins", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 5)
				convey.So(cfg.ConfidenceSamples, convey.ShouldEqual, 2000)
				convey.So(cfg.Industries, convey.ShouldHaveLength, 2)

				tbl, err := cfg.IndustryTable()
				convey.So(err, convey.ShouldBeNil)
				p, ok := tbl.Lookup("energy")
				convey.So(ok, convey.ShouldBeTrue)
				convey.So(p.Phi, convey.ShouldEqual, 1.1)
				convey.So(p.NAICS, convey.ShouldResemble, []string{"21"})
			})
		})

		convey.Convey("When the file does not exist", func() {
			t.Setenv("TCD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the resulting config is invalid", func() {
			t.Setenv("TCD_ADDR", "")
			t.Setenv("TCD_DEFAULT_INDUSTRY", "Aerospace")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfigValidate(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()
		convey.So(cfg.Validate(), convey.ShouldBeNil)

		convey.Convey("Then each broken field is reported", func() {
			for _, mutate := range []func(*config.Config){
				func(c *config.Config) { c.Addr = "" },
				func(c *config.Config) { c.QueueSize = 0 },
				func(c *config.Config) { c.ConfidenceSamples = 1 },
				func(c *config.Config) { c.MaxConfidenceSamples = 10 },
				func(c *config.Config) { c.LogFormat = "xml" },
				func(c *config.Config) { c.AuditLog = false },
				func(c *config.Config) { c.Coefficients.OverlapDiscount = 2 },
				func(c *config.Config) { c.ConfidenceRanges.Rework.Min = 1 },
				func(c *config.Config) { c.DefaultIndustry = "nowhere" },
			} {
				c := config.New()
				mutate(c)
				convey.So(errors.Is(c.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			}
		})
	})
}
