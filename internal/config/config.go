// Package config defines service configuration and its defaults.
package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/okian/tcd/internal/domain/confidence"
	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/industry"
	"github.com/okian/tcd/pkg/tracing"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat is text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`
	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration `koanf:"request_timeout"`
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// QueueSize bounds the batch assessment queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of batch scoring workers.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize sets how many assessment IDs are remembered.
	DedupeSize int `koanf:"dedupe_size"`
	// ResultStoreSize bounds the stored assessment records.
	ResultStoreSize int `koanf:"result_store_size"`

	ConfidenceSamples    int               `koanf:"confidence_samples"`
	MaxConfidenceSamples int               `koanf:"max_confidence_samples"`
	ConfidenceWorkers    int               `koanf:"confidence_workers"`
	ConfidenceSeed       int64             `koanf:"confidence_seed"`
	ConfidenceRanges     confidence.Ranges `koanf:"confidence_ranges"`

	AuditEnabled    bool   `koanf:"audit_enabled"`
	AuditLog        bool   `koanf:"audit_log"`
	AuditSQLitePath string `koanf:"audit_sqlite_path"`

	// DefaultIndustry is used when a request names no known industry.
	DefaultIndustry string             `koanf:"default_industry"`
	Industries      []industry.Profile `koanf:"industries"`

	Coefficients formula.Coefficients `koanf:"coefficients"`

	Tracing tracing.Config `koanf:"tracing"`
}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		LogFormat:            "text",
		Addr:                 ":9080",
		RequestTimeout:       10 * time.Second,
		ShutdownTimeout:      30 * time.Second,
		QueueSize:            10_000,
		WorkerCount:          runtime.NumCPU(),
		DedupeSize:           100_000,
		ResultStoreSize:      100_000,
		ConfidenceSamples:    confidence.DefaultSampleCount,
		MaxConfidenceSamples: 100_000,
		ConfidenceWorkers:    runtime.NumCPU(),
		ConfidenceSeed:       1,
		ConfidenceRanges:     confidence.DefaultRanges(),
		AuditEnabled:         true,
		AuditLog:             true,
		DefaultIndustry:      industry.DefaultName,
		Industries:           industry.Profiles(),
		Coefficients:         formula.DefaultCoefficients(),
		Tracing:              tracing.Config{ServiceName: "tcd", Sampling: "always"},
	}
}

// IndustryTable builds the lookup table described by the config.
func (c *Config) IndustryTable() (*industry.Table, error) {
	return industry.NewTable(c.Industries, c.DefaultIndustry)
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.ConfidenceSamples < 2:
		return fmt.Errorf("%w: confidence_samples must be at least 2, got %d", ErrInvalidConfig, c.ConfidenceSamples)
	case c.MaxConfidenceSamples < c.ConfidenceSamples:
		return fmt.Errorf("%w: max_confidence_samples %d is below confidence_samples %d",
			ErrInvalidConfig, c.MaxConfidenceSamples, c.ConfidenceSamples)
	case c.LogFormat != "text" && c.LogFormat != "json":
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	case c.AuditEnabled && !c.AuditLog && c.AuditSQLitePath == "":
		return fmt.Errorf("%w: audit_enabled needs audit_log or audit_sqlite_path", ErrInvalidConfig)
	}
	if err := c.Coefficients.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := c.ConfidenceRanges.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.IndustryTable(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
