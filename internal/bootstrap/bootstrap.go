// Package bootstrap builds the service from a loaded configuration. It is
// shared by the HTTP server and the MCP binary.
package bootstrap

import (
	"fmt"

	"github.com/okian/tcd/internal/adapters/audit"
	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/internal/config"
	"github.com/okian/tcd/pkg/logger"
)

// AuditSink returns the sinks enabled by cfg. With auditing disabled it
// returns audit.Nop.
func AuditSink(cfg *config.Config, l logger.Logger) (audit.Sink, error) {
	if !cfg.AuditEnabled {
		return audit.Nop{}, nil
	}
	m := audit.NewMulti()
	if cfg.AuditLog {
		m.Add("log", audit.NewLogSink(l.Named("audit")))
	}
	if cfg.AuditSQLitePath != "" {
		s, err := audit.NewSQLiteSink(cfg.AuditSQLitePath)
		if err != nil {
			return nil, fmt.Errorf("audit sqlite %q: %w", cfg.AuditSQLitePath, err)
		}
		m.Add("sqlite", s)
	}
	return m, nil
}

// NewService constructs an unstarted service configured by cfg. The
// service owns the audit sink and closes it on Stop.
func NewService(cfg *config.Config, l logger.Logger) (*service.Service, error) {
	table, err := cfg.IndustryTable()
	if err != nil {
		return nil, err
	}
	sink, err := AuditSink(cfg, l)
	if err != nil {
		return nil, err
	}
	svc, err := service.New(
		service.WithLogger(l.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithResultStoreSize(cfg.ResultStoreSize),
		service.WithCoefficients(cfg.Coefficients),
		service.WithIndustryTable(table),
		service.WithAuditSink(sink),
		service.WithConfidenceSamples(cfg.ConfidenceSamples, cfg.MaxConfidenceSamples),
		service.WithConfidenceWorkers(cfg.ConfidenceWorkers),
		service.WithConfidenceRanges(cfg.ConfidenceRanges),
		service.WithConfidenceSeed(cfg.ConfidenceSeed),
	)
	if err != nil {
		_ = sink.Close()
		return nil, err
	}
	return svc, nil
}
