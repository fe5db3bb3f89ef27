package audit

import (
	"context"

	"github.com/okian/tcd/pkg/logger"
)

// LogSink writes one structured log line per entry.
type LogSink struct {
	log logger.Logger
}

// NewLogSink creates a sink over l.
func NewLogSink(l logger.Logger) *LogSink {
	return &LogSink{log: l}
}

func (s *LogSink) Record(ctx context.Context, e Entry) error { //nolint:gocritic // hugeParam
	fields := []logger.Field{
		logger.String("audit_id", e.ID),
		logger.String("operation", e.Operation),
		logger.String("formula_version", e.FormulaVersion),
		logger.Any("input", e.Input),
		logger.Any("output", e.Output),
	}
	if e.AssessmentID != "" {
		fields = append(fields, logger.String("assessment_id", e.AssessmentID))
	}
	if e.Error != "" {
		fields = append(fields, logger.String("error", e.Error))
	}
	s.log.Info(ctx, "audit", fields...)
	return nil
}

func (s *LogSink) Close() error { return nil }
