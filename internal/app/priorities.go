package service

import (
	"context"
	"time"

	"github.com/okian/tcd/internal/adapters/audit"
	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/industry"
	"github.com/okian/tcd/internal/domain/priority"
	"github.com/okian/tcd/pkg/metrics"
	"github.com/okian/tcd/pkg/tracing"
)

// PriorityReport is a driver priority matrix with the industry profile it
// was resolved against.
type PriorityReport struct {
	priority.Matrix
	Industry        industry.Profile `json:"industry"`
	IndustryMatched bool             `json:"industry_matched"`
}

// Priorities ranks the drivers of d for the named industry. The name is
// resolved through the industry table first, so unknown names rank with
// the fallback profile's weights.
func (s *Service) Priorities(ctx context.Context, industryName string, d formula.DriverScores) (PriorityReport, error) {
	ctx, span := tracing.StartSpan(ctx, "tcd."+audit.OpPriorities, tracing.Attrs{"tcd.industry": industryName})
	start := time.Now()

	profile, ok := s.industries.Lookup(industryName)
	in := formula.Input{Drivers: d}
	m, err := priority.Compute(d, profile.Name)
	if err != nil {
		metrics.RecordEvaluation(audit.OpPriorities, "rejected", time.Since(start).Seconds())
		s.record(ctx, audit.NewEntry(audit.OpPriorities, in, nil, err), "")
		tracing.End(span, err)
		return PriorityReport{}, err
	}
	metrics.RecordEvaluation(audit.OpPriorities, "ok", time.Since(start).Seconds())
	tracing.SetFloat(ctx, "tcd.critical_drivers", float64(m.Counts[priority.Critical]))
	s.record(ctx, audit.NewEntry(audit.OpPriorities, in, m, nil), "")
	tracing.End(span, nil)
	return PriorityReport{Matrix: m, Industry: profile, IndustryMatched: ok}, nil
}
