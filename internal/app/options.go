package service

import (
	"github.com/okian/tcd/internal/adapters/audit"
	"github.com/okian/tcd/internal/adapters/repository"
	"github.com/okian/tcd/internal/domain/confidence"
	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/industry"
	"github.com/okian/tcd/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of batch scoring workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the assessment queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many assessment IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithResultStoreSize bounds the number of stored assessment records.
func WithResultStoreSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.storeSize = size
		}
	}
}

// WithStore replaces the in-memory result store.
func WithStore(st repository.Store) Option {
	return func(s *Service) {
		if st != nil {
			s.store = st
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCoefficients replaces the published coefficient set.
func WithCoefficients(c formula.Coefficients) Option {
	return func(s *Service) {
		s.coeffs = c
	}
}

// WithIndustryTable replaces the built-in industry table.
func WithIndustryTable(t *industry.Table) Option {
	return func(s *Service) {
		if t != nil {
			s.industries = t
		}
	}
}

// WithAuditSink sets where evaluations are recorded.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) {
		if sink != nil {
			s.audit = sink
		}
	}
}

// WithConfidenceSamples sets the default and maximum Monte Carlo trial
// counts.
func WithConfidenceSamples(def, limit int) Option {
	return func(s *Service) {
		if def > 0 {
			s.samples = def
		}
		if limit > 0 {
			s.maxSamples = limit
		}
	}
}

// WithConfidenceWorkers sets the goroutines used per confidence run.
func WithConfidenceWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.confidenceWorkers = n
		}
	}
}

// WithConfidenceRanges sets the coefficient sampling ranges.
func WithConfidenceRanges(r confidence.Ranges) Option {
	return func(s *Service) {
		s.ranges = r
	}
}

// WithConfidenceSeed sets the seed used when a request carries none.
func WithConfidenceSeed(seed int64) Option {
	return func(s *Service) {
		s.seed = seed
	}
}
