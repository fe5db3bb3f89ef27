// Package audit records every evaluation to write-only sinks: inputs,
// intermediate values, formula version and timestamp.
package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/pkg/metrics"
)

// Operations recorded in Entry.Operation.
const (
	OpEvaluate   = "evaluate"
	OpGaming     = "detect_gaming"
	OpConfidence = "confidence_interval"
	OpPriorities = "priorities"
	OpBatch      = "batch_evaluate"
)

// Entry is one audit record.
type Entry struct {
	ID             string        `json:"id"`
	AssessmentID   string        `json:"assessment_id,omitempty"`
	Operation      string        `json:"operation"`
	FormulaVersion string        `json:"formula_version"`
	Timestamp      time.Time     `json:"timestamp"`
	Input          formula.Input `json:"input"`
	Output         any           `json:"output,omitempty"`
	Error          string        `json:"error,omitempty"`
}

// NewEntry stamps an entry with a fresh ID, the formula version and the
// current time.
func NewEntry(op string, in formula.Input, output any, err error) Entry {
	e := Entry{
		ID:             uuid.NewString(),
		Operation:      op,
		FormulaVersion: formula.FormulaVersion,
		Timestamp:      time.Now().UTC(),
		Input:          in,
		Output:         output,
	}
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// Sink receives audit entries.
type Sink interface {
	Record(ctx context.Context, e Entry) error
	Close() error
}

// Nop discards entries.
type Nop struct{}

func (Nop) Record(context.Context, Entry) error { return nil }
func (Nop) Close() error                        { return nil }

type named struct {
	name string
	sink Sink
}

// Multi fans an entry out to several sinks, counting each write.
type Multi struct {
	sinks []named
}

// NewMulti builds a fan-out sink. Keys name the sinks in metrics.
func NewMulti() *Multi { return &Multi{} }

// Add registers a sink under name.
func (m *Multi) Add(name string, s Sink) *Multi {
	if s != nil {
		m.sinks = append(m.sinks, named{name: name, sink: s})
	}
	return m
}

// Len returns the number of sinks.
func (m *Multi) Len() int { return len(m.sinks) }

// Record writes to every sink and joins their errors.
func (m *Multi) Record(ctx context.Context, e Entry) error { //nolint:gocritic // hugeParam
	var errs []error
	for _, s := range m.sinks {
		if err := s.sink.Record(ctx, e); err != nil {
			metrics.RecordAuditWrite(s.name, "error")
			errs = append(errs, err)
			continue
		}
		metrics.RecordAuditWrite(s.name, "ok")
	}
	return errors.Join(errs...)
}

// Close closes every sink.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
