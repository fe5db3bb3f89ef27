// Package repository stores batch assessment records.
package repository

import (
	"context"

	"github.com/okian/tcd/internal/domain/formula"
	"github.com/okian/tcd/internal/domain/model"
)

// Store tracks the lifecycle of batch assessments.
type Store interface {
	// Create records a pending assessment. It returns ErrExists for a
	// known ID.
	Create(ctx context.Context, a model.Assessment) error

	// Complete stores a successful result.
	Complete(ctx context.Context, id string, res formula.Result) error

	// Fail stores the cause of a failed evaluation.
	Fail(ctx context.Context, id string, cause error) error

	// Delete forgets an assessment, used when it could not be enqueued.
	Delete(ctx context.Context, id string) error

	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Record, error)

	// List returns up to limit records, most recently submitted first.
	List(ctx context.Context, limit int) ([]model.Record, error)

	Count(ctx context.Context) int
}
