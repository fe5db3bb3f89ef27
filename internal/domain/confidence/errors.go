package confidence

import "errors"

var (
	// ErrInvalidSampleCount is returned when fewer than two samples are requested.
	ErrInvalidSampleCount = errors.New("sample count must be at least 2")
	// ErrInvalidRange is returned for an empty, inverted or non-finite coefficient range.
	ErrInvalidRange = errors.New("invalid coefficient range")
	// ErrInvalidWorkers is returned for a non-positive worker count.
	ErrInvalidWorkers = errors.New("worker count must be positive")
)
