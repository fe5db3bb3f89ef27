package api

import (
	"errors"
	"fmt"
	"net/http"

	service "github.com/okian/tcd/internal/app"
	"github.com/okian/tcd/internal/domain/formula"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")

	errMissingDrivers  = errors.New("missing drivers")
	errNegativeSamples = errors.New("samples must not be negative")
	errInvalidLimit    = errors.New("limit must be a positive integer")
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeInvalidFinancial = "invalid_financial_input"
	codeInvalidDriver    = "invalid_driver_score"
	codeNotFound         = "not_found"
	codeBackpressure     = "backpressure"
	codeUnavailable      = "unavailable"
	codeInternal         = "internal_error"
)

// KindError attaches the failing operation and an error kind to a cause.
type KindError struct {
	Op   string
	Kind error
	Err  error
}

func (e *KindError) Error() string {
	switch {
	case e.Kind == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

// Unwrap exposes both the kind and the cause to errors.Is.
func (e *KindError) Unwrap() []error {
	var out []error
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// NewKind returns an error of kind raised by op.
func NewKind(op string, kind error) error {
	return &KindError{Op: op, Kind: kind}
}

// WrapKind wraps err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &KindError{Op: op, Kind: kind, Err: err}
}

// Wrap wraps err with op, keeping its kind.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &KindError{Op: op, Err: err}
}

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, formula.ErrInvalidFinancialInput):
		return http.StatusBadRequest, codeInvalidFinancial
	case errors.Is(err, formula.ErrInvalidDriverScore):
		return http.StatusBadRequest, codeInvalidDriver
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidRequest):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, service.ErrBackpressure):
		return http.StatusTooManyRequests, codeBackpressure
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeUnavailable
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
