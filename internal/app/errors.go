package service

import "errors"

// Sentinel errors returned by the service.
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrBackpressure   = errors.New("assessment queue is full")
	ErrNotStarted     = errors.New("batch scoring is not running")
	ErrNotFound       = errors.New("assessment not found")
)
