package repository

import "errors"

// Sentinel kinds for result store errors.
var (
	ErrNotFound     = errors.New("assessment not found")
	ErrExists       = errors.New("assessment already exists")
	ErrInvalidLimit = errors.New("invalid list limit")
)
