package services

import "errors"

// Handlers map these to HTTP status codes.
var (
	ErrInvalid     = errors.New("invalid request")
	ErrNotFound    = errors.New("not found")
	ErrForbidden   = errors.New("forbidden")
	ErrBadParent   = errors.New("invalid parent message")
	ErrRateLimited = errors.New("rate limited")
	ErrTooLarge    = errors.New("payload too large")
)
