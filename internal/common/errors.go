// Package common defines shared constants and sentinel errors used across
// client and server layers of Wayfare. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Request-level errors, surfaced verbatim and never retried.
	ErrValidation       = errors.New("validation error")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrUnsupportedMedia = errors.New("unsupported media")

	// ErrAborted marks a client-canceled upload. It is not a real failure:
	// the queue swallows it and simply advances.
	ErrAborted = errors.New("upload aborted")

	// ErrInternal covers everything else.
	ErrInternal = errors.New("internal error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
