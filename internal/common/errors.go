// Package common defines shared constants and sentinel errors used across
// FileVault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrStateConflict = errors.New("state conflict")

	// Policy / admission errors.
	ErrQuotaExceeded = errors.New("quota exceeded")
	ErrValidation    = errors.New("validation error")

	// Authorization outcomes.
	ErrForbidden = errors.New("forbidden")

	// Readiness / lifecycle outcomes.
	ErrNotReady    = errors.New("file not ready")
	ErrFileCorrupt = errors.New("file corrupt")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
