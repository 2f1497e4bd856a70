package services

import "errors"

// Domain errors surfaced across the service boundary. Controllers map them
// to HTTP statuses; anything else is an internal error.
var (
	// ErrNotFound covers missing, foreign-owned and purged entities alike,
	// so ownership is never leaked through error shape.
	ErrNotFound = errors.New("not found")
	// ErrQuotaExceeded rejects a reservation that would push used past limit.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrCycleDetected rejects a move that would make a folder its own
	// ancestor.
	ErrCycleDetected = errors.New("move would create a cycle")
	// ErrNotEmpty rejects destroying a folder that still has live children.
	ErrNotEmpty = errors.New("folder is not empty")
	// ErrInvalidState rejects a lifecycle transition from a terminal state.
	ErrInvalidState = errors.New("invalid state transition")
	// ErrDependencyUnavailable wraps failures of the blob store or payment
	// gateway; the mutation that needed them is never half-applied.
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	// ErrConflict is returned once optimistic retries are exhausted.
	ErrConflict = errors.New("concurrent modification conflict")
	// ErrValidation covers malformed caller input.
	ErrValidation = errors.New("validation failed")
)
