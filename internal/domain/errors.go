package domain

import "errors"

// Request-scoped failure taxonomy. Every service operation returns one of
// these (possibly wrapped); none is fatal to the process.
var (
	// ErrNoInventory: no free locker of the requested size at the location.
	// Retryable only by the user picking another size or location.
	ErrNoInventory = errors.New("no inventory available")

	// ErrInvalidState: a transition was attempted from the wrong state,
	// usually a client replay or the losing side of a race. Surfaced, never
	// silently ignored.
	ErrInvalidState = errors.New("invalid state for requested transition")

	// ErrCapacityExceeded: reservation would overbook a (location, size, date).
	ErrCapacityExceeded = errors.New("reservation capacity exceeded")

	// ErrConflict: a conditional update lost its race. Callers re-read once
	// and then treat it as ErrNoInventory rather than retrying indefinitely.
	ErrConflict = errors.New("persistence conflict")

	// ErrTimeout: a storage call exceeded its deadline.
	ErrTimeout = errors.New("persistence timeout")

	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("invalid request")
)
