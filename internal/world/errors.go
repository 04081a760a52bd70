package world

import "errors"

var (
	// ErrConfiguration marks malformed setup: unknown categories or kinds,
	// duplicate or empty handler registrations, a second player.
	ErrConfiguration = errors.New("configuration error")

	// ErrEntityNotFound is returned by direct registry operations on an ID
	// that is not live. Scheduled actions treat the same case as a no-op.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrInvariantViolation means the engine itself is wrong: a failing
	// collision handler or a registry/backend desync.
	ErrInvariantViolation = errors.New("invariant violation")
)
