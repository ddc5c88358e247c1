package store

import "errors"

// Sentinel errors for persistence failure modes.
// Callers should use errors.Is() to check for these.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict indicates a concurrent upsert raced on the same
	// identity key. Merge callers retry it transparently; it must never
	// surface as a scan failure when the retry succeeds.
	ErrConflict = errors.New("store: conflict")

	// ErrIllegalTransition indicates a scan status update that would
	// regress the lifecycle.
	ErrIllegalTransition = errors.New("store: illegal status transition")
)
