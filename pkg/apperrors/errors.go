// Package apperrors defines the sentinel errors shared across the engine.
//
// The taxonomy matters for callers: validation and state errors are the
// caller's fault and map to 4xx responses; alias conflicts abort review
// transitions with nothing changed; degraded-oracle errors never leave the
// matcher/submission boundary — they trigger the documented fallback instead.
package apperrors

import "errors"

var (
	// ErrValidation indicates bad or missing caller input. Never retried.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState indicates a review transition was attempted on an
	// item that is no longer pending. The UI should refresh its queue.
	ErrInvalidState = errors.New("item is not pending")

	// ErrAliasConflict indicates a merge would hand an alias to a contractor
	// while a third contractor already owns it. The whole transition aborts.
	ErrAliasConflict = errors.New("alias already owned by another contractor")

	// ErrOracleDegraded indicates the fuzzy-matching oracle failed or
	// returned unparsable output. Internal only: callers of the matcher and
	// submission services see the fallback behavior, never this error.
	ErrOracleDegraded = errors.New("oracle analysis degraded")
)
