package domain

import "errors"

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure, with no infrastructure dependency.

var (
	// Lookup errors
	ErrNotFound   = errors.New("not found")
	ErrNoActivity = errors.New("no activity to undo")

	// Input errors
	ErrInvalidAmount = errors.New("amount must be > 0")
	ErrInvalidInput  = errors.New("invalid input")

	// Undo errors
	ErrStaleUndo = errors.New("recent actions changed, refresh to undo latest")
)

// StaleUndoMessage is the user-facing text for ErrStaleUndo.
const StaleUndoMessage = "Recent actions changed. Refresh to undo latest."
