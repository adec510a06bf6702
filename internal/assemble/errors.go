package assemble

import "fmt"

// Error reports a failed page assembly. It always indicates an upstream
// inconsistency (missing tile, wrong tile dimensions) and is surfaced to
// the caller rather than patched over: a partial or padded page is never
// produced.
type Error struct {
	// Page is the page index being assembled.
	Page int

	// Reason describes the violated invariant.
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("assemble: page %d: %s", e.Page, e.Reason)
}
