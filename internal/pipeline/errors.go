package pipeline

import "fmt"

// FatalError marks an error that aborts the entire run, not just one
// page: unknown key-derivation schemes, session secret failures, and
// sink write failures. The errgroup context cancellation tears down all
// in-flight page work when one surfaces.
type FatalError struct {
	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("pipeline: run aborted: %v", e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *FatalError) Unwrap() error { return e.Err }

// transienter is the shape of fetch errors that may succeed on retry.
// The fetch collaborator's error type implements it; the orchestrator
// only ever inspects it through errors.As.
type transienter interface {
	Transient() bool
}
