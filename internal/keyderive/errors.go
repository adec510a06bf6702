package keyderive

import (
	"errors"
	"fmt"
)

// ErrUnknownScheme is returned when a manifest declares a key-derivation
// scheme id that has no registered strategy. This is fatal for the whole
// page-set: no tile of it can be decrypted.
var ErrUnknownScheme = errors.New("keyderive: no strategy registered for scheme")

// ErrEmptySecret is returned when the session secret is empty.
var ErrEmptySecret = errors.New("keyderive: empty session secret")

// DerivationError reports a key-derivation failure for a scheme id.
type DerivationError struct {
	// SchemeID is the manifest-declared scheme id.
	SchemeID uint8

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *DerivationError) Error() string {
	return fmt.Sprintf("keyderive: scheme %d: %v", e.SchemeID, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *DerivationError) Unwrap() error { return e.Err }
