package manifest

import (
	"errors"
	"fmt"
)

// Sentinel parse failures usable with errors.Is.
var (
	// ErrBadMagic is returned when the blob does not start with the
	// manifest magic bytes.
	ErrBadMagic = errors.New("manifest: bad magic")

	// ErrUnsupportedVersion is returned when the version tag names a
	// format this decoder does not implement.
	ErrUnsupportedVersion = errors.New("manifest: unsupported format version")

	// ErrTruncated is returned when the blob ends before a declared
	// field could be read.
	ErrTruncated = errors.New("manifest: truncated input")
)

// ParseError reports a malformed or semantically incomplete manifest.
// It is fatal for the whole page-set: a manifest that fails to decode is
// never partially used.
type ParseError struct {
	// Page is the page index being decoded when the failure occurred,
	// or -1 for failures in the manifest header.
	Page int

	// Reason describes what was wrong.
	Reason string

	// Err carries an underlying sentinel or I/O error, if any.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Page >= 0 {
		return fmt.Sprintf("manifest: page %d: %s", e.Page, e.Reason)
	}
	return fmt.Sprintf("manifest: %s", e.Reason)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ParseError) Unwrap() error { return e.Err }
