package storefront

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotAuthenticated is returned when an operation requires a session
// and no credentials or cached token are available.
var ErrNotAuthenticated = errors.New("storefront: not authenticated")

// ErrItemNotFound is returned when the storefront does not know the
// requested item id.
var ErrItemNotFound = errors.New("storefront: item not found")

// AuthError reports a login or token refresh failure. Authentication
// failures are fatal for the whole run.
type AuthError struct {
	// Op names the failing operation ("login", "refresh").
	Op string

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("storefront: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *AuthError) Unwrap() error { return e.Err }

// FetchError reports a failed tile or catalog fetch.
type FetchError struct {
	// Locator is the resource that failed.
	Locator string

	// StatusCode is the HTTP status, or 0 for network-level failures.
	StatusCode int

	// Err is the underlying cause, nil for pure status failures.
	Err error

	// Permanent marks failures no retry can fix regardless of status,
	// such as an oversized response body.
	Permanent bool
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("storefront: fetch %q: status %d", e.Locator, e.StatusCode)
	}
	return fmt.Sprintf("storefront: fetch %q: %v", e.Locator, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *FetchError) Unwrap() error { return e.Err }

// Transient reports whether retrying the fetch may succeed. Network
// failures, server errors, and throttling are transient; client errors
// are permanent.
func (e *FetchError) Transient() bool {
	if e.Permanent {
		return false
	}
	if e.StatusCode == 0 {
		return true
	}
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return true
	}
	return e.StatusCode >= 500
}
