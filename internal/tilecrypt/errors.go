package tilecrypt

import (
	"errors"
	"fmt"
)

// Kind classifies a decrypt failure so callers can pick a recovery.
type Kind int

const (
	// KindCorrupt means the ciphertext itself is damaged; re-fetching
	// the tile may produce intact bytes.
	KindCorrupt Kind = iota + 1

	// KindWrongKey means the ciphertext is intact but the derived key
	// does not open it. Retrying cannot help; the page fails.
	KindWrongKey
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindCorrupt:
		return "corrupt input"
	case KindWrongKey:
		return "wrong key"
	default:
		return "unknown"
	}
}

// ErrBadKeyMaterial is returned when the key material has the wrong shape.
var ErrBadKeyMaterial = errors.New("tilecrypt: malformed key material")

// DecryptError reports a failed tile decryption with its classification.
type DecryptError struct {
	// Kind tells the caller whether a re-fetch can help.
	Kind Kind

	// Reason describes the specific check that failed.
	Reason string
}

// Error implements the error interface.
func (e *DecryptError) Error() string {
	return fmt.Sprintf("tilecrypt: %s: %s", e.Kind, e.Reason)
}

// Retryable reports whether re-fetching the ciphertext may succeed.
func (e *DecryptError) Retryable() bool { return e.Kind == KindCorrupt }
