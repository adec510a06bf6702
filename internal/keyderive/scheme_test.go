package keyderive

import (
	"bytes"
	"errors"
	"testing"

	"github.com/noxpand/retile/internal/manifest"
)

var testSpec = manifest.TileSpec{
	Row:     1,
	Col:     0,
	Salt:    []byte{0x01, 0x02, 0x03, 0x04},
	Index:   7,
	Size:    1024,
	Locator: "issues/1001/p0/t10",
}

// TestLookup tests the scheme registry.
func TestLookup(t *testing.T) {
	t.Parallel()

	t.Run("built-in schemes registered", func(t *testing.T) {
		t.Parallel()

		for _, id := range []uint8{1, 2} {
			s, err := Lookup(id)
			if err != nil {
				t.Fatalf("Lookup(%d) error: %v", id, err)
			}
			if s.ID() != id {
				t.Errorf("Lookup(%d).ID() = %d", id, s.ID())
			}
		}
	})

	t.Run("unknown scheme", func(t *testing.T) {
		t.Parallel()

		_, err := Lookup(99)
		if !errors.Is(err, ErrUnknownScheme) {
			t.Fatalf("error = %v, want ErrUnknownScheme", err)
		}
		var derr *DerivationError
		if !errors.As(err, &derr) || derr.SchemeID != 99 {
			t.Errorf("error = %v, want *DerivationError with SchemeID 99", err)
		}
	})
}

// TestDeriveDeterministic tests that every scheme is a pure function of
// its inputs and that distinct inputs diverge.
func TestDeriveDeterministic(t *testing.T) {
	t.Parallel()

	secret := []byte("device-secret-0123456789abcdef")

	for _, id := range RegisteredIDs() {
		t.Run(mustLookup(t, id).Name(), func(t *testing.T) {
			t.Parallel()
			s := mustLookup(t, id)

			km1, err := s.Derive(secret, testSpec)
			if err != nil {
				t.Fatalf("Derive() error: %v", err)
			}
			km2, err := s.Derive(secret, testSpec)
			if err != nil {
				t.Fatalf("Derive() error: %v", err)
			}

			if !bytes.Equal(km1.Key, km2.Key) || !bytes.Equal(km1.IV, km2.IV) {
				t.Error("identical inputs produced different key material")
			}
			if len(km1.Key) != KeySize {
				t.Errorf("key length = %d, want %d", len(km1.Key), KeySize)
			}
			if len(km1.IV) != IVSize {
				t.Errorf("iv length = %d, want %d", len(km1.IV), IVSize)
			}

			// A different tile index must derive different material.
			other := testSpec
			other.Index = testSpec.Index + 1
			km3, err := s.Derive(secret, other)
			if err != nil {
				t.Fatalf("Derive() error: %v", err)
			}
			if bytes.Equal(km1.Key, km3.Key) {
				t.Error("different tile indexes derived the same key")
			}

			// A different secret must derive different material.
			km4, err := s.Derive([]byte("another-secret"), testSpec)
			if err != nil {
				t.Fatalf("Derive() error: %v", err)
			}
			if bytes.Equal(km1.Key, km4.Key) {
				t.Error("different secrets derived the same key")
			}
		})
	}
}

// TestDeriveEmptySecret tests that schemes refuse an empty session secret.
func TestDeriveEmptySecret(t *testing.T) {
	t.Parallel()

	for _, id := range RegisteredIDs() {
		s := mustLookup(t, id)
		if _, err := s.Derive(nil, testSpec); !errors.Is(err, ErrEmptySecret) {
			t.Errorf("scheme %d: error = %v, want ErrEmptySecret", id, err)
		}
	}
}

// TestMirrorExpand tests the legacy expansion primitive.
func TestMirrorExpand(t *testing.T) {
	t.Parallel()

	got := mirrorExpand([]byte{1, 2, 3})
	want := []byte{1, 2, 3, 3, 2, 1}
	if !bytes.Equal(got, want) {
		t.Errorf("mirrorExpand() = %v, want %v", got, want)
	}
}

func mustLookup(t *testing.T, id uint8) Scheme {
	t.Helper()
	s, err := Lookup(id)
	if err != nil {
		t.Fatalf("Lookup(%d) error: %v", id, err)
	}
	return s
}
