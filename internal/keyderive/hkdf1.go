package keyderive

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/noxpand/retile/internal/manifest"
)

// hkdf1Scheme is the current storefront derivation: HKDF-SHA256 keyed by
// the session secret, salted with the per-tile salt, with the tile locator
// and index bound into the info string so no two tiles ever share key
// material.
type hkdf1Scheme struct{}

// ID implements Scheme.
func (hkdf1Scheme) ID() uint8 { return 2 }

// Name implements Scheme.
func (hkdf1Scheme) Name() string { return "hkdf1" }

// Derive implements Scheme.
func (hkdf1Scheme) Derive(secret []byte, spec manifest.TileSpec) (KeyMaterial, error) {
	if len(secret) == 0 {
		return KeyMaterial{}, &DerivationError{SchemeID: 2, Err: ErrEmptySecret}
	}

	info := make([]byte, 0, len(spec.Locator)+12)
	info = append(info, "retile/tile/"...)
	info = append(info, spec.Locator...)
	info = binary.BigEndian.AppendUint32(info, spec.Index)

	r := hkdf.New(sha256.New, secret, spec.Salt, info)
	out := make([]byte, KeySize+IVSize)
	if _, err := io.ReadFull(r, out); err != nil {
		return KeyMaterial{}, &DerivationError{SchemeID: 2, Err: fmt.Errorf("hkdf expand: %w", err)}
	}
	return KeyMaterial{Key: out[:KeySize], IV: out[KeySize:]}, nil
}
