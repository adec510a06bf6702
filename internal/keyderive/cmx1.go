package keyderive

import (
	"crypto/md5" //nolint:gosec // Part of the storefront's derivation formula, not used for security.
	"crypto/sha256"
	"encoding/hex"
	"strconv"

	"golang.org/x/crypto/pbkdf2"

	"github.com/noxpand/retile/internal/manifest"
)

// cmx1Iterations is the PBKDF2 round count applied to the mixed seed.
const cmx1Iterations = 4096

// cmx1Scheme is the original storefront derivation formula, recovered from
// the legacy client: the session secret, per-tile salt, and tile index are
// mixed through a mirror-expand / xor / double-MD5 chain, and the result
// is stretched with PBKDF2-SHA256 into the final key.
type cmx1Scheme struct{}

// ID implements Scheme.
func (cmx1Scheme) ID() uint8 { return 1 }

// Name implements Scheme.
func (cmx1Scheme) Name() string { return "cmx1" }

// Derive implements Scheme.
func (cmx1Scheme) Derive(secret []byte, spec manifest.TileSpec) (KeyMaterial, error) {
	if len(secret) == 0 {
		return KeyMaterial{}, &DerivationError{SchemeID: 1, Err: ErrEmptySecret}
	}

	seed := cmx1Mix(secret, spec.Salt, spec.Index)
	key := pbkdf2.Key(seed, spec.Salt, cmx1Iterations, KeySize, sha256.New)

	ivInput := make([]byte, 0, len(seed)+len(spec.Salt))
	ivInput = append(ivInput, seed...)
	ivInput = append(ivInput, spec.Salt...)
	ivSum := sha256.Sum256(ivInput)

	return KeyMaterial{Key: key, IV: ivSum[:IVSize]}, nil
}

// cmx1Mix reproduces the legacy client's seed construction byte for byte.
func cmx1Mix(secret, salt []byte, index uint32) []byte {
	factor := uint64(index) * uint64(len(salt)+1)

	data := make([]byte, 0, 2*len(secret)+len(salt)+24)
	data = append(data, byte('0'+index%10))
	data = append(data, reverseBytes(secret)...)
	data = strconv.AppendUint(data, factor, 10)
	data = append(data, salt...)
	data = append(data, secret...)

	e := mirrorExpand(data)
	x := byte(index % 256)
	for i := range e {
		e[i] ^= x
	}

	a := md5hex(e)
	b := md5hex(reverseBytes(e))
	return append(a, b...)
}

// mirrorExpand doubles the input, filling the second half with the first
// half read backwards.
func mirrorExpand(data []byte) []byte {
	n := len(data)
	out := make([]byte, 2*n)
	copy(out, data)
	for i, j := 2*n-1, 0; i >= n; i, j = i-1, j+1 {
		out[i] = data[j]
	}
	return out
}

// reverseBytes returns a reversed copy of the input.
func reverseBytes(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[len(data)-1-i] = b
	}
	return out
}

// md5hex returns the lowercase hex MD5 digest of data.
func md5hex(data []byte) []byte {
	sum := md5.Sum(data) //nolint:gosec // Formula fidelity, not security.
	out := make([]byte, hex.EncodedLen(len(sum)))
	hex.Encode(out, sum[:])
	return out
}
