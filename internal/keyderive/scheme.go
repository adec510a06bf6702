package keyderive

import (
	"sort"
	"sync"

	"github.com/noxpand/retile/internal/manifest"
)

// KeySize is the symmetric key length every scheme produces.
const KeySize = 32

// IVSize is the initialization vector length every scheme produces.
// AES-CBC consumes all 16 bytes; AES-GCM uses the first 12 as its nonce.
const IVSize = 16

// KeyMaterial is the derived key and IV for exactly one tile decryption.
// It is ephemeral: callers must not persist it beyond the decrypt call.
type KeyMaterial struct {
	// Key is the 32-byte symmetric key.
	Key []byte

	// IV is the 16-byte initialization vector.
	IV []byte
}

// Scheme derives key material for one tile from the session secret and
// the tile's manifest crypto fields.
//
// Implementations must be pure: no I/O, no logging, deterministic for
// identical inputs.
type Scheme interface {
	// ID returns the scheme id manifests reference.
	ID() uint8

	// Name returns a short human-readable scheme name.
	Name() string

	// Derive computes the key material for one tile.
	Derive(secret []byte, spec manifest.TileSpec) (KeyMaterial, error)
}

// registry maps scheme ids to implementations. Built-in schemes register
// themselves in init; external schemes may be added before pipeline use.
var (
	registryMu sync.RWMutex
	registry   = make(map[uint8]Scheme)
)

// Register adds a scheme to the registry. Registering a second scheme
// under an already-used id replaces the first; the last registration wins.
func Register(s Scheme) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[s.ID()] = s
}

// Lookup returns the scheme registered under id, or a *DerivationError
// wrapping ErrUnknownScheme when no strategy is registered for it.
func Lookup(id uint8) (Scheme, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	s, ok := registry[id]
	if !ok {
		return nil, &DerivationError{SchemeID: id, Err: ErrUnknownScheme}
	}
	return s, nil
}

// RegisteredIDs returns the ids of all registered schemes in ascending
// order. Used by diagnostics output.
func RegisteredIDs() []uint8 {
	registryMu.RLock()
	defer registryMu.RUnlock()
	ids := make([]uint8, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func init() {
	Register(cmx1Scheme{})
	Register(hkdf1Scheme{})
}
