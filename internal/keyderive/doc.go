// Package keyderive computes per-tile decryption key material.
//
// The storefront's derivation formulas are reverse-engineered and
// versioned, so they are modeled as registered Scheme strategies keyed by
// the manifest's scheme id rather than hard-coded. Every scheme is a pure
// function of the session secret and the tile's crypto fields: identical
// inputs always produce identical key material, and the secret is never
// logged, persisted, or retained past the call.
package keyderive
