// Package manifest decodes the storefront's binary page-set manifest.
//
// A manifest describes, for every page of an issue, how the page raster was
// split into encrypted tiles: the grid geometry, the cipher mode, the
// key-derivation scheme, an optional tile-order scramble seed, and one
// TileSpec per tile carrying its fetch locator and crypto parameters.
//
// Decoding is a pure transform from bytes to an immutable Manifest. A
// structurally valid manifest whose tile set does not fully cover the page
// grid is rejected with a *ParseError rather than silently accepted.
// Encoding is supported and round-trips losslessly for every field the
// pipeline reads.
package manifest
