// Package assemble reconstructs page rasters from decrypted tiles.
//
// Tiles reach the assembler in whatever order they were fetched and
// decrypted; their true grid position comes from the manifest, never from
// arrival order. For scrambled manifests the storage-to-true position
// mapping is recovered by replaying the storefront's seeded shuffle.
// Assembly is pure: it knows nothing about cryptography or network I/O,
// and it refuses to produce a page unless every grid cell is filled and
// the stitched raster matches the declared page size exactly.
package assemble
