// Package model defines the core data structures used throughout retile.
//
// This package contains the following main types:
//   - Issue: Catalog metadata for a purchasable comic issue
//   - Comic: A downloadable comic with its protection parameters
//   - AssembledPage: A fully reconstructed page raster
//   - RunSummary: The outcome of one pipeline run, including per-page failures
//
// Models live in their own package to avoid circular dependencies: the
// pipeline, storefront, archive, and report packages all need these types.
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
