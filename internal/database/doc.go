// Package database provides the SQLite-backed library: which issues
// have been exported, their per-page digests, and past run summaries.
// It drives the "already downloaded" skip in bulk downloads and the
// downloaded-state annotation in catalog listings.
package database
