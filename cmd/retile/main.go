// Package main provides the entry point for the retile CLI.
//
// Retile reconstructs readable comic pages from tiled, encrypted
// storefront downloads of content you own. It decodes the page manifest,
// derives the tile keys for your session, decrypts and reassembles the
// tiles, and writes the pages into a raw directory, CBZ, or EPUB archive.
//
// Usage:
//
//	retile list
//	retile dl <issue-id>...
//	retile dlall
//
// See --help for all available options.
package main

// main is the entry point for retile.
func main() {
	Execute()
}
