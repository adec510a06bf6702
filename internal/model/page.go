package model

import "image"

// AssembledPage is a fully reconstructed page raster. It is the terminal
// artifact of the protection-reversal pipeline and is handed to an archive
// sink in page order.
//
// The raster is only ever produced when every tile of the page decrypted
// and validated successfully; a partially assembled page never exists.
type AssembledPage struct {
	// Index is the page position within the issue, 0-based. Pages are
	// emitted downstream in strictly increasing index order.
	Index int

	// Image is the stitched full-resolution raster.
	Image *image.RGBA
}
