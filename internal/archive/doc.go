// Package archive writes assembled pages into their final container:
// a raw image directory, a CBZ archive, or a fixed-layout EPUB. The
// exporters satisfy the pipeline's Sink interface and receive pages in
// strictly increasing page order.
package archive
