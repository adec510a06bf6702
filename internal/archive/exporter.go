package archive

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/noxpand/retile/internal/model"
)

// jpegQuality is the encoder quality for JPEG page output. 90 keeps
// compression artifacts below what the storefront's own sources show.
const jpegQuality = 90

// Exporter consumes assembled pages and writes the final container.
// WritePage is called once per page in strictly increasing page order;
// Close finalizes the container and must be called exactly once.
type Exporter interface {
	WritePage(ctx context.Context, page *model.AssembledPage) error
	Close() error

	// Path returns the container path (file or directory).
	Path() string
}

// Options configures an exporter.
type Options struct {
	// PNG selects lossless PNG page encoding instead of JPEG.
	PNG bool
}

// New creates the exporter for the chosen format. The container is named
// after the comic's release name inside outputDir.
func New(format Format, comic *model.Comic, outputDir string, opts Options) (Exporter, error) {
	switch format {
	case FormatRaw:
		return newRawExporter(comic, outputDir, opts)
	case FormatCBZ:
		return newCBZExporter(comic, outputDir, opts)
	case FormatEPUB:
		return newEPUBExporter(comic, outputDir, opts)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownFormat, format)
	}
}

// Exists reports whether the container for this comic and format is
// already present in outputDir. Used for already-downloaded skips.
func Exists(format Format, comic *model.Comic, outputDir string) bool {
	switch format {
	case FormatRaw:
		return rawExists(comic, outputDir)
	case FormatCBZ:
		return fileExists(cbzPath(comic, outputDir))
	case FormatEPUB:
		return fileExists(epubPath(comic, outputDir))
	default:
		return false
	}
}

// encodePage serializes a page raster, returning the bytes and the file
// extension (without dot).
func encodePage(img *image.RGBA, usePNG bool) ([]byte, string, error) {
	var buf bytes.Buffer
	if usePNG {
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", fmt.Errorf("encode png: %w", err)
		}
		return buf.Bytes(), "png", nil
	}
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, "", fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), "jpg", nil
}

// pageFileName names one page image inside the container, matching the
// "release - pNNN.ext" convention of existing tooling.
func pageFileName(comic *model.Comic, index int, ext string) string {
	return fmt.Sprintf("%s - p%03d.%s", comic.ReleaseName(), index, ext)
}
