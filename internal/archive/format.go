package archive

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownFormat is returned for export format names that are not
// raw, cbz, or epub.
var ErrUnknownFormat = errors.New("archive: unknown export format")

// Format selects the archive container written per issue.
type Format uint8

const (
	// FormatRaw writes loose page images into a directory.
	FormatRaw Format = iota
	// FormatCBZ writes a single comic book zip archive.
	FormatCBZ
	// FormatEPUB writes a fixed-layout EPUB.
	FormatEPUB
)

// String returns the format name as used by the --export flag.
func (f Format) String() string {
	switch f {
	case FormatRaw:
		return "raw"
	case FormatCBZ:
		return "cbz"
	case FormatEPUB:
		return "epub"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(f))
	}
}

// ParseFormat parses an --export flag value.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raw":
		return FormatRaw, nil
	case "cbz":
		return FormatCBZ, nil
	case "epub":
		return FormatEPUB, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}
