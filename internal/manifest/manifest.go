package manifest

import "fmt"

// Magic identifies a retile manifest blob.
var Magic = [4]byte{'C', 'M', 'X', 'M'}

// Supported format versions.
const (
	// VersionExplicit is the original format: tile positions are stored
	// explicitly and are authoritative.
	VersionExplicit uint16 = 1

	// VersionScrambled adds the per-page scramble seed: tile positions
	// are stored in storage order and the true grid position is derived
	// by inverting the seeded shuffle.
	VersionScrambled uint16 = 2
)

// flagChecksums marks manifests carrying per-tile ciphertext checksums.
const flagChecksums uint16 = 1 << 0

// checksumSize is the size of a per-tile SHA-256 ciphertext checksum.
const checksumSize = 32

// CipherMode selects the tile encryption mode declared by a manifest.
type CipherMode uint8

const (
	// CipherAESGCM is AES-256-GCM: authenticated, no separate plaintext check.
	CipherAESGCM CipherMode = 1
	// CipherAESCBC is AES-256-CBC with PKCS#7 padding; integrity relies on
	// the per-tile ciphertext checksum when present.
	CipherAESCBC CipherMode = 2
)

// String returns a human-readable cipher mode name.
func (m CipherMode) String() string {
	switch m {
	case CipherAESGCM:
		return "aes-256-gcm"
	case CipherAESCBC:
		return "aes-256-cbc"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(m))
	}
}

// valid reports whether the mode is one the decryptor implements.
func (m CipherMode) valid() bool {
	return m == CipherAESGCM || m == CipherAESCBC
}

// Manifest is the typed description of one page-set (a comic issue).
// It is immutable once decoded.
type Manifest struct {
	// Version is the manifest format version tag.
	Version uint16

	// HasChecksums reports whether tiles carry ciphertext checksums.
	// Some manifest versions omit them; the decryptor degrades its
	// corruption detection accordingly instead of silently skipping it.
	HasChecksums bool

	// Pages lists page descriptors in requested emission order.
	Pages []PageSpec
}

// PageSpec describes how one page was fragmented and encrypted.
type PageSpec struct {
	// Index is the page position within the issue, 0-based.
	Index int

	// Width and Height are the final page raster dimensions in pixels.
	Width, Height int

	// Rows and Cols define the tile grid.
	Rows, Cols int

	// Overlap is the number of pixels shared by adjacent tiles along
	// each interior edge. The assembler trims it to avoid seams.
	Overlap int

	// Cipher is the tile encryption mode.
	Cipher CipherMode

	// KeyScheme selects the registered key-derivation strategy.
	KeyScheme uint8

	// ScrambleSeed, when non-zero, seeds the tile-order shuffle that the
	// storefront applied. Zero means tile positions are authoritative.
	ScrambleSeed uint64

	// Tiles lists one spec per grid cell.
	Tiles []TileSpec
}

// TileSpec describes a single encrypted tile. Immutable.
type TileSpec struct {
	// Row and Col give the tile's grid position. For scrambled pages
	// this is the storage position, not the true one.
	Row, Col int

	// Salt is the per-tile cipher salt fed to key derivation.
	Salt []byte

	// Index is the per-tile cipher index fed to key derivation.
	Index uint32

	// Size is the expected plaintext size in bytes.
	Size int

	// Checksum is the SHA-256 of the ciphertext, or nil when the
	// manifest version omits checksums.
	Checksum []byte

	// Locator is the opaque fetch locator handed to the fetch collaborator.
	Locator string
}

// TileWidth returns the width in pixels of each tile on the page.
func (p *PageSpec) TileWidth() int {
	return (p.Width + (p.Cols-1)*p.Overlap) / p.Cols
}

// TileHeight returns the height in pixels of each tile on the page.
func (p *PageSpec) TileHeight() int {
	return (p.Height + (p.Rows-1)*p.Overlap) / p.Rows
}

// validate checks the semantic invariants of a decoded page:
// the declared tile count matches the grid, every position is unique,
// the grid is fully covered, and the tile geometry divides the page.
func (p *PageSpec) validate() error {
	if p.Rows <= 0 || p.Cols <= 0 {
		return &ParseError{Page: p.Index, Reason: fmt.Sprintf("invalid grid %dx%d", p.Rows, p.Cols)}
	}
	if p.Width <= 0 || p.Height <= 0 {
		return &ParseError{Page: p.Index, Reason: fmt.Sprintf("invalid page size %dx%d", p.Width, p.Height)}
	}
	if p.Width > maxPageDimension || p.Height > maxPageDimension {
		// The raster buffer is allocated from these fields, so they are
		// bounded here before any page work starts.
		return &ParseError{Page: p.Index, Reason: fmt.Sprintf("page size %dx%d exceeds %d px limit", p.Width, p.Height, maxPageDimension)}
	}
	if !p.Cipher.valid() {
		return &ParseError{Page: p.Index, Reason: fmt.Sprintf("unsupported cipher mode %d", p.Cipher)}
	}
	if want := p.Rows * p.Cols; len(p.Tiles) != want {
		return &ParseError{
			Page:   p.Index,
			Reason: fmt.Sprintf("tile count %d does not match %dx%d grid", len(p.Tiles), p.Rows, p.Cols),
		}
	}
	if (p.Width+(p.Cols-1)*p.Overlap)%p.Cols != 0 {
		return &ParseError{Page: p.Index, Reason: "tile width does not divide page width"}
	}
	if (p.Height+(p.Rows-1)*p.Overlap)%p.Rows != 0 {
		return &ParseError{Page: p.Index, Reason: "tile height does not divide page height"}
	}

	seen := make(map[int]bool, len(p.Tiles))
	for _, tile := range p.Tiles {
		if tile.Row < 0 || tile.Row >= p.Rows || tile.Col < 0 || tile.Col >= p.Cols {
			return &ParseError{
				Page:   p.Index,
				Reason: fmt.Sprintf("tile position (%d,%d) outside %dx%d grid", tile.Row, tile.Col, p.Rows, p.Cols),
			}
		}
		cell := tile.Row*p.Cols + tile.Col
		if seen[cell] {
			return &ParseError{
				Page:   p.Index,
				Reason: fmt.Sprintf("duplicate tile position (%d,%d)", tile.Row, tile.Col),
			}
		}
		seen[cell] = true
	}
	// len(Tiles) == Rows*Cols and all positions unique, so coverage is total.
	return nil
}
