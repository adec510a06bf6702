package manifest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// Limits guarding against absurd manifests before any allocation happens.
// The largest real issues are a few hundred pages with single-digit grids.
const (
	maxPages         = 4096
	maxTilesPerPage  = 4096
	maxSaltLen       = 255
	maxLocatorLen    = 4096
	maxPageDimension = 16384
)

// Decode parses a binary manifest blob into a typed Manifest.
// It validates structure and semantics (grid completeness, unique tile
// positions, geometry) before returning; on any violation it returns a
// *ParseError and a nil Manifest.
func Decode(raw []byte) (*Manifest, error) {
	r := &reader{r: bytes.NewReader(raw)}

	var magic [4]byte
	r.bytes(magic[:])
	if r.err != nil {
		return nil, &ParseError{Page: -1, Reason: "missing header", Err: ErrTruncated}
	}
	if magic != Magic {
		return nil, &ParseError{Page: -1, Reason: fmt.Sprintf("bad magic %q", magic[:]), Err: ErrBadMagic}
	}

	version := r.uint16()
	flags := r.uint16()
	pageCount := r.uint32()
	if r.err != nil {
		return nil, &ParseError{Page: -1, Reason: "truncated header", Err: ErrTruncated}
	}
	if version != VersionExplicit && version != VersionScrambled {
		return nil, &ParseError{
			Page:   -1,
			Reason: fmt.Sprintf("version %d", version),
			Err:    ErrUnsupportedVersion,
		}
	}
	if pageCount == 0 || pageCount > maxPages {
		return nil, &ParseError{Page: -1, Reason: fmt.Sprintf("implausible page count %d", pageCount)}
	}

	m := &Manifest{
		Version:      version,
		HasChecksums: flags&flagChecksums != 0,
		Pages:        make([]PageSpec, 0, pageCount),
	}

	for i := 0; i < int(pageCount); i++ {
		page, err := decodePage(r, m.HasChecksums)
		if err != nil {
			return nil, err
		}
		if version == VersionExplicit && page.ScrambleSeed != 0 {
			return nil, &ParseError{
				Page:   page.Index,
				Reason: "scramble seed present in explicit-position manifest",
			}
		}
		if err := page.validate(); err != nil {
			return nil, err
		}
		m.Pages = append(m.Pages, *page)
	}

	if r.remaining() != 0 {
		return nil, &ParseError{Page: -1, Reason: fmt.Sprintf("%d trailing bytes", r.remaining())}
	}
	return m, nil
}

// decodePage parses a single page descriptor and its tiles.
func decodePage(r *reader, checksums bool) (*PageSpec, error) {
	index := r.uint32()
	width := r.uint32()
	height := r.uint32()
	rows := r.uint16()
	cols := r.uint16()
	overlap := r.uint16()
	cipher := r.uint8()
	scheme := r.uint8()
	seed := r.uint64()
	tileCount := r.uint32()
	if r.err != nil {
		return nil, &ParseError{Page: int(index), Reason: "truncated page header", Err: ErrTruncated}
	}
	if tileCount > maxTilesPerPage {
		return nil, &ParseError{Page: int(index), Reason: fmt.Sprintf("implausible tile count %d", tileCount)}
	}

	page := &PageSpec{
		Index:        int(index),
		Width:        int(width),
		Height:       int(height),
		Rows:         int(rows),
		Cols:         int(cols),
		Overlap:      int(overlap),
		Cipher:       CipherMode(cipher),
		KeyScheme:    scheme,
		ScrambleSeed: seed,
		Tiles:        make([]TileSpec, 0, tileCount),
	}

	for i := 0; i < int(tileCount); i++ {
		tile, err := decodeTile(r, page.Index, checksums)
		if err != nil {
			return nil, err
		}
		page.Tiles = append(page.Tiles, *tile)
	}
	return page, nil
}

// decodeTile parses one TileSpec.
func decodeTile(r *reader, page int, checksums bool) (*TileSpec, error) {
	tile := &TileSpec{}
	tile.Row = int(r.uint16())
	tile.Col = int(r.uint16())

	saltLen := r.uint8()
	if r.err == nil && saltLen > 0 {
		tile.Salt = make([]byte, saltLen)
		r.bytes(tile.Salt)
	}

	tile.Index = r.uint32()
	tile.Size = int(r.uint32())

	if checksums {
		tile.Checksum = make([]byte, checksumSize)
		r.bytes(tile.Checksum)
	}

	locatorLen := r.uint16()
	if locatorLen > maxLocatorLen {
		return nil, &ParseError{Page: page, Reason: fmt.Sprintf("implausible locator length %d", locatorLen)}
	}
	if r.err == nil && locatorLen > 0 {
		loc := make([]byte, locatorLen)
		r.bytes(loc)
		tile.Locator = string(loc)
	}

	if r.err != nil {
		return nil, &ParseError{Page: page, Reason: "truncated tile record", Err: ErrTruncated}
	}
	if tile.Locator == "" {
		return nil, &ParseError{Page: page, Reason: fmt.Sprintf("tile (%d,%d) has no locator", tile.Row, tile.Col)}
	}
	if tile.Size <= 0 {
		return nil, &ParseError{Page: page, Reason: fmt.Sprintf("tile (%d,%d) declares size %d", tile.Row, tile.Col, tile.Size)}
	}
	return tile, nil
}

// reader wraps sticky-error big-endian reads over a bytes.Reader.
// The first failure wins; subsequent reads are no-ops returning zero.
type reader struct {
	r   *bytes.Reader
	err error
}

func (r *reader) remaining() int { return r.r.Len() }

func (r *reader) bytes(dst []byte) {
	if r.err != nil {
		return
	}
	if _, err := io.ReadFull(r.r, dst); err != nil {
		r.err = ErrTruncated
	}
}

func (r *reader) uint8() uint8 {
	var b [1]byte
	r.bytes(b[:])
	return b[0]
}

func (r *reader) uint16() uint16 {
	var b [2]byte
	r.bytes(b[:])
	return binary.BigEndian.Uint16(b[:])
}

func (r *reader) uint32() uint32 {
	var b [4]byte
	r.bytes(b[:])
	return binary.BigEndian.Uint32(b[:])
}

func (r *reader) uint64() uint64 {
	var b [8]byte
	r.bytes(b[:])
	return binary.BigEndian.Uint64(b[:])
}
