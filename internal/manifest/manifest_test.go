package manifest

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"testing"
)

// testManifest builds a valid two-page manifest for decoder tests.
func testManifest(checksums bool) *Manifest {
	m := &Manifest{
		Version:      VersionScrambled,
		HasChecksums: checksums,
	}
	for p := 0; p < 2; p++ {
		page := PageSpec{
			Index:        p,
			Width:        800,
			Height:       1200,
			Rows:         2,
			Cols:         2,
			Overlap:      0,
			Cipher:       CipherAESGCM,
			KeyScheme:    1,
			ScrambleSeed: 0xDEADBEEF,
		}
		for row := 0; row < 2; row++ {
			for col := 0; col < 2; col++ {
				tile := TileSpec{
					Row:     row,
					Col:     col,
					Salt:    []byte{byte(p), byte(row), byte(col), 0x42},
					Index:   uint32(row*2 + col),
					Size:    1024,
					Locator: fmt.Sprintf("issues/1001/p%d/t%d%d", p, row, col),
				}
				if checksums {
					sum := sha256.Sum256([]byte(tile.Locator))
					tile.Checksum = sum[:]
				}
				page.Tiles = append(page.Tiles, tile)
			}
		}
		m.Pages = append(m.Pages, page)
	}
	return m
}

// TestDecodeRoundTrip tests that encoding then decoding is lossless for
// every field the pipeline reads.
func TestDecodeRoundTrip(t *testing.T) {
	t.Parallel()

	for _, checksums := range []bool{true, false} {
		t.Run(fmt.Sprintf("checksums=%v", checksums), func(t *testing.T) {
			t.Parallel()

			want := testManifest(checksums)
			raw, err := Encode(want)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}

			got, err := Decode(raw)
			if err != nil {
				t.Fatalf("Decode() error: %v", err)
			}

			if got.Version != want.Version || got.HasChecksums != want.HasChecksums {
				t.Errorf("header mismatch: got %+v", got)
			}
			if len(got.Pages) != len(want.Pages) {
				t.Fatalf("page count = %d, want %d", len(got.Pages), len(want.Pages))
			}
			for i := range want.Pages {
				wp, gp := want.Pages[i], got.Pages[i]
				if gp.Index != wp.Index || gp.Width != wp.Width || gp.Height != wp.Height ||
					gp.Rows != wp.Rows || gp.Cols != wp.Cols || gp.Overlap != wp.Overlap ||
					gp.Cipher != wp.Cipher || gp.KeyScheme != wp.KeyScheme ||
					gp.ScrambleSeed != wp.ScrambleSeed {
					t.Errorf("page %d header mismatch: got %+v want %+v", i, gp, wp)
				}
				for j := range wp.Tiles {
					wt, gt := wp.Tiles[j], gp.Tiles[j]
					if gt.Row != wt.Row || gt.Col != wt.Col || gt.Index != wt.Index ||
						gt.Size != wt.Size || gt.Locator != wt.Locator ||
						!bytes.Equal(gt.Salt, wt.Salt) || !bytes.Equal(gt.Checksum, wt.Checksum) {
						t.Errorf("page %d tile %d mismatch: got %+v want %+v", i, j, gt, wt)
					}
				}
			}

			// Re-encoding the decoded manifest reproduces the input bytes.
			again, err := Encode(got)
			if err != nil {
				t.Fatalf("re-Encode() error: %v", err)
			}
			if !bytes.Equal(raw, again) {
				t.Error("re-encoded manifest differs from original bytes")
			}
		})
	}
}

// TestDecodeRejectsMalformed tests structural failure modes.
func TestDecodeRejectsMalformed(t *testing.T) {
	t.Parallel()

	valid, err := Encode(testManifest(true))
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()
		if _, err := Decode(nil); !errors.Is(err, ErrTruncated) {
			t.Errorf("Decode(nil) error = %v, want ErrTruncated", err)
		}
	})

	t.Run("bad magic", func(t *testing.T) {
		t.Parallel()
		raw := bytes.Clone(valid)
		raw[0] = 'X'
		if _, err := Decode(raw); !errors.Is(err, ErrBadMagic) {
			t.Errorf("error = %v, want ErrBadMagic", err)
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		t.Parallel()
		raw := bytes.Clone(valid)
		raw[4], raw[5] = 0x00, 0x09
		if _, err := Decode(raw); !errors.Is(err, ErrUnsupportedVersion) {
			t.Errorf("error = %v, want ErrUnsupportedVersion", err)
		}
	})

	t.Run("truncated body", func(t *testing.T) {
		t.Parallel()
		if _, err := Decode(valid[:len(valid)/2]); !errors.Is(err, ErrTruncated) {
			t.Errorf("error = %v, want ErrTruncated", err)
		}
	})

	t.Run("trailing bytes", func(t *testing.T) {
		t.Parallel()
		raw := append(bytes.Clone(valid), 0x00)
		var perr *ParseError
		if _, err := Decode(raw); !errors.As(err, &perr) {
			t.Errorf("error = %v, want *ParseError", err)
		}
	})
}

// TestDecodeRejectsIncompleteGrid tests that a structurally valid manifest
// with semantic grid violations is rejected, never silently accepted.
func TestDecodeRejectsIncompleteGrid(t *testing.T) {
	t.Parallel()

	t.Run("tile count below grid size", func(t *testing.T) {
		t.Parallel()

		m := testManifest(false)
		m.Pages[0].Tiles = m.Pages[0].Tiles[:3]
		if _, err := Encode(m); err == nil {
			t.Fatal("Encode() accepted 3 tiles for a 2x2 grid")
		}
	})

	t.Run("duplicate position", func(t *testing.T) {
		t.Parallel()

		m := testManifest(false)
		m.Pages[0].Tiles[3].Row = 0
		m.Pages[0].Tiles[3].Col = 0
		raw := encodeUnchecked(t, m)
		var perr *ParseError
		if _, err := Decode(raw); !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *ParseError", err)
		}
	})

	t.Run("position outside grid", func(t *testing.T) {
		t.Parallel()

		m := testManifest(false)
		m.Pages[0].Tiles[3].Row = 7
		raw := encodeUnchecked(t, m)
		var perr *ParseError
		if _, err := Decode(raw); !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *ParseError", err)
		}
	})

	t.Run("geometry does not divide page", func(t *testing.T) {
		t.Parallel()

		m := testManifest(false)
		m.Pages[0].Width = 801 // 801 px over 2 columns with no overlap
		raw := encodeUnchecked(t, m)
		var perr *ParseError
		if _, err := Decode(raw); !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *ParseError", err)
		}
	})

	t.Run("page dimensions exceed limit", func(t *testing.T) {
		t.Parallel()

		// A multi-gigapixel page would drive a multi-GB raster
		// allocation downstream; the decoder rejects it up front.
		m := testManifest(false)
		m.Pages[0].Width = 46340
		m.Pages[0].Height = 46340
		raw := encodeUnchecked(t, m)
		var perr *ParseError
		if _, err := Decode(raw); !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *ParseError", err)
		}
	})

	t.Run("scramble seed in explicit manifest", func(t *testing.T) {
		t.Parallel()

		m := testManifest(false)
		m.Version = VersionExplicit
		raw := encodeUnchecked(t, m)
		var perr *ParseError
		if _, err := Decode(raw); !errors.As(err, &perr) {
			t.Fatalf("error = %v, want *ParseError", err)
		}
	})
}

// encodeUnchecked serializes a manifest bypassing Encode's validation so
// tests can produce structurally valid but semantically broken blobs.
func encodeUnchecked(t *testing.T, m *Manifest) []byte {
	t.Helper()

	var buf bytes.Buffer
	buf.Write(Magic[:])
	var flags uint16
	if m.HasChecksums {
		flags |= flagChecksums
	}
	writeUint16(&buf, m.Version)
	writeUint16(&buf, flags)
	writeUint32(&buf, uint32(len(m.Pages)))
	for i := range m.Pages {
		if err := encodePage(&buf, &m.Pages[i], m.HasChecksums); err != nil {
			t.Fatalf("encodePage() error: %v", err)
		}
	}
	return buf.Bytes()
}

// TestTileGeometry tests tile size computation with and without overlap.
func TestTileGeometry(t *testing.T) {
	t.Parallel()

	p := PageSpec{Width: 790, Height: 1190, Rows: 2, Cols: 2, Overlap: 10}
	if got := p.TileWidth(); got != 400 {
		t.Errorf("TileWidth() = %d, want 400", got)
	}
	if got := p.TileHeight(); got != 600 {
		t.Errorf("TileHeight() = %d, want 600", got)
	}

	noOverlap := PageSpec{Width: 800, Height: 1200, Rows: 2, Cols: 2}
	if got := noOverlap.TileWidth(); got != 400 {
		t.Errorf("TileWidth() = %d, want 400", got)
	}
}
