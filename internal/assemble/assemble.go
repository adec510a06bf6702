package assemble

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"

	// Tile payloads are storefront-encoded JPEG or PNG images.
	_ "image/jpeg"
	_ "image/png"

	"github.com/noxpand/retile/internal/manifest"
	"github.com/noxpand/retile/internal/model"
)

// Tile is one decrypted tile ready for placement.
type Tile struct {
	// Pos is the tile's true grid position.
	Pos GridPos

	// Data is the decrypted tile image (JPEG or PNG encoded).
	Data []byte
}

// Assemble stitches a complete set of decrypted tiles into the page
// raster described by spec. Tiles may arrive in any order; placement uses
// only Pos. Declared overlap pixels on interior edges are trimmed so
// adjacent tiles meet without seams.
//
// It returns an *Error when a grid cell has no tile, a cell is filled
// twice, a tile image fails to decode, or any dimension disagrees with
// the manifest. On error no page is returned.
func Assemble(tiles []Tile, spec *manifest.PageSpec) (*model.AssembledPage, error) {
	n := spec.Rows * spec.Cols
	if len(tiles) != n {
		return nil, &Error{
			Page:   spec.Index,
			Reason: fmt.Sprintf("%d tiles for a %dx%d grid", len(tiles), spec.Rows, spec.Cols),
		}
	}

	tileW := spec.TileWidth()
	tileH := spec.TileHeight()
	raster := image.NewRGBA(image.Rect(0, 0, spec.Width, spec.Height))
	filled := make([]bool, n)

	for _, tile := range tiles {
		if tile.Pos.Row < 0 || tile.Pos.Row >= spec.Rows || tile.Pos.Col < 0 || tile.Pos.Col >= spec.Cols {
			return nil, &Error{
				Page:   spec.Index,
				Reason: fmt.Sprintf("tile position (%d,%d) outside grid", tile.Pos.Row, tile.Pos.Col),
			}
		}
		cell := tile.Pos.Row*spec.Cols + tile.Pos.Col
		if filled[cell] {
			return nil, &Error{
				Page:   spec.Index,
				Reason: fmt.Sprintf("cell (%d,%d) filled twice", tile.Pos.Row, tile.Pos.Col),
			}
		}
		filled[cell] = true

		img, _, err := image.Decode(bytes.NewReader(tile.Data))
		if err != nil {
			return nil, &Error{
				Page:   spec.Index,
				Reason: fmt.Sprintf("tile (%d,%d): image decode: %v", tile.Pos.Row, tile.Pos.Col, err),
			}
		}
		b := img.Bounds()
		if b.Dx() != tileW || b.Dy() != tileH {
			return nil, &Error{
				Page: spec.Index,
				Reason: fmt.Sprintf("tile (%d,%d) is %dx%d, manifest declares %dx%d",
					tile.Pos.Row, tile.Pos.Col, b.Dx(), b.Dy(), tileW, tileH),
			}
		}

		placeTile(raster, img, tile.Pos, spec)
	}

	for cell, ok := range filled {
		if !ok {
			return nil, &Error{
				Page:   spec.Index,
				Reason: fmt.Sprintf("no tile for cell (%d,%d)", cell/spec.Cols, cell%spec.Cols),
			}
		}
	}

	if got := raster.Bounds(); got.Dx() != spec.Width || got.Dy() != spec.Height {
		return nil, &Error{
			Page:   spec.Index,
			Reason: fmt.Sprintf("raster %dx%d, manifest declares %dx%d", got.Dx(), got.Dy(), spec.Width, spec.Height),
		}
	}

	return &model.AssembledPage{Index: spec.Index, Image: raster}, nil
}

// placeTile draws one tile into the raster at its true position.
// Interior edges skip the declared overlap on the tile's top and left so
// the shared pixels are written exactly once regardless of tile order.
func placeTile(raster *image.RGBA, img image.Image, pos GridPos, spec *manifest.PageSpec) {
	tileW := spec.TileWidth()
	tileH := spec.TileHeight()

	x0 := pos.Col * (tileW - spec.Overlap)
	y0 := pos.Row * (tileH - spec.Overlap)

	var ox, oy int
	if pos.Col > 0 {
		ox = spec.Overlap
	}
	if pos.Row > 0 {
		oy = spec.Overlap
	}

	dst := image.Rect(x0+ox, y0+oy, x0+tileW, y0+tileH)
	src := img.Bounds().Min.Add(image.Pt(ox, oy))
	draw.Draw(raster, dst, img, src, draw.Src)
}
