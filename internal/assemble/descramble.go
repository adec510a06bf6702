package assemble

import (
	"math/rand"

	"github.com/seehuhn/mt19937"
)

// GridPos is a tile's position in the page grid.
type GridPos struct {
	Row, Col int
}

// Unscramble recovers the true grid position for every storage slot of a
// scrambled page. The storefront shuffles tile storage order with a
// Fisher-Yates permutation drawn from an MT19937 generator seeded by the
// manifest; replaying the same draw yields the mapping storage slot ->
// true position.
//
// The returned slice has rows*cols entries: entry i is the true position
// of the tile stored in slot i.
func Unscramble(seed uint64, rows, cols int) []GridPos {
	n := rows * cols
	src := mt19937.New()
	src.Seed(int64(seed))
	perm := rand.New(src).Perm(n) //nolint:gosec // Deterministic replay of the storefront's shuffle.

	positions := make([]GridPos, n)
	for slot, cell := range perm {
		positions[slot] = GridPos{Row: cell / cols, Col: cell % cols}
	}
	return positions
}
