package scheduler

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestTileSideBounds(t *testing.T) {
	c := qt.New(t)
	c.Assert(TileSide(10, 10, 1000000), qt.Equals, MinTileSide)
	c.Assert(TileSide(100000, 100000, 1), qt.Equals, MaxTileSide)
}

func TestPreferredTileCountBounds(t *testing.T) {
	c := qt.New(t)
	c.Assert(PreferredTileCount(1e-10) >= 100, qt.IsTrue)
	c.Assert(PreferredTileCount(1e100) <= 500, qt.IsTrue)
}

// TestGenerateTilesCoversCanvasExactly verifies the tiling-correctness
// invariant: the union of tiles covers [0,W)x[0,H) with pairwise disjoint
// interiors.
func TestGenerateTilesCoversCanvasExactly(t *testing.T) {
	c := qt.New(t)
	const w, h, side = 137, 91, 20
	tiles := GenerateTiles(w, h, side)

	covered := make([][]bool, h)
	for y := range covered {
		covered[y] = make([]bool, w)
	}
	for _, tile := range tiles {
		for y := tile.StartY; y < tile.StartY+tile.Height; y++ {
			for x := tile.StartX; x < tile.StartX+tile.Width; x++ {
				c.Assert(covered[y][x], qt.IsFalse, qt.Commentf("pixel (%d,%d) covered twice", x, y))
				covered[y][x] = true
			}
		}
	}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c.Assert(covered[y][x], qt.IsTrue, qt.Commentf("pixel (%d,%d) not covered", x, y))
		}
	}
}

func TestGenerateTilesSpiralStartsNearCenter(t *testing.T) {
	c := qt.New(t)
	tiles := GenerateTiles(200, 200, 20)
	c.Assert(len(tiles) > 0, qt.IsTrue)
	first := tiles[0]
	centerX, centerY := 100, 100
	dx := first.StartX + first.Width/2 - centerX
	dy := first.StartY + first.Height/2 - centerY
	dist := dx*dx + dy*dy
	c.Assert(dist < 100*100, qt.IsTrue)
}

func TestSpiralCellOrderVisitsEveryCellOnce(t *testing.T) {
	c := qt.New(t)
	const cols, rows = 7, 5
	order := spiralCellOrder(cols, rows)
	c.Assert(len(order), qt.Equals, cols*rows)
	seen := make(map[cell]bool)
	for _, cl := range order {
		c.Assert(seen[cl], qt.IsFalse)
		seen[cl] = true
	}
}
