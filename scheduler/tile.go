package scheduler

import "math"

// MinTileSide/MaxTileSide bound tile width and height.
const (
	MinTileSide = 20
	MaxTileSide = 1000
)

// PreferredTileCount implements its P(zoom) formula.
func PreferredTileCount(zoom float64) int {
	if zoom < 0.1 {
		zoom = 0.1
	}
	p := int(math.Floor(250 * (math.Log10(zoom) + 1)))
	if p < 100 {
		p = 100
	}
	if p > 500 {
		p = 500
	}
	return p
}

// TileSide implements its tile-side formula: s = clamp(⌊√(W·H/P)⌋, 20, 1000).
func TileSide(canvasW, canvasH int, preferredCount int) int {
	if preferredCount < 1 {
		preferredCount = 1
	}
	s := int(math.Floor(math.Sqrt(float64(canvasW*canvasH) / float64(preferredCount))))
	if s < MinTileSide {
		s = MinTileSide
	}
	if s > MaxTileSide {
		s = MaxTileSide
	}
	return s
}

// GenerateTiles tiles a canvas of canvasW×canvasH pixels with side-length
// `side` tiles (the last row/column in each direction is clipped to fit)
// and returns them in center-out spiral order: the tiling (union =
// canvas, pairwise-disjoint interiors) is a grid; only the visitation
// order is a spiral, so the perceptually most salient region renders
// first.
func GenerateTiles(canvasW, canvasH, side int) []RenderChunk {
	if side < 1 {
		side = MinTileSide
	}
	cols := (canvasW + side - 1) / side
	rows := (canvasH + side - 1) / side
	if cols == 0 || rows == 0 {
		return nil
	}

	order := spiralCellOrder(cols, rows)
	tiles := make([]RenderChunk, 0, cols*rows)
	for _, cell := range order {
		startX := cell.x * side
		startY := cell.y * side
		w := side
		if startX+w > canvasW {
			w = canvasW - startX
		}
		h := side
		if startY+h > canvasH {
			h = canvasH - startY
		}
		if w <= 0 || h <= 0 {
			continue
		}
		tiles = append(tiles, RenderChunk{StartX: startX, StartY: startY, Width: w, Height: h})
	}
	return tiles
}

type cell struct{ x, y int }

// spiralCellOrder returns every (x,y) in [0,cols)×[0,rows) starting from
// the center cell and spiraling outward in a square pattern (right,
// down, left, up, with the run length growing by one every two turns —
// the standard square-spiral walk).
func spiralCellOrder(cols, rows int) []cell {
	total := cols * rows
	order := make([]cell, 0, total)
	seen := make(map[cell]bool, total)

	x, y := cols/2, rows/2
	add := func(x, y int) {
		if x < 0 || x >= cols || y < 0 || y >= rows {
			return
		}
		c := cell{x, y}
		if seen[c] {
			return
		}
		seen[c] = true
		order = append(order, c)
	}

	add(x, y)
	dirs := [4]cell{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	dirIdx := 0
	steps := 1
	maxSteps := cols + rows + 2
	for len(order) < total && steps <= 2*maxSteps {
		for i := 0; i < 2; i++ {
			d := dirs[dirIdx]
			for s := 0; s < steps; s++ {
				x += d.x
				y += d.y
				add(x, y)
			}
			dirIdx = (dirIdx + 1) % 4
		}
		steps++
	}
	return order
}
