// Package preview implements the Interaction Preview: an affine
// pixel-space transform of the last completed frame's bitmap, drawn
// while a new render is in flight. It is independent of the render
// pipeline and reads only the last-finished frame's bitmap.
package preview

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/whalelogic/mandelbrot/hpfloat"
	"github.com/whalelogic/mandelbrot/scheduler"
)

// Transform computes the destination rectangle and a resampled bitmap
// for displaying lastBitmap (rendered under lastParams) as an
// approximate preview of currentParams, nearest-neighbor scaled with
// image smoothing disabled.
func Transform(lastBitmap []byte, lastParams, currentParams scheduler.Viewport, canvasW, canvasH int) (dstX, dstY, dstW, dstH int, scaled []byte) {
	scaleRatio := hpfloat.Div(currentParams.Zoom, lastParams.Zoom).Float64()
	if scaleRatio <= 0 {
		scaleRatio = 1
	}

	dstW = int(float64(canvasW) * scaleRatio)
	dstH = int(float64(canvasH) * scaleRatio)
	if dstW < 1 {
		dstW = 1
	}
	if dstH < 1 {
		dstH = 1
	}

	// originFractal is pixel (0,0)'s offset from lastParams' own center.
	// To place it under currentParams we first need that same point's
	// offset from currentParams' center, which requires folding in the
	// two viewports' center difference — computed in HPFloat, not by
	// subtracting two float64 absolute coordinates, since at deep zoom
	// those can be equal to many significant digits and the difference
	// would lose all precision.
	originFractal := fractalCoordAt(0, 0, canvasW, canvasH, lastParams)
	centerDelta := centerOffset(lastParams, currentParams)
	originFromCurrentCenter := [2]float64{
		originFractal[0] + centerDelta[0],
		originFractal[1] + centerDelta[1],
	}
	dstX, dstY = pixelCoordFor(originFromCurrentCenter, canvasW, canvasH, currentParams)

	src := image.NewRGBA(image.Rect(0, 0, canvasW, canvasH))
	copy(src.Pix, lastBitmap)

	dst := image.NewRGBA(image.Rect(0, 0, dstW, dstH))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	return dstX, dstY, dstW, dstH, dst.Pix
}

// fractalCoordAt returns the complex-plane offset from the viewport
// center at pixel (px,py) — same convention as
// scheduler.deltaCForPixel's geometry, reimplemented here in plain f64
// since the preview loop runs on every animation tick during
// interaction rather than once per pixel, and the truncation to f64 is
// acceptable given the preview is approximate by construction.
func fractalCoordAt(px, py, canvasW, canvasH int, vp scheduler.Viewport) [2]float64 {
	zoom := vp.Zoom.Float64()
	if zoom <= 0 {
		zoom = 1
	}
	pixelScale := scheduler.ReferenceHalfHeight / (zoom * float64(canvasH) / 2)
	offsetXPixels := float64(px) - float64(canvasW)/2
	offsetYPixels := float64(canvasH)/2 - float64(py)
	return [2]float64{offsetXPixels * pixelScale, offsetYPixels * pixelScale}
}

// centerOffset returns lastParams' center minus currentParams' center,
// i.e. lastParams' center expressed as a fractal offset from
// currentParams' center. Computed at full HPFloat precision before
// narrowing to float64, so a pure pan at deep zoom — where the two
// centers can agree to dozens of significant digits — still yields a
// meaningful, non-zero difference.
func centerOffset(lastParams, currentParams scheduler.Viewport) [2]float64 {
	dRe := hpfloat.Sub(lastParams.Center.Re, currentParams.Center.Re)
	dIm := hpfloat.Sub(lastParams.Center.Im, currentParams.Center.Im)
	return [2]float64{dRe.Float64(), dIm.Float64()}
}

// pixelCoordFor inverts fractalCoordAt under a different viewport: find
// the pixel at which fractal offset (re,im) — relative to vp's own
// center — would be drawn.
func pixelCoordFor(offset [2]float64, canvasW, canvasH int, vp scheduler.Viewport) (px, py int) {
	zoom := vp.Zoom.Float64()
	if zoom <= 0 {
		zoom = 1
	}
	pixelScale := scheduler.ReferenceHalfHeight / (zoom * float64(canvasH) / 2)
	if pixelScale == 0 {
		return 0, 0
	}
	px = int(offset[0]/pixelScale+float64(canvasW)/2+0.5)
	py = int(float64(canvasH)/2-offset[1]/pixelScale+0.5)
	return px, py
}
