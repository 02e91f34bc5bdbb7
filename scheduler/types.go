// Package scheduler implements the tile scheduler and cache: it
// divides a frame into chunks, distributes them across a worker pool,
// caches results by fingerprint, and streams completed tiles to an
// output surface while supporting instant cancel-and-restart.
package scheduler

import (
	"fmt"

	"github.com/whalelogic/mandelbrot/hdr"
	"github.com/whalelogic/mandelbrot/hpfloat"
	"github.com/whalelogic/mandelbrot/kernel"
)

// Viewport is a complex-plane center, a positive real zoom (magnifying
// the conventional reference half-height of 2 units),
// an iteration budget, and the scaling factor used to derive the
// effective iteration budget from zoom.
type Viewport struct {
	Center hpfloat.Complex
	Zoom hpfloat.Float
	MaxIterations uint32
	IterationScalingFactor uint32
}

// ReferenceHalfHeight is the fractal half-height a Zoom of 1 maps to.
const ReferenceHalfHeight = 2.0

// FrameRequest is viewport + canvas size + algorithm + monotonic frame
// id.
type FrameRequest struct {
	Viewport Viewport
	CanvasWidth int
	CanvasHeight int
	AlgorithmID string
	FrameID uint64
}

// RenderChunk is a pixel rectangle. GenerateTiles uses a tile side in
// [MinTileSide, MaxTileSide] but clips the last row and column to the
// canvas, so those chunks (and every chunk of a canvas smaller than
// MinTileSide) can be narrower or shorter than MinTileSide.
type RenderChunk struct {
	StartX, StartY int
	Width, Height int
}

// Fingerprint is the ChunkFingerprint cache key: every field is a
// comparable basic type, so Fingerprint itself can be used directly as a
// Go map key.
type Fingerprint struct {
	StartX, StartY int
	Width, Height int
	CenterStr string
	ZoomStr string
	MaxIterations uint32
	CanvasW, CanvasH int
	AlgorithmID string
}

// centerSigDigits/zoomSigDigits implement its "≥10 fractional digits
// for center, ≥6 significant digits for zoom; higher if precision
// demands" by deriving digit counts from the viewport's own working
// precision rather than hardcoding the minimums.
func centerSigDigits(precisionBits uint) int {
	// log10(2^bits) ≈ bits * 0.30103; +10 keeps the spec-mandated floor.
	d := int(float64(precisionBits)*0.30103) + 10
	if d < 10 {
		d = 10
	}
	return d
}

func zoomSigDigits(precisionBits uint) int {
	d := int(float64(precisionBits) * 0.30103)
	if d < 6 {
		d = 6
	}
	return d
}

// NewFingerprint builds the cache key for one chunk of one frame.
func NewFingerprint(chunk RenderChunk, req FrameRequest) Fingerprint {
	prec := req.Viewport.Center.Re.Prec()
	return Fingerprint{
		StartX: chunk.StartX,
		StartY: chunk.StartY,
		Width: chunk.Width,
		Height: chunk.Height,
		CenterStr: fmt.Sprintf("%s,%s", req.Viewport.Center.Re.String(centerSigDigits(prec)), req.Viewport.Center.Im.String(centerSigDigits(prec))),
		ZoomStr: req.Viewport.Zoom.String(zoomSigDigits(prec)),
		MaxIterations: req.Viewport.MaxIterations,
		CanvasW: req.CanvasWidth,
		CanvasH: req.CanvasHeight,
		AlgorithmID: req.AlgorithmID,
	}
}

// ChunkResult is a rendered chunk: bounds, an RGBA8 bitmap
// (width·height·4 bytes), and an optional per-pixel data record array
//.
type ChunkResult struct {
	Chunk RenderChunk
	Bitmap []byte // RGBA8, row-major
	Pixels []kernel.PixelResult
	Failed bool
}

// deltaCForPixel computes δc for pixel (px,py) within a canvas of size
// (canvasW,canvasH) under viewport vp, directly from the integer pixel
// offset multiplied by the fractal scale in HDR — never by subtracting
// two near-equal world coordinates.
func deltaCForPixel(px, py, canvasW, canvasH int, vp Viewport) hdr.Complex {
	zoomHDR := vp.Zoom.ToHDR()
	halfHeight := hdr.FromFloat32(ReferenceHalfHeight)
	// pixelScale = halfHeight / (zoom * canvasHeight/2), computed entirely
	// in HDR form — converting the zoom-scaled denominator to f32 before
	// dividing would overflow/underflow it at deep zoom and silently
	// corrupt every pixel's δc.
	canvasHalfHeight := hdr.FromFloat32(float32(canvasH) / 2)
	scaleDenominator := hdr.Mul(zoomHDR, canvasHalfHeight)
	pixelScale := hdr.Div(halfHeight, scaleDenominator)

	offsetXPixels := float32(px) - float32(canvasW)/2
	offsetYPixels := float32(canvasH)/2 - float32(py) // screen Y is flipped relative to the imaginary axis

	offsetX := hdr.Mul(hdr.FromFloat32(offsetXPixels), pixelScale)
	offsetY := hdr.Mul(hdr.FromFloat32(offsetYPixels), pixelScale)

	return hdr.Complex{Re: offsetX, Im: offsetY}
}
