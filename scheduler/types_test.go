package scheduler

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/whalelogic/mandelbrot/hpfloat"
)

func testViewport(zoom float64, maxIter uint32) Viewport {
	return Viewport{
		Center: hpfloat.Complex{Re: hpfloat.FromFloat64(-0.5, 64), Im: hpfloat.FromFloat64(0, 64)},
		Zoom: hpfloat.FromFloat64(zoom, 64),
		MaxIterations: maxIter,
	}
}

func TestFingerprintStableForIdenticalInputs(t *testing.T) {
	c := qt.New(t)
	req := FrameRequest{Viewport: testViewport(1, 100), CanvasWidth: 800, CanvasHeight: 600, AlgorithmID: "mandelbrot"}
	chunk := RenderChunk{StartX: 10, StartY: 20, Width: 20, Height: 20}
	a := NewFingerprint(chunk, req)
	b := NewFingerprint(chunk, req)
	c.Assert(a, qt.Equals, b)
}

func TestFingerprintDiffersOnZoom(t *testing.T) {
	c := qt.New(t)
	chunk := RenderChunk{StartX: 0, StartY: 0, Width: 20, Height: 20}
	reqA := FrameRequest{Viewport: testViewport(1, 100), CanvasWidth: 800, CanvasHeight: 600, AlgorithmID: "mandelbrot"}
	reqB := FrameRequest{Viewport: testViewport(2, 100), CanvasWidth: 800, CanvasHeight: 600, AlgorithmID: "mandelbrot"}
	c.Assert(NewFingerprint(chunk, reqA), qt.Not(qt.Equals), NewFingerprint(chunk, reqB))
}

func TestDeltaCForPixelCenterIsZero(t *testing.T) {
	c := qt.New(t)
	vp := testViewport(1, 100)
	deltaC := deltaCForPixel(400, 300, 800, 600, vp)
	c.Assert(deltaC.Re.ToFloat32(), qt.Equals, float32(0))
	c.Assert(deltaC.Im.ToFloat32(), qt.Equals, float32(0))
}

func TestDeltaCForPixelScalesWithZoom(t *testing.T) {
	c := qt.New(t)
	// pixel to the right of center: offset is positive, so a larger zoom
	// (smaller pixelScale) must yield a smaller positive Re.
	lowZoom := deltaCForPixel(800, 300, 800, 600, testViewport(1, 100))
	highZoom := deltaCForPixel(800, 300, 800, 600, testViewport(100, 100))
	c.Assert(lowZoom.Re.ToFloat32() > highZoom.Re.ToFloat32(), qt.IsTrue)
}
