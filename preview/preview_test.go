package preview

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/whalelogic/mandelbrot/hpfloat"
	"github.com/whalelogic/mandelbrot/scheduler"
)

func testViewport(zoom float64) scheduler.Viewport {
	return scheduler.Viewport{
		Center: hpfloat.Complex{Re: hpfloat.FromFloat64(0, 64), Im: hpfloat.FromFloat64(0, 64)},
		Zoom: hpfloat.FromFloat64(zoom, 64),
	}
}

// TestTransformIdentityPreservesSize checks that Transform(bitmap,
// viewport, viewport) (identity) places the destination at the origin
// with the canvas size and returns a buffer of the full canvas length.
// Pixel contents are not compared.
func TestTransformIdentityPreservesSize(t *testing.T) {
	c := qt.New(t)
	const w, h = 8, 8
	bitmap := make([]byte, w*h*4)
	for i := range bitmap {
		bitmap[i] = byte(i % 256)
	}
	vp := testViewport(1)

	dstX, dstY, dstW, dstH, scaled := Transform(bitmap, vp, vp, w, h)
	c.Assert(dstW, qt.Equals, w)
	c.Assert(dstH, qt.Equals, h)
	c.Assert(dstX, qt.Equals, 0)
	c.Assert(dstY, qt.Equals, 0)
	c.Assert(len(scaled), qt.Equals, w*h*4)
}

func TestTransformScalesUpOnZoomIn(t *testing.T) {
	c := qt.New(t)
	const w, h = 8, 8
	bitmap := make([]byte, w*h*4)
	last := testViewport(1)
	current := testViewport(2)

	_, _, dstW, dstH, _ := Transform(bitmap, last, current, w, h)
	c.Assert(dstW > w, qt.IsTrue)
	c.Assert(dstH > h, qt.IsTrue)
}

// TestTransformTranslatesOnPan checks that a pure pan (same zoom,
// different center) shifts the destination rectangle instead of leaving
// it at the origin.
func TestTransformTranslatesOnPan(t *testing.T) {
	c := qt.New(t)
	const w, h = 100, 100
	bitmap := make([]byte, w*h*4)
	last := testViewport(10)
	current := testViewport(10)
	// Pan one fractal unit right: at zoom 10 with a reference half-height
	// of 2 units over 100px, this should move the destination rectangle
	// by a clearly non-zero number of pixels.
	current.Center.Re = hpfloat.FromFloat64(1, 64)

	dstX, dstY, dstW, dstH, _ := Transform(bitmap, last, current, w, h)
	c.Assert(dstW, qt.Equals, w)
	c.Assert(dstH, qt.Equals, h)
	c.Assert(dstY, qt.Equals, 0)
	c.Assert(dstX != 0, qt.IsTrue, qt.Commentf("pan must translate the preview rectangle, got dstX=%d", dstX))
}

func TestNativeTickerFiresAndStops(t *testing.T) {
	c := qt.New(t)
	ticker := NewNativeTicker()
	fired := make(chan struct{}, 1)
	ticker.OnTick(func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	<-fired
	ticker.Stop()
}
