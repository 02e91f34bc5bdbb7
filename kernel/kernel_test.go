package kernel

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/whalelogic/mandelbrot/hdr"
	"github.com/whalelogic/mandelbrot/hpfloat"
	"github.com/whalelogic/mandelbrot/orbit"
)

func TestDirectInteriorPointNeverEscapes(t *testing.T) {
	c := qt.New(t)
	d := Direct{}
	// center + deltaC must sum to the world-absolute coordinate
	// (-0.25, 0), inside the main cardioid. Splitting across a nonzero
	// center and a nonzero offset (rather than folding everything into
	// one argument) exercises the same center+deltaC addition the real
	// tile pipeline performs.
	center := hdr.FromFloat64Complex(-0.5, 0)
	deltaC := hdr.FromFloat64Complex(0.25, 0)
	pr := d.ComputePixel(nil, center, deltaC, 200, nil)
	c.Assert(pr.Escaped, qt.IsFalse)
	c.Assert(pr.Iterations, qt.Equals, uint32(200))
}

func TestDirectQuickEscape(t *testing.T) {
	c := qt.New(t)
	d := Direct{}
	center := hdr.FromFloat64Complex(1, 0)
	deltaC := hdr.FromFloat64Complex(2, 0)
	pr := d.ComputePixel(nil, center, deltaC, 100, nil)
	c.Assert(pr.Escaped, qt.IsTrue)
	c.Assert(pr.Iterations < 5, qt.IsTrue)
}

func TestDirectCancellation(t *testing.T) {
	c := qt.New(t)
	d := Direct{}
	calls := 0
	cancelled := func() bool {
		calls++
		return calls > 2
	}
	center := hdr.FromFloat64Complex(-0.5, 0)
	deltaC := hdr.FromFloat64Complex(0.25, 0)
	pr := d.ComputePixel(nil, center, deltaC, 1000, cancelled)
	c.Assert(pr.Escaped, qt.IsFalse)
	c.Assert(pr.Iterations < 1000, qt.IsTrue)
}

// referenceOrbitAt builds a real reference orbit for perturbation tests,
// since Perturbation.ComputePixel dereferences ref.Z/ref.DZ/ref.BLA.
func referenceOrbitAt(t *testing.T, re, im float64, maxIter uint32) *orbit.Orbit {
	t.Helper()
	c := hpfloat.Complex{Re: hpfloat.FromFloat64(re, 64), Im: hpfloat.FromFloat64(im, 64)}
	o, err := orbit.Compute(context.Background(), c, maxIter, 64)
	if err != nil {
		t.Fatalf("reference orbit: %v", err)
	}
	return o
}

// deltaCFor computes the pixel's fractal offset from the reference
// orbit's own center, matching the Perturbation contract.
func deltaCFor(centerRe, centerIm, pixelRe, pixelIm float64) hdr.Complex {
	return hdr.Complex{
		Re: hdr.FromFloat32(float32(pixelRe - centerRe)),
		Im: hdr.FromFloat32(float32(pixelIm - centerIm)),
	}
}

func TestPerturbationAgreesWithDirectAtModerateZoom(t *testing.T) {
	c := qt.New(t)
	const centerRe, centerIm = -1.0, 0.0
	ref := referenceOrbitAt(t, centerRe, centerIm, 200)
	center := hdr.FromFloat64Complex(centerRe, centerIm)

	pixels := [][2]float64{
		{-1.0, 0.0},
		{-0.9, 0.05},
		{-1.1, -0.02},
		{-0.5, 0.0},
	}
	for _, p := range pixels {
		deltaC := deltaCFor(centerRe, centerIm, p[0], p[1])
		// Perturbation takes deltaC relative to the reference orbit's own
		// center; Direct takes the same center plus the same deltaC, as
		// the real tile pipeline (scheduler.computeTile) does for both
		// algorithms — never the absolute pixel coordinate folded into a
		// single argument, which would mask a dropped center.
		pert := Perturbation{}.ComputePixel(ref, center, deltaC, 200, nil)
		direct := Direct{}.ComputePixel(nil, center, deltaC, 200, nil)
		c.Assert(pert.Iterations, qt.Equals, direct.Iterations, qt.Commentf("pixel=%v", p))
		c.Assert(pert.Escaped, qt.Equals, direct.Escaped, qt.Commentf("pixel=%v", p))
	}
}

func TestPerturbationCancellation(t *testing.T) {
	c := qt.New(t)
	ref := referenceOrbitAt(t, -0.5, 0, 500)
	center := hdr.FromFloat64Complex(-0.5, 0)
	calls := 0
	cancelled := func() bool {
		calls++
		return calls > 3
	}
	deltaC := deltaCFor(-0.5, 0, -0.5, 0)
	pr := Perturbation{}.ComputePixel(ref, center, deltaC, 500, cancelled)
	c.Assert(pr.Escaped, qt.IsFalse)
	c.Assert(pr.Iterations < 500, qt.IsTrue)
}
