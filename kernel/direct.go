package kernel

import (
	"github.com/whalelogic/mandelbrot/hdr"
	"github.com/whalelogic/mandelbrot/orbit"
)

// Direct implements algorithm id "mandelbrot": plain HDR iteration with
// no perturbation, correct at zoom ≤ 10^13.
type Direct struct{}

// ID implements Algorithm.
func (Direct) ID() string { return "mandelbrot" }

// ComputePixel implements Algorithm. The reference orbit is ignored —
// there is no reference point for this algorithm to perturb around, so
// center and deltaC are summed to recover the pixel's absolute fractal
// coordinate C (z ← z²+C) directly.
func (Direct) ComputePixel(_ *orbit.Orbit, center, deltaC hdr.Complex, maxIter uint32, cancelled Cancelled) PixelResult {
	isCancelled := effectiveCancel(cancelled)
	escapeSq := escapeRadiusSquaredHDR()
	c := hdr.AddComplex(center, deltaC)
	z := hdr.ZeroComplex
	dz := hdr.ZeroComplex // dz/dc, for surface-normal shading

	for n := uint32(1); n <= maxIter; n++ {
		if isCancelled() {
			return PixelResult{Iterations: n, Escaped: false}
		}
		normSq := hdr.NormSquared(z)
		if hdr.GreaterThan(normSq, escapeSq) {
			normal, hasNormal := surfaceNormalFrom(z, dz)
			return PixelResult{
				Iterations: n,
				Escaped: true,
				FinalZNormSq: normSq.ToFloat32(),
				SurfaceNormal: normal,
				HasNormal: hasNormal,
			}
		}

		// dz ← 2·z·dz + 1
		dz = hdr.AddComplex(hdr.MulComplex(two, hdr.MulComplex(z, dz)), one)
		// z ← z² + c
		z = hdr.AddComplex(hdr.SquareComplex(z), c)
	}

	return PixelResult{Iterations: maxIter, Escaped: false, FinalZNormSq: 0}
}
