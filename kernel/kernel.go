// Package kernel implements the per-pixel escape computation of the kernel algorithms:
// the perturbation-theory kernel (algorithm id "perturbation_mandelbrot")
// and the direct HDR Mandelbrot kernel (algorithm id "mandelbrot") behind
// a single Algorithm interface.
package kernel

import (
	"github.com/whalelogic/mandelbrot/hdr"
	"github.com/whalelogic/mandelbrot/orbit"
)

// glitchTauSquared and glitchZNormFloor implement the informational
// glitch-flag test: |z|² < τ²·|Zₘ|² with |Zₘ|² > floor.
const (
	glitchTauSquared = 1e-6
	glitchZNormFloor = 1e-20
)

// PixelResult is the PixelResult record.
type PixelResult struct {
	Iterations uint32
	Escaped bool
	FinalZNormSq float32
	SurfaceNormal [2]float32
	HasNormal bool
	Glitched bool
}

// Cancelled is polled by the kernel at every outer-loop iteration
// boundary (including across BLA fast-forward jumps). It implements the
// terminate-and-recreate cancellation contract's documented fallback for
// thread-based targets that cannot forcibly kill an in-flight
// computation: Go has no API to terminate a running goroutine, so the
// pool instead flips a per-generation flag the kernel checks on every
// iteration, bounding cancellation latency to a single loop body
// (microseconds), not the cancellation budget observed at the scheduler.
type Cancelled func() bool

func neverCancelled() bool { return false }

// Algorithm computes one pixel's PixelResult given a reference orbit
// (possibly nil/unused for the direct algorithm), the viewport's
// absolute fractal center, the pixel's fractal offset from that center,
// and an iteration budget. cancelled may be nil, meaning never-cancelled.
//
// center and deltaC are passed separately, never pre-added by the
// caller: the perturbation algorithm needs deltaC alone (the reference
// orbit already anchors the absolute position), while the direct
// algorithm needs center+deltaC to reconstruct the absolute world
// coordinate C it iterates z←z²+C against.
type Algorithm interface {
	ID() string
	ComputePixel(ref *orbit.Orbit, center, deltaC hdr.Complex, maxIter uint32, cancelled Cancelled) PixelResult
}

func effectiveCancel(c Cancelled) Cancelled {
	if c == nil {
		return neverCancelled
	}
	return c
}

// escapeRadiusSquaredHDR returns orbit.EscapeRadiusSquared in HDR form;
// it is rebuilt on every ComputePixel call.
func escapeRadiusSquaredHDR() hdr.Float {
	return hdr.FromFloat32(orbit.EscapeRadiusSquared)
}

func surfaceNormalFrom(z, rho hdr.Complex) ([2]float32, bool) {
	// u = z · conj(ρ)
	u := hdr.MulComplex(z, hdr.ConjComplex(rho))
	x, y := hdr.Direction(u)
	if x == 0 && y == 0 {
		return [2]float32{}, false
	}
	return [2]float32{x, y}, true
}
