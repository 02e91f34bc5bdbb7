package kernel

import (
	"github.com/whalelogic/mandelbrot/hdr"
	"github.com/whalelogic/mandelbrot/orbit"
)

var two = hdr.Complex{Re: hdr.FromFloat32(2), Im: hdr.Zero}
var one = hdr.Complex{Re: hdr.FromFloat32(1), Im: hdr.Zero}

// Perturbation implements algorithm id "perturbation_mandelbrot": the
// full the algorithm (direct-offset δc, rebasing, glitch flagging,
// reference exhaustion, optional BLA fast-forward). Correct at any zoom
// within the HPFloat precision budget.
type Perturbation struct{}

// ID implements Algorithm.
func (Perturbation) ID() string { return "perturbation_mandelbrot" }

// ComputePixel implements Algorithm. center is unused: the reference
// orbit ref was itself computed at the viewport center, so deltaC alone
// (the pixel's offset from that same center) is what the perturbation
// recurrence needs.
//
// deltaC MUST already be the pixel's fractal offset computed from an
// integer pixel offset times the fractal scale in HDR — never from
// subtracting two near-equal world coordinates, which loses all
// significance at deep zoom.
func (Perturbation) ComputePixel(ref *orbit.Orbit, center, deltaC hdr.Complex, maxIter uint32, cancelled Cancelled) PixelResult {
	isCancelled := effectiveCancel(cancelled)
	escapeSq := escapeRadiusSquaredHDR()

	deltaZ := hdr.ZeroComplex
	dDelta := hdr.ZeroComplex // the accumulated derivative-perturbation, "dδ"
	m := 0
	glitched := false

	for n := uint32(1); n <= maxIter; {
		if isCancelled() {
			return PixelResult{Iterations: n, Escaped: false, Glitched: glitched}
		}
		Zm := ref.Z[m]
		dZm := ref.DZ[m]

		z := hdr.AddComplex(Zm, deltaZ)
		zNormSq := hdr.NormSquared(z)

		if hdr.GreaterThan(zNormSq, escapeSq) {
			// ρ = dZₘ + dδ for the surface-normal computation.
			rho := hdr.AddComplex(dZm, dDelta)
			normal, hasNormal := surfaceNormalFrom(z, rho)
			return PixelResult{
				Iterations: n,
				Escaped: true,
				FinalZNormSq: zNormSq.ToFloat32(),
				SurfaceNormal: normal,
				HasNormal: hasNormal,
				Glitched: glitched,
			}
		}

		deltaZNormSq := hdr.NormSquared(deltaZ)

		// Rebase test: the reference has drifted so far that the
		// absolute pixel value is dominated by the delta.
		if hdr.LessThan(zNormSq, deltaZNormSq) {
			dDelta = hdr.AddComplex(dZm, dDelta)
			deltaZ = z
			m = 0
			continue // does not increment n
		}

		// Reference exhaustion: behave as rebasing.
		if m+1 >= ref.Len() && ref.Escaped() {
			dDelta = hdr.AddComplex(dZm, dDelta)
			deltaZ = z
			m = 0
			continue
		}

		// Glitch flag (informational only): rebasing already removes
		// the need to redo the pixel.
		ZmNormSq := hdr.NormSquared(Zm)
		if hdr.GreaterThan(ZmNormSq, hdr.FromFloat32(glitchZNormFloor)) {
			threshold := hdr.Mul(hdr.FromFloat32(glitchTauSquared), ZmNormSq)
			if hdr.LessThan(zNormSq, threshold) {
				glitched = true
			}
		}

		// BLA fast-forward: consult the table before the scalar step.
		if ref.BLA != nil {
			combined := hdr.Add(hdr.Sqrt(deltaZNormSq), hdr.Sqrt(hdr.NormSquared(deltaC)))
			if a, b, span, ok := ref.BLA.Lookup(m, combined); ok {
				remaining := maxIter - n + 1
				if uint32(span) <= remaining && m+span < ref.Len() {
					deltaZ = hdr.AddComplex(hdr.MulComplex(a, deltaZ), hdr.MulComplex(b, deltaC))
					m += span
					n += uint32(span)
					continue
				}
			}
		}

		// Advance: δz ← 2·Zₘ·δz + δz² + δc.
		newDeltaZ := hdr.AddComplex(
			hdr.AddComplex(hdr.MulComplex(two, hdr.MulComplex(Zm, deltaZ)), hdr.SquareComplex(deltaZ)),
			deltaC,
		)

		// ρ ← 2·(Zₘ·ρ + δz·dZₘ) + 2·δz·ρ + 1, algebraically equal to
		// ρ ← 2·z·ρ + 2·δz·dZₘ + 1 (z = Zₘ+δz), which is what is
		// computed below to avoid a redundant multiply.
		zRho := hdr.MulComplex(z, dDelta)
		dzDZm := hdr.MulComplex(deltaZ, dZm)
		newDDelta := hdr.AddComplex(
			hdr.AddComplex(hdr.MulComplex(two, zRho), hdr.MulComplex(two, dzDZm)),
			one,
		)

		deltaZ = newDeltaZ
		dDelta = newDDelta
		m++
		n++
	}

	return PixelResult{
		Iterations: maxIter,
		Escaped: false,
		FinalZNormSq: 0,
		Glitched: glitched,
	}
}
