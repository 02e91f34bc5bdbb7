// Package orbit computes the high-precision reference orbit and its
// optional BLA (bivariate linear approximation) table that the
// perturbation kernel iterates against.
package orbit

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/whalelogic/mandelbrot/hdr"
	"github.com/whalelogic/mandelbrot/hpfloat"
)

// EscapeRadius is the default bailout radius (256, i.e. radius² = 65536)
// — chosen over the classic 4 to give smooth coloring enough dynamic
// range.
const EscapeRadius = 256.0

// EscapeRadiusSquared is EscapeRadius².
const EscapeRadiusSquared = EscapeRadius * EscapeRadius

// ErrReferenceOrbitFailed wraps any HPFloat failure during orbit
// construction; it is fatal to the frame.
var ErrReferenceOrbitFailed = errors.New("orbit: reference orbit computation failed")

// Orbit is a ReferenceOrbit: the Zₙ sequence and its derivative dZₙ, both
// converted to HDR for kernel consumption, plus the escape iteration (-1
// if the orbit never escaped within the budget) and an optional BLA
// table.
type Orbit struct {
	Z []hdr.Complex
	DZ []hdr.Complex
	EscapeIteration int
	BLA *BLANode
}

// Len returns the number of stored orbit points.
func (o *Orbit) Len() int { return len(o.Z) }

// Escaped reports whether the orbit escaped before exhausting maxIter.
func (o *Orbit) Escaped() bool { return o.EscapeIteration >= 0 }

// Compute builds the reference orbit at center C for up to maxIter
// steps, truncating at the first escape, converts it to HDR, and then
// builds the BLA table. The BLA build is the only task in an errgroup
// that Compute waits on; it runs after the orbit is complete, so nothing
// runs concurrently with it. Another independent precomputation (e.g. a
// periodicity check) could join the same group without changing call
// sites.
func Compute(ctx context.Context, center hpfloat.Complex, maxIter uint32, precisionBits uint) (*Orbit, error) {
	zRe := make([]hpfloat.Float, 0, maxIter+1)
	zIm := make([]hpfloat.Float, 0, maxIter+1)
	dzRe := make([]hpfloat.Float, 0, maxIter+1)
	dzIm := make([]hpfloat.Float, 0, maxIter+1)

	curRe := hpfloat.New(precisionBits)
	curIm := hpfloat.New(precisionBits)
	dRe := hpfloat.New(precisionBits)
	dIm := hpfloat.New(precisionBits)
	one := hpfloat.FromFloat64(1, precisionBits)
	two := hpfloat.FromFloat64(2, precisionBits)

	escapeIter := -1
	n := uint32(0)
	for ; n <= maxIter; n++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(ErrReferenceOrbitFailed, err.Error())
		}

		zRe = append(zRe, curRe)
		zIm = append(zIm, curIm)
		dzRe = append(dzRe, dRe)
		dzIm = append(dzIm, dIm)

		normSq := hpfloat.Add(hpfloat.Square(curRe), hpfloat.Square(curIm))
		escapeThreshold := hpfloat.FromFloat64(EscapeRadiusSquared, precisionBits)
		if hpfloat.Cmp(normSq, escapeThreshold) > 0 {
			escapeIter = int(n)
			break
		}
		if n == maxIter {
			break
		}

		// dZₙ₊₁ = 2·Zₙ·dZₙ + 1
		zdRe := hpfloat.Sub(hpfloat.Mul(curRe, dRe), hpfloat.Mul(curIm, dIm))
		zdIm := hpfloat.Add(hpfloat.Mul(curRe, dIm), hpfloat.Mul(curIm, dRe))
		newDRe := hpfloat.Add(hpfloat.Mul(two, zdRe), one)
		newDIm := hpfloat.Mul(two, zdIm)

		// Zₙ₊₁ = Zₙ² + C
		newZRe := hpfloat.Add(hpfloat.Sub(hpfloat.Square(curRe), hpfloat.Square(curIm)), center.Re)
		newZIm := hpfloat.Add(hpfloat.Mul(two, hpfloat.Mul(curRe, curIm)), center.Im)

		curRe, curIm = newZRe, newZIm
		dRe, dIm = newDRe, newDIm
	}

	o := &Orbit{
		Z: make([]hdr.Complex, len(zRe)),
		DZ: make([]hdr.Complex, len(zRe)),
		EscapeIteration: escapeIter,
	}
	for i := range zRe {
		o.Z[i] = hdr.Complex{Re: zRe[i].ToHDR(), Im: zIm[i].ToHDR()}
		o.DZ[i] = hdr.Complex{Re: dzRe[i].ToHDR(), Im: dzIm[i].ToHDR()}
	}

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		o.BLA = BuildBLATable(o)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(ErrReferenceOrbitFailed, err.Error())
	}

	return o, nil
}

// RequiredPrecisionBits re-exports hpfloat's precision formula for
// callers that only have orbit-level context (canvas height, zoom,
// iteration budget).
func RequiredPrecisionBits(zoom float64, canvasHeight int, maxIter uint32) uint {
	return hpfloat.RequiredPrecisionBits(zoom, canvasHeight, maxIter)
}

// EffectiveMaxIterations implements the strictly increasing,
// piecewise-continuous iteration-budget formula:
//
//	below threshold: round(max + scaling·log10(zoom+1)^1.5)
//	at/above threshold: baseAtThreshold + scaling·(log10(zoom+1) - log10(threshold))³
func EffectiveMaxIterations(maxIterations, scaling uint32, zoom float64) uint32 {
	const threshold = 2.5e5
	logZoom := math.Log10(zoom + 1)
	logThreshold := math.Log10(threshold)
	if logZoom < logThreshold {
		v := float64(maxIterations) + float64(scaling)*math.Pow(logZoom, 1.5)
		return uint32(math.Round(v))
	}
	baseAtThreshold := float64(maxIterations) + float64(scaling)*math.Pow(logThreshold, 1.5)
	v := baseAtThreshold + float64(scaling)*math.Pow(logZoom-logThreshold, 3)
	return uint32(math.Round(v))
}
