package orbit

import "github.com/whalelogic/mandelbrot/hdr"

// bla tolerance: the quadratic term dropped by the linear approximation
// must stay within this fraction of the reference magnitude at the step
// being skipped.
const blaTolerance = 1e-3

// blaStep is one (A, B, r) coefficient triple: for |δz| < r, one BLA
// step advances Span iterations as δz' = A·δz + B·δc.
type blaStep struct {
	A hdr.Complex
	B hdr.Complex
	Radius hdr.Float
}

// BLANode is the root handle returned to callers. Internally the tree is
// stored as an implicit levelled table — levels[0][i] is the
// single-iteration step starting at orbit index i, levels[L][i] is the
// composition of two levels[L-1] nodes covering span 2^L starting at i —
// a bottom-up "composing adjacent ranges" construction laid out as a
// flat array instead of linked nodes so lookups during the hot kernel
// loop are index arithmetic, not pointer chasing.
type BLANode struct {
	orbitLen int
	levels [][]blaStep // levels[L] has length orbitLen-1 - (span-1), span=1<<L
}

// leafBLA builds the single-step linear approximation at orbit index n:
// dropping the δz² term from δz_{n+1} = 2·Zₙ·δz_n + δz_n² + δc gives
// δz_{n+1} ≈ 2·Zₙ·δz_n + δc, valid while |δz_n| stays well below |Zₙ|.
func leafBLA(o *Orbit, n int) blaStep {
	zn := o.Z[n]
	two := hdr.Complex{Re: hdr.FromFloat32(2), Im: hdr.Zero}
	a := hdr.MulComplex(two, zn)
	b := hdr.Complex{Re: hdr.FromFloat32(1), Im: hdr.Zero}

	znNorm := hdr.NormSquared(zn)
	radius := hdr.Mul(hdr.FromFloat32(blaTolerance), hdr.Sqrt(znNorm))

	return blaStep{A: a, B: b, Radius: radius}
}

// mergeBLA composes a step covering [start, start+span) with the step
// covering [start+span, start+2span) into one step spanning both:
//
//	δz_b = A2·(A1·δz_a + B1·δc) + B2·δc = (A2·A1)·δz_a + (A2·B1 + B2)·δc
//
// The combined radius is the tighter of the first step's own radius and
// the radius required to keep the intermediate δz inside the second
// step's radius (ignoring the second step's B·δc cross term, which is
// negligible near the validity boundary since δc is orders of magnitude
// smaller than δz there — the standard BLA-merge approximation).
func mergeBLA(first, second blaStep) blaStep {
	a := hdr.MulComplex(second.A, first.A)
	b := hdr.AddComplex(hdr.MulComplex(second.A, first.B), second.B)

	aNorm := hdr.Sqrt(hdr.NormSquared(first.A))
	rFromSecond := second.Radius
	if hdr.GreaterThan(aNorm, hdr.Zero) {
		rFromSecond = divHDR(second.Radius, aNorm)
	}

	radius := first.Radius
	if hdr.LessThan(rFromSecond, radius) {
		radius = rFromSecond
	}

	return blaStep{A: a, B: b, Radius: radius}
}

func divHDR(a, b hdr.Float) hdr.Float {
	bf := b.ToFloat32()
	if bf == 0 {
		return hdr.Zero
	}
	return hdr.FromFloat32(a.ToFloat32() / bf)
}

// BuildBLATable builds the levelled BLA table bottom-up. Returns nil for
// orbits too short to benefit (BLA fast-forward needs at least 2
// points).
func BuildBLATable(o *Orbit) *BLANode {
	n := o.Len()
	if n < 2 {
		return nil
	}
	leaves := make([]blaStep, n-1)
	for i := range leaves {
		leaves[i] = leafBLA(o, i)
	}
	table := &BLANode{orbitLen: n, levels: [][]blaStep{leaves}}

	prev := leaves
	for span := 2; span < n; span *= 2 {
		count := n - span
		if count <= 0 {
			break
		}
		cur := make([]blaStep, count)
		for i := 0; i < count; i++ {
			cur[i] = mergeBLA(prev[i], prev[i+span/2])
		}
		table.levels = append(table.levels, cur)
		prev = cur
	}
	return table
}

// Lookup returns the coefficients and span of the largest BLA step
// rooted at orbit index m whose radius exceeds combinedNorm (the
// caller-computed |δz|+|δc|), or ok=false if no step applies, including
// when the table is nil.
func (t *BLANode) Lookup(m int, combinedNorm hdr.Float) (a, b hdr.Complex, span int, ok bool) {
	if t == nil {
		return hdr.ZeroComplex, hdr.ZeroComplex, 0, false
	}
	for lvl := len(t.levels) - 1; lvl >= 0; lvl-- {
		span := 1 << uint(lvl)
		if m >= len(t.levels[lvl]) {
			continue
		}
		step := t.levels[lvl][m]
		if hdr.LessThan(combinedNorm, step.Radius) {
			return step.A, step.B, span, true
		}
	}
	return hdr.ZeroComplex, hdr.ZeroComplex, 0, false
}
