package hdr

import (
	"math"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestSquareComplexMatchesMul(t *testing.T) {
	c := qt.New(t)
	a := FromFloat64Complex(3, 4)
	c.Assert(SquareComplex(a).Re.ToFloat32(), qt.Equals, MulComplex(a, a).Re.ToFloat32())
	c.Assert(SquareComplex(a).Im.ToFloat32(), qt.Equals, MulComplex(a, a).Im.ToFloat32())
}

func TestNormSquared(t *testing.T) {
	c := qt.New(t)
	a := FromFloat64Complex(3, 4)
	got := NormSquared(a).ToFloat32()
	c.Assert(math.Abs(float64(got)-25) < 1e-3, qt.IsTrue)
}

func TestConjComplex(t *testing.T) {
	c := qt.New(t)
	a := FromFloat64Complex(3, -4)
	conj := ConjComplex(a)
	c.Assert(conj.Im.ToFloat32(), qt.Equals, float32(4))
}

func TestDirectionNormalized(t *testing.T) {
	c := qt.New(t)
	a := FromFloat64Complex(3, 4)
	dx, dy := Direction(a)
	mag := math.Hypot(float64(dx), float64(dy))
	c.Assert(math.Abs(mag-1) < 1e-5, qt.IsTrue)
}

func TestDirectionAtExtremeExponents(t *testing.T) {
	c := qt.New(t)
	a := Complex{Re: FromMantExp(0.6, 200000), Im: FromMantExp(0.8, 200000)}
	dx, dy := Direction(a)
	mag := math.Hypot(float64(dx), float64(dy))
	c.Assert(math.Abs(mag-1) < 1e-4, qt.IsTrue)
}

func TestDirectionZero(t *testing.T) {
	c := qt.New(t)
	dx, dy := Direction(ZeroComplex)
	c.Assert(dx, qt.Equals, float32(0))
	c.Assert(dy, qt.Equals, float32(0))
}
