package hdr

import "math"

// Complex is a pair of HDR floats: re + im·i.
type Complex struct {
	Re Float
	Im Float
}

// ZeroComplex is the additive identity.
var ZeroComplex = Complex{}

// AddComplex returns a+b.
func AddComplex(a, b Complex) Complex {
	return Complex{Re: Add(a.Re, b.Re), Im: Add(a.Im, b.Im)}
}

// SubComplex returns a-b.
func SubComplex(a, b Complex) Complex {
	return Complex{Re: Sub(a.Re, b.Re), Im: Sub(a.Im, b.Im)}
}

// MulComplex returns a*b: (ac-bd) + (ad+bc)i.
func MulComplex(a, b Complex) Complex {
	ac := Mul(a.Re, b.Re)
	bd := Mul(a.Im, b.Im)
	ad := Mul(a.Re, b.Im)
	bc := Mul(a.Im, b.Re)
	return Complex{Re: Sub(ac, bd), Im: Add(ad, bc)}
}

// SquareComplex returns a*a: (re²-im²) + 2·re·im·i.
func SquareComplex(a Complex) Complex {
	reSq := Square(a.Re)
	imSq := Square(a.Im)
	reIm := Mul(a.Re, a.Im)
	return Complex{Re: Sub(reSq, imSq), Im: Add(reIm, reIm)}
}

// ConjComplex returns the complex conjugate.
func ConjComplex(a Complex) Complex {
	return Complex{Re: a.Re, Im: a.Im.Negate()}
}

// NormSquared returns |a|² = re²+im² as an HDR float.
func NormSquared(a Complex) Float {
	return Add(Square(a.Re), Square(a.Im))
}

// Direction returns a unit 2D vector for a, used for surface-normal
// shading. Both components are first scaled to a common HDR exponent
// and only then converted to f32 and normalized — converting each
// component to f32 independently destroys the ratio between them at
// extreme magnitudes and is the known deep-zoom lighting artifact this
// function exists to avoid.
func Direction(a Complex) (float32, float32) {
	if a.Re.isZero() && a.Im.isZero() {
		return 0, 0
	}
	common := a.Re.exp
	if a.Im.exp > common {
		common = a.Im.exp
	}
	reAt := math.Ldexp(a.Re.asF64(), int(subExpSaturating(a.Re.exp, common)))
	imAt := math.Ldexp(a.Im.asF64(), int(subExpSaturating(a.Im.exp, common)))
	re32, im32 := float32(reAt), float32(imAt)
	norm := float32(math.Hypot(float64(re32), float64(im32)))
	if norm == 0 {
		return 0, 0
	}
	return re32 / norm, im32 / norm
}

// FromFloat64Complex constructs an HDR complex from two float64
// components. Each component is narrowed to float32 first, so digits
// beyond float32 precision and magnitudes outside float32's range are
// lost. The tile pipeline does not use it: scheduler.deltaCForPixel
// builds δc in HDR from the integer pixel offset and the fractal scale.
func FromFloat64Complex(re, im float64) Complex {
	return Complex{Re: FromFloat32(float32(re)), Im: FromFloat32(float32(im))}
}
