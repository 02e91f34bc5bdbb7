// Package hdr implements the high-dynamic-range scalar and complex types
// used by the perturbation kernel: a (head, tail, exp) triple giving
// double-float mantissa precision with an extended exponent range so
// values near 10^±300 and beyond never overflow/underflow a plain f64.
package hdr

import "math"

// maxExp/minExp bound the saturating exponent arithmetic so repeated
// squaring at extreme depth cannot wrap an int32.
const (
	maxExp = math.MaxInt32 - 1<<20
	minExp = math.MinInt32 + 1<<20
)

// Float is (head+tail)·2^exp. After Normalize, |head| ∈ [0.5, 1) or the
// value is exactly zero.
type Float struct {
	head float32
	tail float32
	exp int32
}

// Zero is the additive identity.
var Zero = Float{}

func addExpSaturating(a, b int32) int32 {
	sum := int64(a) + int64(b)
	if sum > maxExp {
		return maxExp
	}
	if sum < minExp {
		return minExp
	}
	return int32(sum)
}

func subExpSaturating(a, b int32) int32 {
	return addExpSaturating(a, -b)
}

// FromFloat32 converts a plain f32 into HDR form with a correctly
// extracted exponent: 500 normalizes to head≈0.977, exp=9, never
// head=500, exp=0.
func FromFloat32(v float32) Float {
	if v == 0 {
		return Zero
	}
	frac, exp := math.Frexp(float64(v))
	return Float{head: float32(frac), exp: int32(exp)}
}

// ToFloat32 converts back to plain f32. It returns 0 on underflow and
// ±1e38 on overflow; it never clamps the exponent and recomputes the
// mantissa, since that silently corrupts the value's ratio to other HDR
// numbers at extreme magnitudes.
func (f Float) ToFloat32() float32 {
	if f.head == 0 && f.tail == 0 {
		return 0
	}
	v := math.Ldexp(float64(f.head)+float64(f.tail), int(f.exp))
	switch {
	case math.IsInf(v, 1) || v > math.MaxFloat32:
		return 1e38
	case math.IsInf(v, -1) || v < -math.MaxFloat32:
		return -1e38
	}
	r := float32(v)
	if r == 0 && v != 0 {
		return 0
	}
	return r
}

// FromMantExp builds an HDR float directly from an already-normalized
// mantissa/exponent pair (head ∈ [0.5,1) or zero). Unlike FromFloat32,
// this never routes through a plain f64, so it is safe for magnitudes
// that would over/underflow a float64's own exponent range — exactly
// the case when converting an HPFloat reference-orbit coordinate, whose
// exponent can run into the thousands at extreme zoom.
func FromMantExp(head float32, exp int32) Float {
	if head == 0 {
		return Zero
	}
	return Float{head: head, exp: exp}
}

// normalizeFromF64 renormalizes a full-precision f64 sum/product at a
// given base exponent into HDR form, splitting the f64 mantissa across
// head and tail so precision beyond a single f32 is preserved.
func normalizeFromF64(v float64, baseExp int32) Float {
	if v == 0 {
		return Zero
	}
	frac, e := math.Frexp(v)
	head := float32(frac)
	tail := float32(frac - float64(head))
	return Float{head: head, tail: tail, exp: addExpSaturating(baseExp, int32(e))}
}

func (f Float) asF64() float64 {
	return float64(f.head) + float64(f.tail)
}

func (f Float) isZero() bool {
	return f.head == 0 && f.tail == 0
}

func (f Float) sign() int {
	switch {
	case f.head > 0:
		return 1
	case f.head < 0:
		return -1
	default:
		return 0
	}
}

// Negate returns -f.
func (f Float) Negate() Float {
	return Float{head: -f.head, tail: -f.tail, exp: f.exp}
}

// Add returns a+b, aligning exponents before summing at f64 precision.
func Add(a, b Float) Float {
	if a.isZero() {
		return b
	}
	if b.isZero() {
		return a
	}
	base := a.exp
	if b.exp > base {
		base = b.exp
	}
	av := math.Ldexp(a.asF64(), int(subExpSaturating(a.exp, base)))
	bv := math.Ldexp(b.asF64(), int(subExpSaturating(b.exp, base)))
	return normalizeFromF64(av+bv, base)
}

// Sub returns a-b.
func Sub(a, b Float) Float {
	return Add(a, b.Negate())
}

// Mul returns a*b.
func Mul(a, b Float) Float {
	if a.isZero() || b.isZero() {
		return Zero
	}
	v := a.asF64() * b.asF64()
	return normalizeFromF64(v, addExpSaturating(a.exp, b.exp))
}

// Div returns a/b. b must be non-zero; HDR has no representation for
// infinity and division by zero is disallowed by construction (the
// engine never constructs a zero divisor).
func Div(a, b Float) Float {
	if a.isZero() {
		return Zero
	}
	v := a.asF64() / b.asF64()
	return normalizeFromF64(v, subExpSaturating(a.exp, b.exp))
}

// Square returns a*a.
func Square(a Float) Float {
	return Mul(a, a)
}

// Compare returns -1, 0, or 1 as a<b, a==b, a>b, comparing sign, then
// exponent, then mantissa rather than subtracting (subtraction of
// near-equal HDR values would reintroduce the cancellation HDR exists
// to avoid).
func Compare(a, b Float) int {
	as, bs := a.sign(), b.sign()
	if as != bs {
		if as < bs {
			return -1
		}
		return 1
	}
	if as == 0 {
		return 0
	}
	mag := compareMagnitude(a, b)
	if as < 0 {
		mag = -mag
	}
	return mag
}

func compareMagnitude(a, b Float) int {
	if a.exp != b.exp {
		if a.exp < b.exp {
			return -1
		}
		return 1
	}
	av, bv := a.asF64(), b.asF64()
	switch {
	case av < bv:
		return -1
	case av > bv:
		return 1
	default:
		return 0
	}
}

// Sqrt approximates the square root of a non-negative HDR value via an
// f64-seeded Newton-Raphson iteration on the f32 projection. Adequate
// for tolerance/radius comparisons (BLA validity, combined-delta
// magnitude) which are heuristics, not values that feed the escape
// test directly.
func Sqrt(v Float) Float {
	f := v.ToFloat32()
	if f <= 0 {
		return Zero
	}
	x := float64(f)
	guess := x
	for i := 0; i < 6; i++ {
		guess = 0.5 * (guess + x/guess)
	}
	return FromFloat32(float32(guess))
}

// GreaterThan is a convenience wrapper around Compare.
func GreaterThan(a, b Float) bool { return Compare(a, b) > 0 }

// LessThan is a convenience wrapper around Compare.
func LessThan(a, b Float) bool { return Compare(a, b) < 0 }
