// Package hpfloat implements the arbitrary-precision binary float used
// only for reference-orbit construction and coordinate storage. It
// wraps math/big.Float: no third-party
// arbitrary-precision binary float library appears anywhere in the
// lineage this engine was built from, and math/big.Float already gives
// exact decimal round-tripping and configurable precision, so reaching
// for a bespoke or vendored bignum type here would add a dependency with
// no behavior math/big lacks (see DESIGN.md).
package hpfloat

import (
	"fmt"
	"math"
	"math/big"

	"github.com/pkg/errors"

	"github.com/whalelogic/mandelbrot/hdr"
)

// MinPrecisionBits is the floor below which deep-zoom reference orbits
// are guaranteed to exhibit catastrophic cancellation.
const MinPrecisionBits = 64

// Float is an arbitrary-precision binary float at a configured working
// precision.
type Float struct {
	v *big.Float
}

// New returns a zero-valued Float at the given working precision in bits.
func New(precisionBits uint) Float {
	return Float{v: new(big.Float).SetPrec(precisionBits)}
}

// FromFloat64 returns v represented at the given precision.
func FromFloat64(v float64, precisionBits uint) Float {
	return Float{v: new(big.Float).SetPrec(precisionBits).SetFloat64(v)}
}

// SetString parses a decimal string at the given working precision.
// Returns an error wrapping the parse failure so callers can unwrap the
// root cause with errors.Cause.
func SetString(s string, precisionBits uint) (Float, error) {
	v, _, err := big.ParseFloat(s, 10, precisionBits, big.ToNearestEven)
	if err != nil {
		return Float{}, errors.Wrapf(err, "hpfloat: parse %q", s)
	}
	return Float{v: v}, nil
}

// String renders f as a fixed-precision decimal string with at least the
// requested number of significant digits — the ChunkFingerprint
// representation requires this to be stable and lossless enough to
// distinguish any two viewports that would render differently.
func (f Float) String(sigDigits int) string {
	if f.v == nil {
		return "0"
	}
	return f.v.Text('g', sigDigits)
}

// Float64 returns the nearest float64 approximation, for call sites that
// only need a coarse magnitude (e.g. deriving the effective iteration
// budget from zoom, or the preview's scale ratio) and explicitly accept
// the precision loss.
func (f Float) Float64() float64 {
	if f.v == nil {
		return 0
	}
	v, _ := f.v.Float64()
	return v
}

// Prec returns the working precision in bits.
func (f Float) Prec() uint {
	if f.v == nil {
		return 0
	}
	return f.v.Prec()
}

// Add returns a+b. Both operands must share working precision; the
// result is computed at that precision.
func Add(a, b Float) Float {
	r := new(big.Float).SetPrec(a.v.Prec())
	return Float{v: r.Add(a.v, b.v)}
}

// Sub returns a-b.
func Sub(a, b Float) Float {
	r := new(big.Float).SetPrec(a.v.Prec())
	return Float{v: r.Sub(a.v, b.v)}
}

// Mul returns a*b.
func Mul(a, b Float) Float {
	r := new(big.Float).SetPrec(a.v.Prec())
	return Float{v: r.Mul(a.v, b.v)}
}

// Square returns a*a.
func Square(a Float) Float {
	return Mul(a, a)
}

// Div returns a/b, e.g. the preview's scale_ratio = current.zoom /
// last.zoom, computed at full working precision before any truncation
// to float64 for pixel math.
func Div(a, b Float) Float {
	r := new(big.Float).SetPrec(a.v.Prec())
	return Float{v: r.Quo(a.v, b.v)}
}

// Cmp returns -1, 0, 1 as a<b, a==b, a>b.
func Cmp(a, b Float) int {
	return a.v.Cmp(b.v)
}

// ToHDR converts to HDR form for kernel consumption. MantExp splits the
// value into a mantissa in [0.5, 1) and a binary exponent, so magnitudes
// beyond float64's exponent range convert safely; the mantissa is read
// as a float64 and carried in the HDR head and tail, keeping about 48
// bits of it rather than a single float32's 24.
func (f Float) ToHDR() hdr.Float {
	if f.v == nil || f.v.Sign() == 0 {
		return hdr.Zero
	}
	mant := new(big.Float)
	exp := f.v.MantExp(mant)
	m, _ := mant.Float64()
	head := float32(m)
	hi := hdr.FromMantExp(head, int32(exp))
	rest := m - float64(head)
	if rest == 0 {
		return hi
	}
	restFrac, restExp := math.Frexp(rest)
	return hdr.Add(hi, hdr.FromMantExp(float32(restFrac), int32(exp)+int32(restExp)))
}

// Complex is a pair of HPFloat components.
type Complex struct {
	Re Float
	Im Float
}

// ToHDR converts a Complex to HDR form.
func (c Complex) ToHDR() hdr.Complex {
	return hdr.Complex{Re: c.Re.ToHDR(), Im: c.Im.ToHDR()}
}

// RequiredPrecisionBits implements the formula:
//
//	⌈log₂(canvas_height·zoom/view_height)⌉ + ⌈log₂(max_iter)⌉ + 32
//
// view_height is the reference half-height convention of 2 units.
func RequiredPrecisionBits(zoom float64, canvasHeight int, maxIter uint32) uint {
	const viewHeight = 2.0
	if zoom < 1 {
		zoom = 1
	}
	if maxIter < 1 {
		maxIter = 1
	}
	zoomTerm := math.Ceil(math.Log2(float64(canvasHeight) * zoom / viewHeight))
	iterTerm := math.Ceil(math.Log2(float64(maxIter)))
	bits := zoomTerm + iterTerm + 32
	if bits < MinPrecisionBits {
		bits = MinPrecisionBits
	}
	return uint(bits)
}

// DefaultMaxPrecisionBits is the precision ceiling applied when a host
// doesn't configure one explicitly: generous enough for extreme deep
// zooms while still bounding the cost of every big.Float operation on
// the reference orbit.
const DefaultMaxPrecisionBits = 4096

// ErrPrecisionBudgetExhausted is returned when a requested precision
// exceeds a configured maximum budget.
var ErrPrecisionBudgetExhausted = errors.New("hpfloat: required precision exceeds configured maximum")

// CheckBudget returns ErrPrecisionBudgetExhausted (wrapped with the
// offending values) if requiredBits exceeds maxBits.
func CheckBudget(requiredBits uint, maxBits uint) error {
	if requiredBits > maxBits {
		return errors.Wrap(ErrPrecisionBudgetExhausted,
			fmt.Sprintf("required=%d max=%d", requiredBits, maxBits))
	}
	return nil
}
