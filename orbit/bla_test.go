package orbit

import (
	"context"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/whalelogic/mandelbrot/hdr"
)

func TestBLALookupNilTable(t *testing.T) {
	c := qt.New(t)
	var tbl *BLANode
	_, _, _, ok := tbl.Lookup(0, hdr.FromFloat32(1e-6))
	c.Assert(ok, qt.IsFalse)
}

func TestBLALookupFindsLeafWithinRadius(t *testing.T) {
	c := qt.New(t)
	o, err := Compute(context.Background(), center(-0.5, 0, 64), 64, 64)
	c.Assert(err, qt.IsNil)
	c.Assert(o.BLA, qt.IsNotNil)

	// Index 1, not 0: every orbit starts at Z0 = 0, where the leaf radius
	// (a fraction of |Z0|) is zero and no step can apply.
	_, _, span, ok := o.BLA.Lookup(1, hdr.FromFloat32(0))
	c.Assert(ok, qt.IsTrue)
	c.Assert(span >= 1, qt.IsTrue)
}

func TestBLALookupRejectsOversizedDelta(t *testing.T) {
	c := qt.New(t)
	o, err := Compute(context.Background(), center(-0.5, 0, 64), 64, 64)
	c.Assert(err, qt.IsNil)

	_, _, _, ok := o.BLA.Lookup(0, hdr.FromFloat32(1e30))
	c.Assert(ok, qt.IsFalse)
}

func TestMergeBLARadiusNeverExceedsFirst(t *testing.T) {
	c := qt.New(t)
	o, err := Compute(context.Background(), center(-0.5, 0, 64), 64, 64)
	c.Assert(err, qt.IsNil)

	first := leafBLA(o, 0)
	second := leafBLA(o, 1)
	merged := mergeBLA(first, second)
	c.Assert(hdr.GreaterThan(merged.Radius, first.Radius), qt.IsFalse)
}
