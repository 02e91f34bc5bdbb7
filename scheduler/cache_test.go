package scheduler

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func fp(n int) Fingerprint {
	return Fingerprint{StartX: n, StartY: n, Width: 20, Height: 20}
}

func TestCacheGetSetIdempotence(t *testing.T) {
	c := qt.New(t)
	cache := NewCache(10)
	want := ChunkResult{Chunk: RenderChunk{StartX: 1, StartY: 1, Width: 20, Height: 20}, Bitmap: []byte{1, 2, 3, 4}}
	cache.Set(fp(1), want)

	got1, ok1 := cache.Get(fp(1))
	got2, ok2 := cache.Get(fp(1))
	c.Assert(ok1, qt.IsTrue)
	c.Assert(ok2, qt.IsTrue)
	c.Assert(got1.Bitmap, qt.DeepEquals, got2.Bitmap)
}

func TestCacheMiss(t *testing.T) {
	c := qt.New(t)
	cache := NewCache(10)
	_, ok := cache.Get(fp(99))
	c.Assert(ok, qt.IsFalse)
}

// TestCacheLRUEviction: capacity 3, insert K1,K2,K3, read K2, insert K4
// -> K1 evicted, K2/K3/K4 remain.
func TestCacheLRUEviction(t *testing.T) {
	c := qt.New(t)
	cache := NewCache(3)
	cache.Set(fp(1), ChunkResult{})
	cache.Set(fp(2), ChunkResult{})
	cache.Set(fp(3), ChunkResult{})
	cache.Get(fp(2))
	cache.Set(fp(4), ChunkResult{})

	c.Assert(cache.Has(fp(1)), qt.IsFalse)
	c.Assert(cache.Has(fp(2)), qt.IsTrue)
	c.Assert(cache.Has(fp(3)), qt.IsTrue)
	c.Assert(cache.Has(fp(4)), qt.IsTrue)
	c.Assert(cache.Len(), qt.Equals, 3)
}

func TestCacheClear(t *testing.T) {
	c := qt.New(t)
	cache := NewCache(3)
	cache.Set(fp(1), ChunkResult{})
	cache.Clear()
	c.Assert(cache.Len(), qt.Equals, 0)
	c.Assert(cache.Has(fp(1)), qt.IsFalse)
}

func TestCacheInvalidateRegion(t *testing.T) {
	c := qt.New(t)
	cache := NewCache(10)
	cache.Set(Fingerprint{StartX: 0, StartY: 0, Width: 20, Height: 20}, ChunkResult{})
	cache.Set(Fingerprint{StartX: 100, StartY: 100, Width: 20, Height: 20}, ChunkResult{})
	cache.InvalidateRegion(RenderChunk{StartX: 0, StartY: 0, Width: 30, Height: 30})

	c.Assert(cache.Has(Fingerprint{StartX: 0, StartY: 0, Width: 20, Height: 20}), qt.IsFalse)
	c.Assert(cache.Has(Fingerprint{StartX: 100, StartY: 100, Width: 20, Height: 20}), qt.IsTrue)
}

func TestCacheStats(t *testing.T) {
	c := qt.New(t)
	cache := NewCache(10)
	cache.Get(fp(1))
	cache.Set(fp(1), ChunkResult{})
	cache.Get(fp(1))
	hits, misses := cache.Stats()
	c.Assert(hits, qt.Equals, int64(1))
	c.Assert(misses, qt.Equals, int64(1))
}
