package scheduler

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/whalelogic/mandelbrot/hpfloat"
	"github.com/whalelogic/mandelbrot/kernel"
	"github.com/whalelogic/mandelbrot/orbit"
	"github.com/whalelogic/mandelbrot/palette"
	"github.com/whalelogic/mandelbrot/surface"
)

// CancellationBudget is the 500ms bound from cancel() to
// worker-termination-complete and from acceptance of a new FrameRequest
// to the point dispatch for it begins.
const CancellationBudget = 500 * time.Millisecond

// Error taxonomy. TileComputationFailed and Cancelled never
// propagate as fatal handle errors; ErrInvalidRequest is returned
// directly from SubmitFrame, never via a FrameHandle.
var (
	ErrInvalidRequest = errors.New("scheduler: invalid frame request")
	ErrCancelled = errors.New("scheduler: frame cancelled")
)

// Algorithms is the closed registry of the algorithm identifiers.
var Algorithms = map[string]kernel.Algorithm{
	"mandelbrot": kernel.Direct{},
	"perturbation_mandelbrot": kernel.Perturbation{},
}

// Scheduler is the Tile Scheduler & Cache coordinator: single-
// threaded cooperative, owning the cache and the surface, dispatching
// tiles to a worker pool it can terminate-and-recreate on demand.
type Scheduler struct {
	mu sync.Mutex
	cache *Cache
	pool *Pool
	surface surface.Surface
	cmap *palette.ColorMap

	lastZoomStr string
	lastAlgorithmID string
	lastMaxIter uint32
	haveLast bool

	maxPrecisionBits uint

	active *activeFrame
}

type activeFrame struct {
	frameID uint64
	cancel context.CancelFunc
	handle *FrameHandle
}

// FrameHandle is the handle returned by SubmitFrame.
type FrameHandle struct {
	total int32
	completed atomic.Int32
	done chan struct{}
	err error
	errOnce sync.Once
	cancelFn context.CancelFunc
	cancelled atomic.Bool
}

// Progress returns completed/total ∈ [0,1].
func (h *FrameHandle) Progress() float32 {
	total := h.total
	if total == 0 {
		return 1
	}
	return float32(h.completed.Load()) / float32(total)
}

// Cancel requests termination of this frame's in-flight work. Safe to
// call multiple times or after completion.
func (h *FrameHandle) Cancel() {
	h.cancelled.Store(true)
	if h.cancelFn != nil {
		h.cancelFn()
	}
}

// AwaitDone blocks until the frame finishes, fails fatally, or is
// cancelled, returning the fatal error if any (nil for a clean or
// cancelled completion — cancellation is not an error at this
// boundary, callers check Cancelled() to distinguish the two).
func (h *FrameHandle) AwaitDone() error {
	<-h.done
	return h.err
}

// Cancelled reports whether Cancel was called on this handle.
func (h *FrameHandle) Cancelled() bool {
	return h.cancelled.Load()
}

func (h *FrameHandle) finish(err error) {
	h.errOnce.Do(func() {
		h.err = err
		close(h.done)
	})
}

// NewScheduler wires a cache and worker pool around an output surface
// and default palette.
func NewScheduler(surf surface.Surface, cache *Cache, pool *Pool, cmap *palette.ColorMap) *Scheduler {
	return &Scheduler{surface: surf, cache: cache, pool: pool, cmap: cmap, maxPrecisionBits: hpfloat.DefaultMaxPrecisionBits}
}

// SetMaxPrecisionBits overrides the precision ceiling a reference orbit's
// required precision is checked against before it is computed. bits <= 0
// is a no-op, leaving the existing ceiling (DefaultMaxPrecisionBits
// unless already overridden) in place.
func (s *Scheduler) SetMaxPrecisionBits(bits uint) {
	if bits == 0 {
		return
	}
	s.mu.Lock()
	s.maxPrecisionBits = bits
	s.mu.Unlock()
}

// SubmitFrame is the single scheduler entry point.
func (s *Scheduler) SubmitFrame(req FrameRequest) (*FrameHandle, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Preview-state capture happens before worker termination so even a
	// partially-rendered frame can serve as a preview source.
	if s.active != nil {
		w, h := s.surface.Size()
		_, _ = s.surface.Snapshot(0, 0, w, h) // preview reads the surface directly; this call documents the ordering guarantee
		s.active.cancel()
		s.active.handle.finish(nil)
	}

	s.applyInvalidationPolicy(req)

	ctx, cancel := context.WithCancel(context.Background())
	handle := &FrameHandle{done: make(chan struct{}), cancelFn: cancel}

	// Terminate-and-recreate: issue worker termination before any new
	// dispatch begins.
	s.pool.Restart()

	s.active = &activeFrame{frameID: req.FrameID, cancel: cancel, handle: handle}

	go s.runFrame(ctx, req, handle)

	return handle, nil
}

func validate(req FrameRequest) error {
	if req.CanvasWidth <= 0 || req.CanvasHeight <= 0 {
		return errors.Wrap(ErrInvalidRequest, "zero-sized canvas")
	}
	zoom := req.Viewport.Zoom.Float64()
	if math.IsNaN(zoom) || math.IsInf(zoom, 0) || zoom <= 0 {
		return errors.Wrap(ErrInvalidRequest, "non-finite or non-positive zoom")
	}
	if _, ok := Algorithms[req.AlgorithmID]; !ok {
		return errors.Wrap(ErrInvalidRequest, fmt.Sprintf("unknown algorithm id %q", req.AlgorithmID))
	}
	return nil
}

// applyInvalidationPolicy implements its cache-invalidation rules:
// zoom/algorithm/max_iterations changes clear the whole cache; a
// center-only change (pan) retains it, since the fingerprint ties
// computation to absolute center and this spec does not require
// pan-reuse as an optimization.
func (s *Scheduler) applyInvalidationPolicy(req FrameRequest) {
	zoomStr := req.Viewport.Zoom.String(zoomSigDigits(req.Viewport.Zoom.Prec()))
	if s.haveLast && (zoomStr != s.lastZoomStr || req.AlgorithmID != s.lastAlgorithmID || req.Viewport.MaxIterations != s.lastMaxIter) {
		s.cache.Clear()
	}
	s.lastZoomStr = zoomStr
	s.lastAlgorithmID = req.AlgorithmID
	s.lastMaxIter = req.Viewport.MaxIterations
	s.haveLast = true
}

func (s *Scheduler) runFrame(ctx context.Context, req FrameRequest, handle *FrameHandle) {
	defer func() {
		s.mu.Lock()
		if s.active != nil && s.active.frameID == req.FrameID {
			s.active = nil
		}
		s.mu.Unlock()
		handle.finish(handle.err)
	}()

	side := TileSide(req.CanvasWidth, req.CanvasHeight, PreferredTileCount(req.Viewport.Zoom.Float64()))
	tiles := GenerateTiles(req.CanvasWidth, req.CanvasHeight, side)
	handle.total = int32(len(tiles))

	algo, ok := Algorithms[req.AlgorithmID]
	if !ok {
		handle.err = errors.Wrap(ErrInvalidRequest, "unknown algorithm id")
		return
	}

	var ref *orbit.Orbit
	needsOrbit := req.AlgorithmID == "perturbation_mandelbrot"
	if needsOrbit {
		precisionBits := orbit.RequiredPrecisionBits(req.Viewport.Zoom.Float64(), req.CanvasHeight, EffectiveIterations(req.Viewport))
		s.mu.Lock()
		maxBits := s.maxPrecisionBits
		s.mu.Unlock()
		if err := hpfloat.CheckBudget(precisionBits, maxBits); err != nil {
			handle.err = err
			return
		}
		var err error
		ref, err = orbit.Compute(ctx, req.Viewport.Center, EffectiveIterations(req.Viewport), precisionBits)
		if err != nil {
			if ctx.Err() != nil {
				return // cancelled, not fatal
			}
			handle.err = errors.Wrap(orbit.ErrReferenceOrbitFailed, err.Error())
			return
		}
	}

	pending := 0
	for i, chunk := range tiles {
		if ctx.Err() != nil {
			return
		}
		fp := NewFingerprint(chunk, req)
		if cached, ok := s.cache.Get(fp); ok {
			s.paint(cached)
			handle.completed.Add(1)
			continue
		}
		pending++
		s.pool.Dispatch(i, tileJob{chunk: chunk, req: req, ref: ref, algo: algo, cmap: s.cmap})
	}

	if pending == 0 {
		return
	}

	results := s.pool.Results()
	for pending > 0 {
		select {
		case <-ctx.Done():
			return
		case out := <-results:
			pending--
			if out.err != nil || out.result.Failed {
				log.Printf("scheduler: tile (%d,%d) failed, painting diagnostic color", out.chunk.StartX, out.chunk.StartY)
				out.result = diagnosticResult(out.chunk)
			} else {
				fp := NewFingerprint(out.chunk, req)
				s.cache.Set(fp, out.result)
			}
			s.paint(out.result)
			handle.completed.Add(1)
		}
	}
}

func (s *Scheduler) paint(result ChunkResult) {
	if err := s.surface.Blit(result.Chunk.StartX, result.Chunk.StartY, result.Chunk.Width, result.Chunk.Height, result.Bitmap); err != nil {
		log.Printf("scheduler: blit failed: %v", err)
	}
}

// diagnosticResult is the TileComputationFailed recovery: a neutral
// diagnostic color, so the frame can proceed.
func diagnosticResult(chunk RenderChunk) ChunkResult {
	bitmap := make([]byte, chunk.Width*chunk.Height*4)
	for i := 0; i < chunk.Width*chunk.Height; i++ {
		o := i * 4
		bitmap[o], bitmap[o+1], bitmap[o+2], bitmap[o+3] = 128, 0, 128, 255
	}
	return ChunkResult{Chunk: chunk, Bitmap: bitmap, Failed: true}
}

// CacheStats exposes the cache's hit/miss counters for telemetry.
func (s *Scheduler) CacheStats() (hits, misses int64) {
	return s.cache.Stats()
}
