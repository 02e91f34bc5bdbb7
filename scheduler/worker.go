package scheduler

import (
	"sync"
	"sync/atomic"

	"github.com/whalelogic/mandelbrot/kernel"
	"github.com/whalelogic/mandelbrot/orbit"
	"github.com/whalelogic/mandelbrot/palette"
)

// tileJob is one unit of work handed to a ComputeWorker.
type tileJob struct {
	chunk RenderChunk
	req FrameRequest
	ref *orbit.Orbit
	algo kernel.Algorithm
	cmap *palette.ColorMap
}

// tileOutcome is what a ComputeWorker reports back for one tileJob.
type tileOutcome struct {
	chunk RenderChunk
	result ChunkResult
	err error
}

// ComputeWorker is the polymorphic worker capability: the scheduler
// doesn't know whether a worker is an OS thread (native) or an isolated
// browser compute worker, only that it can be submitted a tile, report
// results through a callback, and be terminated.
type ComputeWorker interface {
	Submit(job tileJob)
	OnResult(cb func(tileOutcome))
	Terminate()
}

// goroutineWorker is the native ComputeWorker: an OS-scheduled goroutine
// with its own input queue.
type goroutineWorker struct {
	jobs chan tileJob
	cb func(tileOutcome)
	cbMu sync.RWMutex
	generation atomic.Uint64
	done chan struct{}
}

func newGoroutineWorker(queueDepth int) *goroutineWorker {
	w := &goroutineWorker{
		jobs: make(chan tileJob, queueDepth),
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *goroutineWorker) run() {
	for {
		select {
		case <-w.done:
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			gen := w.generation.Load()
			result := computeTile(job, func() bool {
				return w.generation.Load() != gen
			})
			w.cbMu.RLock()
			cb := w.cb
			w.cbMu.RUnlock()
			if cb != nil {
				cb(tileOutcome{chunk: job.chunk, result: result})
			}
		}
	}
}

// Submit implements ComputeWorker.
func (w *goroutineWorker) Submit(job tileJob) {
	select {
	case w.jobs <- job:
	case <-w.done:
	}
}

// OnResult implements ComputeWorker.
func (w *goroutineWorker) OnResult(cb func(tileOutcome)) {
	w.cbMu.Lock()
	w.cb = cb
	w.cbMu.Unlock()
}

// bumpGeneration invalidates any job currently in flight: the cancelled
// callback the running computeTile call polls will start returning true
// on its next loop-iteration check.
func (w *goroutineWorker) bumpGeneration() {
	w.generation.Add(1)
}

// Terminate implements ComputeWorker. It bumps the generation (so any
// in-flight computation abandons on its next cooperative check) and
// drains the queue; the goroutine itself keeps running until shutdown.
// Pool.Restart calls shutdown right after Terminate on every retired
// worker and spawns a fresh goroutine for each replacement.
func (w *goroutineWorker) Terminate() {
	w.bumpGeneration()
drain:
	for {
		select {
		case <-w.jobs:
		default:
			break drain
		}
	}
}

// shutdown permanently stops the worker goroutine (pool teardown only).
func (w *goroutineWorker) shutdown() {
	close(w.done)
}

func computeTile(job tileJob, cancelled kernel.Cancelled) ChunkResult {
	w, h := job.chunk.Width, job.chunk.Height
	bitmap := make([]byte, w*h*4)
	pixels := make([]kernel.PixelResult, w*h)
	maxIter := EffectiveIterations(job.req.Viewport)
	center := job.req.Viewport.Center.ToHDR()

	for y := 0; y < h; y++ {
		if cancelled() {
			return ChunkResult{Chunk: job.chunk, Bitmap: bitmap, Pixels: pixels, Failed: true}
		}
		for x := 0; x < w; x++ {
			canvasX := job.chunk.StartX + x
			canvasY := job.chunk.StartY + y
			deltaC := deltaCForPixel(canvasX, canvasY, job.req.CanvasWidth, job.req.CanvasHeight, job.req.Viewport)
			pr := job.algo.ComputePixel(job.ref, center, deltaC, maxIter, cancelled)
			idx := y*w + x
			pixels[idx] = pr

			c := colorFor(job.cmap, pr, maxIter)
			o := idx * 4
			bitmap[o], bitmap[o+1], bitmap[o+2], bitmap[o+3] = c[0], c[1], c[2], c[3]
		}
	}
	return ChunkResult{Chunk: job.chunk, Bitmap: bitmap, Pixels: pixels}
}

// EffectiveIterations derives the actual kernel iteration budget from a
// viewport's max_iterations and zoom.
func EffectiveIterations(vp Viewport) uint32 {
	return orbit.EffectiveMaxIterations(vp.MaxIterations, vp.IterationScalingFactor, vp.Zoom.Float64())
}

func colorFor(cmap *palette.ColorMap, pr kernel.PixelResult, maxIter uint32) [4]byte {
	if cmap == nil {
		if !pr.Escaped {
			return [4]byte{0, 0, 0, 255}
		}
		g := byte(255 * pr.Iterations / maxIter)
		return [4]byte{g, g, g, 255}
	}
	if !pr.Escaped {
		rgba := cmap.Interpolate(0)
		return [4]byte{rgba.R, rgba.G, rgba.B, rgba.A}
	}
	rgba := cmap.InterpolateSmooth(pr.Iterations, pr.FinalZNormSq, maxIter)
	return [4]byte{rgba.R, rgba.G, rgba.B, rgba.A}
}
