// Package engine is the public entry point: it owns the
// scheduler, cache, worker pool, and output surface, and exposes the
// single submit_frame boundary plus optional session persistence.
package engine

import (
	"image"

	"github.com/pkg/errors"

	"github.com/whalelogic/mandelbrot/hpfloat"
	"github.com/whalelogic/mandelbrot/palette"
	"github.com/whalelogic/mandelbrot/scheduler"
	"github.com/whalelogic/mandelbrot/surface"
)

// ErrUnknownAlgorithm is returned when algorithmID is not one of the
// closed the identifiers.
var ErrUnknownAlgorithm = errors.New("engine: unknown algorithm id")

// Engine wraps a Scheduler behind the submit_frame surface.
type Engine struct {
	scheduler *scheduler.Scheduler
	surface surface.Surface
	state PersistedState
	haveState bool
}

// Config configures a new Engine.
type Config struct {
	CanvasWidth int
	CanvasHeight int
	CacheCapacity int // 0 selects scheduler.DefaultCacheCapacity
	WorkerCount int // 0 selects scheduler.DefaultWorkerCount()
	Palette *palette.ColorMap
	MaxPrecisionBits uint // 0 selects hpfloat.DefaultMaxPrecisionBits
}

// New constructs an Engine with its own in-memory output surface.
func New(cfg Config) *Engine {
	surf := surface.NewImageSurface(cfg.CanvasWidth, cfg.CanvasHeight)
	cache := scheduler.NewCache(cfg.CacheCapacity)
	workers := cfg.WorkerCount
	if workers == 0 {
		workers = scheduler.DefaultWorkerCount()
	}
	pool := scheduler.NewPool(workers)
	sched := scheduler.NewScheduler(surf, cache, pool, cfg.Palette)
	sched.SetMaxPrecisionBits(cfg.MaxPrecisionBits)
	return &Engine{scheduler: sched, surface: surf}
}

// Surface exposes the engine's output surface, e.g. for PNG export.
func (e *Engine) Surface() surface.Surface {
	return e.surface
}

// ImageForExport returns the engine's surface as an *image.RGBA, for
// CLI callers that encode it directly (e.g. to PNG). Only valid when
// the engine was constructed with its default ImageSurface.
func (e *Engine) ImageForExport() *image.RGBA {
	if imgSurf, ok := e.surface.(*surface.ImageSurface); ok {
		return imgSurf.Image()
	}
	return image.NewRGBA(image.Rect(0, 0, 0, 0))
}

// CacheStats exposes the scheduler's tile cache hit/miss counters.
func (e *Engine) CacheStats() (hits, misses int64) {
	return e.scheduler.CacheStats()
}

// SubmitFrame is the single scheduler entry point: center and zoom
// arrive as full-precision decimal strings so callers never lose
// precision marshalling through a narrower numeric type.
func (e *Engine) SubmitFrame(centerHPStr, zoomHPStr string, maxIter, scaling uint32, canvasW, canvasH int, algorithmID string) (*scheduler.FrameHandle, error) {
	if _, ok := scheduler.Algorithms[algorithmID]; !ok {
		return nil, errors.Wrapf(ErrUnknownAlgorithm, "%q", algorithmID)
	}

	precisionBits := hpfloat.RequiredPrecisionBits(parseApproxZoom(zoomHPStr), canvasH, maxIter)

	centerRe, centerIm, err := splitComplexString(centerHPStr)
	if err != nil {
		return nil, errors.Wrap(scheduler.ErrInvalidRequest, err.Error())
	}
	re, err := hpfloat.SetString(centerRe, precisionBits)
	if err != nil {
		return nil, errors.Wrap(scheduler.ErrInvalidRequest, err.Error())
	}
	im, err := hpfloat.SetString(centerIm, precisionBits)
	if err != nil {
		return nil, errors.Wrap(scheduler.ErrInvalidRequest, err.Error())
	}
	zoom, err := hpfloat.SetString(zoomHPStr, precisionBits)
	if err != nil {
		return nil, errors.Wrap(scheduler.ErrInvalidRequest, err.Error())
	}

	req := scheduler.FrameRequest{
		Viewport: scheduler.Viewport{
			Center: hpfloat.Complex{Re: re, Im: im},
			Zoom: zoom,
			MaxIterations: maxIter,
			IterationScalingFactor: scaling,
		},
		CanvasWidth: canvasW,
		CanvasHeight: canvasH,
		AlgorithmID: algorithmID,
		FrameID: e.nextFrameID(),
	}

	handle, err := e.scheduler.SubmitFrame(req)
	if err != nil {
		return nil, err
	}

	e.state = PersistedState{
		Center: centerHPStr,
		Zoom: zoomHPStr,
		MaxIter: maxIter,
		Scaling: scaling,
		AlgorithmID: algorithmID,
	}
	e.haveState = true

	return handle, nil
}

var frameCounter uint64

func (e *Engine) nextFrameID() uint64 {
	frameCounter++
	return frameCounter
}

// PersistedState is the optional persisted-state record. Center and
// zoom are kept as decimal strings so no precision is lost across
// sessions.
type PersistedState struct {
	Center string
	Zoom string
	MaxIter uint32
	Scaling uint32
	AlgorithmID string
	Palette string
}

// State returns the most recently submitted frame's parameters, and
// whether any frame has been submitted yet.
func (e *Engine) State() (PersistedState, bool) {
	return e.state, e.haveState
}

// Restore re-applies a previously persisted state via SubmitFrame.
func (e *Engine) Restore(state PersistedState, canvasW, canvasH int) (*scheduler.FrameHandle, error) {
	return e.SubmitFrame(state.Center, state.Zoom, state.MaxIter, state.Scaling, canvasW, canvasH, state.AlgorithmID)
}
