package scheduler

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/whalelogic/mandelbrot/kernel"
)

func testJob(width, height int) tileJob {
	return tileJob{
		chunk: RenderChunk{Width: width, Height: height},
		algo: kernel.Direct{},
	}
}

func TestWorkerCountForClampsToMin(t *testing.T) {
	c := qt.New(t)
	c.Assert(WorkerCountFor(1), qt.Equals, MinWorkers)
}

func TestWorkerCountForClampsToMax(t *testing.T) {
	c := qt.New(t)
	c.Assert(WorkerCountFor(1000), qt.Equals, MaxWorkers)
}

func TestWorkerCountForThreeQuarters(t *testing.T) {
	c := qt.New(t)
	c.Assert(WorkerCountFor(8), qt.Equals, 6)
}

func TestPoolDispatchRoundRobin(t *testing.T) {
	c := qt.New(t)
	p := NewPool(2)
	defer p.Shutdown()

	job := testJob(1, 1)
	p.Dispatch(0, job)
	p.Dispatch(1, job)
	out1 := <-p.Results()
	out2 := <-p.Results()
	c.Assert(out1.result.Chunk.Width, qt.Equals, 1)
	c.Assert(out2.result.Chunk.Width, qt.Equals, 1)
}

// TestPoolRestartDropsStaleResults exercises the fix for a Restart
// whose retired worker finishes a pixel only after the pool has moved
// on: the stale tileOutcome must never reach the NEXT generation's
// Results() channel.
func TestPoolRestartDropsStaleResults(t *testing.T) {
	c := qt.New(t)
	p := NewPool(2)
	defer p.Shutdown()

	staleReq := FrameRequest{Viewport: testViewport(1, 5000000), CanvasWidth: 10, CanvasHeight: 10}
	// Pixel (5,5) is the canvas center, i.e. c = -0.5 inside the set, so
	// the stale pixel keeps iterating until the Restart cancels it.
	staleJob := tileJob{chunk: RenderChunk{StartX: 5, StartY: 5, Width: 1, Height: 1}, req: staleReq, algo: kernel.Direct{}}
	p.Dispatch(0, staleJob)
	time.Sleep(2 * time.Millisecond) // let the worker start iterating before it's retired

	p.Restart()

	freshReq := FrameRequest{Viewport: testViewport(1, 10), CanvasWidth: 10, CanvasHeight: 10}
	freshJob := tileJob{chunk: RenderChunk{StartX: 0, StartY: 0, Width: 1, Height: 1}, req: freshReq, algo: kernel.Direct{}}
	p.Dispatch(0, freshJob)

	out := <-p.Results()
	c.Assert(out.chunk.StartX, qt.Equals, 0)

	select {
	case stale := <-p.Results():
		c.Fatalf("unexpected result leaked from a retired generation: %+v", stale)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPoolRestartResumesDispatch(t *testing.T) {
	c := qt.New(t)
	p := NewPool(2)
	defer p.Shutdown()

	p.Restart()
	c.Assert(p.Size(), qt.Equals, 2)

	p.Dispatch(0, testJob(1, 1))
	out := <-p.Results()
	c.Assert(out.result.Chunk.Width, qt.Equals, 1)
}
