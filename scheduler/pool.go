package scheduler

import (
	"runtime"
	"sync"
)

// MinWorkers/MaxWorkers bound the worker pool size: N =
// clamp(⌈0.75·hardware_concurrency⌉, 2, 16).
const (
	MinWorkers = 2
	MaxWorkers = 16
)

// DefaultWorkerCount derives the worker count from the host's reported
// hardware concurrency.
func DefaultWorkerCount() int {
	return WorkerCountFor(runtime.NumCPU())
}

// WorkerCountFor derives the worker count for an explicit concurrency
// value (exposed separately so tests don't depend on runtime.NumCPU).
func WorkerCountFor(hardwareConcurrency int) int {
	n := (hardwareConcurrency*3 + 3) / 4 // ⌈0.75·hardwareConcurrency⌉
	if n < MinWorkers {
		n = MinWorkers
	}
	if n > MaxWorkers {
		n = MaxWorkers
	}
	return n
}

const workerQueueDepth = 8

// Pool is the WorkerPool: a fixed count of workers, each with its own
// input queue. Workers hold no reference to the cache; the coordinator
// (runFrame) does every cache lookup and insert. Tiles are dispatched
// round-robin: tile index t goes to worker t mod N.
type Pool struct {
	mu sync.Mutex
	workers []*goroutineWorker
	results chan tileOutcome
	generation uint64
}

// NewPool creates a pool of n workers (clamped to [MinWorkers,MaxWorkers]).
func NewPool(n int) *Pool {
	if n < MinWorkers {
		n = MinWorkers
	}
	if n > MaxWorkers {
		n = MaxWorkers
	}
	p := &Pool{results: make(chan tileOutcome, n*workerQueueDepth)}
	p.workers = make([]*goroutineWorker, n)
	for i := range p.workers {
		p.workers[i] = p.spawnWorker(p.generation, p.results)
	}
	return p
}

// spawnWorker wires a worker's completions into resultsCh, but only for
// as long as gen is still the pool's current generation: a worker
// retired by Restart still has pixels in flight and must not be able to
// push a stale tileOutcome onto the NEXT generation's results channel,
// which a later runFrame is already draining for an unrelated frame.
func (p *Pool) spawnWorker(gen uint64, resultsCh chan tileOutcome) *goroutineWorker {
	w := newGoroutineWorker(workerQueueDepth)
	w.OnResult(func(o tileOutcome) {
		p.mu.Lock()
		current := p.generation == gen
		p.mu.Unlock()
		if current {
			resultsCh <- o
		}
	})
	return w
}

// Size returns the configured worker count.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

// Dispatch assigns job (whose originating tile index is tileIndex) to
// worker tileIndex mod N.
func (p *Pool) Dispatch(tileIndex int, job tileJob) {
	p.mu.Lock()
	n := len(p.workers)
	w := p.workers[tileIndex%n]
	p.mu.Unlock()
	w.Submit(job)
}

// Results is the channel every worker's completions are funneled into.
// The channel identity changes across a Restart, so callers must fetch
// it again (as scheduler.runFrame does) after dispatching a frame's
// tiles rather than caching it across frames.
func (p *Pool) Results() <-chan tileOutcome {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.results
}

// Restart implements the terminate-and-recreate cancellation policy:
// the current workers are retired (their generation is bumped so any
// in-flight pixel abandons on its next cooperative check, and they stop
// being dispatched new work) and a fresh set of goroutines, wired to a
// fresh results channel, takes over — matching "forcefully stop all
// workers and spawn a new pool" as closely as a language with no
// goroutine-kill primitive can. The fresh channel, not just fresh
// workers, matters: without it, a retired worker that finishes a pixel
// after Restart returns could still push a stale tileOutcome onto the
// channel the NEXT frame's runFrame is draining.
func (p *Pool) Restart() {
	p.mu.Lock()
	old := p.workers
	n := len(old)
	p.generation++
	gen := p.generation
	p.results = make(chan tileOutcome, n*workerQueueDepth)
	resultsCh := p.results
	fresh := make([]*goroutineWorker, n)
	for i := 0; i < n; i++ {
		fresh[i] = p.spawnWorker(gen, resultsCh)
	}
	p.workers = fresh
	p.mu.Unlock()

	for _, w := range old {
		w.Terminate()
		w.shutdown()
	}
}

// Shutdown permanently stops every worker (scheduler teardown only).
func (p *Pool) Shutdown() {
	p.mu.Lock()
	workers := p.workers
	p.mu.Unlock()
	for _, w := range workers {
		w.Terminate()
		w.shutdown()
	}
}
