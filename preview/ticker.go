package preview

import "time"

// TickRate is the native preview loop's cadence: OS threads plus a
// 60 Hz timer.
const TickRate = 60

// FrameTicker is the polymorphic animation-tick capability: the preview
// loop doesn't know whether ticks come from an
// OS timer (native) or a browser's animation-frame hook, only that it
// can register a callback and be stopped.
type FrameTicker interface {
	OnTick(cb func())
	Stop()
}

// nativeTicker is the native FrameTicker: a time.Ticker at TickRate Hz.
type nativeTicker struct {
	ticker *time.Ticker
	stop chan struct{}
}

// NewNativeTicker starts a FrameTicker firing at TickRate Hz.
func NewNativeTicker() FrameTicker {
	return &nativeTicker{
		ticker: time.NewTicker(time.Second / TickRate),
		stop: make(chan struct{}),
	}
}

// OnTick implements FrameTicker. cb runs on its own goroutine driven by
// the underlying time.Ticker until Stop is called.
func (t *nativeTicker) OnTick(cb func()) {
	go func() {
		for {
			select {
			case <-t.stop:
				return
			case <-t.ticker.C:
				cb()
			}
		}
	}()
}

// Stop implements FrameTicker.
func (t *nativeTicker) Stop() {
	t.ticker.Stop()
	close(t.stop)
}
