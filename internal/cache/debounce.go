package cache

import (
	"sync"
	"time"
)

// trigger turns bursts of dirty signals into single flush callbacks.
//
// The first Signal arms a coalescing window; any signals arriving inside
// the window are absorbed; the flush reads the live map, so the latest
// values win. When the window elapses, an additional
// fixed delay runs before fn is invoked. The two timers are rearmed on the
// next Signal, never spawned per event.
type trigger struct {
	window time.Duration
	delay  time.Duration
	fn     func()

	mu      sync.Mutex
	armed   bool
	timer   *time.Timer
	stopped bool
}

func newTrigger(window, delay time.Duration, fn func()) *trigger {
	return &trigger{window: window, delay: delay, fn: fn}
}

// Signal marks the owning kind dirty. Safe for concurrent use.
func (t *trigger) Signal() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || t.armed {
		return
	}
	t.armed = true
	t.timer = time.AfterFunc(t.window, t.windowElapsed)
}

func (t *trigger) windowElapsed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.timer = time.AfterFunc(t.delay, t.fire)
}

func (t *trigger) fire() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	// Disarm before running fn so signals raised during the flush start a
	// fresh cycle instead of being lost.
	t.armed = false
	t.mu.Unlock()

	t.fn()
}

// Stop cancels any pending cycle. Further signals are ignored.
func (t *trigger) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
	}
}
