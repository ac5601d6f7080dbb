package cache

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestTriggerCoalescesBurst(t *testing.T) {
	var fires atomic.Int32
	trig := newTrigger(20*time.Millisecond, 10*time.Millisecond, func() { fires.Add(1) })
	defer trig.Stop()

	for i := 0; i < 100; i++ {
		trig.Signal()
	}

	time.Sleep(80 * time.Millisecond)
	if got := fires.Load(); got != 1 {
		t.Fatalf("fires = %d, want 1 for a single burst", got)
	}
}

func TestTriggerRearmsAfterFire(t *testing.T) {
	var fires atomic.Int32
	trig := newTrigger(10*time.Millisecond, 5*time.Millisecond, func() { fires.Add(1) })
	defer trig.Stop()

	trig.Signal()
	time.Sleep(40 * time.Millisecond)
	trig.Signal()
	time.Sleep(40 * time.Millisecond)

	if got := fires.Load(); got != 2 {
		t.Fatalf("fires = %d, want 2 for two separated signals", got)
	}
}

func TestTriggerSignalDuringCallbackStartsNewCycle(t *testing.T) {
	var fires atomic.Int32
	var trig *trigger
	trig = newTrigger(10*time.Millisecond, 5*time.Millisecond, func() {
		if fires.Add(1) == 1 {
			trig.Signal()
		}
	})
	defer trig.Stop()

	trig.Signal()
	time.Sleep(80 * time.Millisecond)

	if got := fires.Load(); got != 2 {
		t.Fatalf("fires = %d, want 2 (signal raised inside callback)", got)
	}
}

func TestTriggerStopSuppressesPendingFire(t *testing.T) {
	var fires atomic.Int32
	trig := newTrigger(10*time.Millisecond, 10*time.Millisecond, func() { fires.Add(1) })

	trig.Signal()
	trig.Stop()
	time.Sleep(60 * time.Millisecond)

	if got := fires.Load(); got != 0 {
		t.Fatalf("fires = %d, want 0 after Stop", got)
	}
}
