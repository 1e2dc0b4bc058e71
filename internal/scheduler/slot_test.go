package scheduler

import (
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSlot_Schedule(t *testing.T) {
	clock := NewFakeClock(epoch)
	slot := NewSlot(clock)

	var fired int32
	slot.Schedule(3*time.Second, func() { atomic.AddInt32(&fired, 1) })

	if !slot.Pending() {
		t.Fatal("slot should be pending after Schedule")
	}

	clock.Advance(2999 * time.Millisecond)
	if atomic.LoadInt32(&fired) != 0 {
		t.Fatal("task fired before its deadline")
	}

	clock.Advance(time.Millisecond)
	if atomic.LoadInt32(&fired) != 1 {
		t.Fatalf("task fired %d times, want 1", fired)
	}
	if slot.Pending() {
		t.Error("slot should be empty after the task ran")
	}
}

func TestSlot_RescheduleCancelsPrevious(t *testing.T) {
	clock := NewFakeClock(epoch)
	slot := NewSlot(clock)

	var first, second int32
	slot.Schedule(3*time.Second, func() { atomic.AddInt32(&first, 1) })
	clock.Advance(time.Second)
	slot.Schedule(3*time.Second, func() { atomic.AddInt32(&second, 1) })

	if got := clock.Pending(); got != 1 {
		t.Fatalf("clock has %d pending timers, want 1", got)
	}

	clock.Advance(10 * time.Second)
	if first != 0 {
		t.Error("replaced task should never run")
	}
	if second != 1 {
		t.Errorf("replacement task ran %d times, want 1", second)
	}
}

func TestSlot_Cancel(t *testing.T) {
	clock := NewFakeClock(epoch)
	slot := NewSlot(clock)

	if slot.Cancel() {
		t.Error("Cancel on empty slot should report false")
	}

	var fired int32
	slot.Schedule(time.Second, func() { atomic.AddInt32(&fired, 1) })
	if !slot.Cancel() {
		t.Error("Cancel should report a pending task")
	}

	clock.Advance(time.Minute)
	if fired != 0 {
		t.Error("cancelled task ran")
	}
}

// staleTimer ignores Stop, simulating a timer whose goroutine already started.
type staleTimer struct{}

func (staleTimer) Stop() bool { return false }

type capturingClock struct {
	fns []func()
}

func (c *capturingClock) Now() time.Time { return epoch }

func (c *capturingClock) AfterFunc(_ time.Duration, f func()) Timer {
	c.fns = append(c.fns, f)
	return staleTimer{}
}

func TestSlot_StaleCallbackIgnored(t *testing.T) {
	clock := &capturingClock{}
	slot := NewSlot(clock)

	var first, second int32
	slot.Schedule(time.Second, func() { atomic.AddInt32(&first, 1) })
	slot.Schedule(time.Second, func() { atomic.AddInt32(&second, 1) })

	// Both callbacks fire even though the first was "stopped".
	for _, f := range clock.fns {
		f()
	}

	if first != 0 {
		t.Error("stale callback body ran")
	}
	if second != 1 {
		t.Errorf("current callback ran %d times, want 1", second)
	}
}

func TestRealClock_AfterFunc(t *testing.T) {
	done := make(chan struct{})
	slot := NewSlot(nil)
	slot.Schedule(10*time.Millisecond, func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("real clock task did not fire")
	}
}
