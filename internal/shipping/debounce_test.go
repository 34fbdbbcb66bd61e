package shipping

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs every timer that was not stopped.
func (c *fakeClock) fire() {
	c.mu.Lock()
	timers := append([]*fakeTimer(nil), c.timers...)
	c.mu.Unlock()
	for _, t := range timers {
		if !t.stopped {
			t.stopped = true
			t.f()
		}
	}
}

func TestDebouncer_OnlyLastTriggerRuns(t *testing.T) {
	clock := &fakeClock{}
	d := newDebouncer(800*time.Millisecond, clock.AfterFunc)

	var ran []int
	for i := 1; i <= 5; i++ {
		n := i
		d.Trigger(func() { ran = append(ran, n) })
	}
	clock.fire()

	assert.Equal(t, []int{5}, ran)
	require.Len(t, clock.timers, 5)
	for _, tm := range clock.timers {
		assert.Equal(t, 800*time.Millisecond, tm.d)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	clock := &fakeClock{}
	d := newDebouncer(time.Second, clock.AfterFunc)

	ran := false
	d.Trigger(func() { ran = true })
	d.Stop()
	d.Trigger(func() { ran = true })
	clock.fire()

	assert.False(t, ran)
	assert.Len(t, clock.timers, 1)
}

func TestDebouncer_RealTimer(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	var runs atomic.Int32
	for i := 0; i < 5; i++ {
		d.Trigger(func() { runs.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())
}
