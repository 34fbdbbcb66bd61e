package shipping

import (
	"sync"
	"time"
)

type Timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) Timer

// Debouncer runs only the last function triggered within a quiet window.
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	after   afterFunc
	timer   Timer
	stopped bool
}

func NewDebouncer(delay time.Duration) *Debouncer {
	return newDebouncer(delay, func(d time.Duration, f func()) Timer {
		return time.AfterFunc(d, f)
	})
}

func newDebouncer(delay time.Duration, after afterFunc) *Debouncer {
	return &Debouncer{delay: delay, after: after}
}

// Trigger restarts the window; f runs once the window elapses with no further triggers.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.after(d.delay, f)
}

// Stop cancels any pending run and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
