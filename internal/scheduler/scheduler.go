// Package scheduler provides cancellable delayed calls and a debouncer built on them.
package scheduler

import (
	"sync"
	"time"
)

// Timer is a scheduled call that can be cancelled before it fires.
type Timer interface {
	Stop() bool
}

// Scheduler defines a source of time and delayed calls.
type Scheduler interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Check interface implementation explicitly
var (
	_ Scheduler = Real{}
	_ Scheduler = (*Fake)(nil)
)

// Real schedules calls with the time package.
type Real struct{}

// Now returns the current wall-clock time.
func (Real) Now() time.Time {
	return time.Now()
}

// AfterFunc calls f in its own goroutine after d.
func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer keeps at most one scheduled call pending.
type Debouncer struct {
	mu     sync.Mutex
	sched  Scheduler
	window time.Duration
	timer  Timer
}

// NewDebouncer initializes a Debouncer firing after a quiet period of window.
func NewDebouncer(sched Scheduler, window time.Duration) *Debouncer {
	return &Debouncer{sched: sched, window: window}
}

// Trigger cancels any pending call and schedules f after the quiet period.
func (d *Debouncer) Trigger(f func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.sched.AfterFunc(d.window, f)
}

// Cancel drops the pending call, if any. It reports whether a call was pending.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer == nil {
		return false
	}
	stopped := d.timer.Stop()
	d.timer = nil
	return stopped
}
