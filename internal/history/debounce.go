package history

import (
	"sync"
	"time"

	"github.com/dgallion1/mintaro/internal/clock"
)

// DefaultDelay is the quiet period before a typed change is recorded.
const DefaultDelay = 500 * time.Millisecond

// Debouncer runs the most recently triggered task once no trigger has
// arrived for the delay. Timer callbacks that lost a race with Trigger,
// Cancel or Flush are ignored.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu    sync.Mutex
	seq   uint64
	timer clock.Timer
	task  func()
}

// NewDebouncer returns a Debouncer over c. A nil clock means real time.
func NewDebouncer(c clock.Clock, delay time.Duration) *Debouncer {
	if c == nil {
		c = clock.Real()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer{clock: c, delay: delay}
}

// Trigger (re)schedules task, replacing any pending one.
func (d *Debouncer) Trigger(task func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.seq++
	seq := d.seq
	d.task = task
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(seq) })
}

// Cancel drops the pending task and reports whether there was one.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	pending := d.task != nil
	d.stopLocked()
	return pending
}

// Flush runs the pending task now, on the caller's goroutine.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	task := d.task
	d.stopLocked()
	d.mu.Unlock()
	if task == nil {
		return false
	}
	task()
	return true
}

// Pending reports whether a task is scheduled.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.task != nil
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.task = nil
	d.seq++
}

func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if seq != d.seq || d.task == nil {
		d.mu.Unlock()
		return
	}
	task := d.task
	d.task = nil
	d.timer = nil
	d.mu.Unlock()
	task()
}
