// Package debounce coalesces rapid submissions into a single delayed
// emission, used to keep interactive search from querying on every
// keystroke.
package debounce

import (
	"sync"
	"time"
)

// Debouncer delivers the most recent submitted value to fn once no new
// submission has arrived for the configured delay. It owns a single
// cancellable timer; Submit and Dispose are safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	fn       func(string)
	timer    *time.Timer
	disposed bool
}

func New(delay time.Duration, fn func(string)) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Submit schedules value for emission, cancelling any pending one.
func (d *Debouncer) Submit(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		disposed := d.disposed
		d.mu.Unlock()
		if !disposed {
			d.fn(value)
		}
	})
}

// Flush emits any pending value immediately.
func (d *Debouncer) Flush(value string) {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	disposed := d.disposed
	d.mu.Unlock()
	if !disposed {
		d.fn(value)
	}
}

// Dispose cancels any pending emission and makes further submissions
// no-ops. Must be called on teardown.
func (d *Debouncer) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disposed = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
