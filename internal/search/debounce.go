// Package search implements search-as-you-type over the symbol lookup endpoint.
package search

import (
	"sync"
	"time"
)

// DefaultWindow is the quiet interval before a keystroke triggers a search.
const DefaultWindow = 300 * time.Millisecond

type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Debouncer keeps at most one pending call. Each Trigger cancels the pending
// call and schedules a new one Window later.
type Debouncer struct {
	Window time.Duration

	mu      sync.Mutex
	pending timer
	stopped bool
	after   afterFunc
}

func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Debouncer{Window: window, after: realAfterFunc}
}

// Trigger replaces any pending call with fn.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.pending != nil {
		d.pending.Stop()
	}
	after := d.after
	if after == nil {
		after = realAfterFunc
	}
	d.pending = after(d.Window, fn)
}

// Stop cancels the pending call and ignores later triggers.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.pending != nil {
		d.pending.Stop()
		d.pending = nil
	}
}
