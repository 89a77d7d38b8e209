// Package mainloop runs posted callbacks one at a time on a single goroutine.
// Watchlist updates, search results and command replies reach the presenter
// through it.
package mainloop

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

const queueSize = 64

// Loop serializes callbacks posted from any goroutine.
type Loop struct {
	queue  chan func()
	logger *zap.Logger

	mu      sync.Mutex
	space   *sync.Cond
	stopped bool
	done    chan struct{}
}

func New(logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loop{
		queue:  make(chan func(), queueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	l.space = sync.NewCond(&l.mu)
	return l
}

// Post enqueues fn. It blocks while the queue is full and reports false once
// the loop has stopped. A callback accepted before Stop may still be
// discarded by it; none is accepted after.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for {
		if l.stopped {
			return false
		}
		select {
		case l.queue <- fn:
			return true
		default:
		}
		l.space.Wait()
	}
}

// Run drains the queue until ctx ends or Stop is called. A panicking
// callback is logged and does not stop the loop.
func (l *Loop) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			l.Stop()
			return
		case <-l.done:
			return
		case fn := <-l.queue:
			l.mu.Lock()
			l.space.Broadcast()
			l.mu.Unlock()
			l.invoke(fn)
		}
	}
}

// Stop ends Run. Callbacks still queued are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopped {
		return
	}
	l.stopped = true
	close(l.done)
	l.space.Broadcast()
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("main loop callback panicked", zap.Any("panic", r))
		}
	}()
	fn()
}
