package router

import (
	"context"
	"sync"
)

// Loop serializes callbacks onto the goroutine running Run. It is the
// Executor for a Router whose events come from more than one goroutine.
type Loop struct {
	events chan func()
	done   chan struct{}
	once   sync.Once
}

// NewLoop returns a loop whose queue holds up to buffer pending callbacks.
func NewLoop(buffer int) *Loop {
	return &Loop{
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
}

// Post queues f. It blocks while the queue is full and returns false once
// the loop has stopped, in which case f never runs.
func (l *Loop) Post(f func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}
	select {
	case l.events <- f:
		return true
	case <-l.done:
		return false
	}
}

// Executor adapts Post for New.
func (l *Loop) Executor() Executor {
	return func(f func()) { l.Post(f) }
}

// Run executes queued callbacks in order until ctx is done or Stop is
// called.
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()
	for {
		select {
		case f := <-l.events:
			f()
		case <-l.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop ends Run and rejects further posts.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.done) })
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
