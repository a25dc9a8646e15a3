package catalog

import "sync"

// Barrier is a count-down latch that runs fire exactly once, on the call to
// Done that brings the count to zero. Calls after that are no-ops, so the
// order in which the parties arrive does not matter.
type Barrier struct {
	mu        sync.Mutex
	remaining int
	once      sync.Once
	fire      func()
}

// NewBarrier returns a barrier waiting for n parties. n <= 0 fires on the
// first Done.
func NewBarrier(n int, fire func()) *Barrier {
	return &Barrier{remaining: n, fire: fire}
}

// Done marks one party as arrived.
func (b *Barrier) Done() {
	b.mu.Lock()
	b.remaining--
	last := b.remaining <= 0
	b.mu.Unlock()

	if last {
		b.once.Do(b.fire)
	}
}

// Remaining returns how many parties have not yet arrived.
func (b *Barrier) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return max(b.remaining, 0)
}
