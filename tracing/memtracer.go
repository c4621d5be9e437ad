package tracing

import "sync"

// MemTracer keeps the most recent transitions in a fixed-capacity ring. It
// backs the live inspector's transition feed.
type MemTracer struct {
	mu       sync.Mutex
	ring     []Transition
	capacity int
	next     int
	count    int
}

// NewMemTracer creates a ring of the given capacity.
func NewMemTracer(capacity int) *MemTracer {
	if capacity <= 0 {
		panic("mem tracer capacity must be positive")
	}

	return &MemTracer{
		ring:     make([]Transition, capacity),
		capacity: capacity,
	}
}

// Record stores the transition, evicting the oldest one when the ring is
// full.
func (t *MemTracer) Record(tr Transition) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.ring[t.next] = tr
	t.next = (t.next + 1) % t.capacity
	if t.count < t.capacity {
		t.count++
	}
}

// Recent returns up to n transitions, newest last.
func (t *MemTracer) Recent(n int) []Transition {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n > t.count {
		n = t.count
	}
	if n <= 0 {
		return nil
	}

	out := make([]Transition, n)
	start := (t.next - n + t.capacity) % t.capacity
	for i := 0; i < n; i++ {
		out[i] = t.ring[(start+i)%t.capacity]
	}

	return out
}

// Count returns the number of transitions currently held.
func (t *MemTracer) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Flush does nothing; the ring is the storage.
func (t *MemTracer) Flush() {}
