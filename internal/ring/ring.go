// Package ring provides the single-producer/single-consumer sample ring
// that hands interleaved audio samples between a real-time device callback
// and a non-real-time application thread.
package ring

import "sync/atomic"

// Ring is a bounded, wait-free, lock-free single-producer/single-consumer
// queue of interleaved float32 samples. Exactly one goroutine may call
// Push; exactly one (possibly different) goroutine may call Pop. Neither
// call blocks, allocates, or can panic on contention.
type Ring struct {
	buf      []float32
	capacity uint64
	head     atomic.Uint64 // next write index, producer-owned
	tail     atomic.Uint64 // next read index, consumer-owned
}

// New creates a ring able to hold capacity interleaved samples.
func New(capacity int) *Ring {
	if capacity <= 0 {
		panic("ring: capacity must be positive")
	}
	return &Ring{
		buf:      make([]float32, capacity),
		capacity: uint64(capacity),
	}
}

// Push appends one sample. It returns false without blocking if the ring
// is full; the caller is responsible for counting that as an overrun.
func (r *Ring) Push(sample float32) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if head-tail >= r.capacity {
		return false
	}
	r.buf[head%r.capacity] = sample
	r.head.Store(head + 1)
	return true
}

// Pop removes and returns one sample. ok is false without blocking if the
// ring is empty; the caller is responsible for counting that as an
// underrun.
func (r *Ring) Pop() (sample float32, ok bool) {
	head := r.head.Load()
	tail := r.tail.Load()
	if head == tail {
		return 0, false
	}
	sample = r.buf[tail%r.capacity]
	r.tail.Store(tail + 1)
	return sample, true
}

// Slots returns an approximate lower bound of items currently available to
// Pop. It is monotonic increasing across a Push and decreasing across a
// Pop, and never exceeds Capacity.
func (r *Ring) Slots() int {
	head := r.head.Load()
	tail := r.tail.Load()
	return int(head - tail)
}

// Capacity returns the fixed number of slots the ring was created with.
func (r *Ring) Capacity() int {
	return int(r.capacity)
}

// Clear discards all buffered samples by fast-forwarding the read cursor
// to the write cursor. Only safe to call from the consumer side, or while
// the producer is known to be idle (e.g. on stream teardown).
func (r *Ring) Clear() {
	r.tail.Store(r.head.Load())
}
