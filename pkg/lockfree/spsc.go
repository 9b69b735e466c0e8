// Package lockfree provides wait-free data structures for passing data
// between exactly two goroutines without locks or allocation.
//
// The structures here are built for the audio processing path: a producer
// thread (sensor polling, UI parameter edits) hands values to the audio
// goroutine, or the audio goroutine hands snapshots back out, and neither
// side may ever block or touch the garbage collector.
package lockfree

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Queue is a single-producer single-consumer ring buffer. Push must only be
// called from one goroutine and Pop from one goroutine; with that contract
// both operations are wait-free and allocation-free.
//
// The ring keeps one slot open to distinguish full from empty, so a queue
// created with capacity N holds N-1 elements.
type Queue[T any] struct {
	buf  []T
	mask uint64

	// Keep the producer and consumer positions on separate cache lines
	// so the two sides don't invalidate each other on every operation.
	_        cpu.CacheLinePad
	writePos atomic.Uint64
	_        cpu.CacheLinePad
	readPos  atomic.Uint64
	_        cpu.CacheLinePad
}

// NewQueue creates a queue. Capacity is rounded up to the next power of
// two, minimum 2. The usable capacity is one less than the rounded size.
func NewQueue[T any](capacity int) *Queue[T] {
	size := nextPowerOf2(capacity)
	return &Queue[T]{
		buf:  make([]T, size),
		mask: uint64(size - 1),
	}
}

// Push appends v to the queue. It returns false if the queue is full.
// Producer side only.
func (q *Queue[T]) Push(v T) bool {
	w := q.writePos.Load()
	r := q.readPos.Load()
	if w-r >= uint64(len(q.buf))-1 {
		return false
	}
	q.buf[w&q.mask] = v
	// The atomic store publishes the slot write above to the consumer.
	q.writePos.Store(w + 1)
	return true
}

// Pop removes and returns the oldest element. It returns false if the
// queue is empty. Consumer side only.
func (q *Queue[T]) Pop() (T, bool) {
	r := q.readPos.Load()
	if r == q.writePos.Load() {
		var zero T
		return zero, false
	}
	v := q.buf[r&q.mask]
	q.readPos.Store(r + 1)
	return v, true
}

// Peek returns the oldest element without removing it. Consumer side only.
func (q *Queue[T]) Peek() (T, bool) {
	r := q.readPos.Load()
	if r == q.writePos.Load() {
		var zero T
		return zero, false
	}
	return q.buf[r&q.mask], true
}

// Len reports the number of queued elements. The answer is exact only from
// the producer or consumer goroutine; from anywhere else it is a snapshot.
func (q *Queue[T]) Len() int {
	return int(q.writePos.Load() - q.readPos.Load())
}

// Cap reports the usable capacity.
func (q *Queue[T]) Cap() int {
	return len(q.buf) - 1
}

// Empty reports whether the queue has no elements.
func (q *Queue[T]) Empty() bool {
	return q.Len() == 0
}

// Full reports whether a Push would fail.
func (q *Queue[T]) Full() bool {
	return q.Len() >= q.Cap()
}

// Clear discards all queued elements. It must not be called while the
// producer is pushing; use it only during setup or teardown.
func (q *Queue[T]) Clear() {
	q.readPos.Store(q.writePos.Load())
}

// nextPowerOf2 rounds n up to the next power of two, minimum 2.
func nextPowerOf2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
