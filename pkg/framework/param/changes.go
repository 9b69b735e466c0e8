package param

import (
	"github.com/vibrationalforce/echoelcore/pkg/lockfree"
)

// DefaultChangeQueueCapacity is the change queue size used by the engine.
// At one change per queue slot this absorbs a full block of dense
// automation without dropping.
const DefaultChangeQueueCapacity = 256

// ParamChange is one parameter edit crossing from a control thread to the
// audio thread. SampleOffset positions the change inside the next block;
// -1 means "apply at block start".
type ParamChange struct {
	ID           uint32
	Value        float64 // normalized
	SampleOffset int32
}

// ChangeQueue carries parameter edits into the audio thread without
// locks. One control goroutine pushes, the audio goroutine drains at the
// top of each block. When the queue is full, pushes are dropped; the
// value still lands eventually because senders write the latest value.
type ChangeQueue struct {
	queue *lockfree.Queue[ParamChange]
}

// NewChangeQueue creates a change queue with the given capacity.
func NewChangeQueue(capacity int) *ChangeQueue {
	return &ChangeQueue{
		queue: lockfree.NewQueue[ParamChange](capacity),
	}
}

// Push enqueues a change. Returns false when the queue is full and the
// change was dropped.
func (q *ChangeQueue) Push(id uint32, value float64, sampleOffset int32) bool {
	return q.queue.Push(ParamChange{ID: id, Value: value, SampleOffset: sampleOffset})
}

// Pop dequeues one change. Audio thread side.
func (q *ChangeQueue) Pop() (ParamChange, bool) {
	return q.queue.Pop()
}

// Len returns the number of pending changes.
func (q *ChangeQueue) Len() int {
	return q.queue.Len()
}

// DrainTo applies every pending change to its parameter in the registry
// and returns the number applied. Changes for unknown IDs are discarded.
// Audio thread side; no allocations.
func (q *ChangeQueue) DrainTo(registry *Registry) int {
	applied := 0
	for {
		change, ok := q.queue.Pop()
		if !ok {
			return applied
		}
		if p := registry.Get(change.ID); p != nil {
			p.SetValue(change.Value)
			applied++
		}
	}
}
