package runtime

import (
	"sync"
)

// SubQueue decouples a single producer-side Enqueue from a slow consumer.
// Events wait in memory until the dispatcher can hand them to the channel.
// With a positive limit the memory queue is bounded and the oldest pending
// event is discarded to make room for a new one.
type SubQueue[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	limit  int
	closed bool
	done   chan struct{}

	outCh  chan T // consumer reads from this
	paused bool   // gate dispatch until snapshot sent
}

// NewSubQueue starts a paused queue. limit <= 0 leaves it unbounded.
func NewSubQueue[T any](outBuf, limit int) *SubQueue[T] {
	sq := &SubQueue[T]{
		outCh:  make(chan T, outBuf),
		limit:  limit,
		done:   make(chan struct{}),
		paused: true,
	}
	sq.cond = sync.NewCond(&sq.mu)
	go sq.dispatch()
	return sq
}

// Channel exposed to subscriber.
func (sq *SubQueue[T]) Chan() <-chan T { return sq.outCh }

// Enqueue appends to the in-memory queue and wakes the dispatcher. It
// reports whether the oldest queued event was dropped to make room.
func (sq *SubQueue[T]) Enqueue(ev T) (dropped bool) {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	if sq.closed {
		return false
	}
	if sq.limit > 0 && len(sq.queue) >= sq.limit {
		copy(sq.queue, sq.queue[1:])
		sq.queue = sq.queue[:len(sq.queue)-1]
		dropped = true
	}
	sq.queue = append(sq.queue, ev)
	sq.cond.Signal()
	return dropped
}

// SendSnapshot places evs ahead of anything already queued. The snapshot is
// never trimmed by the limit. Call it while the queue is still paused.
func (sq *SubQueue[T]) SendSnapshot(evs []T) {
	if len(evs) == 0 {
		return
	}
	sq.mu.Lock()
	if !sq.closed {
		q := make([]T, 0, len(evs)+len(sq.queue))
		q = append(q, evs...)
		sq.queue = append(q, sq.queue...)
		sq.cond.Signal()
	}
	sq.mu.Unlock()
}

// Len is the number of events not yet handed to the channel.
func (sq *SubQueue[T]) Len() int {
	sq.mu.Lock()
	defer sq.mu.Unlock()
	return len(sq.queue)
}

// Pause/Resume gates dispatching (used to hold back live events during snapshot).
func (sq *SubQueue[T]) SetPaused(v bool) {
	sq.mu.Lock()
	sq.paused = v
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

// Close stops the dispatcher and closes the out channel, abandoning a send
// to a consumer that stopped reading.
func (sq *SubQueue[T]) Close() {
	sq.mu.Lock()
	if !sq.closed {
		sq.closed = true
		close(sq.done)
	}
	sq.cond.Broadcast()
	sq.mu.Unlock()
}

func (sq *SubQueue[T]) dispatch() {
	defer close(sq.outCh)
	for {
		sq.mu.Lock()
		for !sq.closed && (sq.paused || len(sq.queue) == 0) {
			sq.cond.Wait()
		}
		if sq.closed {
			sq.mu.Unlock()
			return
		}
		ev := sq.queue[0]
		// pop
		copy(sq.queue, sq.queue[1:])
		sq.queue = sq.queue[:len(sq.queue)-1]
		sq.mu.Unlock()

		select {
		case sq.outCh <- ev:
		case <-sq.done:
			return
		}
	}
}
