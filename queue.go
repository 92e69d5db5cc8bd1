// Package feedq provides hand-off queues that move borrowed byte buffers
// between a producer and a single consumer, such as a host program feeding
// data into a long-running computation and draining its results.
//
// Buffers are never copied. A [Queue] stores [Buffer] references to
// producer-owned storage and notifies the owner exactly once, through
// [Buffer.Done], when it will no longer touch that storage. Buffers come
// out in the order they went in, batches enqueued together stay
// contiguous, and at most one buffer is checked out to the consumer at any
// moment.
//
// Misuse of a queue is a bug in the calling program, not a runtime
// condition, so the queue panics instead of returning errors.
package feedq

import (
	"fmt"
	"sync"
	"time"
	"unsafe"
)

// Queue is a FIFO hand-off queue between buffer producers and a single
// consumer.
//
// Enqueue and Release never block. Dequeue blocks until a buffer is
// available and cannot be cancelled: a producer that needs to stop a
// blocked consumer enqueues a sentinel buffer the consumer recognizes.
//
// A Queue must be created by [NewQueue]. There is no Close: abandoning a
// queue notifies nobody, callers that need the pending buffers notified
// call [Queue.Reset] first.
type Queue struct {
	name string
	log  *logger
	met  *queueMetrics

	mu   sync.Mutex
	more sync.Cond // signaled when pending turns non-empty

	// Buffers waiting to be dequeued, in delivery order. Every buffer
	// that enters pending gets exactly one Done call, either from
	// Release or from Reset.
	pending []Buffer

	// The buffer checked out to the consumer, nil when none is.
	current Buffer

	enqueued uint64
	released uint64
	drained  uint64
}

// NewQueue creates an empty queue.
func NewQueue(options ...Option) *Queue {
	cfg := newConfig(options...)
	q := Queue{
		name: cfg.name,
		log:  newLogger(cfg.slog, cfg.name),
		met:  cfg.prometheus.queue(cfg.name),
	}
	q.more.L = &q.mu
	return &q
}

// Name returns the queue name, as configured by [WithName].
func (q *Queue) Name() string {
	return q.name
}

// Enqueue appends bufs to the tail of the queue as one atomic batch: a
// concurrent [Queue.Dequeue] can never observe part of the batch, and the
// relative order of bufs is preserved. If the queue was empty and the
// consumer is blocked in Dequeue, exactly one waiter is woken.
//
// Enqueue never blocks. Enqueueing no buffers is a no-op.
func (q *Queue) Enqueue(bufs ...Buffer) {
	if len(bufs) == 0 {
		return
	}

	q.enqueue(bufs)
	q.log.enqueued(len(bufs))
}

func (q *Queue) enqueue(bufs []Buffer) {
	q.mu.Lock()
	defer q.mu.Unlock()

	checkEnqueue(q, bufs)

	wasEmpty := len(q.pending) == 0
	q.pending = append(q.pending, bufs...)
	q.enqueued += uint64(len(bufs))
	if q.met != nil {
		q.met.enqueued.Add(float64(len(bufs)))
		q.met.pending.Set(float64(len(q.pending)))
	}
	if wasEmpty {
		q.more.Signal()
	}
}

// Dequeue blocks until the queue is non-empty, removes the head buffer,
// marks it checked out and returns it.
//
// The consumer must hand the previous buffer back with [Queue.Release]
// before dequeueing the next one; a Dequeue with a buffer still checked
// out panics. Dequeue is woken only by Enqueue, there is no timeout.
func (q *Queue) Dequeue() Buffer {
	q.mu.Lock()
	if q.current != nil {
		q.mu.Unlock()
		panic("feedq: Dequeue with a buffer still checked out")
	}

	start := time.Now()
	for len(q.pending) == 0 {
		q.more.Wait()
	}

	// Re-checked after the wait: a second consumer may have slipped in
	// and checked a buffer out while this one was parked.
	if q.current != nil {
		q.mu.Unlock()
		panic("feedq: Dequeue with a buffer still checked out")
	}

	buf := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	if len(q.pending) == 0 {
		q.pending = nil
	}
	q.current = buf

	if q.met != nil {
		q.met.pending.Set(float64(len(q.pending)))
		q.met.checkedOut.Set(1)
		q.met.dequeueWait.Observe(time.Since(start).Seconds())
	}
	q.mu.Unlock()

	q.log.dequeued(buf.Len())

	return buf
}

// Acquire is [Queue.Dequeue] for consumers that already know the byte
// count they expect, for example because it was agreed on out of band. It
// panics if the head buffer's length differs and returns the buffer's
// storage directly. The returned slice must be handed back through
// [Queue.Release].
func (q *Queue) Acquire(length int) []byte {
	buf := q.Dequeue()
	if buf.Len() != length {
		panic(fmt.Sprintf("feedq: buffer holds %d bytes, consumer expected %d", buf.Len(), length))
	}
	return buf.Bytes()
}

// Release hands the checked-out buffer back to the queue: data must be the
// exact slice obtained from that buffer, with the same length and the same
// backing array. Release clears the checked-out slot and fires the
// buffer's Done notification.
//
// A mismatched data means producer and consumer have desynchronized, so
// Release panics without notifying anything.
func (q *Queue) Release(data []byte) {
	q.mu.Lock()
	buf := q.current
	if buf == nil {
		q.mu.Unlock()
		panic("feedq: Release without a checked-out buffer")
	}
	if !sameStorage(data, buf.Bytes()) {
		q.mu.Unlock()
		panic("feedq: released buffer does not match the checked-out buffer")
	}

	q.current = nil
	q.released++
	if q.met != nil {
		q.met.checkedOut.Set(0)
		q.met.released.Inc()
	}
	length := buf.Len()
	q.mu.Unlock()

	// Done may re-enter the queue, never invoke it under the lock. The
	// buffer must not be touched afterwards, its owner may already have
	// reclaimed the storage.
	buf.Done()

	q.log.released(length)
}

// Reset drains every buffer still waiting in the queue, firing Done for
// each one in delivery order, and leaves the queue empty. A checked-out
// buffer is not touched: it stays with the consumer and must still be
// released.
//
// Reset is meant for the moments when the consumer is quiescent, such as
// between two computations. It never wakes a blocked Dequeue and it does
// not detect a Dequeue or Release racing with it.
func (q *Queue) Reset() {
	q.mu.Lock()
	drained := q.pending
	q.pending = nil
	q.drained += uint64(len(drained))
	if q.met != nil {
		q.met.pending.Set(0)
		q.met.drained.Add(float64(len(drained)))
	}
	q.mu.Unlock()

	for _, buf := range drained {
		buf.Done()
	}

	q.log.reset(len(drained))
}

// Stats returns a point-in-time snapshot of the queue.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{
		Pending:    len(q.pending),
		CheckedOut: q.current != nil,
		Enqueued:   q.enqueued,
		Released:   q.released,
		Drained:    q.drained,
	}
}

// Stats is a snapshot of a [Queue]. Every enqueued buffer is at any moment
// in exactly one of four places, so
//
//	Enqueued == Released + Drained + Pending + (1 if CheckedOut)
//
// holds for every snapshot.
type Stats struct {
	// Pending is the number of buffers waiting to be dequeued.
	Pending int
	// CheckedOut reports whether a buffer is currently held by the
	// consumer.
	CheckedOut bool
	// Enqueued counts the buffers that ever entered the queue.
	Enqueued uint64
	// Released counts the buffers notified by [Queue.Release].
	Released uint64
	// Drained counts the buffers notified by [Queue.Reset].
	Drained uint64
}

// sameStorage reports whether two slices are views of the same buffer,
// meaning equal length and equal backing array. Zero-length slices have no
// stable data pointer, so they compare by length alone.
func sameStorage(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return unsafe.SliceData(a) == unsafe.SliceData(b)
}
