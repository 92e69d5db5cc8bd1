// Package buffer provides ready-made implementations of the feedq.Buffer
// capability.
package buffer

import (
	"context"
	"sync/atomic"

	"github.com/tinyrt/feedq"
)

var _ feedq.Buffer = (*Chunk)(nil)

// Completion states of a chunk.
const (
	chunkPending uint32 = iota
	chunkDone
)

// Chunk is a feedq.Buffer over a plain byte slice with a one-shot
// completion latch: Done flips the latch exactly once and unblocks every
// Await, and a second Done panics, so a double notification cannot pass
// unnoticed.
//
// The latch is safe for concurrent use. The storage itself follows the
// usual hand-off discipline and has no synchronization of its own.
type Chunk struct {
	data  []byte
	state atomic.Uint32
	done  chan struct{}
}

// Wrap borrows data as the chunk's storage. The caller must keep data
// alive and unchanged until the chunk completes.
func Wrap(data []byte) *Chunk {
	return &Chunk{
		data: data,
		done: make(chan struct{}),
	}
}

// Alloc creates a chunk over fresh zeroed storage of n bytes, typically a
// destination for a computation's results.
func Alloc(n int) *Chunk {
	return Wrap(make([]byte, n))
}

// Len returns the byte count of the chunk.
func (c *Chunk) Len() int {
	return len(c.data)
}

// Bytes returns the chunk's storage.
func (c *Chunk) Bytes() []byte {
	return c.data
}

// Done flips the completion latch and unblocks Await. It is normally
// called by the queue the chunk was enqueued on, exactly once; a second
// call panics.
func (c *Chunk) Done() {
	if !c.state.CompareAndSwap(chunkPending, chunkDone) {
		panic("buffer: Done called twice on the same chunk")
	}
	close(c.done)
}

// Completed reports whether Done has fired.
func (c *Chunk) Completed() bool {
	return c.state.Load() == chunkDone
}

// Await blocks until the chunk completes or ctx is cancelled.
func (c *Chunk) Await(ctx context.Context) error {
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
