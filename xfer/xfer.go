// Package xfer implements the producer side of a buffer hand-off: wrapping
// raw payloads into chunks, enqueueing them as atomic batches and awaiting
// their completion.
//
// The feedq core deliberately has no timeouts or cancellation; everything
// context-aware lives here, layered on top of it.
package xfer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/tinyrt/feedq"
	"github.com/tinyrt/feedq/buffer"
)

// Send wraps every payload in a [buffer.Chunk] and enqueues the chunks on
// q as one atomic batch. It returns the chunks in payload order so the
// caller can await their completion. The payload slices stay borrowed
// until then.
func Send(q *feedq.Queue, payloads ...[]byte) []*buffer.Chunk {
	chunks := make([]*buffer.Chunk, len(payloads))
	bufs := make([]feedq.Buffer, len(payloads))
	for i, p := range payloads {
		chunks[i] = buffer.Wrap(p)
		bufs[i] = chunks[i]
	}
	q.Enqueue(bufs...)
	return chunks
}

// SendAwait enqueues the payloads like [Send] and blocks until the
// consumer has finished with every one of them, or ctx is cancelled. When
// SendAwait returns nil the payload storage belongs to the caller again.
func SendAwait(ctx context.Context, q *feedq.Queue, payloads ...[]byte) error {
	if err := awaitAll(ctx, Send(q, payloads...)); err != nil {
		return fmt.Errorf("await send: %w", err)
	}
	return nil
}

// Recv enqueues one zeroed destination chunk per size on q, the outbound
// queue of a computation, and blocks until the consumer has filled and
// released them all, or ctx is cancelled. It returns the filled payloads
// in order.
func Recv(ctx context.Context, q *feedq.Queue, sizes ...int) ([][]byte, error) {
	chunks := make([]*buffer.Chunk, len(sizes))
	bufs := make([]feedq.Buffer, len(sizes))
	for i, n := range sizes {
		chunks[i] = buffer.Alloc(n)
		bufs[i] = chunks[i]
	}
	q.Enqueue(bufs...)

	if err := awaitAll(ctx, chunks); err != nil {
		return nil, fmt.Errorf("await recv: %w", err)
	}

	payloads := make([][]byte, len(chunks))
	for i, c := range chunks {
		payloads[i] = c.Bytes()
	}
	return payloads, nil
}

// Exchange feeds the in payloads through the inbound queue of d and
// collects len(outSizes) results from its outbound queue, concurrently.
// It returns the results once both directions have completed.
func Exchange(ctx context.Context, d *feedq.Duplex, in [][]byte, outSizes []int) ([][]byte, error) {
	var out [][]byte

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return SendAwait(ctx, d.Inbound(), in...)
	})
	g.Go(func() error {
		var err error
		out, err = Recv(ctx, d.Outbound(), outSizes...)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func awaitAll(ctx context.Context, chunks []*buffer.Chunk) error {
	for _, c := range chunks {
		if err := c.Await(ctx); err != nil {
			return err
		}
	}
	return nil
}
