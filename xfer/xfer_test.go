package xfer_test

import (
	"context"
	"strconv"
	"testing"
	"testing/synctest"

	"github.com/tinyrt/feedq"
	"github.com/tinyrt/feedq/internal/testing/require"
	"github.com/tinyrt/feedq/xfer"
)

func TestSend(t *testing.T) {
	q := feedq.NewQueue()

	chunks := xfer.Send(q, []byte("a"), []byte("bb"))
	require.Equal(t, len(chunks), 2)
	require.Equal(t, q.Stats(), feedq.Stats{Pending: 2, Enqueued: 2})

	data := q.Acquire(1)
	require.Equal(t, string(data), "a")
	q.Release(data)

	require.True(t, chunks[0].Completed())
	require.False(t, chunks[1].Completed())
}

func TestSendNothing(t *testing.T) {
	q := feedq.NewQueue()

	require.Equal(t, len(xfer.Send(q)), 0)
	require.Equal(t, q.Stats(), feedq.Stats{})
}

func TestSendAwait(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := feedq.NewQueue()

		go func() {
			for range 2 {
				q.Release(q.Dequeue().Bytes())
			}
		}()

		require.Nil(t, xfer.SendAwait(t.Context(), q, []byte("a"), []byte("b")))
	})
}

func TestSendAwaitCancelled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := feedq.NewQueue()
		ctx, cancel := context.WithCancel(t.Context())

		errs := make(chan error, 1)
		go func() {
			errs <- xfer.SendAwait(ctx, q, []byte("a"))
		}()

		// Nobody consumes, so only cancellation can unblock the sender.
		synctest.Wait()
		cancel()

		synctest.Wait()
		require.ErrorIs(t, <-errs, context.Canceled)
	})
}

func TestRecv(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		q := feedq.NewQueue()

		// Stand-in for a computation writing results into the destination
		// buffers.
		go func() {
			for i := range 2 {
				data := q.Acquire(3)
				copy(data, "ok"+strconv.Itoa(i))
				q.Release(data)
			}
		}()

		payloads, err := xfer.Recv(t.Context(), q, 3, 3)
		require.Nil(t, err)
		require.Equal(t, payloads, [][]byte{[]byte("ok0"), []byte("ok1")})
	})
}

func TestExchange(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := feedq.NewDuplex()

		// Stand-in for a computation: consume one inbound buffer, echo its
		// content outbound.
		go func() {
			in := d.Inbound().Dequeue()
			payload := append([]byte(nil), in.Bytes()...)
			d.Inbound().Release(in.Bytes())

			out := d.Outbound().Acquire(len(payload))
			copy(out, payload)
			d.Outbound().Release(out)
		}()

		out, err := xfer.Exchange(t.Context(), d, [][]byte{[]byte("ping")}, []int{4})
		require.Nil(t, err)
		require.Equal(t, out, [][]byte{[]byte("ping")})
	})
}

func TestExchangeCancelled(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := feedq.NewDuplex()
		ctx, cancel := context.WithCancel(t.Context())

		errs := make(chan error, 1)
		go func() {
			_, err := xfer.Exchange(ctx, d, [][]byte{[]byte("ping")}, []int{1})
			errs <- err
		}()

		synctest.Wait()
		cancel()

		synctest.Wait()
		require.ErrorIs(t, <-errs, context.Canceled)
	})
}
