package buffer_test

import (
	"context"
	"testing"
	"testing/synctest"

	"github.com/tinyrt/feedq"
	"github.com/tinyrt/feedq/buffer"
	"github.com/tinyrt/feedq/internal/testing/require"
)

var _ feedq.Buffer = (*buffer.Chunk)(nil)

func TestWrap(t *testing.T) {
	data := []byte("payload")
	c := buffer.Wrap(data)

	require.Equal(t, c.Len(), 7)
	require.Equal(t, c.Bytes(), data)
	require.False(t, c.Completed())
}

func TestAlloc(t *testing.T) {
	c := buffer.Alloc(4)

	require.Equal(t, c.Len(), 4)
	require.Equal(t, c.Bytes(), []byte{0, 0, 0, 0})
}

func TestDoneOnlyOnce(t *testing.T) {
	c := buffer.Wrap([]byte{1})

	c.Done()
	require.True(t, c.Completed())

	require.PanicWithError(t, "buffer: Done called twice on the same chunk", func() {
		c.Done()
	})
}

func TestAwait(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := buffer.Wrap([]byte{1})

		errs := make(chan error, 1)
		go func() {
			errs <- c.Await(context.Background())
		}()

		// The waiter must stay parked until Done fires.
		synctest.Wait()
		select {
		case <-errs:
			t.Fatal("Await returned before Done")
		default:
		}

		c.Done()
		require.Nil(t, <-errs)
	})
}

func TestAwaitAfterDone(t *testing.T) {
	c := buffer.Wrap([]byte{1})
	c.Done()

	require.Nil(t, c.Await(context.Background()))
}

func TestAwaitCancelled(t *testing.T) {
	c := buffer.Wrap([]byte{1})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, c.Await(ctx), context.Canceled)
}
